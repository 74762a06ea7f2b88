// Package translator wraps the Azure Translator v3 REST endpoint.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"assessment-service/internal/apperr"
)

// Translator converts text between languages. Implementations return the
// input unchanged when source and target match.
type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error)
}

// languageAliases maps short codes to the codes the service expects.
var languageAliases = map[string]string{
	"zh": "zh-Hans",
}

type Client struct {
	client   *http.Client
	endpoint string
	key      string
	region   string
}

func NewClient(endpoint, subscriptionKey, region string) *Client {
	return &Client{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: endpoint,
		key:      subscriptionKey,
		region:   region,
	}
}

type translateResult struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// Translate returns text rendered in targetLanguage. Identity translations
// short-circuit without a network call.
func (c *Client) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	if text == "" || sourceLanguage == targetLanguage {
		return text, nil
	}

	q := url.Values{}
	q.Set("api-version", "3.0")
	q.Set("from", resolveLanguage(sourceLanguage))
	q.Set("to", resolveLanguage(targetLanguage))

	payload, err := json.Marshal([]map[string]string{{"Text": text}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/translate?"+q.Encode(), bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Ocp-Apim-Subscription-Region", c.region)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperr.Collaborator("translation request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Collaborator("failed to read translation response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperr.Collaborator(
			fmt.Sprintf("translator api error (status %d)", resp.StatusCode),
			fmt.Errorf("%s", string(body)),
		)
	}

	var results []translateResult
	if err := json.Unmarshal(body, &results); err != nil {
		return "", apperr.Collaborator("failed to decode translation response", err)
	}
	if len(results) == 0 || len(results[0].Translations) == 0 {
		return "", apperr.Collaborator("translator returned no results", nil)
	}
	return results[0].Translations[0].Text, nil
}

func resolveLanguage(code string) string {
	if alias, ok := languageAliases[code]; ok {
		return alias
	}
	return code
}
