package speech

import (
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips html tags", "Which <b>two</b> options?", "Which two options?"},
		{"escapes metacharacters", `a < b & "c"`, "a &lt; b &amp; &quot;c&quot;"},
		{"collapses whitespace", "one\n\ttwo   three ", "one two three"},
		{"plain text untouched", "What is Azure?", "What is Azure?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Fatalf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildSSML(t *testing.T) {
	ssml := BuildSSML("Hello <i>world</i>", "en-US-JennyMultilingualNeural", "-10%", "0%")

	for _, want := range []string{
		`xml:lang="en-US"`,
		`<voice name="en-US-JennyMultilingualNeural">`,
		`<prosody rate="-10%" pitch="0%">`,
		"Hello world",
	} {
		if !strings.Contains(ssml, want) {
			t.Fatalf("ssml missing %q:\n%s", want, ssml)
		}
	}
	if strings.Contains(ssml, "<i>") {
		t.Fatal("markup from the input must not survive into ssml")
	}
}

func TestBuildSSMLDefaultsProsody(t *testing.T) {
	ssml := BuildSSML("hi", "vi-VN-HoaiMyNeural", "", "")
	if !strings.Contains(ssml, `rate="0%" pitch="0%"`) {
		t.Fatalf("empty prosody should default to 0%%:\n%s", ssml)
	}
	if !strings.Contains(ssml, `xml:lang="vi-VN"`) {
		t.Fatalf("language should derive from the voice name:\n%s", ssml)
	}
}

func TestVoiceForLanguage(t *testing.T) {
	if got := VoiceForLanguage("vi", "en-US-AriaNeural"); got != "vi-VN-HoaiMyNeural" {
		t.Fatalf("expected vietnamese voice, got %s", got)
	}
	if got := VoiceForLanguage("xx", "en-US-AriaNeural"); got != "en-US-AriaNeural" {
		t.Fatalf("unknown language should fall back, got %s", got)
	}
}
