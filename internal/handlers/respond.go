package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"assessment-service/internal/apperr"
)

// respondError maps the error taxonomy onto HTTP statuses: not found 404,
// validation 400, collaborator 502, everything else 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindCollaborator:
		status = http.StatusBadGateway
	}

	message := err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) {
		message = ae.Message()
	}
	c.JSON(status, gin.H{"error": message})
}
