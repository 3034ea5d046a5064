package handlers

import (
	"errors"
	"net/http"

	"github.com/TheGojiOG/mcadmin/internal/server"
	"github.com/TheGojiOG/mcadmin/internal/systemd"
	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, server.ErrPolicyDenied):
		status = http.StatusForbidden
	case errors.Is(err, server.ErrInvalidArgument), errors.Is(err, systemd.ErrInvalidLineCount):
		status = http.StatusBadRequest
	case errors.Is(err, systemd.ErrUnknownService):
		status = http.StatusNotFound
	case errors.Is(err, server.ErrExecution):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
