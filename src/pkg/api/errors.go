package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindnoscape/web-app/src/pkg/data"
	"mindnoscape/web-app/src/pkg/log"
)

// Messages returned to clients.
const (
	msgUnauthorized     = "Not authorized, no token"
	msgInvalidToken     = "Not authorized, token failed"
	msgNotFound         = "Mind map not found"
	msgNoMindmap        = "No mind map found for this user."
	msgInvalidCreds     = "Invalid email or password"
	msgUserExists       = "User already exists"
	msgInternal         = "Server error"
	msgTooManyRequests  = "Too many requests, try again later"
	msgRegisterComplete = "User registered successfully"
	msgLoginComplete    = "Logged in successfully"
)

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// respondDataError maps data layer errors onto HTTP status codes.
func respondDataError(c *gin.Context, logger *log.Logger, err error) {
	switch {
	case errors.Is(err, data.ErrNotFound):
		respondError(c, http.StatusNotFound, msgNotFound)
	case errors.Is(err, data.ErrInvalidDocument), errors.Is(err, data.ErrInvalidUser):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, data.ErrUserExists):
		respondError(c, http.StatusConflict, msgUserExists)
	case errors.Is(err, data.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, msgInvalidCreds)
	default:
		logger.Error(c.Request.Context(), "Request failed", log.Fields{"path": c.FullPath(), "error": err})
		respondError(c, http.StatusInternalServerError, msgInternal)
	}
}
