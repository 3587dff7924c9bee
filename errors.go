package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Sentinel errors for the auth core. Domain code returns these; httpError
// maps them to statuses and client-facing messages at the handler edge.
// Anything unrecognized is a 500 with no detail leaked.
var (
	ErrValidation          = errors.New("validation failed")
	ErrAlreadyExists       = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrResetToken          = errors.New("invalid or expired reset token")
)

func httpError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials."})
	case errors.Is(err, ErrInvalidRefreshToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
	case errors.Is(err, ErrResetToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token."})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// validationErrors flattens a binding failure into a field -> reason map so
// clients get per-field detail instead of one opaque string.
func validationErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[strings.ToLower(fe.Field())] = fe.Tag()
		}
		return out
	}
	out["body"] = err.Error()
	return out
}
