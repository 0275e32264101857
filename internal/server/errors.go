package server

import (
	"errors"
	"net/http"

	authdomain "github.com/evacdesk/evacdesk/internal/auth/domain"
	identitydomain "github.com/evacdesk/evacdesk/internal/identity/domain"
	onboardingdomain "github.com/evacdesk/evacdesk/internal/onboarding/domain"
	paymentdomain "github.com/evacdesk/evacdesk/internal/payment/domain"
	"github.com/gin-gonic/gin"
)

var (
	ErrUnauthorized   = errors.New("Not authenticated")
	ErrInvalidRequest = errors.New("invalid request body")
)

// errorResponse is the uniform failure body: success=false plus one
// human-readable message. Raw driver and SDK errors never reach it.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, message := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Success: false, Error: message})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, string) {
	var verr *onboardingdomain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Message
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, authdomain.ErrWeakPassword):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, authdomain.ErrTokenInvalid):
		// Deliberately low-information: wrong, expired, and already-used
		// tokens are indistinguishable to the caller.
		return http.StatusBadRequest, "invalid or expired token"
	case errors.Is(err, authdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, authdomain.ErrInvalidSession), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "Not authenticated"
	case errors.Is(err, identitydomain.ErrEmailTaken):
		return http.StatusConflict, "an account with this email already exists"
	case errors.Is(err, onboardingdomain.ErrPriceNotConfigured):
		return http.StatusInternalServerError, "payment setup is not configured for the selected plan"
	case errors.Is(err, onboardingdomain.ErrCheckoutFailed),
		errors.Is(err, paymentdomain.ErrGatewayUnavailable):
		return http.StatusInternalServerError, "payment setup did not complete"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
