package server

import (
	"net/http"

	identitydomain "github.com/evacdesk/evacdesk/internal/identity/domain"
	onboardingdomain "github.com/evacdesk/evacdesk/internal/onboarding/domain"
	orgdomain "github.com/evacdesk/evacdesk/internal/organization/domain"
	"github.com/gin-gonic/gin"
)

type onboardingResponse struct {
	Success bool           `json:"success"`
	Data    onboardingData `json:"data"`
}

type onboardingData struct {
	Organization  *orgdomain.Organization `json:"organization"`
	Admin         *identitydomain.User    `json:"admin"`
	InvitedAdmins []*identitydomain.User  `json:"invitedAdmins"`
	CheckoutURL   string                  `json:"checkoutUrl,omitempty"`
}

// Onboarding provisions a tenant and logs its owner in. Invitees whose
// creation failed are omitted from the response; their failure was already
// logged and must not fail the request.
func (s *Server) Onboarding(c *gin.Context) {
	var req onboardingdomain.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.onboardingsvc.Onboard(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	invited := make([]*identitydomain.User, 0, len(result.InvitedAdmins))
	for _, outcome := range result.InvitedAdmins {
		if outcome.User != nil {
			invited = append(invited, outcome.User)
		}
	}

	c.JSON(http.StatusCreated, onboardingResponse{
		Success: true,
		Data: onboardingData{
			Organization:  result.Organization,
			Admin:         result.Admin,
			InvitedAdmins: invited,
			CheckoutURL:   result.CheckoutURL,
		},
	})
}
