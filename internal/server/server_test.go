package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/evacdesk/evacdesk/internal/auth/domain"
	"github.com/evacdesk/evacdesk/internal/auth/session"
	"github.com/evacdesk/evacdesk/internal/config"
	identitydomain "github.com/evacdesk/evacdesk/internal/identity/domain"
	onboardingdomain "github.com/evacdesk/evacdesk/internal/onboarding/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fakeAuthService struct {
	loginResult  *authdomain.LoginResult
	loginErr     error
	forgotCalls  int
	resetErr     error
	acceptResult *authdomain.LoginResult
	acceptErr    error
	authUser     *identitydomain.User
	authErr      error
	status       *authdomain.ResetTokenStatus
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*authdomain.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResult, nil
}

func (f *fakeAuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	f.forgotCalls++
	return authdomain.ForgotPasswordMessage, nil
}

func (f *fakeAuthService) ValidateResetToken(ctx context.Context, rawToken string) (*authdomain.ResetTokenStatus, error) {
	if f.status != nil {
		return f.status, nil
	}
	return &authdomain.ResetTokenStatus{}, nil
}

func (f *fakeAuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	return f.resetErr
}

func (f *fakeAuthService) AcceptInvite(ctx context.Context, rawToken, password string) (*authdomain.LoginResult, error) {
	if f.acceptErr != nil {
		return nil, f.acceptErr
	}
	return f.acceptResult, nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*identitydomain.User, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.authUser, nil
}

type fakeOnboardingService struct {
	result *onboardingdomain.Result
	err    error
	last   onboardingdomain.Request
}

func (f *fakeOnboardingService) Onboard(ctx context.Context, req onboardingdomain.Request) (*onboardingdomain.Result, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testUser() *identitydomain.User {
	return &identitydomain.User{
		ID:           snowflake.ID(200),
		Email:        "a@acme.com",
		Name:         "Alice",
		Role:         identitydomain.RoleAdmin,
		InviteStatus: identitydomain.InviteAccepted,
	}
}

func newTestServer(t *testing.T, authsvc *fakeAuthService, onboardingsvc *fakeOnboardingService) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		SessionSecret: "test-secret",
		SessionTTL:    7 * 24 * time.Hour,
	}

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())

	return NewServer(r, cfg, zap.NewNop(), authsvc, onboardingsvc, session.NewManager(cfg))
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == session.DefaultCookieName {
			return cookie
		}
	}
	return nil
}
