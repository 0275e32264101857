package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/evacdesk/evacdesk/internal/clock"
	"github.com/evacdesk/evacdesk/internal/config"
	identitydomain "github.com/evacdesk/evacdesk/internal/identity/domain"
	identityrepo "github.com/evacdesk/evacdesk/internal/identity/repository"
	"github.com/evacdesk/evacdesk/internal/onboarding/domain"
	orgdomain "github.com/evacdesk/evacdesk/internal/organization/domain"
	orgrepo "github.com/evacdesk/evacdesk/internal/organization/repository"
	paymentdomain "github.com/evacdesk/evacdesk/internal/payment/domain"
	paymentrepo "github.com/evacdesk/evacdesk/internal/payment/repository"
	"github.com/evacdesk/evacdesk/internal/token"
	"github.com/evacdesk/evacdesk/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeGateway struct {
	session *paymentdomain.CheckoutSession
	err     error
	calls   []paymentdomain.CheckoutRequest
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, req paymentdomain.CheckoutRequest) (*paymentdomain.CheckoutSession, error) {
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

type flakyMailer struct {
	failFor map[string]bool
	sent    []string
}

func (m *flakyMailer) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	if m.failFor[to[0]] {
		return errors.New("smtp unreachable")
	}
	m.sent = append(m.sent, to[0])
	return nil
}

type fixture struct {
	svc     domain.Service
	db      *gorm.DB
	gateway *fakeGateway
	mailer  *flakyMailer
	users   identitydomain.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&orgdomain.Organization{}, &identitydomain.User{}, &paymentdomain.Payment{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	cfg := config.Config{
		BaseURL:       "http://localhost:3000",
		SessionSecret: "test-secret",
		SessionTTL:    7 * 24 * time.Hour,
		Stripe: config.StripeConfig{
			SuccessURL: "http://localhost:3000/billing/success",
			CancelURL:  "http://localhost:3000/billing/cancel",
			PriceIDs: map[string]string{
				"TIER1_MONTHLY": "price_tier1_monthly",
				"TIER1_YEARLY":  "price_tier1_yearly",
			},
		},
	}

	fake := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	tokens, err := token.New(cfg, fake)
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}

	gateway := &fakeGateway{session: &paymentdomain.CheckoutSession{
		ID:  "cs_test_123",
		URL: "https://checkout.stripe.test/cs_test_123",
	}}
	mailer := &flakyMailer{failFor: map[string]bool{}}
	users := identityrepo.New(dbConn)

	svc := New(
		zap.NewNop(),
		dbConn,
		node,
		users,
		orgrepo.New(dbConn),
		paymentrepo.New(dbConn),
		gateway,
		tokens,
		mailer,
		fake,
		cfg,
	)

	return &fixture{svc: svc, db: dbConn, gateway: gateway, mailer: mailer, users: users}
}

func validRequest() domain.Request {
	return domain.Request{
		Organization: domain.OrganizationInput{
			Name:             "Acme",
			Address:          "1 Example St, Sydney",
			PhoneNumber:      "+61 2 9999 9999",
			Industry:         "Construction",
			OrganizationSize: "11-50",
			SelectedPlan:     "FREE",
		},
		Admin: domain.AdminInput{
			Name:     "Alice Admin",
			Email:    "a@acme.com",
			Password: "secret1",
		},
	}
}

func (f *fixture) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func TestOnboardFreePlan(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Onboard(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("onboard failed: %v", err)
	}

	if result.Organization.SelectedPlan != "FREE" {
		t.Fatalf("unexpected plan: %s", result.Organization.SelectedPlan)
	}
	if result.Organization.MaxFacilities != 1 || result.Organization.TotalSeats != 10 {
		t.Fatalf("capacity not frozen from catalogue: %+v", result.Organization)
	}
	if result.Organization.AdminID == nil || *result.Organization.AdminID != result.Admin.ID {
		t.Fatal("admin back-reference not written")
	}
	if result.Admin.Email != "a@acme.com" {
		t.Fatalf("unexpected admin email: %s", result.Admin.Email)
	}
	if result.Admin.InviteStatus != identitydomain.InviteAccepted {
		t.Fatal("owner must not go through the invite flow")
	}
	if len(result.InvitedAdmins) != 0 {
		t.Fatalf("expected no invited admins, got %d", len(result.InvitedAdmins))
	}
	if result.CheckoutURL != "" {
		t.Fatal("free plan must not produce a checkout URL")
	}
	if result.RawToken == "" {
		t.Fatal("expected session token for the owner")
	}
	if n := f.countRows(t, &paymentdomain.Payment{}); n != 0 {
		t.Fatalf("free plan must not create payments, got %d", n)
	}
	if len(f.gateway.calls) != 0 {
		t.Fatal("free plan must not call the gateway")
	}
}

func TestOnboardPaidPlan(t *testing.T) {
	f := newFixture(t)

	req := validRequest()
	req.Organization.SelectedPlan = "TIER1"
	req.Organization.BillingInterval = "YEARLY"

	result, err := f.svc.Onboard(context.Background(), req)
	if err != nil {
		t.Fatalf("onboard failed: %v", err)
	}

	if result.CheckoutURL != "https://checkout.stripe.test/cs_test_123" {
		t.Fatalf("unexpected checkout url: %s", result.CheckoutURL)
	}
	if len(f.gateway.calls) != 1 {
		t.Fatalf("expected one gateway call, got %d", len(f.gateway.calls))
	}
	call := f.gateway.calls[0]
	if call.PriceID != "price_tier1_yearly" {
		t.Fatalf("wrong price resolved: %s", call.PriceID)
	}
	if call.CustomerEmail != "a@acme.com" {
		t.Fatalf("checkout not keyed to owner email: %s", call.CustomerEmail)
	}

	var payment paymentdomain.Payment
	if err := f.db.First(&payment).Error; err != nil {
		t.Fatalf("expected payment row: %v", err)
	}
	if payment.Status != paymentdomain.StatusPending {
		t.Fatalf("expected PENDING payment, got %s", payment.Status)
	}
	if payment.StripeSessionID == nil || *payment.StripeSessionID != "cs_test_123" {
		t.Fatal("payment not keyed to the checkout session")
	}

	// The webhook needs the interval to pick the subscription term.
	var stored orgdomain.Organization
	if err := f.db.First(&stored, result.Organization.ID).Error; err != nil {
		t.Fatalf("reload org failed: %v", err)
	}
	if stored.Metadata["billing_interval"] != "YEARLY" {
		t.Fatalf("expected billing interval recorded, got %v", stored.Metadata)
	}
}

func TestOnboardPaidPlanNoPriceConfigured(t *testing.T) {
	f := newFixture(t)

	req := validRequest()
	req.Organization.SelectedPlan = "TIER2"

	_, err := f.svc.Onboard(context.Background(), req)
	if !errors.Is(err, domain.ErrPriceNotConfigured) {
		t.Fatalf("expected ErrPriceNotConfigured, got %v", err)
	}
	// The tenant itself survives; only checkout failed.
	if n := f.countRows(t, &orgdomain.Organization{}); n != 1 {
		t.Fatalf("expected tenant to remain, got %d organizations", n)
	}
	if n := f.countRows(t, &paymentdomain.Payment{}); n != 0 {
		t.Fatalf("expected no payment rows, got %d", n)
	}
}

func TestOnboardGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = paymentdomain.ErrGatewayUnavailable

	req := validRequest()
	req.Organization.SelectedPlan = "TIER1"

	_, err := f.svc.Onboard(context.Background(), req)
	if !errors.Is(err, domain.ErrCheckoutFailed) {
		t.Fatalf("expected ErrCheckoutFailed, got %v", err)
	}
	if n := f.countRows(t, &paymentdomain.Payment{}); n != 0 {
		t.Fatal("no payment row may exist without a checkout session")
	}
}

func TestOnboardExternalSessionID(t *testing.T) {
	f := newFixture(t)

	req := validRequest()
	req.Organization.SelectedPlan = "TIER1"
	req.StripeSessionID = "cs_live_external"

	result, err := f.svc.Onboard(context.Background(), req)
	if err != nil {
		t.Fatalf("onboard failed: %v", err)
	}
	if len(f.gateway.calls) != 0 {
		t.Fatal("external session id must not open a new checkout")
	}
	if result.CheckoutURL != "" {
		t.Fatal("no redirect needed when the caller already has a session")
	}

	var payment paymentdomain.Payment
	if err := f.db.First(&payment).Error; err != nil {
		t.Fatalf("expected payment row: %v", err)
	}
	if payment.StripeSessionID == nil || *payment.StripeSessionID != "cs_live_external" {
		t.Fatal("payment not keyed to the supplied session id")
	}
}

func TestOnboardInvites(t *testing.T) {
	f := newFixture(t)
	f.mailer.failFor["c@acme.com"] = true

	req := validRequest()
	req.InvitedAdmins = []domain.InviteInput{
		{Name: "Bob", Email: "b@acme.com"},
		{Name: "Carol", Email: "c@acme.com"},
	}

	result, err := f.svc.Onboard(context.Background(), req)
	if err != nil {
		t.Fatalf("onboard failed: %v", err)
	}
	if len(result.InvitedAdmins) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(result.InvitedAdmins))
	}

	bob := result.InvitedAdmins[0]
	if bob.User == nil || !bob.EmailSent || bob.Err != nil {
		t.Fatalf("unexpected outcome for b@acme.com: %+v", bob)
	}
	if bob.User.InviteStatus != identitydomain.InvitePending {
		t.Fatalf("expected PENDING invite, got %s", bob.User.InviteStatus)
	}
	if bob.User.InviteToken == nil || bob.User.InviteTokenExpires == nil {
		t.Fatal("expected invite token fields populated")
	}
	if bob.User.PasswordHash != nil {
		t.Fatal("invitee must have no password until acceptance")
	}
	if bob.User.Metadata["invited_by"] != result.Admin.ID.String() {
		t.Fatalf("expected inviter recorded, got %v", bob.User.Metadata)
	}

	// The mailer failure for Carol is non-fatal: her row still exists.
	carol := result.InvitedAdmins[1]
	if carol.User == nil || carol.EmailSent || carol.Err != nil {
		t.Fatalf("unexpected outcome for c@acme.com: %+v", carol)
	}
	if _, err := f.users.FindByEmail(context.Background(), "c@acme.com"); err != nil {
		t.Fatalf("expected carol persisted despite email failure: %v", err)
	}
}

func TestOnboardDuplicateInviteEmailSkipped(t *testing.T) {
	f := newFixture(t)

	// Pre-existing account collides with one invitee.
	first, err := f.svc.Onboard(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("first onboard failed: %v", err)
	}
	_ = first

	req := validRequest()
	req.Admin.Email = "owner2@other.com"
	req.Organization.Name = "Other Org"
	req.InvitedAdmins = []domain.InviteInput{
		{Name: "Taken", Email: "a@acme.com"},
		{Name: "Fresh", Email: "fresh@other.com"},
	}

	result, err := f.svc.Onboard(context.Background(), req)
	if err != nil {
		t.Fatalf("onboard failed: %v", err)
	}

	taken := result.InvitedAdmins[0]
	if !errors.Is(taken.Err, identitydomain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken for collided invitee, got %v", taken.Err)
	}
	fresh := result.InvitedAdmins[1]
	if fresh.User == nil || fresh.Err != nil {
		t.Fatalf("collision must not abort other invitees: %+v", fresh)
	}
}

func TestOnboardDuplicateOwnerEmailRollsBack(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Onboard(context.Background(), validRequest()); err != nil {
		t.Fatalf("first onboard failed: %v", err)
	}

	req := validRequest()
	req.Organization.Name = "Acme Again"
	_, err := f.svc.Onboard(context.Background(), req)
	if !errors.Is(err, identitydomain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	// The organization created before the owner insert must be rolled back.
	if n := f.countRows(t, &orgdomain.Organization{}); n != 1 {
		t.Fatalf("expected rollback to leave 1 organization, got %d", n)
	}
	if n := f.countRows(t, &identitydomain.User{}); n != 1 {
		t.Fatalf("expected rollback to leave 1 user, got %d", n)
	}
}

func TestOnboardValidation(t *testing.T) {
	f := newFixture(t)

	req := validRequest()
	req.Organization.Name = ""
	req.Admin.Password = "short"
	req.Organization.SelectedPlan = "PLATINUM"

	_, err := f.svc.Onboard(context.Background(), req)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, want := range []string{"organization name", "password", "plan"} {
		if !strings.Contains(verr.Message, want) {
			t.Fatalf("expected %q in message %q", want, verr.Message)
		}
	}

	// Fail-fast gate: nothing written.
	if n := f.countRows(t, &orgdomain.Organization{}); n != 0 {
		t.Fatalf("validation failure must not write, got %d organizations", n)
	}
	if n := f.countRows(t, &identitydomain.User{}); n != 0 {
		t.Fatalf("validation failure must not write, got %d users", n)
	}
}
