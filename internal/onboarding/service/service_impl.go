package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/evacdesk/evacdesk/internal/clock"
	"github.com/evacdesk/evacdesk/internal/config"
	identitydomain "github.com/evacdesk/evacdesk/internal/identity/domain"
	"github.com/evacdesk/evacdesk/internal/identity/password"
	"github.com/evacdesk/evacdesk/internal/onboarding/domain"
	orgdomain "github.com/evacdesk/evacdesk/internal/organization/domain"
	paymentdomain "github.com/evacdesk/evacdesk/internal/payment/domain"
	"github.com/evacdesk/evacdesk/internal/plan"
	emailprovider "github.com/evacdesk/evacdesk/internal/providers/email"
	"github.com/evacdesk/evacdesk/internal/token"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 6
	inviteTokenTTL    = 7 * 24 * time.Hour
)

type Service struct {
	log      *zap.Logger
	db       *gorm.DB
	node     *snowflake.Node
	users    identitydomain.Repository
	orgs     orgdomain.Repository
	payments paymentdomain.Repository
	gateway  paymentdomain.Gateway
	tokens   *token.Service
	mailer   emailprovider.Provider
	clock    clock.Clock
	cfg      config.Config
}

func New(
	log *zap.Logger,
	db *gorm.DB,
	node *snowflake.Node,
	users identitydomain.Repository,
	orgs orgdomain.Repository,
	payments paymentdomain.Repository,
	gateway paymentdomain.Gateway,
	tokens *token.Service,
	mailer emailprovider.Provider,
	clk clock.Clock,
	cfg config.Config,
) domain.Service {
	return &Service{
		log:      log.Named("onboarding.service"),
		db:       db,
		node:     node,
		users:    users,
		orgs:     orgs,
		payments: payments,
		gateway:  gateway,
		tokens:   tokens,
		mailer:   mailer,
		clock:    clk,
		cfg:      cfg,
	}
}

// Onboard provisions one tenant. The organization, its owning admin, and the
// admin back-reference commit in a single transaction; invites and checkout
// run afterwards against the already-valid tenant.
func (s *Service) Onboard(ctx context.Context, req domain.Request) (*domain.Result, error) {
	selectedPlan, interval, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	capacity, _ := plan.CapacityFor(selectedPlan)
	ownerEmail := strings.ToLower(strings.TrimSpace(req.Admin.Email))

	var (
		org   *orgdomain.Organization
		owner *identitydomain.User
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orgs := s.orgs.WithTx(tx)
		users := s.users.WithTx(tx)

		org = &orgdomain.Organization{
			ID:               s.node.Generate(),
			Name:             strings.TrimSpace(req.Organization.Name),
			Address:          strings.TrimSpace(req.Organization.Address),
			PhoneNumber:      strings.TrimSpace(req.Organization.PhoneNumber),
			Industry:         strings.TrimSpace(req.Organization.Industry),
			OrganizationSize: strings.TrimSpace(req.Organization.OrganizationSize),
			NatureOfWork:     strings.TrimSpace(req.Organization.NatureOfWork),
			ABN:              strings.TrimSpace(req.Organization.ABN),
			SelectedPlan:     selectedPlan,
			MaxFacilities:    capacity.MaxFacilities,
			TotalSeats:       capacity.TotalSeats,
			// The plan row itself carries no interval; the webhook that
			// confirms the charge needs it to pick the subscription term.
			Metadata: datatypes.JSONMap{"billing_interval": string(interval)},
		}
		if err := orgs.Create(ctx, org); err != nil {
			return fmt.Errorf("create organization: %w", err)
		}

		hashed, err := password.Hash(req.Admin.Password)
		if err != nil {
			return fmt.Errorf("hash owner password: %w", err)
		}
		orgID := org.ID
		owner = &identitydomain.User{
			ID:               s.node.Generate(),
			Email:            ownerEmail,
			Name:             strings.TrimSpace(req.Admin.Name),
			Phone:            strings.TrimSpace(req.Admin.Phone),
			PictureURL:       req.Admin.PictureURL,
			PasswordHash:     &hashed,
			OrganizationID:   &orgID,
			Role:             identitydomain.RoleAdmin,
			IsPointOfContact: true,
			InviteStatus:     identitydomain.InviteAccepted,
		}
		if err := users.Create(ctx, owner); err != nil {
			return err
		}

		if err := orgs.SetAdmin(ctx, org.ID, owner.ID); err != nil {
			return err
		}
		ownerID := owner.ID
		org.AdminID = &ownerID
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &domain.Result{
		Organization:  org,
		Admin:         owner,
		InvitedAdmins: make([]domain.InviteOutcome, 0, len(req.InvitedAdmins)),
	}

	for _, invite := range req.InvitedAdmins {
		result.InvitedAdmins = append(result.InvitedAdmins, s.inviteAdmin(ctx, org, owner, invite))
	}

	if selectedPlan.IsPaid() {
		checkoutURL, err := s.startCheckout(ctx, org, owner, selectedPlan, interval, req.StripeSessionID)
		if err != nil {
			return nil, err
		}
		result.CheckoutURL = checkoutURL
	}

	rawToken, expiresAt, err := s.tokens.IssueSession(owner.ID)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	result.RawToken = rawToken
	result.ExpiresAt = expiresAt

	return result, nil
}

// inviteAdmin creates one pending co-admin and sends the invite email. Both
// steps are best-effort: a failure is recorded in the outcome and onboarding
// moves on to the next invitee.
func (s *Service) inviteAdmin(ctx context.Context, org *orgdomain.Organization, owner *identitydomain.User, invite domain.InviteInput) domain.InviteOutcome {
	email := strings.ToLower(strings.TrimSpace(invite.Email))

	rawToken, err := token.NewOneTimeToken()
	if err != nil {
		s.log.Error("failed to generate invite token", zap.String("email", email), zap.Error(err))
		return domain.InviteOutcome{Err: err}
	}

	orgID := org.ID
	expires := s.clock.Now().Add(inviteTokenTTL)
	user := &identitydomain.User{
		ID:                 s.node.Generate(),
		Email:              email,
		Name:               strings.TrimSpace(invite.Name),
		Phone:              strings.TrimSpace(invite.Phone),
		PictureURL:         invite.PictureURL,
		OrganizationID:     &orgID,
		Role:               identitydomain.RoleAdmin,
		InviteStatus:       identitydomain.InvitePending,
		InviteToken:        &rawToken,
		InviteTokenExpires: &expires,
		Metadata:           datatypes.JSONMap{"invited_by": owner.ID.String()},
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.log.Warn("failed to create invited admin",
			zap.String("email", email),
			zap.Int64("organization_id", org.ID.Int64()),
			zap.Error(err),
		)
		return domain.InviteOutcome{Err: err}
	}

	subject, html, err := emailprovider.RenderInvite(user.Name, org.Name, s.cfg.BaseURL, rawToken)
	if err == nil {
		err = s.mailer.Send(ctx, []string{email}, subject, html)
	}
	if err != nil {
		s.log.Warn("failed to send invite email", zap.String("email", email), zap.Error(err))
		return domain.InviteOutcome{User: user}
	}

	return domain.InviteOutcome{User: user, EmailSent: true}
}

// startCheckout resolves the configured price, asks the gateway for a hosted
// session, and records the pending payment keyed to the session id. When the
// caller already started a checkout flow client-side, its session id is
// recorded instead of opening a new one.
func (s *Service) startCheckout(ctx context.Context, org *orgdomain.Organization, owner *identitydomain.User, selectedPlan plan.Plan, interval plan.Interval, externalSessionID string) (string, error) {
	if externalSessionID != "" {
		sessionID := externalSessionID
		payment := &paymentdomain.Payment{
			ID:              s.node.Generate(),
			OrganizationID:  org.ID,
			UserID:          owner.ID,
			Plan:            selectedPlan,
			Currency:        "aud",
			Status:          paymentdomain.StatusPending,
			StripeSessionID: &sessionID,
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return "", fmt.Errorf("record payment: %w", err)
		}
		return "", nil
	}

	priceID, ok := s.cfg.Stripe.PriceID(string(selectedPlan), string(interval))
	if !ok {
		s.log.Error("no price configured",
			zap.String("plan", string(selectedPlan)),
			zap.String("interval", string(interval)),
		)
		return "", domain.ErrPriceNotConfigured
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, paymentdomain.CheckoutRequest{
		PriceID:           priceID,
		CustomerEmail:     owner.Email,
		SuccessURL:        s.cfg.Stripe.SuccessURL,
		CancelURL:         s.cfg.Stripe.CancelURL,
		ClientReferenceID: org.ID.String(),
	})
	if err != nil {
		s.log.Error("checkout session creation failed",
			zap.Int64("organization_id", org.ID.Int64()),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", domain.ErrCheckoutFailed, err)
	}

	sessionID := session.ID
	payment := &paymentdomain.Payment{
		ID:              s.node.Generate(),
		OrganizationID:  org.ID,
		UserID:          owner.ID,
		Plan:            selectedPlan,
		Currency:        "aud",
		Status:          paymentdomain.StatusPending,
		StripeSessionID: &sessionID,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return "", fmt.Errorf("record payment: %w", err)
	}

	return session.URL, nil
}

// validate fails the whole request before any write. Messages accumulate so
// the caller sees every problem at once.
func (s *Service) validate(req domain.Request) (plan.Plan, plan.Interval, error) {
	var problems []string

	require := func(value, field string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, field+" is required")
		}
	}

	require(req.Organization.Name, "organization name")
	require(req.Organization.Address, "organization address")
	require(req.Organization.PhoneNumber, "organization phone number")
	require(req.Organization.Industry, "organization industry")
	require(req.Organization.OrganizationSize, "organization size")

	selectedPlan, planOK := plan.Parse(req.Organization.SelectedPlan)
	if !planOK {
		problems = append(problems, "selected plan is not recognized")
	}
	interval := plan.Monthly
	if req.Organization.BillingInterval != "" {
		var ok bool
		interval, ok = plan.ParseInterval(req.Organization.BillingInterval)
		if !ok {
			problems = append(problems, "billing interval must be MONTHLY or YEARLY")
		}
	}

	require(req.Admin.Name, "admin name")
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Admin.Email)); err != nil {
		problems = append(problems, "admin email is invalid")
	}
	if len(req.Admin.Password) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("admin password must be at least %d characters", minPasswordLength))
	}

	seen := map[string]bool{strings.ToLower(strings.TrimSpace(req.Admin.Email)): true}
	for i, invite := range req.InvitedAdmins {
		if strings.TrimSpace(invite.Name) == "" {
			problems = append(problems, fmt.Sprintf("invited admin %d: name is required", i+1))
		}
		email := strings.ToLower(strings.TrimSpace(invite.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			problems = append(problems, fmt.Sprintf("invited admin %d: email is invalid", i+1))
			continue
		}
		if seen[email] {
			problems = append(problems, fmt.Sprintf("invited admin %d: duplicate email %s", i+1, email))
		}
		seen[email] = true
	}

	if len(problems) > 0 {
		return "", "", &domain.ValidationError{Message: strings.Join(problems, "; ")}
	}
	return selectedPlan, interval, nil
}
