// Package domain defines the tenant-provisioning contract: one request
// creates an organization, its owning admin, any invited co-admins, and, for
// paid plans, a checkout session.
package domain

import (
	"context"
	"errors"
	"time"

	identitydomain "github.com/evacdesk/evacdesk/internal/identity/domain"
	orgdomain "github.com/evacdesk/evacdesk/internal/organization/domain"
)

var (
	// ErrPriceNotConfigured means a paid plan was selected but no provider
	// price id exists for the (plan, interval) pair. This is an operator
	// misconfiguration, never a silent fallback to free behavior.
	ErrPriceNotConfigured = errors.New("no price configured for selected plan")

	// ErrCheckoutFailed means the tenant and its owner exist but the payment
	// gateway could not produce a checkout session.
	ErrCheckoutFailed = errors.New("checkout session creation failed")
)

// ValidationError carries the joined field messages from payload validation.
// It is raised before any write occurs.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// OrganizationInput describes the tenant being provisioned. NatureOfWork and
// ABN are the only optional attributes.
type OrganizationInput struct {
	Name             string `json:"name"`
	Address          string `json:"address"`
	PhoneNumber      string `json:"phoneNumber"`
	Industry         string `json:"industry"`
	OrganizationSize string `json:"organizationSize"`
	NatureOfWork     string `json:"natureOfWork"`
	ABN              string `json:"abn"`
	SelectedPlan     string `json:"selectedPlan"`
	BillingInterval  string `json:"billingInterval"`
}

// AdminInput describes the owning admin. The owner sets their password at
// signup and never goes through the invite flow.
type AdminInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone"`
	PictureURL string `json:"pictureUrl"`
}

// InviteInput describes a co-admin who will receive an invite email and set
// their own password on acceptance.
type InviteInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	PictureURL string `json:"pictureUrl"`
}

type Request struct {
	Organization    OrganizationInput `json:"organization"`
	Admin           AdminInput        `json:"admin"`
	InvitedAdmins   []InviteInput     `json:"invitedAdmins"`
	StripeSessionID string            `json:"stripeSessionId"`
}

// InviteOutcome reports one invitee's fate. A nil Err with EmailSent=false
// means the user row exists but the notification was dropped; onboarding
// treats both as non-fatal.
type InviteOutcome struct {
	User      *identitydomain.User
	EmailSent bool
	Err       error
}

type Result struct {
	Organization  *orgdomain.Organization
	Admin         *identitydomain.User
	InvitedAdmins []InviteOutcome
	CheckoutURL   string
	// RawToken is the owner's session so the client lands authenticated.
	RawToken  string
	ExpiresAt time.Time
}

type Service interface {
	Onboard(ctx context.Context, req Request) (*Result, error)
}
