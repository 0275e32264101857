// Package stripe implements the checkout gateway against the Stripe REST
// API. Only the hosted checkout-session creation lives here; webhook
// bookkeeping is a separate concern.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evacdesk/evacdesk/internal/config"
	paymentdomain "github.com/evacdesk/evacdesk/internal/payment/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestTimeout = 15 * time.Second

type Gateway struct {
	secretKey string
	apiBase   string
	client    *http.Client
	log       *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Gateway {
	return &Gateway{
		secretKey: cfg.Stripe.SecretKey,
		apiBase:   cfg.Stripe.APIBase,
		client:    &http.Client{Timeout: requestTimeout},
		log:       log.Named("payment.stripe"),
	}
}

type sessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateCheckoutSession creates a subscription-mode hosted checkout session.
// The request is not retried: a duplicate call would open a second checkout
// session the caller has no way to reconcile.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, req paymentdomain.CheckoutRequest) (*paymentdomain.CheckoutSession, error) {
	if strings.TrimSpace(g.secretKey) == "" {
		return nil, paymentdomain.ErrGatewayUnavailable
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("customer_email", req.CustomerEmail)
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("line_items[0][price]", req.PriceID)
	form.Set("line_items[0][quantity]", "1")
	if req.ClientReferenceID != "" {
		form.Set("client_reference_id", req.ClientReferenceID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.apiBase+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.log.Warn("checkout session request failed", zap.Error(err))
		return nil, paymentdomain.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, paymentdomain.ErrGatewayUnavailable
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		_ = json.Unmarshal(body, &apiErr)
		g.log.Warn("checkout session rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("error_type", apiErr.Error.Type),
		)
		return nil, fmt.Errorf("%w: status %d", paymentdomain.ErrGatewayUnavailable, resp.StatusCode)
	}

	var session sessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, paymentdomain.ErrGatewayUnavailable
	}
	if session.ID == "" || session.URL == "" {
		return nil, paymentdomain.ErrGatewayUnavailable
	}

	return &paymentdomain.CheckoutSession{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}
