package payout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"

	"github.com/fastfare/fastfare-backend/pkg/config"
)

// Request describes a single transfer to a partner's linked account.
type Request struct {
	// Account is the provider-side linked account identifier.
	Account string
	// AmountPaise is the transfer amount in paise.
	AmountPaise int64
	// Reference is our withdrawal request id, surfaced in provider notes.
	Reference string
}

// Result carries the provider-side identifiers for a created transfer.
type Result struct {
	ProviderRef string
	Status      string
}

// Provider is the payout surface the withdrawal workflow depends on.
type Provider interface {
	CreatePayout(ctx context.Context, req Request) (*Result, error)
}

// SignatureVerifier validates provider webhook payloads.
type SignatureVerifier interface {
	VerifyWebhookSignature(body, signature string) bool
}

type transferAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Client implements Provider against the Razorpay transfers API.
type Client struct {
	transfers     transferAPI
	webhookSecret string
}

// New builds a payout client from configuration.
func New(cfg config.RazorpayConfig) (*Client, error) {
	if strings.TrimSpace(cfg.KeyID) == "" || strings.TrimSpace(cfg.KeySecret) == "" {
		return nil, errors.New("razorpay key id and secret are required")
	}
	rz := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	return &Client{
		transfers:     rz.Transfer,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

// CreatePayout creates a transfer and returns the provider reference.
func (c *Client) CreatePayout(ctx context.Context, req Request) (*Result, error) {
	if c == nil || c.transfers == nil {
		return nil, errors.New("payout client not initialized")
	}
	if strings.TrimSpace(req.Account) == "" {
		return nil, errors.New("payout account is required")
	}
	if req.AmountPaise <= 0 {
		return nil, errors.New("payout amount must be positive")
	}

	data := map[string]interface{}{
		"account":  req.Account,
		"amount":   req.AmountPaise,
		"currency": "INR",
	}
	if req.Reference != "" {
		data["notes"] = map[string]interface{}{"withdrawal_request_id": req.Reference}
	}

	resp, err := c.transfers.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("creating transfer: %w", err)
	}

	result := &Result{}
	if id, ok := resp["id"].(string); ok {
		result.ProviderRef = id
	}
	if status, ok := resp["status"].(string); ok {
		result.Status = status
	}
	if result.ProviderRef == "" {
		return nil, errors.New("transfer response missing id")
	}
	return result, nil
}

// VerifyWebhookSignature checks the payload signature against the webhook secret.
func (c *Client) VerifyWebhookSignature(body, signature string) bool {
	if c == nil || c.webhookSecret == "" {
		return false
	}
	return utils.VerifyWebhookSignature(body, signature, c.webhookSecret)
}
