package payout

import (
	"context"
	"errors"
	"testing"

	"github.com/fastfare/fastfare-backend/pkg/config"
)

type fakeTransferAPI struct {
	lastData map[string]interface{}
	resp     map[string]interface{}
	err      error
}

func (f *fakeTransferAPI) Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	f.lastData = data
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestNew_RequiresCredentials(t *testing.T) {
	if _, err := New(config.RazorpayConfig{}); err == nil {
		t.Fatalf("expected error without credentials")
	}
	if _, err := New(config.RazorpayConfig{KeyID: "key", KeySecret: "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreatePayout(t *testing.T) {
	fake := &fakeTransferAPI{resp: map[string]interface{}{
		"id":     "trf_00000000000001",
		"status": "processed",
	}}
	client := &Client{transfers: fake}

	result, err := client.CreatePayout(context.Background(), Request{
		Account:     "acc_partner_1",
		AmountPaise: 250000,
		Reference:   "a1c6b7d8",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProviderRef != "trf_00000000000001" {
		t.Fatalf("unexpected provider ref %s", result.ProviderRef)
	}
	if result.Status != "processed" {
		t.Fatalf("unexpected status %s", result.Status)
	}
	if fake.lastData["account"] != "acc_partner_1" {
		t.Fatalf("account not forwarded: %+v", fake.lastData)
	}
	if fake.lastData["amount"] != int64(250000) {
		t.Fatalf("amount not forwarded: %+v", fake.lastData)
	}
	notes, ok := fake.lastData["notes"].(map[string]interface{})
	if !ok || notes["withdrawal_request_id"] != "a1c6b7d8" {
		t.Fatalf("reference not forwarded: %+v", fake.lastData)
	}
}

func TestCreatePayout_Validation(t *testing.T) {
	client := &Client{transfers: &fakeTransferAPI{}}

	if _, err := client.CreatePayout(context.Background(), Request{AmountPaise: 100}); err == nil {
		t.Fatalf("expected error without account")
	}
	if _, err := client.CreatePayout(context.Background(), Request{Account: "acc_x", AmountPaise: 0}); err == nil {
		t.Fatalf("expected error for non-positive amount")
	}
}

func TestCreatePayout_ProviderFailures(t *testing.T) {
	client := &Client{transfers: &fakeTransferAPI{err: errors.New("gateway down")}}
	if _, err := client.CreatePayout(context.Background(), Request{Account: "acc_x", AmountPaise: 100}); err == nil {
		t.Fatalf("expected provider error to propagate")
	}

	client = &Client{transfers: &fakeTransferAPI{resp: map[string]interface{}{"status": "created"}}}
	if _, err := client.CreatePayout(context.Background(), Request{Account: "acc_x", AmountPaise: 100}); err == nil {
		t.Fatalf("expected error when response has no id")
	}
}
