package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/config"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
	"github.com/fastfare/fastfare-backend/pkg/outbox/payloads"
)

func testRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{DomainTopic: "settlement-domain"})
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	return reg
}

func envelopeRow(t *testing.T, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, data interface{}) models.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
}

func TestNewEventRegistry_RequiresDomainTopic(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{}); err == nil {
		t.Fatalf("expected error without domain topic")
	}
}

func TestResolve_SettlementCompleted(t *testing.T) {
	reg := testRegistry(t)
	event := payloads.SettlementCompletedEvent{
		ScheduleID:       uuid.New(),
		SellerID:         uuid.New(),
		TotalAmountPaise: 125000,
		OrderCount:       4,
		CompletedAt:      time.Now().UTC(),
	}
	row := envelopeRow(t, enums.EventSettlementCompleted, enums.AggregateSettlement, event)

	resolved, err := reg.Resolve(row)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.Descriptor.Topic != "settlement-domain" {
		t.Fatalf("unexpected topic %s", resolved.Descriptor.Topic)
	}
	decoded, ok := resolved.Payload.(*payloads.SettlementCompletedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if decoded.TotalAmountPaise != event.TotalAmountPaise || decoded.OrderCount != event.OrderCount {
		t.Fatalf("payload mismatch: %+v", decoded)
	}
}

func TestResolve_UnknownEventTypeIsNonRetryable(t *testing.T) {
	reg := testRegistry(t)
	row := envelopeRow(t, enums.OutboxEventType("ghost_event"), enums.AggregateSettlement, map[string]string{})

	_, err := reg.Resolve(row)
	if err == nil {
		t.Fatalf("expected error for unknown event type")
	}
	var nonRetryable NonRetryableError
	if !errors.As(err, &nonRetryable) {
		t.Fatalf("expected NonRetryableError, got %T", err)
	}
}

func TestResolve_AggregateMismatchIsNonRetryable(t *testing.T) {
	reg := testRegistry(t)
	row := envelopeRow(t, enums.EventCODDisputed, enums.AggregateSeller, payloads.CODDisputedEvent{})

	_, err := reg.Resolve(row)
	var nonRetryable NonRetryableError
	if !errors.As(err, &nonRetryable) {
		t.Fatalf("expected NonRetryableError, got %v", err)
	}
}

func TestResolve_MissingPayloadIsNonRetryable(t *testing.T) {
	reg := testRegistry(t)
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`null`),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	row := models.OutboxEvent{
		EventType:     enums.EventWithdrawalRequested,
		AggregateType: enums.AggregateWithdrawal,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}

	_, err = reg.Resolve(row)
	var nonRetryable NonRetryableError
	if !errors.As(err, &nonRetryable) {
		t.Fatalf("expected NonRetryableError, got %v", err)
	}
}

func TestResolve_EveryEventTypeRegistered(t *testing.T) {
	reg := testRegistry(t)
	for _, eventType := range []enums.OutboxEventType{
		enums.EventEarningRecorded,
		enums.EventSettlementScheduled,
		enums.EventSettlementCompleted,
		enums.EventSettlementFailed,
		enums.EventSettlementHeld,
		enums.EventSettlementReleased,
		enums.EventTierChanged,
		enums.EventWithdrawalRequested,
		enums.EventWithdrawalApproved,
		enums.EventWithdrawalCompleted,
		enums.EventWithdrawalRejected,
		enums.EventCODCollected,
		enums.EventCODRemitted,
		enums.EventCODReconciled,
		enums.EventCODDisputed,
		enums.EventAdminOverride,
	} {
		if _, ok := reg.entries[eventType]; !ok {
			t.Fatalf("event type %s not registered", eventType)
		}
	}
}
