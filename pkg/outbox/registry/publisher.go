package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/config"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
	"github.com/fastfare/fastfare-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.DomainTopic == "" {
		return nil, fmt.Errorf("domain topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	domainTopic := cfg.DomainTopic

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventEarningRecorded,
			AggregateType:  enums.AggregateLedgerEntry,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.EarningRecordedEvent{} },
		},
		{
			EventType:      enums.EventSettlementScheduled,
			AggregateType:  enums.AggregateSettlement,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.SettlementScheduledEvent{} },
		},
		{
			EventType:      enums.EventSettlementCompleted,
			AggregateType:  enums.AggregateSettlement,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.SettlementCompletedEvent{} },
		},
		{
			EventType:      enums.EventSettlementFailed,
			AggregateType:  enums.AggregateSettlement,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.SettlementFailedEvent{} },
		},
		{
			EventType:      enums.EventSettlementHeld,
			AggregateType:  enums.AggregateSettlement,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.SettlementHeldEvent{} },
		},
		{
			EventType:      enums.EventSettlementReleased,
			AggregateType:  enums.AggregateSettlement,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.SettlementReleasedEvent{} },
		},
		{
			EventType:      enums.EventTierChanged,
			AggregateType:  enums.AggregateSeller,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.TierChangedEvent{} },
		},
	} {
		reg.register(desc)
	}
	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventWithdrawalRequested,
			AggregateType:  enums.AggregateWithdrawal,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.WithdrawalRequestedEvent{} },
		},
		{
			EventType:      enums.EventWithdrawalApproved,
			AggregateType:  enums.AggregateWithdrawal,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.WithdrawalApprovedEvent{} },
		},
		{
			EventType:      enums.EventWithdrawalCompleted,
			AggregateType:  enums.AggregateWithdrawal,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.WithdrawalCompletedEvent{} },
		},
		{
			EventType:      enums.EventWithdrawalRejected,
			AggregateType:  enums.AggregateWithdrawal,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.WithdrawalRejectedEvent{} },
		},
	} {
		reg.register(desc)
	}
	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventCODCollected,
			AggregateType:  enums.AggregateCODCollection,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.CODCollectedEvent{} },
		},
		{
			EventType:      enums.EventCODRemitted,
			AggregateType:  enums.AggregateCODCollection,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.CODRemittedEvent{} },
		},
		{
			EventType:      enums.EventCODReconciled,
			AggregateType:  enums.AggregateCODCollection,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.CODReconciledEvent{} },
		},
		{
			EventType:      enums.EventCODDisputed,
			AggregateType:  enums.AggregateCODCollection,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.CODDisputedEvent{} },
		},
	} {
		reg.register(desc)
	}
	reg.register(EventDescriptor{
		EventType:      enums.EventAdminOverride,
		AggregateType:  enums.AggregateAdminOverride,
		Topic:          domainTopic,
		PayloadFactory: func() interface{} { return &payloads.AdminOverrideRecordedEvent{} },
	})

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
