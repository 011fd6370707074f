package shipments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/internal/cod"
	"github.com/fastfare/fastfare-backend/internal/ledger"
	"github.com/fastfare/fastfare-backend/internal/settlement"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/logger"
)

const deliveryConsumerName = "shipment-deliveries"

// DeliveryEvent is the shipment message published by the logistics pipeline
// when a parcel is handed over. Amounts are in paise.
type DeliveryEvent struct {
	OrderID        uuid.UUID `json:"orderId"`
	SellerID       uuid.UUID `json:"sellerId"`
	PartnerID      uuid.UUID `json:"partnerId"`
	CODAmount      int64     `json:"codAmount"`
	ShippingCost   int64     `json:"shippingCost"`
	PlatformFee    int64     `json:"platformFee"`
	CODHandlingFee int64     `json:"codHandlingFee"`
	GrossTotal     int64     `json:"grossTotal"`
	PaymentMode    string    `json:"paymentMode"`
	DeliveredAt    time.Time `json:"deliveredAt"`
}

type ledgerRecorder interface {
	RecordSellerEntryTx(ctx context.Context, tx *gorm.DB, input ledger.RecordSellerEntryInput) (*models.SellerLedgerEntry, error)
	HasSellerEntryForOrder(ctx context.Context, sellerID, orderID uuid.UUID, entryType enums.SellerEntryType) (bool, error)
}

type codOpener interface {
	OpenTx(ctx context.Context, tx *gorm.DB, input cod.OpenInput) (*models.CODCollection, error)
}

type settlementTrigger interface {
	TriggerTx(ctx context.Context, tx *gorm.DB, input settlement.TriggerInput) (*models.SettlementSchedule, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer ingests shipment delivery events: it books the seller earning,
// opens the COD collection for cash orders and enrolls the order into a
// settlement batch, all in one transaction per event.
type Consumer struct {
	ledger       ledgerRecorder
	cod          codOpener
	settlement   settlementTrigger
	tx           txRunner
	idempotency  idempotencyChecker
	subscription *pubsub.Subscriber
	logg         *logger.Logger
	writeRetries int
	now          func() time.Time
}

// ConsumerParams groups the delivery consumer dependencies.
type ConsumerParams struct {
	Ledger       ledgerRecorder
	COD          codOpener
	Settlement   settlementTrigger
	Tx           txRunner
	Idempotency  idempotencyChecker
	Subscription *pubsub.Subscriber
	Logger       *logger.Logger
	WriteRetries int
	Now          func() time.Time
}

// NewConsumer builds a delivery event consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.COD == nil {
		return nil, fmt.Errorf("cod service required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	retries := params.WriteRetries
	if retries <= 0 {
		retries = ledger.DefaultWriteRetries
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Consumer{
		ledger:       params.Ledger,
		cod:          params.COD,
		settlement:   params.Settlement,
		tx:           params.Tx,
		idempotency:  params.Idempotency,
		subscription: params.Subscription,
		logg:         params.Logger,
		writeRetries: retries,
		now:          now,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return fmt.Errorf("shipments subscription required")
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
	})

	var event DeliveryEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode delivery event", err)
		return processResult{ack: true}
	}

	if err := c.Handle(ctx, event); err != nil {
		if errorsx.HasCode(err, errorsx.CodeValidation) {
			c.logg.Error(logCtx, "malformed delivery event dropped", err)
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "delivery event processing failed", err)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

// Handle books one delivery. Replays are detected twice: a Redis marker keyed
// by order id short-circuits hot retries, and the earning entry lookup guards
// against replays past the marker TTL.
func (c *Consumer) Handle(ctx context.Context, event DeliveryEvent) error {
	if err := validateEvent(event); err != nil {
		return err
	}

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"order_id":  event.OrderID.String(),
		"seller_id": event.SellerID.String(),
	})

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, deliveryConsumerName, event.OrderID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "delivery already processed")
		return nil
	}

	recorded, err := c.ledger.HasSellerEntryForOrder(ctx, event.SellerID, event.OrderID, enums.SellerEntryTypeEarning)
	if err != nil {
		_ = c.idempotency.Delete(ctx, deliveryConsumerName, event.OrderID)
		return err
	}
	if recorded {
		c.logg.Info(logCtx, "earning already booked for order")
		return nil
	}

	if err := c.bookDelivery(ctx, event); err != nil {
		_ = c.idempotency.Delete(ctx, deliveryConsumerName, event.OrderID)
		return err
	}

	c.logg.Info(logCtx, "delivery booked")
	return nil
}

func (c *Consumer) bookDelivery(ctx context.Context, event DeliveryEvent) error {
	deliveredAt := event.DeliveredAt
	if deliveredAt.IsZero() {
		deliveredAt = c.now()
	}
	netEarning := event.GrossTotal - event.PlatformFee

	var err error
	for attempt := 1; attempt <= c.writeRetries; attempt++ {
		err = c.tx.WithTx(ctx, func(tx *gorm.DB) error {
			orderID := event.OrderID
			if _, err := c.ledger.RecordSellerEntryTx(ctx, tx, ledger.RecordSellerEntryInput{
				SellerID:    event.SellerID,
				OrderID:     &orderID,
				Type:        enums.SellerEntryTypeEarning,
				AmountPaise: netEarning,
				Description: fmt.Sprintf("Earning for delivered order %s", orderID),
				StatsDelta: &ledger.SellerStatsDelta{
					TotalOrders:            1,
					DeliveredOrders:        1,
					GrossRevenuePaise:      event.GrossTotal,
					TotalPlatformFeesPaise: event.PlatformFee,
				},
			}); err != nil {
				return err
			}

			if enums.PaymentMode(event.PaymentMode) == enums.PaymentModeCOD {
				if _, err := c.cod.OpenTx(ctx, tx, cod.OpenInput{
					OrderID:             orderID,
					SellerID:            event.SellerID,
					PartnerID:           event.PartnerID,
					CODAmountPaise:      event.CODAmount,
					ShippingChargePaise: event.ShippingCost,
					PlatformFeePaise:    event.PlatformFee,
					CODHandlingFeePaise: event.CODHandlingFee,
				}); err != nil {
					return err
				}
			}

			_, err := c.settlement.TriggerTx(ctx, tx, settlement.TriggerInput{
				SellerID:    event.SellerID,
				OrderID:     orderID,
				AmountPaise: netEarning,
				DeliveredAt: deliveredAt,
			})
			return err
		})
		if err == nil {
			return nil
		}
		if !errorsx.HasCode(err, errorsx.CodeStaleBalanceWrite) {
			return err
		}
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"order_id": event.OrderID.String(),
			"attempt":  attempt,
		})
		c.logg.Warn(logCtx, "delivery booking conflicted, retrying")
	}
	return err
}

func validateEvent(event DeliveryEvent) error {
	if event.OrderID == uuid.Nil || event.SellerID == uuid.Nil || event.PartnerID == uuid.Nil {
		return errorsx.New(errorsx.CodeValidation, "order, seller and partner ids are required")
	}
	if event.GrossTotal <= 0 {
		return errorsx.New(errorsx.CodeValidation, "gross total must be positive")
	}
	if event.PlatformFee < 0 || event.PlatformFee >= event.GrossTotal {
		return errorsx.New(errorsx.CodeValidation, "platform fee must be non-negative and below gross total")
	}
	mode := enums.PaymentMode(event.PaymentMode)
	if !mode.IsValid() {
		return errorsx.New(errorsx.CodeValidation, fmt.Sprintf("unknown payment mode %q", event.PaymentMode))
	}
	if mode == enums.PaymentModeCOD && event.CODAmount <= 0 {
		return errorsx.New(errorsx.CodeValidation, "cod amount must be positive for cod orders")
	}
	return nil
}
