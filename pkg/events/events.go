package events

import (
	"context"
	"time"

	"pgstay/pkg/kafka"
	"pgstay/pkg/logger"
)

const (
	BookingCreated   = "booking.created"
	BookingApproved  = "booking.approved"
	BookingRejected  = "booking.rejected"
	BookingCancelled = "booking.cancelled"
	BookingConverted = "booking.converted"

	TenantCreated     = "tenant.created"
	TenantNoticeGiven = "tenant.notice_given"
	TenantCheckedOut  = "tenant.checked_out"

	BedReleased = "bed.released"

	BillCreated          = "bill.created"
	BillLineItemAdded    = "bill.line_item_added"
	BillLineItemRemoved  = "bill.line_item_removed"
	BillSent             = "bill.sent"
	BillOverdue          = "bill.overdue"
	BillCancelled        = "bill.cancelled"
	BillLateFeeApplied   = "bill.late_fee_applied"
	BillElectricityAdded = "bill.electricity_added"
	PaymentRecorded      = "payment.recorded"
	PaymentConfirmed     = "payment.confirmed"
	PaymentRejected      = "payment.rejected"
	DepositRecorded      = "deposit.recorded"
	DepositRefunded      = "deposit.refunded"
)

const schemaVersion = "1"

// Event is a domain fact published after its transaction commits.
type Event struct {
	Type        string    `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	ActorID     string    `json:"actor_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Data        any       `json:"data,omitempty"`
}

func New(eventType, aggregateID, actorID string, data any) Event {
	return Event{
		Type:        eventType,
		AggregateID: aggregateID,
		ActorID:     actorID,
		OccurredAt:  time.Now().UTC(),
		Data:        data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Notify publishes event and logs a failure instead of returning it. The
// state change the event describes has already been committed.
func Notify(ctx context.Context, pub Publisher, log *logger.Logger, event Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.Ctx(ctx).Error("Failed to publish domain event",
			"event_type", event.Type,
			"aggregate_id", event.AggregateID,
			"error", err,
		)
	}
}

type messageProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a topic keyed by aggregate id, so every
// event of one aggregate lands on the same partition in order.
type KafkaPublisher struct {
	producer messageProducer
	source   string
}

func NewKafkaPublisher(producer messageProducer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := kafka.NewMessage().
		WithKey(event.AggregateID).
		WithEventType(event.Type).
		WithCorrelationID(logger.RequestIDFromContext(ctx)).
		WithSchemaVersion(schemaVersion).
		WithSource(p.source).
		WithTimestamp(event.OccurredAt).
		WithValue(event).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// LogPublisher records events in the service log. Used when events are
// disabled.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.log.Ctx(ctx).Info("Domain event",
		"event_type", event.Type,
		"aggregate_id", event.AggregateID,
		"actor_id", event.ActorID,
	)
	return nil
}

// Recorder keeps published events in memory for tests.
type Recorder struct {
	Events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	if r.Err != nil {
		return r.Err
	}
	r.Events = append(r.Events, event)
	return nil
}

func (r *Recorder) Types() []string {
	types := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.Type)
	}
	return types
}
