// Package events announces ledger changes on an AMQP topic exchange.
package events

import (
	"context"
	"log/slog"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/log"
)

// Sender delivers an encoded message. *Client implements it.
type Sender interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// Publisher is a ledger listener that turns every change into a
// ChangeMessage. Publish failures are logged and never reach the ledger.
type Publisher struct {
	sender  Sender
	timeout time.Duration
	logger  *slog.Logger
	onError func(kind Kind, err error)
}

type PublisherOption func(*Publisher)

// WithErrorHook registers fn to be called after each failed publish.
func WithErrorHook(fn func(kind Kind, err error)) PublisherOption {
	return func(p *Publisher) { p.onError = fn }
}

func NewPublisher(sender Sender, timeout time.Duration, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	p := &Publisher{
		sender:  sender,
		timeout: timeout,
		logger:  logger.With(log.FieldComponent, log.ComponentEvents),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) OnTransactionAdded(ctx context.Context, tx core.Transaction) {
	p.publish(ctx, NewChangeMessage(KindAdded, nil, &tx))
}

func (p *Publisher) OnTransactionUpdated(ctx context.Context, old, updated core.Transaction) {
	p.publish(ctx, NewChangeMessage(KindUpdated, &old, &updated))
}

func (p *Publisher) OnTransactionRemoved(ctx context.Context, tx core.Transaction) {
	p.publish(ctx, NewChangeMessage(KindRemoved, &tx, nil))
}

func (p *Publisher) publish(ctx context.Context, msg *ChangeMessage) {
	body, err := msg.ToJSON()
	if err != nil {
		p.fail(ctx, msg, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.sender.Publish(ctx, msg.Kind.RoutingKey(), body); err != nil {
		p.fail(ctx, msg, err)
		return
	}
	p.logger.DebugContext(ctx, "Published ledger change",
		log.FieldOperation, log.OpPublish, "id", msg.ID, "kind", msg.Kind)
}

func (p *Publisher) fail(ctx context.Context, msg *ChangeMessage, err error) {
	p.logger.WarnContext(ctx, "Failed to publish ledger change",
		log.FieldOperation, log.OpPublish, "id", msg.ID, "kind", msg.Kind, log.FieldError, err)
	if p.onError != nil {
		p.onError(msg.Kind, err)
	}
}
