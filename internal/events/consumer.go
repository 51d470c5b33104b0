// Package events consumes asynchronous payment notifications.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/ordeneslab/orders-service/internal/order"
)

// PaymentSucceeded is the payload published by the payment processor
// once a charge settles. Delivery is at least once.
type PaymentSucceeded struct {
	OrderID         string `json:"order_id"`
	ChargeReference string `json:"charge_reference"`
	ReceiptURL      string `json:"receipt_url"`
}

// Confirmer is the slice of the order workflow the consumer needs.
type Confirmer interface {
	ConfirmPayment(ctx context.Context, orderID, chargeReference, receiptURL string) (*order.OrderWithItems, error)
}

type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	svc    Confirmer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, svc Confirmer) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{log: log, reader: r, svc: svc}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		if err := c.handle(ctx, msg.Value); err != nil {
			c.log.Error("payment confirmation failed", "err", err)
		}
		// Commit regardless: the confirmation itself is idempotent, so a
		// redelivered message is cheaper than a stuck partition.
		_ = c.reader.CommitMessages(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, value []byte) error {
	var event PaymentSucceeded
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("unmarshal payment event: %w", err)
	}
	if event.OrderID == "" {
		return errors.New("payment event without order_id")
	}

	o, err := c.svc.ConfirmPayment(ctx, event.OrderID, event.ChargeReference, event.ReceiptURL)
	if err != nil {
		return fmt.Errorf("confirm payment for order %s: %w", event.OrderID, err)
	}
	c.log.Info("payment event processed", "order_id", o.ID, "status", o.Status)
	return nil
}
