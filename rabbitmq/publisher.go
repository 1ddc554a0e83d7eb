// Package rabbitmq publishes order events for downstream fulfilment.
package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	"checkout-service/models"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

type Publisher struct {
	pool      *ChannelPool
	queueName string
	log       logrus.FieldLogger
}

func NewPublisher(pool *ChannelPool, queueName string, log logrus.FieldLogger) *Publisher {
	return &Publisher{
		pool:      pool,
		queueName: queueName,
		log:       log,
	}
}

// PublishOrderConfirmed sends event to the order queue as a persistent message.
func (p *Publisher) PublishOrderConfirmed(ctx context.Context, event models.OrderConfirmedEvent) error {
	msg, err := orderConfirmedMessage(event)
	if err != nil {
		return err
	}

	ch, err := p.pool.GetChannel()
	if err != nil {
		return errors.Wrap(err, "failed to get channel from pool")
	}
	defer p.pool.ReturnChannel(ch)

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key (queue name)
		false,       // mandatory
		false,       // immediate
		msg)
	if err != nil {
		return errors.Wrapf(err, "failed to publish order %s", event.OrderNumber)
	}

	p.log.WithFields(logrus.Fields{
		"orderNumber": event.OrderNumber,
		"queue":       p.queueName,
	}).Info("published order confirmed event")
	return nil
}

func orderConfirmedMessage(event models.OrderConfirmedEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, errors.Wrap(err, "failed to marshal order event")
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    event.EventID,
		Type:         "order.confirmed",
		Timestamp:    event.PlacedAt,
		Body:         body,
	}, nil
}
