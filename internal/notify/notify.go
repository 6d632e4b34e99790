// Package notify implements the best-effort outbound notification
// channel: intake publishes a message per new request, and a worker
// delivers queued messages to a messaging gateway webhook.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/samvaad/apiserver/internal/mq"
)

const publishTimeout = 5 * time.Second

// Message is the payload sent to the messaging gateway for a new help
// request.
type Message struct {
	Phone string `json:"phone"`
	Name  string `json:"name,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Publisher enqueues notification messages on the broker. Delivery is
// best-effort by contract: callers log publish errors and move on,
// they never fail the triggering operation.
type Publisher struct {
	broker  mq.Broker
	channel string
}

func NewPublisher(broker mq.Broker, channel string) *Publisher {
	return &Publisher{broker: broker, channel: channel}
}

// Publish enqueues one message with a bounded timeout.
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	_, err = p.broker.Publish(ctx, p.channel, data, map[string]string{
		"kind": "request-intake",
	})
	return err
}
