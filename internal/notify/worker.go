package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/samvaad/apiserver/internal/mq"
)

const deliverTimeout = 10 * time.Second

// Worker consumes notification messages and delivers them to the
// configured webhook (a WhatsApp/SMS gateway endpoint). A failed
// delivery nacks the message so the broker redelivers it.
type Worker struct {
	broker     mq.Broker
	channel    string
	webhookURL string
	client     *http.Client
}

func NewWorker(broker mq.Broker, channel, webhookURL string) *Worker {
	return &Worker{
		broker:     broker,
		channel:    channel,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: deliverTimeout},
	}
}

// Run blocks consuming the channel until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.broker.Subscribe(ctx, w.channel, w.handle)
}

func (w *Worker) handle(ctx context.Context, msg mq.Message) error {
	var payload Message
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		// Undeliverable payload; ack it so it does not loop forever.
		log.Printf("notify: dropping malformed message %s: %v", msg.ID, err)
		return nil
	}

	if err := w.deliver(ctx, msg.Data); err != nil {
		log.Printf("notify: delivery failed for message %s: %v", msg.ID, err)
		return err
	}
	log.Printf("notify: delivered message %s for phone %s", msg.ID, payload.Phone)
	return nil
}

func (w *Worker) deliver(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
