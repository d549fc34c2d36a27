package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
)

// KafkaNotifier hands notifications to the delivery pipeline over a Kafka
// topic; a downstream consumer renders and sends the actual email or push.
type KafkaNotifier struct {
	client *kgo.Client
	topic  string
}

type kafkaMessage struct {
	PrincipalID string            `json:"principal_id"`
	Template    Template          `json:"template"`
	Data        map[string]string `json:"data,omitempty"`
	QueuedAt    time.Time         `json:"queued_at"`
}

// NewKafkaNotifier connects a franz-go client against the given seed
// brokers.
func NewKafkaNotifier(seeds []string, topic string) (*KafkaNotifier, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(seeds...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaNotifier{client: client, topic: topic}, nil
}

// Send produces asynchronously. Notifications are best-effort; a broker
// hiccup must not fail the domain operation that triggered the message.
func (n *KafkaNotifier) Send(ctx context.Context, principalID id.PrincipalID, template Template, data map[string]string) error {
	payload, err := json.Marshal(kafkaMessage{
		PrincipalID: principalID.String(),
		Template:    template,
		Data:        data,
		QueuedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	n.client.Produce(ctx, &kgo.Record{
		Topic: n.topic,
		Key:   []byte(principalID.String()),
		Value: payload,
	}, nil)
	return nil
}

func (n *KafkaNotifier) Close() {
	n.client.Close()
}
