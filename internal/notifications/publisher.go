package notifications

import (
	"context"

	pubsub "cloud.google.com/go/pubsub/v2"

	gcppubsub "github.com/dmarchetti/orchard-backend/pkg/pubsub"
)

// Publisher sends one message to the notification topic.
type Publisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) error
}

type topicPublisher struct {
	publisher *pubsub.Publisher
}

// NewTopicPublisher adapts the Pub/Sub client's notification topic.
func NewTopicPublisher(client *gcppubsub.Client) Publisher {
	if client == nil {
		return nil
	}
	publisher := client.NotificationPublisher()
	if publisher == nil {
		return nil
	}
	return &topicPublisher{publisher: publisher}
}

func (p *topicPublisher) Publish(ctx context.Context, data []byte, attributes map[string]string) error {
	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attributes,
	})
	_, err := result.Get(ctx)
	return err
}
