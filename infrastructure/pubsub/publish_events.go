package pubsub

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
)

// NewPubSub creates the Google Cloud Pub/Sub client.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	return pubsub.NewClient(ctx, projectID)
}

// resultMessage is the wire envelope published after each publish call.
type resultMessage struct {
	UserID string               `json:"user_id"`
	Result *model.PublishResult `json:"result"`
}

// PublishEventsPubSub emits publish results to a Pub/Sub topic for downstream
// consumers (analytics, notification fan-out).
type PublishEventsPubSub struct {
	client *pubsub.Client
	topic  string
}

func NewPublishEvents(client *pubsub.Client, topic string) repository.IPublishEvents {
	return &PublishEventsPubSub{client: client, topic: topic}
}

func (p *PublishEventsPubSub) PublishResult(ctx context.Context, userID string, result *model.PublishResult) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(resultMessage{UserID: userID, Result: result})
	if err != nil {
		return err
	}

	topic := p.client.Topic(p.topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topic).Info("Topic doesn't exist - creating it")
		if _, err := p.client.CreateTopic(ctx, p.topic); err != nil {
			return err
		}
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("server ID", serverID).Info("Publish result message published")
	return nil
}
