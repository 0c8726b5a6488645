package servicebus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
)

// NewServiceBus creates the Azure Service Bus client using the ambient Azure
// credential chain.
func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("service bus namespace is empty")
	}
	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, credential, nil)
}

// PublishEventsServiceBus emits publish results to a Service Bus queue.
type PublishEventsServiceBus struct {
	client *azservicebus.Client
	queue  string
}

func NewPublishEvents(client *azservicebus.Client, queue string) repository.IPublishEvents {
	return &PublishEventsServiceBus{client: client, queue: queue}
}

type resultMessage struct {
	UserID string               `json:"user_id"`
	Result *model.PublishResult `json:"result"`
}

func (p *PublishEventsServiceBus) PublishResult(ctx context.Context, userID string, result *model.PublishResult) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(resultMessage{UserID: userID, Result: result})
	if err != nil {
		return err
	}

	sender, err := p.client.NewSender(p.queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		if err := sender.Close(ctx); err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender, ctx)

	if err := sender.SendMessage(ctx, &azservicebus.Message{Body: payload}, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}
