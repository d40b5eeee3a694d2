package provider

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"dinenotify/internal/domain/notification"
)

var _ notification.Provider = (*SNSProvider)(nil)

// SNSProvider sends SMS messages via AWS SNS.
type SNSProvider struct {
	client *sns.Client
}

// NewSNSProvider creates a new AWS SNS SMS provider using the default
// credential chain for the given region.
func NewSNSProvider(ctx context.Context, region string) (*SNSProvider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &SNSProvider{client: sns.NewFromConfig(awsCfg)}, nil
}

// Channel returns the SMS channel identifier.
func (p *SNSProvider) Channel() notification.Channel {
	return notification.ChannelSMS
}

// Name returns the vendor name.
func (p *SNSProvider) Name() string {
	return "sns"
}

// Send publishes an SMS via SNS and returns the SNS message ID.
func (p *SNSProvider) Send(ctx context.Context, msg *notification.Message) (string, error) {
	out, err := p.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &msg.To,
		Message:     &msg.Body,
	})
	if err != nil {
		return "", fmt.Errorf("sns publish: %w", err)
	}
	if out.MessageId == nil {
		return "", fmt.Errorf("sns publish: empty message id")
	}
	return *out.MessageId, nil
}
