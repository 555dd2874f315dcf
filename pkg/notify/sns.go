package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSNotifier publishes escalation messages via AWS SNS, both to a topic
// (dashboard-less fallback) and directly to a phone number.
type SNSNotifier struct {
	client *sns.Client
	region string
}

func NewSNSNotifier(region string) (*SNSNotifier, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SNSNotifier{
		client: sns.NewFromConfig(cfg),
		region: region,
	}, nil
}

func (n *SNSNotifier) PublishTopic(ctx context.Context, topicARN, subject string, payload []byte) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(string(payload)),
	}

	if _, err := n.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("failed to publish to SNS topic: %w", err)
	}

	return nil
}

func (n *SNSNotifier) SendSMS(ctx context.Context, phoneNumber, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(phoneNumber),
		Message:     aws.String(message),
		MessageAttributes: map[string]snsTypes.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	}

	if _, err := n.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	return nil
}
