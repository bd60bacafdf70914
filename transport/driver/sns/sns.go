// Package sns adapts Amazon SNS to the transport.MessagePublisher
// interface that resilientpublisher depends on.
package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/brightleaf-data/sns-fanout/transport"
)

// Config configures the SNS transport. AccessKeyID and SecretAccessKey are
// optional; when empty the default AWS credential chain is used.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Client          *sns.Client
}

type snsTransport struct {
	client *sns.Client
}

// New builds a transport.MessagePublisher backed by Amazon SNS.
func New(ctx context.Context, cfg Config) (transport.MessagePublisher, error) {
	client := cfg.Client
	if client == nil {
		var optFns []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
		}
		if cfg.AccessKeyID != "" {
			optFns = append(optFns, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
		if err != nil {
			return nil, fmt.Errorf("sns: load aws config: %w", err)
		}
		client = sns.NewFromConfig(awsCfg)
	}
	return &snsTransport{client: client}, nil
}

func (t *snsTransport) Publish(ctx context.Context, topic, message string) (string, error) {
	out, err := t.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(topic),
		Message:  aws.String(message),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

func (t *snsTransport) DescribeTopic(ctx context.Context, topic string) error {
	_, err := t.client.GetTopicAttributes(ctx, &sns.GetTopicAttributesInput{
		TopicArn: aws.String(topic),
	})
	return err
}
