package queue

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

var _ Queue = (*sqsQueue)(nil)

// SQSAPI is the part of *sqs.Client the queue needs.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type sqsQueue struct {
	queueURL          string
	fifo              bool
	sqsClient         SQSAPI
	pollInterval      time.Duration
	visibilityTimeout time.Duration
}

type SQSConfig struct {
	QueueURL          string
	Client            SQSAPI
	PollInterval      time.Duration
	VisibilityTimeout time.Duration
}

func NewSQSQueue(cfg *SQSConfig) Queue {
	return &sqsQueue{
		queueURL:          cfg.QueueURL,
		fifo:              strings.HasSuffix(cfg.QueueURL, ".fifo"),
		sqsClient:         cfg.Client,
		pollInterval:      cfg.PollInterval,
		visibilityTimeout: cfg.VisibilityTimeout,
	}
}

type ClientConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewSQSClient loads the default AWS config; static keys, when both are
// set, take precedence over the default credential chain.
func NewSQSClient(ctx context.Context, cfg *ClientConfig) (*sqs.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return sqs.NewFromConfig(awsCfg), nil
}

// Push pushes an event to the queue
// delay is in seconds
func (q *sqsQueue) Push(ctx context.Context, event *Event, delay int64) error {
	input := &sqs.SendMessageInput{
		MessageBody:  aws.String(string(event.Data)),
		QueueUrl:     aws.String(q.queueURL),
		DelaySeconds: int32(delay),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.ID),
			},
			"name": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.Name)),
			},
		},
	}

	// fifo queues reject per-message delays
	if q.fifo {
		input.DelaySeconds = 0
		input.MessageDeduplicationId = aws.String(event.ID)
		input.MessageGroupId = aws.String(string(event.Name))
	}

	out, err := q.sqsClient.SendMessage(ctx, input)
	if err != nil {
		return err
	}

	log.Debug().Str("message_id", aws.ToString(out.MessageId)).Str("event", string(event.Name)).Msg("pushed event to queue")

	return nil
}

func (q *sqsQueue) Pop(ctx context.Context, size int64) ([]*Event, error) {
	resp, err := q.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:                aws.String(q.queueURL),
		MaxNumberOfMessages:     int32(size),
		ReceiveRequestAttemptId: aws.String(fmt.Sprintf("%d", time.Now().UnixNano())),
		AttributeNames: []types.QueueAttributeName{
			"MessageDeduplicationId",
			"ApproximateReceiveCount",
		},
		MessageAttributeNames: []string{
			"id",
			"name",
		},
		VisibilityTimeout: int32(q.visibilityTimeout.Seconds()),
		WaitTimeSeconds:   int32(q.pollInterval.Seconds()),
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Int("count", len(resp.Messages)).Msg("messages from queue")

	if len(resp.Messages) == 0 {
		return nil, nil
	}

	var events []*Event

	for _, msg := range resp.Messages {
		var retries int

		if msg.Attributes["ApproximateReceiveCount"] != "" {
			retries, _ = strconv.Atoi(msg.Attributes["ApproximateReceiveCount"])
		}

		events = append(events, &Event{
			sqsReceiptHandle: aws.ToString(msg.ReceiptHandle),

			ID:         aws.ToString(msg.MessageAttributes["id"].StringValue),
			Name:       EventName(aws.ToString(msg.MessageAttributes["name"].StringValue)),
			Data:       []byte(aws.ToString(msg.Body)),
			RetryCount: retries,
		})
	}

	return events, nil
}

func (q *sqsQueue) Retry(ctx context.Context, event *Event) error {
	_, err := q.sqsClient.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(q.queueURL),
		ReceiptHandle:     aws.String(event.sqsReceiptHandle),
		VisibilityTimeout: 0,
	})
	if err != nil {
		return err
	}

	return nil
}

func (q *sqsQueue) Remove(ctx context.Context, event *Event) error {
	_, err := q.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(event.sqsReceiptHandle),
	})
	if err != nil {
		return err
	}

	return nil
}
