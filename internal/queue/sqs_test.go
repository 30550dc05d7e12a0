package queue

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	sent     []*sqs.SendMessageInput
	received *sqs.ReceiveMessageInput
	messages []types.Message
	visible  []string
	deleted  []string
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, params)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.received = params
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	f.visible = append(f.visible, aws.ToString(params.ReceiptHandle))
	return &sqs.ChangeMessageVisibilityOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestPushStandardQueue(t *testing.T) {
	api := &fakeSQS{}
	q := NewSQSQueue(&SQSConfig{QueueURL: "https://sqs.local/events", Client: api})

	err := q.Push(context.Background(), &Event{ID: "e1", Name: "service.status_changed", Data: []byte(`{}`)}, 5)
	require.NoError(t, err)

	require.Len(t, api.sent, 1)
	in := api.sent[0]
	assert.Equal(t, `{}`, aws.ToString(in.MessageBody))
	assert.Equal(t, int32(5), in.DelaySeconds)
	assert.Nil(t, in.MessageGroupId)
	assert.Equal(t, "service.status_changed", aws.ToString(in.MessageAttributes["name"].StringValue))
}

func TestPushFIFOQueue(t *testing.T) {
	api := &fakeSQS{}
	q := NewSQSQueue(&SQSConfig{QueueURL: "https://sqs.local/events.fifo", Client: api})

	require.NoError(t, q.Push(context.Background(), &Event{ID: "e1", Name: "n"}, 5))

	in := api.sent[0]
	assert.Equal(t, int32(0), in.DelaySeconds)
	assert.Equal(t, "e1", aws.ToString(in.MessageDeduplicationId))
	assert.Equal(t, "n", aws.ToString(in.MessageGroupId))
}

func TestPopRetryRemove(t *testing.T) {
	api := &fakeSQS{messages: []types.Message{{
		ReceiptHandle: aws.String("rh-1"),
		Body:          aws.String(`{"name":"web"}`),
		Attributes:    map[string]string{"ApproximateReceiveCount": "2"},
		MessageAttributes: map[string]types.MessageAttributeValue{
			"id":   {StringValue: aws.String("e1")},
			"name": {StringValue: aws.String("service.status_changed")},
		},
	}}}
	q := NewSQSQueue(&SQSConfig{
		QueueURL:          "https://sqs.local/events",
		Client:            api,
		PollInterval:      10 * time.Second,
		VisibilityTimeout: 30 * time.Second,
	})
	ctx := context.Background()

	events, err := q.Pop(ctx, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, EventName("service.status_changed"), events[0].Name)
	assert.Equal(t, 2, events[0].RetryCount)
	assert.Equal(t, int32(10), api.received.WaitTimeSeconds)
	assert.Equal(t, int32(30), api.received.VisibilityTimeout)

	require.NoError(t, q.Retry(ctx, events[0]))
	require.NoError(t, q.Remove(ctx, events[0]))
	assert.Equal(t, []string{"rh-1"}, api.visible)
	assert.Equal(t, []string{"rh-1"}, api.deleted)
}

func TestPopEmpty(t *testing.T) {
	q := NewSQSQueue(&SQSConfig{QueueURL: "u", Client: &fakeSQS{}})

	events, err := q.Pop(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, events)
}
