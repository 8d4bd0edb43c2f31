package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
)

type flakySender struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []Message
}

func (s *flakySender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("temporary failure")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestDispatcher_RetriesUntilDelivered(t *testing.T) {
	sender := &flakySender{failures: 2}
	d := NewDispatcher(sender, DispatcherConfig{Workers: 1, MaxAttempts: 3, BaseBackoff: time.Millisecond},
		logger.NewNop(), (*metrics.Metrics)(nil))
	d.Start()

	msg := NewMessage(7, ChannelSMS, KindWaitlistOffer, "slot available", time.Now())
	require.NoError(t, d.Send(context.Background(), msg))
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, 3, sender.calls)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, msg.ID, sender.sent[0].ID)
}

func TestDispatcher_GivesUp(t *testing.T) {
	sender := &flakySender{failures: 10}
	d := NewDispatcher(sender, DispatcherConfig{Workers: 1, MaxAttempts: 2, BaseBackoff: time.Millisecond},
		logger.NewNop(), (*metrics.Metrics)(nil))
	d.Start()

	require.NoError(t, d.Send(context.Background(), NewMessage(7, ChannelEmail, KindAppointmentReminder, "", time.Now())))
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, 2, sender.calls)
	assert.Empty(t, sender.sent)
}

func TestDispatcher_QueueFullDoesNotBlock(t *testing.T) {
	d := NewDispatcher(&flakySender{}, DispatcherConfig{Workers: 1, BufferSize: 1},
		logger.NewNop(), (*metrics.Metrics)(nil))

	require.NoError(t, d.Send(context.Background(), NewMessage(1, ChannelSMS, KindWaitlistOffer, "", time.Now())))
	err := d.Send(context.Background(), NewMessage(2, ChannelSMS, KindWaitlistOffer, "", time.Now()))
	assert.ErrorIs(t, err, ErrQueueFull)

	d.Start()
	require.NoError(t, d.Stop(context.Background()))
	assert.ErrorIs(t, d.Send(context.Background(), NewMessage(3, ChannelSMS, KindWaitlistOffer, "", time.Now())), ErrDispatcherStopped)
}

type fakeSQS struct {
	input *sqs.SendMessageInput
}

func (f *fakeSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSSender_Send(t *testing.T) {
	client := &fakeSQS{}
	s := NewSQSSenderWithClient(client, "https://sqs.us-east-1.amazonaws.com/123/notifications")

	msg := NewMessage(7, ChannelSMS, KindWaitlistOffer, "slot available", time.Now())
	require.NoError(t, s.Send(context.Background(), msg))

	require.NotNil(t, client.input)
	assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/123/notifications", *client.input.QueueUrl)
	assert.Equal(t, "sms", *client.input.MessageAttributes["channel"].StringValue)
	assert.Contains(t, *client.input.MessageBody, msg.ID)
}
