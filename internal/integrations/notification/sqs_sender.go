package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSSender отправляет уведомления в очередь SQS, откуда их забирает сервис доставки SMS/email
type SQSSender struct {
	client   SQSAPI
	queueURL string
}

// NewSQSSender создает отправителя с конфигурацией AWS по умолчанию (env, shared config)
func NewSQSSender(ctx context.Context, region, queueURL string) (*SQSSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSQSSenderWithClient(sqs.NewFromConfig(cfg), queueURL), nil
}

// NewSQSSenderWithClient создает отправителя с готовым клиентом
func NewSQSSenderWithClient(client SQSAPI, queueURL string) *SQSSender {
	return &SQSSender{client: client, queueURL: queueURL}
}

// Send публикует уведомление в очередь
func (s *SQSSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: marshal message: %v", ErrSend, err)
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"channel": {DataType: aws.String("String"), StringValue: aws.String(string(msg.Channel))},
			"kind":    {DataType: aws.String("String"), StringValue: aws.String(string(msg.Kind))},
			"message_id": {DataType: aws.String("String"), StringValue: aws.String(msg.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: sqs send: %v", ErrSend, err)
	}

	return nil
}

// LogSender пишет уведомления в лог, используется при выключенной доставке
type LogSender struct {
	logger Logger
}

func NewLogSender(logger Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("Notification %s via %s to patient_id=%d (id=%s)", msg.Kind, msg.Channel, msg.PatientID, msg.ID)
	return nil
}
