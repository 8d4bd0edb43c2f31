package notification

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Metrics счетчик уведомлений
type Metrics interface {
	IncNotification(result string)
}

// Sender доставляет одно уведомление
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SQSAPI часть клиента SQS, используемая отправителем
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}
