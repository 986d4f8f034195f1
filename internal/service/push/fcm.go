package push

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/nkiryanov/pacta/internal/logger"
)

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender delivers messages to devices through Firebase Cloud Messaging
type FCMSender struct {
	client  messagingClient
	timeout time.Duration
	logger  logger.Logger
}

// NewFCMSender initializes firebase app with service account credentials file
func NewFCMSender(ctx context.Context, credentialsFile string, l logger.Logger) (*FCMSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("error while initializing firebase app. Err: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error while initializing firebase messaging. Err: %w", err)
	}

	return &FCMSender{client: client, timeout: defaultSendTimeout, logger: l}, nil
}

func (s *FCMSender) Send(ctx context.Context, m Message) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.client.Send(ctx, &messaging.Message{
		Token: m.Token,
		Notification: &messaging.Notification{
			Title: m.Title,
			Body:  m.Body,
		},
		Data: m.Data,
	})

	switch {
	case err == nil:
		s.logger.Debug("FCM message sent", "message_id", id)
		return nil
	case messaging.IsUnregistered(err):
		return NewError(CodeUnregistered, err)
	case messaging.IsInvalidArgument(err), messaging.IsSenderIDMismatch(err):
		return NewError(CodeInvalidToken, err)
	case messaging.IsUnavailable(err), messaging.IsQuotaExceeded(err), messaging.IsInternal(err):
		return NewError(CodeUnavailable, err)
	case ctx.Err() != nil:
		return NewError(CodeUnavailable, err)
	default:
		return NewError(CodeUnknown, err)
	}
}
