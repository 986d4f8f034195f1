package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nkiryanov/pacta/internal/logger"
)

// Tokens with the prefix carry Telegram chat id: "telegram:123456"
const TelegramPrefix = "telegram:"

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender delivers messages as direct messages from the bot
type TelegramSender struct {
	api     botAPI
	timeout time.Duration
	logger  logger.Logger
}

func NewTelegramSender(botToken string, l logger.Logger) (*TelegramSender, error) {
	return NewTelegramSenderWithEndpoint(botToken, tgbotapi.APIEndpoint, l)
}

// endpoint is format string with token and method placeholders, see tgbotapi.APIEndpoint
func NewTelegramSenderWithEndpoint(botToken string, endpoint string, l logger.Logger) (*TelegramSender, error) {
	client := &http.Client{Timeout: 2 * defaultSendTimeout}

	api, err := tgbotapi.NewBotAPIWithClient(botToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("error while initializing telegram bot. Err: %w", err)
	}

	l.Debug("Telegram bot authorized", "username", api.Self.UserName)
	return &TelegramSender{api: api, timeout: defaultSendTimeout, logger: l}, nil
}

func (s *TelegramSender) Send(ctx context.Context, m Message) error {
	chatID, err := strconv.ParseInt(strings.TrimPrefix(m.Token, TelegramPrefix), 10, 64)
	if err != nil {
		return NewError(CodeInvalidToken, fmt.Errorf("bad telegram chat id: %w", err))
	}

	msg := tgbotapi.NewMessage(chatID, m.Title+"\n\n"+m.Body)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Bot API client is not context aware, wait for it or the deadline
	done := make(chan error, 1)
	go func() {
		_, err := s.api.Send(msg)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return NewError(CodeUnavailable, ctx.Err())
	case err := <-done:
		return s.classify(chatID, err)
	}
}

func (s *TelegramSender) classify(chatID int64, err error) error {
	if err == nil {
		s.logger.Debug("Telegram message sent", "chat_id", chatID)
		return nil
	}

	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return NewError(CodeUnavailable, err)
	}

	switch apiErr.Code {
	case http.StatusForbidden:
		return NewError(CodeUnregistered, err)
	case http.StatusBadRequest:
		return NewError(CodeInvalidToken, err)
	case http.StatusTooManyRequests:
		return NewError(CodeUnavailable, err)
	default:
		return NewError(CodeUnknown, err)
	}
}
