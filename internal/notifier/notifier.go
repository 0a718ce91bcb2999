// Package notifier delivers postponement notices to managers.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/YusovID/visit-planner/internal/config"
	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/go-resty/resty/v2"
)

const retryWait = 200 * time.Millisecond

// Webhook posts every notice as JSON to a configured URL.
type Webhook struct {
	client *resty.Client
	url    string
	log    *slog.Logger
}

func NewWebhook(cfg config.Notifier, log *slog.Logger) *Webhook {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(4*retryWait).
		SetHeader("Content-Type", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Webhook{client: client, url: cfg.WebhookURL, log: log}
}

func (w *Webhook) NotifyPostponed(ctx context.Context, notice domain.PostponeNotice) error {
	const op = "internal.notifier.Webhook.NotifyPostponed"

	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(notice).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("%s: failed to call webhook: %w", op, err)
	}

	if resp.IsError() {
		return fmt.Errorf("%s: webhook responded with status %d", op, resp.StatusCode())
	}

	w.log.Info("postpone notice delivered",
		slog.String("op", op),
		slog.String("meeting_id", notice.MeetingID),
		slog.Int("attempts", resp.Request.Attempt),
	)

	return nil
}

// Log writes notices to the service log. It is used when no webhook is configured.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) NotifyPostponed(_ context.Context, notice domain.PostponeNotice) error {
	l.log.Info("meeting postponed",
		slog.String("meeting_id", notice.MeetingID),
		slog.String("representative", notice.RepresentativeName),
		slog.String("manager", notice.ManagerName),
		slog.String("reason", notice.Reason),
	)

	return nil
}

// Notifier is the common surface of Webhook and Log.
type Notifier interface {
	NotifyPostponed(ctx context.Context, notice domain.PostponeNotice) error
}

// New picks the webhook when a URL is configured and the log otherwise.
func New(cfg config.Notifier, log *slog.Logger) Notifier {
	if cfg.WebhookURL == "" {
		return NewLog(log)
	}

	return NewWebhook(cfg, log)
}
