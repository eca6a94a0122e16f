// Package nats announces filed documents and batch summaries on a NATS subject
// so downstream tools can react without polling the output tree.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/document-organizer/internal/core/domain"
	"github.com/kirillkom/document-organizer/internal/infrastructure/resilience"
)

const operationPublish = "nats.publish"

// ResultEvent is published once per processed file.
type ResultEvent struct {
	RunID  string                  `json:"run_id"`
	Result domain.ProcessingResult `json:"result"`
}

type messagePublisher interface {
	Publish(subject string, data []byte) error
}

type Publisher struct {
	conn     *nats.Conn
	pub      messagePublisher
	subject  string
	executor *resilience.Executor
}

type Options struct {
	ConnectTimeout     time.Duration
	ReconnectWait      time.Duration
	MaxReconnects      int
	ResilienceExecutor *resilience.Executor
	Logger             *slog.Logger
}

func New(url, subject string, options Options) (*Publisher, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 10
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("document-organizer"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	p := newPublisher(conn, subject, options.ResilienceExecutor)
	p.conn = conn
	return p, nil
}

func newPublisher(pub messagePublisher, subject string, executor *resilience.Executor) *Publisher {
	return &Publisher{pub: pub, subject: subject, executor: executor}
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	_ = p.conn.FlushTimeout(5 * time.Second)
	p.conn.Close()
}

func (p *Publisher) ReportSubject() string {
	return p.subject + ".report"
}

func (p *Publisher) PublishResult(ctx context.Context, runID string, result domain.ProcessingResult) error {
	return p.publishJSON(ctx, p.subject, ResultEvent{RunID: runID, Result: result})
}

func (p *Publisher) PublishReport(ctx context.Context, report domain.Report) error {
	return p.publishJSON(ctx, p.ReportSubject(), report)
}

func (p *Publisher) publishJSON(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}

	call := func(_ context.Context) error {
		if err := p.pub.Publish(subject, data); err != nil {
			return fmt.Errorf("nats publish %s: %w", subject, err)
		}
		return nil
	}

	if p.executor != nil {
		err = p.executor.Execute(ctx, operationPublish, call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}
