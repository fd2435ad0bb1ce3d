// Package queue carries download progress between replicas over NATS JetStream.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/tubefetch/internal/fetcher"
	"github.com/your-org/tubefetch/pkg/dto"
)

const (
	DownloadsStreamName  = "DOWNLOADS"
	DownloadsSubjectBase = "downloads"
)

// ProgressSubject is the subject a job's progress is published on.
func ProgressSubject(jobID string) string {
	return fmt.Sprintf("%s.%s", DownloadsSubjectBase, jobID)
}

type Producer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func connect(natsURL string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("tubefetch"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create jetstream context: %w", err)
	}
	return nc, js, nil
}

func NewProducer(natsURL string) (*Producer, error) {
	nc, js, err := connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Producer{nc: nc, js: js}, nil
}

// EnsureStreams creates the DOWNLOADS stream if it doesn't exist.
// Retries up to 30 times (1s apart) to handle NATS startup delay.
func (p *Producer) EnsureStreams(ctx context.Context) error {
	cfg := jetstream.StreamConfig{
		Name:        DownloadsStreamName,
		Subjects:    []string{DownloadsSubjectBase + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      time.Hour,
		MaxMsgs:     1000000,
		Storage:     jetstream.MemoryStorage,
		Discard:     jetstream.DiscardOld,
		Description: "Download progress events",
	}

	const maxAttempts = 30
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := p.js.CreateOrUpdateStream(opCtx, cfg)
		cancel()
		if err == nil {
			slog.Info("ensured NATS stream", "name", cfg.Name)
			return nil
		}
		if attempt == maxAttempts {
			return fmt.Errorf("create stream %s: %w (after %d attempts)", cfg.Name, err, maxAttempts)
		}
		slog.Warn("ensure NATS stream (retrying...)", "name", cfg.Name, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
	return nil
}

// PublishProgress publishes a progress event on the job's subject.
func (p *Producer) PublishProgress(ctx context.Context, ev fetcher.ProgressEvent) error {
	payload, err := json.Marshal(ev.DTO())
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	if _, err := p.js.Publish(ctx, ProgressSubject(ev.JobID), payload); err != nil {
		return fmt.Errorf("publish progress: %w", err)
	}
	return nil
}

// DecodeProgress parses a message published by PublishProgress.
func DecodeProgress(data []byte) (dto.ProgressEvent, error) {
	var ev dto.ProgressEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("decode progress: %w", err)
	}
	return ev, nil
}

func (p *Producer) Ping() error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (p *Producer) Close() {
	p.nc.Close()
}
