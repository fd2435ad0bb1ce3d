// Package fetcher composes URL validation, format negotiation, the resolution
// engine and download workspaces into the two user-facing operations:
// metadata lookup and download.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/your-org/tubefetch/internal/common"
	"github.com/your-org/tubefetch/internal/formats"
	"github.com/your-org/tubefetch/internal/models"
	"github.com/your-org/tubefetch/internal/observability"
	"github.com/your-org/tubefetch/internal/videourl"
	"github.com/your-org/tubefetch/internal/workspace"
)

const (
	defaultTitle    = "Unknown Title"
	defaultUploader = "Unknown"

	DefaultMaxConcurrent  = 4
	DefaultPublishTimeout = time.Second
)

// Engine resolves and downloads remote media. Remote failures must wrap
// common.ErrExtraction.
type Engine interface {
	FetchMetadata(ctx context.Context, url string) (*models.RawMetadata, error)
	Download(ctx context.Context, url string, d models.Directive, dir string, progress func(models.Progress)) (string, error)
}

// ProgressPublisher receives download progress for a job.
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, ev ProgressEvent) error
}

// DownloadRecorder counts completed downloads.
type DownloadRecorder interface {
	RecordDownload(ctx context.Context, id models.VideoID, quality string) error
}

type Options struct {
	Engine     Engine
	Workspaces *workspace.Manager
	Validator  videourl.Validator

	MetadataTimeout time.Duration
	DownloadTimeout time.Duration
	MaxConcurrent   int
	// PublishTimeout bounds each progress publish; slow sinks lose events.
	PublishTimeout time.Duration

	Publisher ProgressPublisher
	Recorder  DownloadRecorder
	Logger    *slog.Logger
}

type Service struct {
	engine     Engine
	workspaces *workspace.Manager
	validator  videourl.Validator

	metadataTimeout time.Duration
	downloadTimeout time.Duration
	slots           *semaphore.Weighted
	publishTimeout  time.Duration

	publisher ProgressPublisher
	recorder  DownloadRecorder
	log       *slog.Logger
}

func NewService(opts Options) *Service {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		engine:          opts.Engine,
		workspaces:      opts.Workspaces,
		validator:       opts.Validator,
		metadataTimeout: opts.MetadataTimeout,
		downloadTimeout: opts.DownloadTimeout,
		slots:           semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		publishTimeout:  opts.PublishTimeout,
		publisher:       opts.Publisher,
		recorder:        opts.Recorder,
		log:             log.With("component", "fetcher"),
	}
}

// GetInfo validates url, queries the engine and returns the video's metadata
// with its format catalog. Nothing is downloaded.
func (s *Service) GetInfo(ctx context.Context, url string) (*models.VideoMetadata, error) {
	id, err := s.validator.Validate(url)
	if err != nil {
		observability.MetadataRequests.WithLabelValues("invalid_url").Inc()
		return nil, classify(OpInfo, err)
	}

	ctx, cancel := withTimeout(ctx, s.metadataTimeout)
	defer cancel()

	raw, err := s.engine.FetchMetadata(ctx, videourl.Canonical(id))
	if err != nil {
		fe := classify(OpInfo, err)
		s.logFailure(s.log.With("video_id", id), fe)
		observability.MetadataRequests.WithLabelValues(resultLabel(fe.Kind)).Inc()
		return nil, fe
	}

	observability.MetadataRequests.WithLabelValues("ok").Inc()
	return assemble(id, raw), nil
}

func assemble(id models.VideoID, raw *models.RawMetadata) *models.VideoMetadata {
	meta := &models.VideoMetadata{
		ID:        id,
		Title:     raw.Title,
		Thumbnail: raw.Thumbnail,
		Uploader:  raw.Uploader,
		Formats:   formats.BuildCatalog(raw.Formats),
	}
	if meta.Title == "" {
		meta.Title = defaultTitle
	}
	if meta.Uploader == "" {
		meta.Uploader = defaultUploader
	}
	if raw.Duration != nil && *raw.Duration > 0 {
		meta.Duration = int64(math.Round(*raw.Duration))
	}
	if raw.ViewCount != nil && *raw.ViewCount > 0 {
		meta.ViewCount = *raw.ViewCount
	}
	return meta
}

type Request struct {
	URL    string
	Choice string
	// JobID tags progress events. A new one is generated when empty.
	JobID string
}

// Result is a successful download. The caller owns Artifact and must close
// the stream it opens (or Release it) to remove the workspace.
type Result struct {
	Artifact  *workspace.Artifact
	Filename  string
	VideoID   models.VideoID
	Directive models.Directive
	JobID     string
}

// Download validates the request, resolves the choice into a directive and
// runs the engine inside a fresh workspace.
func (s *Service) Download(ctx context.Context, req Request) (*Result, error) {
	id, err := s.validator.Validate(req.URL)
	if err != nil {
		observability.Downloads.WithLabelValues("none", "invalid_url").Inc()
		return nil, classify(OpDownload, err)
	}

	directive := formats.Resolve(req.Choice)
	kind := string(directive.Kind)
	jobID := req.JobID
	if jobID == "" {
		jobID = uuid.NewString()
	}
	log := s.log.With("job_id", jobID, "video_id", id, "format", directive.Format)

	s.publish(ctx, ProgressEvent{JobID: jobID, VideoID: id, State: StateQueued})
	if err := s.slots.Acquire(ctx, 1); err != nil {
		fe := classify(OpDownload, fmt.Errorf("wait for download slot: %w", err))
		s.fail(ctx, log, fe, jobID, id, kind)
		return nil, fe
	}
	defer s.slots.Release(1)

	ctx, cancel := withTimeout(ctx, s.downloadTimeout)
	defer cancel()

	observability.ActiveDownloads.Inc()
	defer observability.ActiveDownloads.Dec()

	relay := s.startRelay(ctx)
	start := time.Now()
	art, err := s.workspaces.Run(ctx, func(ctx context.Context, dir string) (string, error) {
		return s.engine.Download(ctx, videourl.Canonical(id), directive, dir, func(p models.Progress) {
			relay.offer(ProgressEvent{JobID: jobID, VideoID: id, State: StateDownloading, Progress: p})
		})
	})
	relay.stop()
	observability.DownloadDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		fe := classify(OpDownload, err)
		s.fail(ctx, log, fe, jobID, id, kind)
		return nil, fe
	}

	observability.Downloads.WithLabelValues(kind, "ok").Inc()
	log.Info("download ready", "file", art.Name, "size", art.Size)
	s.publish(ctx, ProgressEvent{
		JobID:    jobID,
		VideoID:  id,
		State:    StateFinished,
		Progress: models.Progress{DownloadedBytes: art.Size, TotalBytes: art.Size},
		Filename: art.Name,
	})
	s.record(ctx, log, id, directive)

	return &Result{
		Artifact:  art,
		Filename:  art.Name,
		VideoID:   id,
		Directive: directive,
		JobID:     jobID,
	}, nil
}

func (s *Service) fail(ctx context.Context, log *slog.Logger, fe *Error, jobID string, id models.VideoID, kind string) {
	observability.Downloads.WithLabelValues(kind, resultLabel(fe.Kind)).Inc()
	s.logFailure(log, fe)
	s.publish(context.WithoutCancel(ctx), ProgressEvent{JobID: jobID, VideoID: id, State: StateFailed})
}

func (s *Service) logFailure(log *slog.Logger, fe *Error) {
	args := []any{"op", fe.Op, "kind", fe.Kind.Error(), "error", fe.Err}
	if errors.Is(fe.Kind, common.ErrExtraction) {
		log.Warn("engine could not resolve video", args...)
		return
	}
	log.Error("operation failed", args...)
}

func (s *Service) publish(ctx context.Context, ev ProgressEvent) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.PublishProgress(ctx, ev); err != nil {
		s.log.Debug("publish progress", "job_id", ev.JobID, "error", err)
	}
}

// progressRelay moves engine progress off the engine's output path. offer
// never blocks; a sample arriving while the previous one is still being
// published replaces it.
type progressRelay struct {
	ch   chan ProgressEvent
	done chan struct{}
}

func (s *Service) startRelay(ctx context.Context) *progressRelay {
	r := &progressRelay{ch: make(chan ProgressEvent, 1), done: make(chan struct{})}
	if s.publisher == nil {
		close(r.done)
		return r
	}
	go func() {
		defer close(r.done)
		for ev := range r.ch {
			s.publish(ctx, ev)
		}
	}()
	return r
}

func (r *progressRelay) offer(ev ProgressEvent) {
	for {
		select {
		case r.ch <- ev:
			return
		default:
		}
		// Drop the stale sample still waiting, if any.
		select {
		case <-r.ch:
		default:
		}
	}
}

// stop flushes the pending sample and waits for the relay to finish.
func (r *progressRelay) stop() {
	close(r.ch)
	<-r.done
}

func (s *Service) record(ctx context.Context, log *slog.Logger, id models.VideoID, d models.Directive) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordDownload(ctx, id, QualityKey(d)); err != nil {
		log.Warn("record download", "error", err)
	}
}

// QualityKey names a directive for download counters.
func QualityKey(d models.Directive) string {
	switch d.Kind {
	case models.DirectiveAudio:
		return formats.AudioSentinel
	default:
		return d.Format
	}
}

func resultLabel(kind error) string {
	switch {
	case errors.Is(kind, common.ErrInvalidURL):
		return "invalid_url"
	case errors.Is(kind, common.ErrExtraction):
		return "extraction_error"
	case errors.Is(kind, common.ErrNoArtifact):
		return "no_artifact"
	default:
		return "unexpected_error"
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
