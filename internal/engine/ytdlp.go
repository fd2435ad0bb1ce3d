// Package engine drives yt-dlp as the media resolution engine: metadata
// queries and downloads into a caller-provided directory.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/your-org/tubefetch/internal/common"
	"github.com/your-org/tubefetch/internal/models"
)

const (
	DefaultBinary = "yt-dlp"

	// Output template; yt-dlp picks the final extension.
	outputTemplate = "%(title)s.%(ext)s"

	progressMarker = "[tf-progress]"
	artifactMarker = "[tf-artifact]"

	stderrTailLines = 20
	waitDelay       = 10 * time.Second
)

var progressTemplate = "download:" + progressMarker +
	" %(progress.downloaded_bytes)s %(progress.total_bytes)s %(progress.total_bytes_estimate)s %(progress.eta)s"

type Config struct {
	Binary      string
	CookiesFile string
	ExtraArgs   []string
}

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// YtDlp runs the yt-dlp executable. Safe for concurrent use.
type YtDlp struct {
	cfg     Config
	log     *slog.Logger
	command commandFunc
}

func NewYtDlp(cfg Config, log *slog.Logger) *YtDlp {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	return &YtDlp{
		cfg:     cfg,
		log:     log.With("component", "engine"),
		command: exec.CommandContext,
	}
}

// Version returns the installed yt-dlp version.
func (y *YtDlp) Version(ctx context.Context) (string, error) {
	out, err := y.command(ctx, y.cfg.Binary, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("yt-dlp --version: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// FetchMetadata queries title, counters and the available formats without
// downloading anything.
func (y *YtDlp) FetchMetadata(ctx context.Context, url string) (*models.RawMetadata, error) {
	args := []string{"-J", "--no-playlist", "--no-warnings"}
	args = append(args, y.commonArgs()...)
	args = append(args, "--", url)

	var stderr bytes.Buffer
	cmd := y.command(ctx, y.cfg.Binary, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	out, err := cmd.Output()
	if err != nil {
		return nil, y.classify(ctx, "fetch metadata", err, tail(stderr.String(), stderrTailLines))
	}
	y.log.Debug("metadata fetched", "url", url, "duration", time.Since(start).String(), "bytes", len(out))

	meta, err := parseMetadata(out)
	if err != nil {
		return nil, fmt.Errorf("decode yt-dlp metadata: %w", err)
	}
	return meta, nil
}

// Download fetches url according to d into dir. It returns the final file
// path yt-dlp reported, or "" if it reported none.
func (y *YtDlp) Download(ctx context.Context, url string, d models.Directive, dir string, progress func(models.Progress)) (string, error) {
	out := &downloadOutput{progress: progress, log: y.log}

	stdout, stderr := newLineWriter(out.handle), newLineWriter(out.handle)

	cmd := y.command(ctx, y.cfg.Binary, y.downloadArgs(url, d, dir)...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	y.log.Info("download started", "url", url, "format", d.Format, "extract_audio", d.ExtractAudio())
	start := time.Now()

	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()
	if err != nil {
		return "", y.classify(ctx, "download", err, out.stderrTail())
	}

	reported := out.artifactPath()
	y.log.Info("download finished", "url", url, "duration", time.Since(start).String(), "file", filepath.Base(reported))
	return reported, nil
}

func (y *YtDlp) downloadArgs(url string, d models.Directive, dir string) []string {
	args := []string{
		"--no-playlist",
		"--no-simulate",
		"--newline",
		"--progress",
		"--progress-template", progressTemplate,
		"--print", "after_move:" + artifactMarker + " %(filepath)s",
		"-o", filepath.Join(dir, outputTemplate),
		"-f", d.Format,
	}
	if d.ExtractAudio() {
		args = append(args,
			"-x",
			"--audio-format", d.AudioCodec,
			"--audio-quality", d.AudioQuality+"K",
		)
	}
	args = append(args, y.commonArgs()...)
	return append(args, "--", url)
}

func (y *YtDlp) commonArgs() []string {
	var args []string
	if y.cfg.CookiesFile != "" {
		args = append(args, "--cookies", y.cfg.CookiesFile)
	}
	return append(args, y.cfg.ExtraArgs...)
}

// classify maps a failed run to an error kind. A non-zero exit is an
// extraction failure; cancellation and a missing binary are not.
func (y *YtDlp) classify(ctx context.Context, op string, err error, stderr string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("yt-dlp %s: %w", op, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: yt-dlp %s (exit %d): %s", common.ErrExtraction, op, exitErr.ExitCode(), stderr)
	}
	return fmt.Errorf("run yt-dlp %s: %w", op, err)
}

// downloadOutput collects what yt-dlp prints while downloading. Stdout and
// stderr are written from separate goroutines.
type downloadOutput struct {
	progress func(models.Progress)
	log      *slog.Logger

	mu       sync.Mutex
	artifact string
	lines    []string
}

func (o *downloadOutput) handle(line string) {
	switch {
	case strings.HasPrefix(line, progressMarker):
		p, ok := parseProgress(strings.TrimPrefix(line, progressMarker))
		if ok && o.progress != nil {
			o.progress(p)
		}
	case strings.HasPrefix(line, artifactMarker):
		o.mu.Lock()
		o.artifact = strings.TrimSpace(strings.TrimPrefix(line, artifactMarker))
		o.mu.Unlock()
	default:
		o.log.Debug("yt-dlp", "line", line)
		o.mu.Lock()
		o.lines = append(o.lines, line)
		if len(o.lines) > stderrTailLines {
			o.lines = o.lines[len(o.lines)-stderrTailLines:]
		}
		o.mu.Unlock()
	}
}

func (o *downloadOutput) artifactPath() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.artifact
}

func (o *downloadOutput) stderrTail() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return strings.Join(o.lines, "\n")
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
