// Command fetch looks up or downloads a single YouTube video from the shell.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"

	"github.com/your-org/tubefetch/internal/common"
	"github.com/your-org/tubefetch/internal/config"
	"github.com/your-org/tubefetch/internal/engine"
	"github.com/your-org/tubefetch/internal/fetcher"
	"github.com/your-org/tubefetch/internal/observability"
	"github.com/your-org/tubefetch/internal/videourl"
	"github.com/your-org/tubefetch/internal/workspace"
)

const (
	exitFailure    = 1
	exitInvalidURL = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "configs/config.yaml", "path to config file")
	format := fs.String("format", "", `format id from -info, "bestaudio" for mp3, empty for best`)
	outDir := fs.String("o", ".", "directory to write the file to")
	infoOnly := fs.Bool("info", false, "print video info and formats as JSON instead of downloading")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: fetch [-config path] [-format id] [-o dir] [-info] URL")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitFailure
	}
	url := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return exitFailure
	}
	// Logs go to stderr so stdout stays clean for -info output.
	log := observability.NewLogger(stderr, cfg.Logging.Level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := fetcher.NewService(fetcher.Options{
		Engine: engine.NewYtDlp(engine.Config{
			Binary:      cfg.Engine.Binary,
			CookiesFile: cfg.Engine.CookiesFile,
			ExtraArgs:   cfg.Engine.ExtraArgs,
		}, log),
		Workspaces:      workspace.NewManager(afero.NewOsFs(), cfg.Workspace.Root, cfg.Workspace.Prefix, log),
		Validator:       videourl.Validator{Strict: cfg.URLs.Strict},
		MetadataTimeout: cfg.Engine.MetadataTimeout,
		DownloadTimeout: cfg.Engine.DownloadTimeout,
		MaxConcurrent:   1,
		Publisher:       progressPrinter{w: stderr},
		Logger:          log,
	})

	if *infoOnly {
		meta, err := svc.GetInfo(ctx, url)
		if err != nil {
			return fail(stderr, err)
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(meta); err != nil {
			fmt.Fprintf(stderr, "write info: %v\n", err)
			return exitFailure
		}
		return 0
	}

	res, err := svc.Download(ctx, fetcher.Request{URL: url, Choice: *format})
	if err != nil {
		return fail(stderr, err)
	}

	dest, err := save(res.Artifact, afero.NewOsFs(), *outDir)
	if err != nil {
		fmt.Fprintf(stderr, "save file: %v\n", err)
		return exitFailure
	}
	fmt.Fprintln(stdout, dest)
	return 0
}

// save copies the artifact into dir and releases its workspace.
func save(art *workspace.Artifact, fs afero.Fs, dir string) (string, error) {
	stream, err := art.Open()
	if err != nil {
		return "", err
	}
	defer stream.Close()

	dest := filepath.Join(dir, art.Name)
	if err := afero.WriteReader(fs, dest, stream); err != nil {
		return "", err
	}
	return dest, nil
}

func fail(stderr io.Writer, err error) int {
	var fe *fetcher.Error
	if errors.As(err, &fe) {
		fmt.Fprintln(stderr, fe.UserMessage())
	} else {
		fmt.Fprintln(stderr, err)
	}
	if errors.Is(err, common.ErrInvalidURL) {
		return exitInvalidURL
	}
	return exitFailure
}

type progressPrinter struct {
	w io.Writer
}

func (p progressPrinter) PublishProgress(_ context.Context, ev fetcher.ProgressEvent) error {
	switch ev.State {
	case fetcher.StateDownloading:
		if pct := ev.Progress.Percent(); pct >= 0 {
			fmt.Fprintf(p.w, "\r%5.1f%%", pct)
		}
	case fetcher.StateFinished:
		fmt.Fprintf(p.w, "\rdone: %s\n", ev.Filename)
	}
	return nil
}
