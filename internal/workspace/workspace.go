// Package workspace manages single-use download directories. Each download
// gets a fresh directory; the file the engine leaves there is handed to the
// caller, and the directory is removed once the caller is done with it.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/your-org/tubefetch/internal/common"
	"github.com/your-org/tubefetch/internal/observability"
)

const (
	DefaultPrefix = "tubefetch-"
	dirPerm       = 0o700
)

// Leftovers of interrupted downloads; never treated as the artifact.
var partialSuffixes = []string{".part", ".ytdl", ".temp"}

// Action runs inside a workspace. It may report the path of the file it wrote;
// an empty report falls back to listing the directory.
type Action func(ctx context.Context, dir string) (reported string, err error)

type Manager struct {
	fs     afero.Fs
	root   string
	prefix string
	log    *slog.Logger
}

// NewManager returns a manager creating workspaces under root on fs.
func NewManager(fs afero.Fs, root, prefix string, log *slog.Logger) *Manager {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Manager{
		fs:     fs,
		root:   root,
		prefix: prefix,
		log:    log.With("component", "workspace"),
	}
}

// Workspace is one acquired directory.
type Workspace struct {
	Dir string

	m    *Manager
	once sync.Once
	err  error
}

// Acquire creates a new, empty, uniquely named directory.
func (m *Manager) Acquire() (*Workspace, error) {
	if err := m.fs.MkdirAll(m.root, dirPerm); err != nil {
		return nil, fmt.Errorf("create workspace root %s: %w", m.root, err)
	}

	dir := filepath.Join(m.root, m.prefix+uuid.NewString())
	if err := m.fs.Mkdir(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", dir, err)
	}

	observability.WorkspacesActive.Inc()
	m.log.Debug("workspace acquired", "dir", dir)
	return &Workspace{Dir: dir, m: m}, nil
}

// Release removes the directory and everything in it. Safe to call more than once.
func (w *Workspace) Release() error {
	w.once.Do(func() {
		w.err = w.m.fs.RemoveAll(w.Dir)
		observability.WorkspacesActive.Dec()
		if w.err != nil {
			w.m.log.Error("release workspace", "dir", w.Dir, "error", w.err)
			return
		}
		w.m.log.Debug("workspace released", "dir", w.Dir)
	})
	return w.err
}

// Run acquires a workspace, runs action in it and locates the produced file.
// On any failure the workspace is released before Run returns. On success the
// returned Artifact owns the workspace; the caller must Release it or Close
// the stream it opens.
func (m *Manager) Run(ctx context.Context, action Action) (*Artifact, error) {
	ws, err := m.Acquire()
	if err != nil {
		return nil, err
	}

	handedOff := false
	defer func() {
		if !handedOff {
			_ = ws.Release()
		}
	}()

	reported, err := action(ctx, ws.Dir)
	if err != nil {
		return nil, err
	}

	info, err := m.locate(ws.Dir, reported)
	if err != nil {
		return nil, err
	}

	handedOff = true
	return &Artifact{
		Name: info.Name(),
		Path: filepath.Join(ws.Dir, info.Name()),
		Size: info.Size(),
		ws:   ws,
	}, nil
}

// locate lists dir once. A reported file directly inside dir wins; otherwise
// the first regular, non-partial file in listing order is used.
func (m *Manager) locate(dir, reported string) (os.FileInfo, error) {
	entries, err := afero.ReadDir(m.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("list workspace %s: %w", dir, err)
	}

	var candidates []os.FileInfo
	for _, e := range entries {
		if !e.Mode().IsRegular() || isPartial(e.Name()) {
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return nil, common.ErrNoArtifact
	}

	if reported != "" && filepath.Dir(filepath.Clean(reported)) == filepath.Clean(dir) {
		name := filepath.Base(reported)
		for _, c := range candidates {
			if c.Name() == name {
				return c, nil
			}
		}
		m.log.Warn("reported artifact not found, using listing order", "dir", dir, "reported", name)
	}

	if len(candidates) > 1 {
		m.log.Warn("workspace holds several files, using first", "dir", dir, "count", len(candidates))
	}
	return candidates[0], nil
}

func isPartial(name string) bool {
	for _, s := range partialSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// Sweep removes workspaces left behind for longer than olderThan, e.g. by a
// crashed process. It returns how many were removed.
func (m *Manager) Sweep(olderThan time.Duration) (int, error) {
	entries, err := afero.ReadDir(m.fs, m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("list workspace root %s: %w", m.root, err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), m.prefix) || e.ModTime().After(cutoff) {
			continue
		}
		dir := filepath.Join(m.root, e.Name())
		if err := m.fs.RemoveAll(dir); err != nil {
			m.log.Warn("sweep workspace", "dir", dir, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		observability.WorkspacesSwept.Add(float64(removed))
		m.log.Info("swept stale workspaces", "removed", removed)
	}
	return removed, nil
}

// RunJanitor sweeps every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Sweep(maxAge); err != nil {
				m.log.Warn("workspace sweep failed", "error", err)
			}
		}
	}
}

// Writable checks that the root accepts new workspaces.
func (m *Manager) Writable() error {
	ws, err := m.Acquire()
	if err != nil {
		return err
	}
	return ws.Release()
}
