package workspace

import (
	"fmt"

	"github.com/spf13/afero"
)

// Artifact is the file a download produced, together with the workspace
// holding it.
type Artifact struct {
	Name string
	Path string
	Size int64

	ws *Workspace
}

// Dir returns the workspace directory of the artifact.
func (a *Artifact) Dir() string { return a.ws.Dir }

// Release removes the artifact's workspace.
func (a *Artifact) Release() error { return a.ws.Release() }

// Open returns a reader over the artifact. Closing it releases the workspace,
// so removal happens only after the content has been streamed out.
func (a *Artifact) Open() (*Stream, error) {
	f, err := a.ws.m.fs.Open(a.Path)
	if err != nil {
		_ = a.Release()
		return nil, fmt.Errorf("open artifact %s: %w", a.Path, err)
	}
	return &Stream{File: f, art: a}, nil
}

// Stream reads an artifact and tears down its workspace on Close.
type Stream struct {
	afero.File
	art *Artifact
}

func (s *Stream) Close() error {
	err := s.File.Close()
	if rerr := s.art.Release(); err == nil {
		err = rerr
	}
	return err
}
