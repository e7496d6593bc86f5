// Package staging keeps uploaded audio on disk between the request and the
// durable insert.
package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/afero"

	"voicedrop/internal/domain/recording"
)

const filePattern = "upload-*.part"

type Area struct {
	fs  afero.Fs
	dir string
}

// New creates the staging directory if it does not exist.
func New(fs afero.Fs, dir string) (*Area, error) {
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Area{fs: fs, dir: dir}, nil
}

// Stage copies r into a new staging file. More than limit bytes yields
// recording.ErrPayloadTooLarge and nothing is left behind.
func (a *Area) Stage(r io.Reader, limit int64) (recording.Artifact, error) {
	f, err := afero.TempFile(a.fs, a.dir, filePattern)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	art := &artifact{fs: a.fs, path: f.Name()}

	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > limit {
		err = recording.ErrPayloadTooLarge
	}
	if err != nil {
		return nil, errors.Join(err, art.Remove())
	}

	art.size = n
	return art, nil
}

type artifact struct {
	fs   afero.Fs
	path string
	size int64
}

func (a *artifact) Size() int64 {
	return a.size
}

func (a *artifact) Bytes() ([]byte, error) {
	return afero.ReadFile(a.fs, a.path)
}

// Remove is idempotent.
func (a *artifact) Remove() error {
	err := a.fs.Remove(a.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove staged file: %w", err)
	}
	return nil
}
