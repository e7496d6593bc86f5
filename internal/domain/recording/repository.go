package recording

import (
	"context"
	"io"
)

// Repository is the append-only recording store. There is no update or delete.
type Repository interface {
	Insert(ctx context.Context, rec *Recording) error
	ListByOwner(ctx context.Context, owner string) ([]Recording, error)
}

// Stager holds upload bytes on disk until the durable insert finishes.
type Stager interface {
	Stage(r io.Reader, limit int64) (Artifact, error)
}

type Artifact interface {
	Size() int64
	Bytes() ([]byte, error)
	Remove() error
}
