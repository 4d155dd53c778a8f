package csvtransfer

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// Blob is an in-memory download.
type Blob struct {
	Data        []byte
	ContentType string
}

// BlobRef is a transient handle to a Blob held by a BlobStore.
type BlobRef string

// BlobStore holds blobs between acquire and release. It is safe for
// concurrent use.
type BlobStore struct {
	mu    sync.Mutex
	blobs map[BlobRef]Blob
}

// NewBlobStore returns an empty store.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[BlobRef]Blob)}
}

// Acquire stores b and returns a fresh ref owned by the caller until Release.
func (s *BlobStore) Acquire(b Blob) BlobRef {
	ref := BlobRef("blob:" + uuid.NewString())
	s.mu.Lock()
	s.blobs[ref] = b
	s.mu.Unlock()
	return ref
}

// Open returns a reader over the blob behind ref.
func (s *BlobStore) Open(ref BlobRef) (io.Reader, error) {
	s.mu.Lock()
	b, ok := s.blobs[ref]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("blob %s: not held", ref)
	}
	return bytes.NewReader(b.Data), nil
}

// Release drops ref. Releasing an unknown ref is a no-op.
func (s *BlobStore) Release(ref BlobRef) {
	s.mu.Lock()
	delete(s.blobs, ref)
	s.mu.Unlock()
}

// Live reports how many refs are currently held.
func (s *BlobStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
