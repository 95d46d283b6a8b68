package ioutils

import (
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// BlobScheme prefixes every reference handed out by a BlobStore.
const BlobScheme = "blob:"

// Blob is an opaque in-memory payload with its media type.
type Blob struct {
	Data        []byte
	ContentType string
}

// BlobStore keeps payloads in memory behind "blob:<uuid>" references.
//
// A reference stays resolvable until it is revoked; callers own the
// lifetime of every reference they create.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

// NewBlobStore creates an empty BlobStore.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]Blob)}
}

// Create stores data and returns its reference. An empty contentType is
// sniffed from the payload.
func (s *BlobStore) Create(data []byte, contentType string) string {
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}

	ref := BlobScheme + uuid.NewString()

	s.mu.Lock()
	s.blobs[ref] = Blob{Data: data, ContentType: contentType}
	s.mu.Unlock()

	return ref
}

// Get resolves a reference.
func (s *BlobStore) Get(ref string) (Blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[ref]
	return b, ok
}

// Revoke releases a reference. It reports whether the reference was live.
func (s *BlobStore) Revoke(ref string) bool {
	if !strings.HasPrefix(ref, BlobScheme) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[ref]; !ok {
		return false
	}
	delete(s.blobs, ref)
	return true
}

// Len returns the number of live references.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Extension returns the file extension (with dot) for a media type, or
// ".bin" when unknown.
func Extension(contentType string) string {
	if contentType == "" {
		return ".bin"
	}
	mt := mimetype.Lookup(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if mt == nil || mt.Extension() == "" {
		return ".bin"
	}
	return mt.Extension()
}
