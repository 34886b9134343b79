// Package blobstore implements the Blob Store external collaborator: a
// namespaced byte-blob store the Typed Key Container's save/load operations
// delegate to, grounded on the original filestorage module's two-namespace
// (public-key / locked-secret) split.
package blobstore

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/galaxy42/polykex/pkg/secretbuf"
)

// Namespace selects which of the store's two areas a blob lives in.
type Namespace int

const (
	// Public holds non-sensitive blobs (e.g. a public Typed Key Container).
	Public Namespace = iota
	// Secret holds sensitive blobs; a store implementation is expected to
	// use locked memory on load and restrictive permissions on write.
	Secret
)

// Store is the Blob Store contract: save_bytes/load_bytes over a
// namespace and a name.
type Store interface {
	SaveBytes(ns Namespace, name string, data []byte) error
	LoadBytes(ns Namespace, name string) ([]byte, error)
}

// MemStore is an in-memory Store, useful for tests and ephemeral identities
// that are never persisted to disk.
type MemStore struct {
	mu   sync.Mutex
	data map[Namespace]map[string][]byte
}

// NewMemStore constructs an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		data: map[Namespace]map[string][]byte{
			Public: {},
			Secret: {},
		},
	}
}

// SaveBytes stores an independent copy of data under name in ns.
func (m *MemStore) SaveBytes(ns Namespace, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[ns][name] = cp
	return nil
}

// LoadBytes returns a copy of the bytes stored under name in ns.
func (m *MemStore) LoadBytes(ns Namespace, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[ns][name]
	if !ok {
		return nil, os.ErrNotExist
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

// FileStore is a filesystem-backed Store with two subdirectories, one per
// namespace. Secret-namespace files are written with mode 0600 and loaded
// into a page-locked secretbuf.Buffer before being handed back as a plain
// copy (the caller is expected to re-wrap sensitive loads itself; see
// LoadSecretLocked).
type FileStore struct {
	publicDir string
	secretDir string
}

// NewFileStore constructs a FileStore rooted at root, creating
// root/public and root/secret (mode 0700) if they do not exist.
func NewFileStore(root string) (*FileStore, error) {
	publicDir := filepath.Join(root, "public")
	secretDir := filepath.Join(root, "secret")

	if err := os.MkdirAll(publicDir, 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(secretDir, 0700); err != nil {
		return nil, err
	}

	return &FileStore{publicDir: publicDir, secretDir: secretDir}, nil
}

func (f *FileStore) dirFor(ns Namespace) string {
	if ns == Secret {
		return f.secretDir
	}
	return f.publicDir
}

func (f *FileStore) pathFor(ns Namespace, name string) string {
	return filepath.Join(f.dirFor(ns), filepath.Base(name))
}

// SaveBytes writes data to namespace ns under name. Secret-namespace files
// are written 0600; public-namespace files 0644.
func (f *FileStore) SaveBytes(ns Namespace, name string, data []byte) error {
	mode := os.FileMode(0644)
	if ns == Secret {
		mode = 0600
	}
	return os.WriteFile(f.pathFor(ns, name), data, mode)
}

// LoadBytes reads the blob stored under name in namespace ns.
func (f *FileStore) LoadBytes(ns Namespace, name string) ([]byte, error) {
	return os.ReadFile(f.pathFor(ns, name))
}

// LoadSecretLocked loads a secret-namespace blob directly into a page-locked
// Secret Buffer, avoiding an extra unlocked copy in the caller's stack.
func (f *FileStore) LoadSecretLocked(name string) (*secretbuf.Buffer, error) {
	raw, err := f.LoadBytes(Secret, name)
	if err != nil {
		return nil, err
	}
	buf, err := secretbuf.FromBytes(raw)
	for i := range raw {
		raw[i] = 0
	}
	return buf, err
}
