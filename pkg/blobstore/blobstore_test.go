package blobstore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestMemStoreSaveLoadRoundTrip(t *testing.T) {
	s := NewMemStore()
	data := []byte("public container bytes")

	if err := s.SaveBytes(Public, "id1", data); err != nil {
		t.Fatalf("SaveBytes: %v", err)
	}
	got, err := s.LoadBytes(Public, "id1")
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("LoadBytes() = %q, want %q", got, data)
	}
}

func TestMemStoreLoadMissing(t *testing.T) {
	s := NewMemStore()
	if _, err := s.LoadBytes(Secret, "missing"); err == nil {
		t.Error("LoadBytes of missing blob should fail")
	}
}

func TestMemStoreNamespacesDoNotCollide(t *testing.T) {
	s := NewMemStore()
	_ = s.SaveBytes(Public, "name", []byte("public-data"))
	_ = s.SaveBytes(Secret, "name", []byte("secret-data"))

	pub, _ := s.LoadBytes(Public, "name")
	sec, _ := s.LoadBytes(Secret, "name")
	if bytes.Equal(pub, sec) {
		t.Error("Public and Secret namespaces must not share storage")
	}
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	data := []byte("secret container bytes")
	if err := fs.SaveBytes(Secret, "identity", data); err != nil {
		t.Fatalf("SaveBytes: %v", err)
	}

	got, err := fs.LoadBytes(Secret, "identity")
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("LoadBytes() = %q, want %q", got, data)
	}

	info, err := os.Stat(filepath.Join(dir, "secret", "identity"))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("secret file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestFileStoreLoadSecretLocked(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	data := []byte("locked-me")
	if err := fs.SaveBytes(Secret, "locked", data); err != nil {
		t.Fatalf("SaveBytes: %v", err)
	}

	buf, err := fs.LoadSecretLocked("locked")
	if err != nil {
		t.Fatalf("LoadSecretLocked: %v", err)
	}
	defer buf.Destroy()

	if !bytes.Equal(buf.Bytes(), data) {
		t.Errorf("LoadSecretLocked() = %q, want %q", buf.Bytes(), data)
	}
}
