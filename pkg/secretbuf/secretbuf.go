// Package secretbuf provides a page-locked, zero-on-drop buffer for secret
// key material: private keys, shared secrets, and Session Keys.
//
// A Buffer never exposes its contents by implicit copy. Callers obtain the
// underlying bytes only through Bytes() (a live view, not a copy) or
// CopyOut() (an explicit copy the caller then owns and must Zeroize when
// done). This mirrors the distinction the Typed Key Container draws between
// a secret container's get_key (copy required) and a public container's
// get_key (view permitted).
package secretbuf

import (
	"sync"

	"golang.org/x/sys/unix"

	qerrors "github.com/galaxy42/polykex/internal/errors"
)

// Buffer holds secret bytes in a page-locked (mlock'd) allocation so the
// operating system will not swap it to disk. Zero on Close/Destroy.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	locked bool
	closed bool
}

// New allocates a Buffer of n bytes and attempts to mlock it. mlock failure
// (e.g. insufficient RLIMIT_MEMLOCK, or an unsupported platform) is not
// fatal: the buffer is still usable, just not guaranteed swap-resistant.
func New(n int) (*Buffer, error) {
	if n < 0 {
		return nil, qerrors.NewRangeError("secretbuf.new", n, 0)
	}

	b := &Buffer{data: make([]byte, n)}
	if n > 0 {
		if err := unix.Mlock(b.data); err == nil {
			b.locked = true
		}
	}
	return b, nil
}

// FromBytes copies src into a new page-locked Buffer. The caller retains
// ownership of src and is responsible for zeroing it if it is itself
// sensitive.
func FromBytes(src []byte) (*Buffer, error) {
	b, err := New(len(src))
	if err != nil {
		return nil, err
	}
	copy(b.data, src)
	return b, nil
}

// Len returns the buffer length in bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Bytes returns a live view of the buffer contents. The returned slice
// aliases the Buffer's storage; it is invalidated by Destroy. Callers that
// need an independent copy must use CopyOut.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	return b.data
}

// CopyOut returns an independent copy of the buffer contents. The caller
// owns the returned slice and is responsible for zeroing it when done.
func (b *Buffer) CopyOut() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Locked reports whether the underlying allocation is currently mlock'd.
func (b *Buffer) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Destroy zeros the buffer contents and releases the mlock, if held. Safe
// to call more than once. After Destroy, Bytes and CopyOut return nil/empty.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for i := range b.data {
		b.data[i] = 0
	}
	if b.locked {
		_ = unix.Munlock(b.data)
		b.locked = false
	}
	b.data = nil
	b.closed = true
}
