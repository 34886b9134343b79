// entropy.go implements the process-wide entropy source and DRBG cache the
// Primitive Adapters draw from.
//
// The core's concurrency model treats this cache as the one piece of
// process-wide mutable state that must not be thread-confined-by-fiat: it is
// guarded by a mutex here rather than left to the caller's discipline (see
// SPEC_FULL.md §5 for the reasoning). Every other type in this module
// remains explicitly not safe for concurrent use.
package crypto

import (
	"io"
	"sync"

	"github.com/galaxy42/polykex/internal/constants"
	qerrors "github.com/galaxy42/polykex/internal/errors"
)

// drbg is a minimal deterministic random bit generator handle: a reader
// seeded once at creation from the process entropy source, reused for the
// lifetime of the process.
type drbg struct {
	level constants.SecurityLevel
	r     io.Reader
}

var (
	entropyOnce   sync.Once
	entropySource io.Reader

	drbgMu    sync.Mutex
	drbgCache = map[constants.SecurityLevel]*drbg{}
)

// entropy returns the process-wide entropy source, opened lazily on first
// use and never closed. Backed by Reader (crypto/rand.Reader).
func entropy() io.Reader {
	entropyOnce.Do(func() {
		entropySource = Reader
	})
	return entropySource
}

// DRBGForLevel returns the cached DRBG handle for the given security level,
// instantiating it on first request. Safe for concurrent use.
func DRBGForLevel(level constants.SecurityLevel) (io.Reader, error) {
	drbgMu.Lock()
	defer drbgMu.Unlock()

	if d, ok := drbgCache[level]; ok {
		return d.r, nil
	}

	src := entropy()
	if src == nil {
		return nil, qerrors.NewPrimitiveError("entropy.drbg_init", int(level), qerrors.ErrDRBGInit)
	}

	d := &drbg{level: level, r: src}
	drbgCache[level] = d
	return d.r, nil
}

// resetDRBGCacheForTest clears the cache; test-only helper.
func resetDRBGCacheForTest() {
	drbgMu.Lock()
	defer drbgMu.Unlock()
	drbgCache = map[constants.SecurityLevel]*drbg{}
}
