// Package cryptag defines the Cryptosystem Tag: a closed enumeration of the
// cryptosystems a Typed Key Container or Identity Pair may hold keys for,
// each with a stable single-byte wire ID used by the container's
// serialization format.
package cryptag

import "sort"

// Tag identifies one cryptosystem. The zero value is not a valid tag; use
// the named constants.
type Tag byte

// The closed set of cryptosystem tags, keyed by their wire ID.
const (
	X25519         Tag = 'x' // interactive DH, classical
	Ed25519        Tag = 'e' // signature, reserved, not used by the tunnel
	NTRUEES439EP1  Tag = 't' // one-shot KEM, post-quantum lattice
	SIDHp751       Tag = 's' // interactive KEX, post-quantum isogeny
	GeportTodo     Tag = 'g' // reserved
)

// All lists every defined tag in ascending wire-ID order, matching the
// container serialization's required iteration order.
func All() []Tag {
	tags := []Tag{X25519, Ed25519, NTRUEES439EP1, SIDHp751, GeportTodo}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// IsValid reports whether t is one of the defined tags.
func IsValid(t Tag) bool {
	switch t {
	case X25519, Ed25519, NTRUEES439EP1, SIDHp751, GeportTodo:
		return true
	default:
		return false
	}
}

// IsAsymmetricKEM reports whether t is a one-shot KEM as opposed to an
// interactive DH/KEX. Only NTRU_EES439EP1 is a KEM in the current enum.
func IsAsymmetricKEM(t Tag) bool {
	return t == NTRUEES439EP1
}

// String returns the tag's name for logging and error messages.
func (t Tag) String() string {
	switch t {
	case X25519:
		return "X25519"
	case Ed25519:
		return "Ed25519"
	case NTRUEES439EP1:
		return "NTRU_EES439EP1"
	case SIDHp751:
		return "SIDH_p751"
	case GeportTodo:
		return "geport_todo"
	default:
		return "unknown"
	}
}

// WireID returns the single-byte wire identifier, which is simply the tag's
// underlying byte value.
func (t Tag) WireID() byte {
	return byte(t)
}

// FromWireID maps a wire-format byte back to a Tag, reporting ok=false for
// any byte outside the closed enumeration.
func FromWireID(id byte) (Tag, bool) {
	t := Tag(id)
	return t, IsValid(t)
}
