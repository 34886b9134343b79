// Package keyring implements the Typed Key Container: a sparse mapping from
// Cryptosystem Tag to an ordered list of keys, generic over public vs
// secret payloads, with the wire serialization and content-hashing that
// bind the rest of the module together.
package keyring

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/galaxy42/polykex/internal/constants"
	qerrors "github.com/galaxy42/polykex/internal/errors"
	"github.com/galaxy42/polykex/pkg/blobstore"
	"github.com/galaxy42/polykex/pkg/crypto"
	"github.com/galaxy42/polykex/pkg/cryptag"
	"github.com/galaxy42/polykex/pkg/secretbuf"
)

// KeyBytes is the constraint satisfied by a container's key payload type:
// it must expose its raw bytes. PublicKey (a named []byte) and
// *secretbuf.Buffer both satisfy it, giving the container the same
// serialized form regardless of which payload type it holds, per the
// container-genericity design note.
type KeyBytes interface {
	Bytes() []byte
}

// PublicKey is a plain, unlocked key payload.
type PublicKey []byte

// Bytes returns the key's bytes directly; no copy, matching a public
// container's looser secrecy contract.
func (p PublicKey) Bytes() []byte { return p }

// Container is the Typed Key Container, parameterized by secrecy via K.
// Not safe for concurrent use.
type Container[K KeyBytes] struct {
	secrecy    byte
	newKey     func([]byte) (K, error)
	lists      map[cryptag.Tag][]K
	cachedHash []byte // nil => dirty
}

func newContainer[K KeyBytes](secrecy byte, newKey func([]byte) (K, error)) *Container[K] {
	c := &Container[K]{
		secrecy: secrecy,
		newKey:  newKey,
		lists:   make(map[cryptag.Tag][]K),
	}
	for _, t := range cryptag.All() {
		c.lists[t] = nil // invariant 1: every tag is a key in lists
	}
	return c
}

// NewPublicContainer constructs an empty public Typed Key Container.
func NewPublicContainer() *Container[PublicKey] {
	return newContainer[PublicKey](constants.SecrecyPublicByte, func(b []byte) (PublicKey, error) {
		return PublicKey(append([]byte(nil), b...)), nil
	})
}

// NewSecretContainer constructs an empty secret Typed Key Container. Keys
// added to it are held in page-locked, zero-on-drop Secret Buffers.
func NewSecretContainer() *Container[*secretbuf.Buffer] {
	return newContainer[*secretbuf.Buffer](constants.SecrecySecretByte, secretbuf.FromBytes)
}

// AddKey appends key under tag, dirtying the cached hash. O(1).
func (c *Container[K]) AddKey(tag cryptag.Tag, key K) {
	c.lists[tag] = append(c.lists[tag], key)
	c.cachedHash = nil
}

// GetKey returns the index-th key under tag. Fails with RangeError if tag
// is unknown to the enumeration or index is out of bounds.
func (c *Container[K]) GetKey(tag cryptag.Tag, index int) (K, error) {
	var zero K
	list, ok := c.lists[tag]
	if !ok {
		return zero, qerrors.NewRangeError("keyring.get_key", index, 0)
	}
	if index < 0 || index >= len(list) {
		return zero, qerrors.NewRangeError("keyring.get_key", index, len(list))
	}
	return list[index], nil
}

// CountIn returns the number of keys held under tag.
func (c *Container[K]) CountIn(tag cryptag.Tag) int {
	return len(c.lists[tag])
}

// CountSystemsUsed counts only the cryptosystem tags with a non-empty list.
func (c *Container[K]) CountSystemsUsed() int {
	n := 0
	for _, t := range cryptag.All() {
		if len(c.lists[t]) > 0 {
			n++
		}
	}
	return n
}

// Secrecy returns the container's immutable secrecy byte
// (constants.SecrecyPublicByte or constants.SecrecySecretByte).
func (c *Container[K]) Secrecy() byte {
	return c.secrecy
}

// Tags returns every tag carrying at least one key, in ascending wire-ID
// order.
func (c *Container[K]) Tags() []cryptag.Tag {
	var used []cryptag.Tag
	for _, t := range cryptag.All() {
		if len(c.lists[t]) > 0 {
			used = append(used, t)
		}
	}
	sort.Slice(used, func(i, j int) bool { return used[i] < used[j] })
	return used
}

// Clear empties every list and dirties the cached hash.
func (c *Container[K]) Clear() {
	for _, t := range cryptag.All() {
		c.lists[t] = nil
	}
	c.cachedHash = nil
}

// Hash returns the container's content-hash, recomputing
// crypto.Hash1(Serialize()) on a cache miss. Used as the identity
// fingerprint and for hash-based comparison/ordering.
func (c *Container[K]) Hash() []byte {
	if c.cachedHash == nil {
		c.cachedHash = crypto.Hash1(c.Serialize())
	}
	return c.cachedHash
}

// Serialize encodes the container per the wire format in SPEC_FULL.md §6:
// magic "GMK", version 'a', secrecy byte, then tag entries in ascending
// wire-ID order, each a uvarint tag ID, uvarint key count, and
// length-prefixed keys. Empty lists are omitted.
func (c *Container[K]) Serialize() []byte {
	used := c.Tags()

	var buf bytes.Buffer
	buf.WriteString(constants.WireMagic)
	buf.WriteByte(constants.WireVersion)
	buf.WriteByte(c.secrecy)

	writeUvarint(&buf, uint64(len(used)))
	for _, tag := range used {
		writeUvarint(&buf, uint64(tag.WireID()))
		keys := c.lists[tag]
		writeUvarint(&buf, uint64(len(keys)))
		for _, k := range keys {
			kb := k.Bytes()
			writeUvarint(&buf, uint64(len(kb)))
			buf.Write(kb)
		}
	}
	return buf.Bytes()
}

// Deserialize replaces the container's contents with the container encoded
// in data. On any format error the container is left empty and a
// FormatError is returned.
func (c *Container[K]) Deserialize(data []byte) error {
	r := bytes.NewReader(data)

	magic := make([]byte, len(constants.WireMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != constants.WireMagic {
		c.Clear()
		return qerrors.NewFormatError("keyring.deserialize", qerrors.ErrFormatMagic)
	}

	version, err := r.ReadByte()
	if err != nil || version != constants.WireVersion {
		c.Clear()
		return qerrors.NewFormatError("keyring.deserialize", qerrors.ErrFormatVersion)
	}

	secrecy, err := r.ReadByte()
	if err != nil || secrecy != c.secrecy {
		c.Clear()
		return qerrors.NewFormatError("keyring.deserialize", qerrors.ErrFormatSecrecy)
	}

	tagCount, err := binary.ReadUvarint(r)
	if err != nil {
		c.Clear()
		return qerrors.NewFormatError("keyring.deserialize", qerrors.ErrFormatTag)
	}

	newLists := make(map[cryptag.Tag][]K)
	for _, t := range cryptag.All() {
		newLists[t] = nil
	}

	var lastTag cryptag.Tag
	haveLast := false
	for i := uint64(0); i < tagCount; i++ {
		tagID, err := binary.ReadUvarint(r)
		if err != nil || tagID > 255 {
			c.Clear()
			return qerrors.NewFormatError("keyring.deserialize", qerrors.ErrFormatTag)
		}
		tag, ok := cryptag.FromWireID(byte(tagID))
		if !ok {
			c.Clear()
			return qerrors.NewFormatError("keyring.deserialize", qerrors.ErrFormatTag)
		}
		if haveLast && tag <= lastTag {
			c.Clear()
			return qerrors.NewFormatError("keyring.deserialize", qerrors.ErrFormatOrder)
		}
		lastTag, haveLast = tag, true

		keyCount, err := binary.ReadUvarint(r)
		if err != nil {
			c.Clear()
			return qerrors.NewFormatError("keyring.deserialize", qerrors.ErrFormatTag)
		}

		keys := make([]K, 0, keyCount)
		for j := uint64(0); j < keyCount; j++ {
			keyLen, err := binary.ReadUvarint(r)
			if err != nil {
				c.Clear()
				return qerrors.NewFormatError("keyring.deserialize", qerrors.ErrFormatTag)
			}
			kb := make([]byte, keyLen)
			if _, err := io.ReadFull(r, kb); err != nil {
				c.Clear()
				return qerrors.NewFormatError("keyring.deserialize", qerrors.ErrFormatTag)
			}
			key, err := c.newKey(kb)
			if err != nil {
				c.Clear()
				return qerrors.NewFormatError("keyring.deserialize", qerrors.ErrFormatTag)
			}
			keys = append(keys, key)
		}
		newLists[tag] = keys
	}

	if r.Len() != 0 {
		c.Clear()
		return qerrors.NewFormatError("keyring.deserialize", qerrors.ErrFormatTrailing)
	}

	c.lists = newLists
	c.cachedHash = nil
	return nil
}

// namespaceFor chooses the Blob Store namespace matching the container's
// secrecy tag: public containers go to the public namespace, secret
// containers to the memory-locked namespace.
func (c *Container[K]) namespaceFor() blobstore.Namespace {
	if c.secrecy == constants.SecrecySecretByte {
		return blobstore.Secret
	}
	return blobstore.Public
}

// Save serializes the container and writes it to store under name, in the
// namespace matching its secrecy tag.
func (c *Container[K]) Save(store blobstore.Store, name string) error {
	return store.SaveBytes(c.namespaceFor(), name, c.Serialize())
}

// Load reads name from store's matching namespace and deserializes it into
// the container, replacing its current contents.
func (c *Container[K]) Load(store blobstore.Store, name string) error {
	data, err := store.LoadBytes(c.namespaceFor(), name)
	if err != nil {
		return err
	}
	return c.Deserialize(data)
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}
