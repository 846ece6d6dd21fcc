package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
)

// HashSize is the length in bytes of a raw object hash.
const HashSize = sha1.Size

// Hash is the raw 20-byte SHA-1 digest of an encoded object. Tree entries
// embed it as-is; everywhere else it crosses a boundary as 40 lowercase hex
// characters.
type Hash [HashSize]byte

// ZeroHash never names a stored object.
var ZeroHash Hash

// ParseHash decodes a 40-character hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if len(s) != 2*HashSize {
		return h, fmt.Errorf("parse hash %q: want %d hex characters, got %d", s, 2*HashSize, len(s))
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, fmt.Errorf("parse hash %q: %w", s, err)
	}
	return h, nil
}

// MustParseHash is like ParseHash but panics on malformed input. Intended for
// tests and constants.
func MustParseHash(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

// String renders h as 40 lowercase hex characters.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Short returns the first n hex characters of h.
func (h Hash) Short(n int) string {
	s := h.String()
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[:n]
}

// HashBytes computes the SHA-1 of data without any envelope.
func HashBytes(data []byte) Hash {
	return Hash(sha1.Sum(data))
}

// HashObject computes the SHA-1 of the envelope "type len\0body", which is
// exactly the digest git assigns to the same object.
func HashObject(objType ObjectType, body []byte) Hash {
	h := sha1.New()
	h.Write(envelopeHeader(objType, len(body)))
	h.Write(body)
	var out Hash
	h.Sum(out[:0])
	return out
}

func envelopeHeader(objType ObjectType, size int) []byte {
	header := make([]byte, 0, len(objType)+1+20+1)
	header = append(header, objType...)
	header = append(header, ' ')
	header = strconv.AppendInt(header, int64(size), 10)
	return append(header, 0)
}
