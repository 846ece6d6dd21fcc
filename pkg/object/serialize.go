package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Envelope
// ---------------------------------------------------------------------------

// Encode serializes obj and prepends the "type len\0" envelope. The result is
// the exact byte sequence that is hashed and compressed on disk.
func Encode(obj Object) ([]byte, error) {
	body, err := marshalBody(obj)
	if err != nil {
		return nil, err
	}
	header := envelopeHeader(obj.Type(), len(body))
	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header...)
	return append(out, body...), nil
}

func marshalBody(obj Object) ([]byte, error) {
	switch o := obj.(type) {
	case *Blob:
		return MarshalBlob(o), nil
	case *Tree:
		return MarshalTree(o)
	case *Commit:
		return MarshalCommit(o)
	default:
		return nil, fmt.Errorf("encode: %w: %T", ErrUnknownObjectType, obj)
	}
}

// ParseEnvelope splits an encoded object into its type and body. The declared
// length must match the number of bytes after the NUL exactly.
func ParseEnvelope(data []byte) (ObjectType, []byte, error) {
	nul := bytes.IndexByte(data, 0)
	if nul < 0 {
		return "", nil, fmt.Errorf("%w: missing header terminator", ErrCorruptObject)
	}
	typ, size, ok := strings.Cut(string(data[:nul]), " ")
	if !ok {
		return "", nil, fmt.Errorf("%w: malformed header %q", ErrCorruptObject, data[:nul])
	}
	objType, err := ParseObjectType(typ)
	if err != nil {
		return "", nil, err
	}
	length, err := parseDecimal(size)
	if err != nil {
		return "", nil, fmt.Errorf("%w: bad length %q", ErrCorruptObject, size)
	}
	body := data[nul+1:]
	if len(body) != length {
		return "", nil, fmt.Errorf("%w: length mismatch (header=%d, actual=%d)", ErrCorruptObject, length, len(body))
	}
	return objType, body, nil
}

// Decode parses an encoded object. It either returns a fully decoded value
// or an error; partial results are never returned.
func Decode(data []byte) (Object, error) {
	objType, body, err := ParseEnvelope(data)
	if err != nil {
		return nil, err
	}
	return DecodeBody(objType, body)
}

// DecodeBody parses a body whose type is already known.
func DecodeBody(objType ObjectType, body []byte) (Object, error) {
	var (
		obj Object
		err error
	)
	switch objType {
	case TypeBlob:
		obj, err = UnmarshalBlob(body)
	case TypeTree:
		var tr *Tree
		if tr, err = UnmarshalTree(body); err == nil {
			obj = tr
		}
	case TypeCommit:
		var c *Commit
		if c, err = UnmarshalCommit(body); err == nil {
			obj = c
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownObjectType, objType)
	}
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// parseDecimal accepts only the canonical form: digits, no sign and no
// leading zero.
func parseDecimal(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, fmt.Errorf("leading zero")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("non-digit %q", s[i])
		}
	}
	return strconv.Atoi(s)
}

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// ValidateName checks that name can appear as a tree entry.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.IndexByte(name, 0) >= 0:
		return fmt.Errorf("%w: %q contains NUL", ErrInvalidName, name)
	case strings.IndexByte(name, '/') >= 0:
		return fmt.Errorf("%w: %q contains '/'", ErrInvalidName, name)
	}
	return nil
}

// MarshalTree serializes a Tree. Entries are sorted by Name in plain byte
// order, each rendered as
//
//	<octal mode> SP <name> NUL <20 raw hash bytes>
//
// Names are validated and must be unique.
func MarshalTree(tr *Tree) ([]byte, error) {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for i, e := range sorted {
		if err := ValidateName(e.Name); err != nil {
			return nil, fmt.Errorf("marshal tree: %w", err)
		}
		if i > 0 && sorted[i-1].Name == e.Name {
			return nil, fmt.Errorf("marshal tree: %w: duplicate %q", ErrInvalidName, e.Name)
		}
		buf.WriteString(e.Mode.String())
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(e.Hash[:])
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a tree body with a bounds-checked cursor. Names must
// be strictly increasing in byte order, as MarshalTree writes them, so a
// duplicate or misplaced entry is ErrCorruptObject.
func UnmarshalTree(data []byte) (*Tree, error) {
	tr := &Tree{}
	off := 0
	prev := ""
	for off < len(data) {
		sp := bytes.IndexByte(data[off:], ' ')
		if sp < 0 {
			return nil, fmt.Errorf("unmarshal tree: %w: missing mode separator at offset %d", ErrCorruptObject, off)
		}
		mode, err := ParseMode(string(data[off : off+sp]))
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w", err)
		}
		off += sp + 1

		nul := bytes.IndexByte(data[off:], 0)
		if nul < 0 {
			return nil, fmt.Errorf("unmarshal tree: %w: unterminated name at offset %d", ErrCorruptObject, off)
		}
		name := string(data[off : off+nul])
		if err := ValidateName(name); err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w: %w", ErrCorruptObject, err)
		}
		if len(tr.Entries) > 0 {
			switch {
			case name == prev:
				return nil, fmt.Errorf("unmarshal tree: %w: duplicate entry %q", ErrCorruptObject, name)
			case name < prev:
				return nil, fmt.Errorf("unmarshal tree: %w: entry %q sorts before %q", ErrCorruptObject, name, prev)
			}
		}
		prev = name
		off += nul + 1

		if len(data)-off < HashSize {
			return nil, fmt.Errorf("unmarshal tree: %w: truncated hash for %q", ErrCorruptObject, name)
		}
		var h Hash
		copy(h[:], data[off:off+HashSize])
		off += HashSize

		tr.Entries = append(tr.Entries, TreeEntry{Mode: mode, Name: name, Hash: h})
	}
	return tr, nil
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

// MarshalCommit serializes a Commit:
//
//	tree H
//	parent H     (optional)
//	author A <e> T Z
//	committer C <e> T Z
//
//	message
//
// The message is followed by exactly one newline.
func MarshalCommit(c *Commit) ([]byte, error) {
	if c.Tree.IsZero() {
		return nil, fmt.Errorf("marshal commit: %w: tree", ErrMissingField)
	}
	for _, s := range []Signature{c.Author, c.Committer} {
		if strings.ContainsAny(s.Identity, "\n\x00") {
			return nil, fmt.Errorf("marshal commit: identity %q contains a line break", s.Identity)
		}
		if !validZone(s.Zone) {
			return nil, fmt.Errorf("marshal commit: bad timezone %q", s.Zone)
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.Tree)
	if c.Parent != nil {
		fmt.Fprintf(&buf, "parent %s\n", *c.Parent)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// UnmarshalCommit parses a Commit from its serialized form.
func UnmarshalCommit(data []byte) (*Commit, error) {
	// Older writers emitted a blank line ahead of the tree header.
	data = bytes.TrimPrefix(data, []byte("\n"))

	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: %w: missing header/message separator", ErrCorruptObject)
	}
	header := string(data[:idx])
	message := strings.TrimSuffix(string(data[idx+2:]), "\n")

	c := &Commit{Message: message}
	var haveTree, haveAuthor, haveCommitter bool
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: %w: malformed header line %q", ErrCorruptObject, line)
		}
		switch key {
		case "tree":
			if haveTree {
				return nil, fmt.Errorf("unmarshal commit: %w: duplicate tree", ErrCorruptObject)
			}
			h, err := parseHeaderHash(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: tree: %w", err)
			}
			c.Tree = h
			haveTree = true
		case "parent":
			if c.Parent != nil {
				return nil, fmt.Errorf("unmarshal commit: %w: multiple parents are not supported", ErrCorruptObject)
			}
			h, err := parseHeaderHash(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: parent: %w", err)
			}
			c.Parent = &h
		case "author":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: author: %w", err)
			}
			c.Author = sig
			haveAuthor = true
		case "committer":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
			}
			c.Committer = sig
			haveCommitter = true
		default:
			return nil, fmt.Errorf("unmarshal commit: %w: unknown header key %q", ErrCorruptObject, key)
		}
	}

	switch {
	case !haveTree:
		return nil, fmt.Errorf("unmarshal commit: %w: tree", ErrMissingField)
	case !haveAuthor:
		return nil, fmt.Errorf("unmarshal commit: %w: author", ErrMissingField)
	case !haveCommitter:
		return nil, fmt.Errorf("unmarshal commit: %w: committer", ErrMissingField)
	}
	return c, nil
}

// parseHeaderHash parses a hash written by MarshalCommit. Only lowercase hex
// is accepted so that decoding and re-encoding yields the same bytes.
func parseHeaderHash(s string) (Hash, error) {
	h, err := ParseHash(s)
	if err != nil {
		return ZeroHash, fmt.Errorf("%w: %v", ErrCorruptObject, err)
	}
	if h.String() != s {
		return ZeroHash, fmt.Errorf("%w: hash %q is not lowercase hex", ErrCorruptObject, s)
	}
	return h, nil
}
