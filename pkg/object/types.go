package object

import (
	"fmt"
	"strconv"
	"strings"
)

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

// ParseObjectType validates an envelope type token.
func ParseObjectType(s string) (ObjectType, error) {
	switch t := ObjectType(s); t {
	case TypeBlob, TypeTree, TypeCommit:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownObjectType, s)
	}
}

// Mode is a tree entry mode. Only directories and regular files are produced
// by this package, but any octal value read from a tree is preserved.
type Mode uint32

const (
	ModeDir        Mode = 0o40000
	ModeFile       Mode = 0o100644
	ModeExecutable Mode = 0o100755
	ModeSymlink    Mode = 0o120000
)

// ParseMode parses the unpadded octal form used inside tree bodies. A
// zero-padded mode such as "040000" is rejected.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty mode", ErrCorruptObject)
	}
	if s[0] == '0' {
		return 0, fmt.Errorf("%w: zero-padded mode %q", ErrCorruptObject, s)
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad mode %q", ErrCorruptObject, s)
	}
	return Mode(v), nil
}

// String renders the mode as stored in a tree body ("40000", "100644").
func (m Mode) String() string {
	return strconv.FormatUint(uint64(m), 8)
}

// IsDir reports whether the entry refers to a subtree.
func (m Mode) IsDir() bool {
	return m == ModeDir
}

// Type is the kind of object an entry with this mode points at.
func (m Mode) Type() ObjectType {
	if m.IsDir() {
		return TypeTree
	}
	return TypeBlob
}

// Object is implemented by Blob, Tree and Commit.
type Object interface {
	Type() ObjectType
}

// Blob holds raw file data. A nil and an empty Data encode identically.
type Blob struct {
	Data []byte
}

func (*Blob) Type() ObjectType { return TypeBlob }

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Mode Mode
	Name string
	Hash Hash
}

// Tree holds a list of entries, sorted by Name once encoded. A nil and an
// empty Entries encode identically; decoding an empty body yields nil.
type Tree struct {
	Entries []TreeEntry
}

func (*Tree) Type() ObjectType { return TypeTree }

// Clone returns a copy of tr that shares no memory with it.
func (tr *Tree) Clone() *Tree {
	if tr == nil {
		return nil
	}
	out := &Tree{}
	if tr.Entries != nil {
		out.Entries = make([]TreeEntry, len(tr.Entries))
		copy(out.Entries, tr.Entries)
	}
	return out
}

// Entry returns the entry named name.
func (tr *Tree) Entry(name string) (TreeEntry, bool) {
	for _, e := range tr.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}

// Signature is an author or committer line: identity, epoch seconds and a
// "+HHMM"/"-HHMM" zone offset.
type Signature struct {
	Identity string // "Name <email>"
	When     int64
	Zone     string
}

func (s Signature) String() string {
	return fmt.Sprintf("%s %d %s", s.Identity, s.When, s.Zone)
}

// ParseSignature splits "Name <email> 1700000000 +0100" from the right, so
// identities may contain spaces.
func ParseSignature(s string) (Signature, error) {
	zoneIdx := strings.LastIndexByte(s, ' ')
	if zoneIdx < 0 {
		return Signature{}, fmt.Errorf("%w: malformed signature %q", ErrCorruptObject, s)
	}
	zone := s[zoneIdx+1:]
	if !validZone(zone) {
		return Signature{}, fmt.Errorf("%w: bad timezone %q", ErrCorruptObject, zone)
	}
	rest := s[:zoneIdx]
	whenIdx := strings.LastIndexByte(rest, ' ')
	if whenIdx < 0 {
		return Signature{}, fmt.Errorf("%w: malformed signature %q", ErrCorruptObject, s)
	}
	when, err := strconv.ParseInt(rest[whenIdx+1:], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: bad timestamp %q", ErrCorruptObject, rest[whenIdx+1:])
	}
	return Signature{Identity: rest[:whenIdx], When: when, Zone: zone}, nil
}

func validZone(z string) bool {
	if len(z) != 5 || (z[0] != '+' && z[0] != '-') {
		return false
	}
	for i := 1; i < len(z); i++ {
		if z[i] < '0' || z[i] > '9' {
			return false
		}
	}
	return true
}

// Commit records a tree, at most one parent, authorship and a message.
type Commit struct {
	Tree      Hash
	Parent    *Hash
	Author    Signature
	Committer Signature
	Message   string
}

func (*Commit) Type() ObjectType { return TypeCommit }
