package object

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
)

func TestFormatTree(t *testing.T) {
	tr := &Tree{Entries: []TreeEntry{
		{Mode: ModeFile, Name: "file1.txt", Hash: HashObject(TypeBlob, []byte("1"))},
		{Mode: ModeDir, Name: "dir2", Hash: HashObject(TypeTree, nil)},
		{Mode: ModeDir, Name: "dir1", Hash: HashObject(TypeTree, nil)},
	}}

	var names bytes.Buffer
	if err := FormatTree(&names, tr, true); err != nil {
		t.Fatalf("FormatTree(nameOnly): %v", err)
	}
	if want := "dir1\ndir2\nfile1.txt\n"; names.String() != want {
		t.Errorf("name-only listing = %q, want %q", names.String(), want)
	}

	var full bytes.Buffer
	if err := FormatTree(&full, tr, false); err != nil {
		t.Fatalf("FormatTree: %v", err)
	}
	line := regexp.MustCompile(`^[0-7]{6} (tree|blob) [0-9a-f]{40}\t\S+$`)
	lines := strings.Split(strings.TrimSuffix(full.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("listing has %d lines, want 3:\n%s", len(lines), full.String())
	}
	for _, l := range lines {
		if !line.MatchString(l) {
			t.Errorf("line %q does not match %s", l, line)
		}
	}
	if !strings.HasPrefix(lines[0], "040000 tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\tdir1") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "100644 blob ") {
		t.Errorf("last line = %q", lines[2])
	}
}
