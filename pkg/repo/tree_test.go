package repo

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/odvcencio/gitlite/pkg/object"
)

func initTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func treeNames(t *testing.T, r *Repo, h object.Hash) []string {
	t.Helper()
	tr, err := r.Store.ReadTree(h)
	if err != nil {
		t.Fatalf("ReadTree(%s): %v", h, err)
	}
	names := make([]string, 0, len(tr.Entries))
	for _, e := range tr.Entries {
		names = append(names, e.Name)
	}
	return names
}

func TestBuildTree_MatchesGitHash(t *testing.T) {
	r := initTestRepo(t)
	writeTestFile(t, filepath.Join(r.RootDir, "hello.txt"), "hello\n")

	h, err := r.WriteTree()
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if got, want := h.String(), "aaa96ced2d9a1c8e72c56b253a0e2fe78393feb7"; got != want {
		t.Errorf("tree hash = %s, want %s", got, want)
	}
	if !r.Store.Has(object.MustParseHash("ce013625030ba8dba906f756967f9e9ca394464a")) {
		t.Error("blob for hello.txt was not stored")
	}
}

func TestBuildTree_SortsByName(t *testing.T) {
	r := initTestRepo(t)
	writeTestFile(t, filepath.Join(r.RootDir, "b.txt"), "b")
	writeTestFile(t, filepath.Join(r.RootDir, "a.txt"), "a")
	writeTestFile(t, filepath.Join(r.RootDir, "c", "inner.txt"), "c")

	h, err := r.WriteTree()
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if diff := cmp.Diff([]string{"a.txt", "b.txt", "c"}, treeNames(t, r, h)); diff != "" {
		t.Errorf("entry order mismatch (-want +got):\n%s", diff)
	}

	tr, _ := r.Store.ReadTree(h)
	c, ok := tr.Entry("c")
	if !ok || c.Mode != object.ModeDir {
		t.Fatalf("entry c = %+v, want directory", c)
	}
	if diff := cmp.Diff([]string{"inner.txt"}, treeNames(t, r, c.Hash)); diff != "" {
		t.Errorf("subtree mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTree_SkipsMetadataDir(t *testing.T) {
	r := initTestRepo(t)
	writeTestFile(t, filepath.Join(r.RootDir, "keep.txt"), "keep")
	writeTestFile(t, filepath.Join(r.RootDir, "vendor", ".git", "HEAD"), "ref: refs/heads/main\n")
	writeTestFile(t, filepath.Join(r.RootDir, "vendor", "lib.go"), "package lib\n")

	h, err := r.WriteTree()
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if diff := cmp.Diff([]string{"keep.txt", "vendor"}, treeNames(t, r, h)); diff != "" {
		t.Errorf("root entries mismatch (-want +got):\n%s", diff)
	}
	tr, _ := r.Store.ReadTree(h)
	vendor, _ := tr.Entry("vendor")
	if diff := cmp.Diff([]string{"lib.go"}, treeNames(t, r, vendor.Hash)); diff != "" {
		t.Errorf("vendor entries mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTree_ModesAndEmptyDir(t *testing.T) {
	r := initTestRepo(t)
	script := filepath.Join(r.RootDir, "run.sh")
	writeTestFile(t, script, "#!/bin/sh\n")
	if err := os.Chmod(script, 0o755); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := os.Symlink("run.sh", filepath.Join(r.RootDir, "link")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	if err := os.Mkdir(filepath.Join(r.RootDir, "empty"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	h, err := r.WriteTree()
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	tr, err := r.Store.ReadTree(h)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}

	want := map[string]object.Mode{
		"empty":  object.ModeDir,
		"link":   object.ModeSymlink,
		"run.sh": object.ModeExecutable,
	}
	for name, mode := range want {
		e, ok := tr.Entry(name)
		if !ok {
			t.Errorf("missing entry %q", name)
			continue
		}
		if e.Mode != mode {
			t.Errorf("%s mode = %s, want %s", name, e.Mode, mode)
		}
	}

	empty, _ := tr.Entry("empty")
	if empty.Hash.String() != "4b825dc642cb6eb9a060e54bf8d69288fbee4904" {
		t.Errorf("empty dir hash = %s, want the empty tree", empty.Hash)
	}
	link, _ := tr.Entry("link")
	blob, err := r.Store.ReadBlob(link.Hash)
	if err != nil {
		t.Fatalf("ReadBlob(link): %v", err)
	}
	if string(blob.Data) != "run.sh" {
		t.Errorf("symlink blob = %q, want link target", blob.Data)
	}
}

func TestBuildTree_Idempotent(t *testing.T) {
	r := initTestRepo(t)
	writeTestFile(t, filepath.Join(r.RootDir, "dir1", "a.txt"), "a")
	writeTestFile(t, filepath.Join(r.RootDir, "file1.txt"), "1")

	first, err := r.WriteTree()
	if err != nil {
		t.Fatalf("first WriteTree: %v", err)
	}
	second, err := r.WriteTree()
	if err != nil {
		t.Fatalf("second WriteTree: %v", err)
	}
	if first != second {
		t.Errorf("unchanged content produced %s then %s", first, second)
	}

	writeTestFile(t, filepath.Join(r.RootDir, "dir1", "a.txt"), "changed")
	third, err := r.WriteTree()
	if err != nil {
		t.Fatalf("third WriteTree: %v", err)
	}
	if third == first {
		t.Error("changed content produced the same tree hash")
	}
}

func TestHashFile(t *testing.T) {
	r := initTestRepo(t)
	path := filepath.Join(r.RootDir, "test_file.txt")
	writeTestFile(t, path, "Hello, Git!")

	dry, err := r.HashFile(path, false)
	if err != nil {
		t.Fatalf("HashFile(dry): %v", err)
	}
	if r.Store.Has(dry) {
		t.Error("HashFile without write stored the blob")
	}

	h, err := r.HashFile(path, true)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if h != dry || h.String() != "7f118ff7695c4888a5ca943591eb013e40a63187" {
		t.Errorf("HashFile = %s (dry %s)", h, dry)
	}
	if !r.Store.Has(h) {
		t.Error("HashFile with write did not store the blob")
	}

	if _, err := r.HashFile(filepath.Join(r.RootDir, "nonexistent.txt"), true); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("HashFile(missing) error = %v, want fs.ErrNotExist", err)
	}
}
