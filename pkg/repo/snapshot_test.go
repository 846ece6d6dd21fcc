package repo

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/odvcencio/gitlite/pkg/object"
)

func setFixedIdentity(t *testing.T) {
	t.Helper()
	for _, role := range []string{"AUTHOR", "COMMITTER"} {
		t.Setenv("GIT_"+role+"_NAME", "A U Thor")
		t.Setenv("GIT_"+role+"_EMAIL", "author@example.com")
		t.Setenv("GIT_"+role+"_DATE", "1700000000 +0000")
	}
}

func commitWorktree(t *testing.T, r *Repo, message string) object.Hash {
	t.Helper()
	h, err := r.Commit(message)
	if err != nil {
		t.Fatalf("Commit(%q): %v", message, err)
	}
	return h
}

func TestReconstruct_SingleFile(t *testing.T) {
	setFixedIdentity(t)
	r := initTestRepo(t)
	writeTestFile(t, filepath.Join(r.RootDir, "hello.txt"), "hello\n")
	h := commitWorktree(t, r, "initial")

	snap, err := r.Reconstruct(h)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(snap.Entries) != 1 {
		t.Fatalf("snapshot has %d entries, want 1", len(snap.Entries))
	}
	e, ok := snap.Entries["hello.txt"]
	if !ok {
		t.Fatalf("snapshot entries = %v, want hello.txt", snap.Entries)
	}
	if string(e.Data) != "hello\n" || e.IsDir() || e.Mode != object.ModeFile {
		t.Errorf("hello.txt = %+v", e)
	}
	if snap.Tree.String() != "aaa96ced2d9a1c8e72c56b253a0e2fe78393feb7" {
		t.Errorf("snapshot tree = %s", snap.Tree)
	}
}

func TestReconstruct_NestedPaths(t *testing.T) {
	setFixedIdentity(t)
	r := initTestRepo(t)
	writeTestFile(t, filepath.Join(r.RootDir, "file1.txt"), "one")
	writeTestFile(t, filepath.Join(r.RootDir, "dir1", "a.txt"), "a")
	writeTestFile(t, filepath.Join(r.RootDir, "dir1", "sub", "deep.txt"), "deep")
	writeTestFile(t, filepath.Join(r.RootDir, "dir2", "b.txt"), "b")
	h := commitWorktree(t, r, "nested")

	snap, err := r.Reconstruct(h)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}

	want := map[string][]byte{
		"file1.txt":         []byte("one"),
		"dir1/a.txt":        []byte("a"),
		"dir1/sub/deep.txt": []byte("deep"),
		"dir2/b.txt":        []byte("b"),
	}
	if diff := cmp.Diff(want, snap.Files()); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}

	dir1, ok := snap.Entries["dir1"]
	if !ok || !dir1.IsDir() {
		t.Fatalf("dir1 = %+v, want directory", dir1)
	}
	if _, ok := dir1.Dir.Entries["dir1/sub"]; !ok {
		t.Errorf("dir1 entries not keyed by accumulated path: %v", dir1.Dir.Entries)
	}

	deep, ok := snap.Lookup("dir1/sub/deep.txt")
	if !ok || string(deep.Data) != "deep" {
		t.Errorf("Lookup(dir1/sub/deep.txt) = %+v, %v", deep, ok)
	}
	if _, ok := snap.Lookup("dir1/missing"); ok {
		t.Error("Lookup found a missing path")
	}
	if _, ok := snap.Lookup("file1.txt/child"); ok {
		t.Error("Lookup descended into a file")
	}
}

func TestReconstruct_MissingCommit(t *testing.T) {
	r := initTestRepo(t)
	missing := object.MustParseHash("0123456789abcdef0123456789abcdef01234567")
	snap, err := r.Reconstruct(missing)
	if !errors.Is(err, object.ErrObjectNotFound) {
		t.Fatalf("Reconstruct error = %v, want ErrObjectNotFound", err)
	}
	if snap != nil {
		t.Errorf("Reconstruct returned partial snapshot %+v", snap)
	}
}

func TestReconstruct_MissingBlob(t *testing.T) {
	setFixedIdentity(t)
	r := initTestRepo(t)
	tree, err := r.Store.WriteTree(&object.Tree{Entries: []object.TreeEntry{
		{Mode: object.ModeFile, Name: "ghost.txt", Hash: object.HashObject(object.TypeBlob, []byte("never stored"))},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	h, err := r.CommitTree(tree, nil, "dangling")
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}
	if _, err := r.Reconstruct(h); !errors.Is(err, object.ErrObjectNotFound) {
		t.Fatalf("Reconstruct error = %v, want ErrObjectNotFound", err)
	}
}

func TestReconstruct_CommitWithoutTree(t *testing.T) {
	r := initTestRepo(t)
	body := []byte("author A <a@b> 1 +0000\ncommitter A <a@b> 1 +0000\n\nno tree\n")
	h, err := r.Store.Write(object.TypeCommit, body)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := r.Reconstruct(h); !errors.Is(err, object.ErrMissingField) {
		t.Fatalf("Reconstruct error = %v, want ErrMissingField", err)
	}
}

func TestReconstruct_NotACommit(t *testing.T) {
	r := initTestRepo(t)
	h, err := r.Store.WriteBlob(&object.Blob{Data: []byte("blob")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := r.Reconstruct(h); !errors.Is(err, object.ErrCorruptObject) {
		t.Fatalf("Reconstruct error = %v, want ErrCorruptObject", err)
	}
}

func TestReconstructTree_RejectsDuplicateNames(t *testing.T) {
	r := initTestRepo(t)
	first, err := r.Store.WriteBlob(&object.Blob{Data: []byte("first")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	second, err := r.Store.WriteBlob(&object.Blob{Data: []byte("second")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	var body []byte
	for _, h := range []object.Hash{first, second} {
		body = append(body, "100644 x.txt\x00"...)
		body = append(body, h[:]...)
	}
	tree, err := r.Store.Write(object.TypeTree, body)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	snap, err := r.ReconstructTree(tree)
	if !errors.Is(err, object.ErrCorruptObject) {
		t.Fatalf("ReconstructTree error = %v, want ErrCorruptObject", err)
	}
	if snap != nil {
		t.Errorf("ReconstructTree returned partial snapshot %+v", snap)
	}
}

func TestSnapshot_WalkOrder(t *testing.T) {
	setFixedIdentity(t)
	r := initTestRepo(t)
	writeTestFile(t, filepath.Join(r.RootDir, "b.txt"), "b")
	writeTestFile(t, filepath.Join(r.RootDir, "a", "x.txt"), "x")
	h := commitWorktree(t, r, "walk")

	snap, err := r.Reconstruct(h)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	var paths []string
	if err := snap.Walk(func(e *SnapshotEntry) error {
		paths = append(paths, e.Path)
		return nil
	}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "a/x.txt", "b.txt"}, paths); diff != "" {
		t.Errorf("Walk order mismatch (-want +got):\n%s", diff)
	}
}
