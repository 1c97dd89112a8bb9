package filewalker

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, root, name string) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("a = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalkVariablesFirst(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "common/traits/00_traits.txt")
	touch(t, root, "common/script_values/00_values.txt")
	touch(t, root, "events/birth.txt")
	touch(t, root, "notes.md")

	entries, err := NewWalker().Walk(root)
	if err != nil {
		t.Fatalf("Walk() failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries: %v", len(entries), entries)
	}
	if entries[0].Rel != "common/script_values/00_values.txt" {
		t.Errorf("expected script_values first, got %q", entries[0].Rel)
	}
}

func TestWalkCustomExtension(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "out/traits.json")
	touch(t, root, "out/traits.txt")

	w := &Walker{Ext: ".json"}
	entries, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk() failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Rel != "out/traits.json" {
		t.Errorf("got %v", entries)
	}
}

func TestWalkRejectsFileRoot(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "single.txt")

	if _, err := NewWalker().Walk(filepath.Join(root, "single.txt")); err == nil {
		t.Error("expected error for non-directory root")
	}
}
