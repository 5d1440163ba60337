package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileCreatesParents(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "dir", "out.json")
	if err := SafeWriteFile(p, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != `{"ok":true}` {
		t.Fatalf("content: %q", b)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := ExpandHome("~/.demograph/views")
	if err != nil {
		t.Fatalf("ExpandHome: %v", err)
	}
	if want := filepath.Join(home, ".demograph", "views"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got, _ := ExpandHome("/tmp/x/../y"); got != "/tmp/y" {
		t.Fatalf("clean: %q", got)
	}
}
