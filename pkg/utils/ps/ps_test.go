package ps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirDiskUsage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), make([]byte, 100), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b"), make([]byte, 50), 0644); err != nil {
		t.Fatal(err)
	}
	size, err := DirDiskUsage(dir)
	if err != nil {
		t.Fatal(err)
	}
	if size != 150 {
		t.Fatalf("size = %d, want 150", size)
	}
}

func TestGetStatus(t *testing.T) {
	st, err := GetStatus(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if st.Memory.Total == 0 {
		t.Fatal("memory total is zero")
	}
	if st.Disk.DirSize != "0 B" {
		t.Fatalf("dir size %q", st.Disk.DirSize)
	}
}
