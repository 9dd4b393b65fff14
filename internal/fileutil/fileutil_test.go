package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Plain Name", "Plain Name"},
		{`A<B>C:D"E/F\G|H?I*J`, "A_B_C_D_E_F_G_H_I_J"},
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeName(tc.in); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "dst.png")
	payload := []byte("fake png payload")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile returned error: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("destination content %q, want %q", got, payload)
	}
}

func TestWriteFileAtomicCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "cache.json")
	if err := WriteFileAtomic(path, []byte(`{}`)); err != nil {
		t.Fatalf("WriteFileAtomic returned error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != `{}` {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestFileSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	if err := os.WriteFile(path, make([]byte, 1234), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	size, err := FileSize(path)
	if err != nil {
		t.Fatalf("FileSize returned error: %v", err)
	}
	if size != 1234 {
		t.Fatalf("size = %d, want 1234", size)
	}
	if _, err := FileSize(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
