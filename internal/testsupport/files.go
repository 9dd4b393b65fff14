package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// pngSignature is the magic header real screenshot outputs start with.
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// WriteScreenshot creates a stand-in PNG of the requested byte size: the
// PNG signature followed by padding. A size below the signature length
// writes just the signature.
func WriteScreenshot(t testing.TB, path string, size int64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	padding := size - int64(len(pngSignature))
	if padding < 0 {
		padding = 0
	}
	content := make([]byte, len(pngSignature), int64(len(pngSignature))+padding)
	copy(content, pngSignature)
	for i := int64(0); i < padding; i++ {
		content = append(content, 0x42)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
