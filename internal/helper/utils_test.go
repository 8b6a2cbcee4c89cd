package helper

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateUUID_Unique(t *testing.T) {
	a, err := GenerateUUID()
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateUUID()
	if err != nil {
		t.Fatal(err)
	}
	if a == b || len(a) != 36 {
		t.Fatalf("unexpected ids %q %q", a, b)
	}
}

func TestCreateFolder_Nested(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b")
	if err := CreateFolder(path); err != nil {
		t.Fatal(err)
	}
	if err := CreateFolder(path); err != nil {
		t.Fatalf("second call should be a no-op: %v", err)
	}
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %s", path)
	}
}

func TestPrettyPrint_Indented(t *testing.T) {
	var buf bytes.Buffer
	if err := PrettyPrint(&buf, map[string]string{"extracted_text": "a < b"}); err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"extracted_text\": \"a < b\"\n}\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
	if strings.Contains(buf.String(), "\\u003c") {
		t.Errorf("html must not be escaped")
	}
}
