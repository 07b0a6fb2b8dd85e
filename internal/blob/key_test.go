package blob

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"spaces", "my report.pdf", "my_report.pdf"},
		{"unix traversal", "../../etc/passwd", "passwd"},
		{"windows traversal", `..\..\windows\system32`, "system32"},
		{"special chars", "a&b|c;d.txt", "a_b_c_d.txt"},
		{"unicode", "résumé.doc", "r_sum_.doc"},
		{"dots only", "....", "file"},
		{"empty", "", "file"},
		{"keeps safe set", "A-b_9.tar.gz", "A-b_9.tar.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.input)
			if got != tt.want {
				t.Fatalf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewStorageKey(t *testing.T) {
	key := NewStorageKey("../../etc/passwd")

	if strings.ContainsAny(key, `/\`) {
		t.Fatalf("storage key contains path separators: %q", key)
	}
	if strings.Contains(key, "..") {
		t.Fatalf("storage key contains dot-dot: %q", key)
	}
	if !strings.HasSuffix(key, "-passwd") {
		t.Fatalf("expected sanitized name suffix, got %q", key)
	}

	other := NewStorageKey("../../etc/passwd")
	if key == other {
		t.Fatalf("two keys for the same name collided: %q", key)
	}
}
