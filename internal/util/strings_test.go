package util

import "testing"

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sync Event", "sync event"},
		{"  Import Scores  ", "import scores"},
		{"GENIUS", "genius"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
