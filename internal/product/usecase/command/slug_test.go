package command

import "testing"

func TestBaseSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces collapse", "Galaxy  S24   Ultra", "Galaxy-S24-Ultra"},
		{"punctuation dropped", "iPhone 15 (Pro)!", "iPhone-15-Pro"},
		{"hyphens kept", "Wi-Fi Router", "Wi-Fi-Router"},
		{"underscores kept", "snake_case name", "snake_case-name"},
		{"trimmed", "  Pixel 8  ", "Pixel-8"},
		{"empty falls back", "!!!", "product"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BaseSlug(tt.in); got != tt.want {
				t.Errorf("BaseSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNextSlug(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"no siblings", nil, "phone"},
		{"bare sibling", []string{"phone"}, "phone-1"},
		{"numbered siblings", []string{"phone", "phone-1", "phone-7", "phone-3"}, "phone-8"},
		{"case insensitive", []string{"PHONE-2"}, "phone-3"},
		{"unrelated prefix ignored", []string{"phone-case", "phones", "phone-x1"}, "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextSlug("phone", tt.existing); got != tt.want {
				t.Errorf("NextSlug = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNextSlugQuotesBase(t *testing.T) {
	if got := NextSlug("a.b", []string{"axb"}); got != "a.b" {
		t.Errorf("expected metacharacters to be literal, got %q", got)
	}
}
