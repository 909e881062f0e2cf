package text

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses spaces and newlines", "  Health  tips\n are   great!  ", "Health tips are great!"},
		{"strips byte order mark", "\ufeffCoffee cures headaches.", "Coffee cures headaches."},
		{"non-breaking space becomes space", "zero\u00a0risk", "zero risk"},
		{"tabs and carriage returns", "a\t\tb\r\nc", "a b c"},
		{"information separators", "a\x1fb", "a b"},
		{"empty", "", ""},
		{"whitespace only", " \n\t ", ""},
		{"already clean", "Coffee cures headaches.", "Coffee cures headaches."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"\ufeff\u00a0 mixed \n\n whitespace\t\u2003here ",
		"This miracle cure will blow your mind!",
		"line one\nline two\r\n\r\nline three",
		"\x1c\x1d\x1e\x1f",
	}

	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
