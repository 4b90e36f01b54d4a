package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid E.164 format",
			input: "+972541234567",
			want:  "+972541234567",
		},
		{
			name:  "international with spaces",
			input: "+33 6 12 34 56 78",
			want:  "+33612345678",
		},
		{
			name:  "international with parentheses",
			input: "+1 (212) 555-1234",
			want:  "+12125551234",
		},
		{
			name:  "national number keeps digits",
			input: "06.12.34.56.78",
			want:  "0612345678",
		},
		{
			name:  "leading and trailing spaces",
			input: "  +972541234567  ",
			want:  "+972541234567",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "letters are left for the validator",
			input: "call me",
			want:  "callme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizePhone(got); again != got {
				t.Errorf("NormalizePhone is not idempotent: %q -> %q", got, again)
			}
		})
	}
}
