package validation

import "testing"

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"plain address", "demo@example.com", false},
		{"subdomain", "a@mail.example.co.kr", false},
		{"missing at", "demo.example.com", true},
		{"missing domain dot", "demo@example", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	if err := ValidatePassword("pass123"); err != nil {
		t.Errorf("expected 7-char password to pass, got %v", err)
	}
	if err := ValidatePassword("pass1"); err == nil {
		t.Error("expected 5-char password to fail")
	}
	if err := ValidatePassword(""); err == nil {
		t.Error("expected empty password to fail")
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  hello  ", "hello"},
		{"keeps newline and tab", "a\nb\tc", "a\nb\tc"},
		{"strips control chars", "a\x00b\x1bc", "abc"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
