package sanitizer

import "testing"

func TestPhoneNormalizer_Normalize(t *testing.T) {
	tests := []struct {
		name   string
		region string
		input  string
		want   string
	}{
		{"e164 passthrough", "IN", "+919876543210", "+919876543210"},
		{"national number", "IN", "9876543210", "+919876543210"},
		{"national with trunk prefix", "IN", "09876543210", "+919876543210"},
		{"spaces and dashes", "IN", " +91 98765-43210 ", "+919876543210"},
		{"foreign number with country code", "IN", "+1 (212) 555-1234", "+12125551234"},
		{"other default region", "US", "(212) 555-1234", "+12125551234"},
		{"letters rejected", "IN", "call-me-123", ""},
		{"too short", "IN", "+1", ""},
		{"only whitespace", "IN", "   ", ""},
		{"empty", "IN", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPhoneNormalizer(tt.region).Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPhoneNormalizer_Idempotent(t *testing.T) {
	n := NewPhoneNormalizer("in")
	once := n.Normalize("98765 43210")
	if twice := n.Normalize(once); twice != once {
		t.Errorf("Normalize is not idempotent: %q then %q", once, twice)
	}
	if n.Region != "IN" {
		t.Errorf("expected region to be upper-cased, got %q", n.Region)
	}
}

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trim spaces", "  Asha Rao  ", "Asha Rao"},
		{"multiple spaces between words", "Asha    Rao", "Asha Rao"},
		{"tabs and newlines", "Asha\t\nRao", "Asha Rao"},
		{"empty string", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"unicode preserved", " आशा राव ", "आशा राव"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIDs(t *testing.T) {
	got := NormalizeIDs([]string{" A1 ", "b2", "A1"})
	want := []string{"a1", "b2", "a1"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeIDs length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NormalizeIDs[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if NormalizeIDs(nil) != nil {
		t.Errorf("NormalizeIDs(nil) should stay nil")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Asha.Rao@Example.COM "); got != "asha.rao@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
