package util

import "testing"

func TestGenerateNumericOTP(t *testing.T) {
	code, err := GenerateNumericOTP(6)
	if err != nil {
		t.Fatalf("GenerateNumericOTP returned error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %d", len(code))
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("expected numeric code, got %q", code)
		}
	}
}

func TestGenerateNumericOTPDefaultsLength(t *testing.T) {
	code, err := GenerateNumericOTP(0)
	if err != nil {
		t.Fatalf("GenerateNumericOTP returned error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected default length 6, got %d", len(code))
	}
}

func TestGenerateNumericOTPVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		code, err := GenerateNumericOTP(8)
		if err != nil {
			t.Fatalf("GenerateNumericOTP returned error: %v", err)
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatal("expected generated codes to vary across calls")
	}
}
