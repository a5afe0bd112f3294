package domain

import (
	"strings"
	"testing"
)

// FuzzValidateVerificationID checks that validation never panics on arbitrary
// input and that acceptance implies the documented prefix. Trust boundary
// functions must handle arbitrary input safely.
func FuzzValidateVerificationID(f *testing.F) {
	f.Add("")
	f.Add("ver_550e8400-e29b-41d4-a716-446655440000")
	f.Add("disp_550e8400-e29b-41d4-a716-446655440000")
	f.Add("not-an-id")
	f.Add("'; DROP TABLE verifications;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("ver_")

	f.Fuzz(func(t *testing.T, input string) {
		err := ValidateVerificationID(input)

		if err == nil && !strings.HasPrefix(input, "ver_") {
			t.Errorf("accepted id without prefix: %q", input)
		}

		// Validation is pure; the same input always yields the same answer.
		if again := ValidateVerificationID(input); (again == nil) != (err == nil) {
			t.Errorf("non-deterministic validation for %q", input)
		}
	})
}
