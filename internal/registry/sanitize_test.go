// internal/registry/sanitize_test.go
//
// Unit-tests for identifier sanitisation.

package registry

import "testing"

func TestSanitize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Acme", "Acme"},
		{"My Co. 2024!", "MyCo2024"},
		{"snake_case_ok", "snake_case_ok"},
		{"../../etc/passwd", "etcpasswd"},
		{"Ünïcödé Námé", "ncdNm"},
		{"πλατφόρμα", ""},
		{"a-b.c/d\\e", "abcde"},
		{"", ""},
	}

	for _, c := range cases {
		if got := Sanitize(c.in); got != c.want {
			t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSanitizeAlphabet(t *testing.T) {
	out := Sanitize("My Co. 2024!")
	for _, r := range out {
		ok := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' ||
			r >= '0' && r <= '9' || r == '_'
		if !ok {
			t.Fatalf("Sanitize leaked rune %q in %q", r, out)
		}
	}
}

func TestDatabaseID(t *testing.T) {
	got := DatabaseID("Acme Corp!", "0x00ABCDEF")
	want := "AcmeCorp_0x00ABCDEF"
	if got != want {
		t.Fatalf("DatabaseID = %q, want %q", got, want)
	}
}
