package textrepair

import "testing"

func TestFixMojibake(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"cafÃ©", "café"},
		{"donâ€™t", "don’t"},
		{"naÃ¯ve rÃ©sumÃ©", "naïve résumé"},
	}
	for _, tc := range cases {
		if got := Fix(tc.in); got != tc.want {
			t.Errorf("Fix(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFixLeavesCleanTextAlone(t *testing.T) {
	for _, s := range []string{"plain ascii", "já está correto", "日本語のテキスト", ""} {
		if got := Fix(s); got != s {
			t.Errorf("Fix(%q) = %q, expected unchanged", s, got)
		}
	}
}

func TestFixReplacesInvalidUTF8(t *testing.T) {
	in := "a\xffb"
	if got := Fix(in); got != "a�b" {
		t.Errorf("Fix(%q) = %q, want replacement rune", in, got)
	}
}
