package metadata

import "testing"

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"":      "en-US",
		"en":    "en-US",
		"es":    "es-US",
		"pt-br": "pt-BR",
		"pt_BR": "pt-BR",
	}
	for in, want := range cases {
		if got := normalizeLanguage(in); got != want {
			t.Errorf("normalizeLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}
