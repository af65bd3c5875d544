// pathenc_test.go

package pathenc

import (
	"os"
	"testing"
)

func TestDetectUTF8LocaleIsIdentity(t *testing.T) {
	old := os.Getenv("LC_ALL")
	os.Setenv("LC_ALL", "en_US.UTF-8")
	defer os.Setenv("LC_ALL", old)

	c, err := detect()
	if err != nil {
		t.Fatalf("detect: %s", err)
	}
	if !c.identity {
		t.Fatalf("expected identity codec for a UTF-8 locale")
	}
}

func TestLocaleCharsetParsing(t *testing.T) {
	cases := map[string]string{
		"en_US.UTF-8":      "UTF-8",
		"ja_JP.eucJP":       "eucJP",
		"C":                "",
		"":                 "",
		"ru_RU.KOI8-R@posix": "KOI8-R",
	}

	// localeCharset falls back to LC_CTYPE and LANG when LC_ALL is empty.
	t.Setenv("LC_CTYPE", "")
	t.Setenv("LANG", "")

	for loc, want := range cases {
		os.Setenv("LC_ALL", loc)
		got := localeCharset()
		if got != want {
			t.Errorf("localeCharset(%q) = %q, want %q", loc, got, want)
		}
	}
}

func TestToUTF8IdentityNoAlloc(t *testing.T) {
	old := current
	defer func() { current = old }()
	current = &codec{identity: true}

	before := IdentityConversions()
	b := []byte("hello.txt")
	out, err := ToUTF8(b)
	if err != nil {
		t.Fatalf("ToUTF8: %s", err)
	}
	if &out[0] != &b[0] {
		t.Fatalf("identity conversion should return the same backing array")
	}
	if IdentityConversions() != before+1 {
		t.Fatalf("identity counter did not advance")
	}
}

func TestFromUTF8RoundTripNonUTF8Locale(t *testing.T) {
	old := current
	defer func() { current = old }()

	cd, err := detectCharset("ISO-8859-1")
	if err != nil {
		t.Fatalf("detectCharset: %s", err)
	}
	current = cd

	name := []byte("caf\xe9.txt") // Latin-1 for "café.txt"
	u8, err := ToUTF8(name)
	if err != nil {
		t.Fatalf("ToUTF8: %s", err)
	}
	if string(u8) != "café.txt" {
		t.Fatalf("ToUTF8 round-trip mismatch: got %q", u8)
	}

	back, err := FromUTF8(u8)
	if err != nil {
		t.Fatalf("FromUTF8: %s", err)
	}
	if string(back) != string(name) {
		t.Fatalf("FromUTF8 did not invert ToUTF8: got %x want %x", back, name)
	}
}
