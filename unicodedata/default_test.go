package unicodedata

import (
	"testing"

	"github.com/inkwell/shaping/font"
)

func TestDefaultGeneralCategory(t *testing.T) {
	cases := []struct {
		cp   rune
		want GeneralCategory
	}{
		{'A', UppercaseLetter},
		{'a', LowercaseLetter},
		{'0', DecimalNumber},
		{' ', SpaceSeparator},
		{0x0301, NonSpacingMark}, // combining acute accent
		{0x093F, SpacingMark},    // Devanagari vowel sign I
	}
	for _, c := range cases {
		if got := (Default{}).GeneralCategory(c.cp); got != c.want {
			t.Errorf("GeneralCategory(%U) = %v, want %v", c.cp, got, c.want)
		}
	}
}

func TestGeneralCategoryIsMark(t *testing.T) {
	for _, cat := range []GeneralCategory{SpacingMark, EnclosingMark, NonSpacingMark} {
		if !cat.IsMark() {
			t.Errorf("%v.IsMark() = false, want true", cat)
		}
	}
	if UppercaseLetter.IsMark() {
		t.Error("UppercaseLetter.IsMark() = true, want false")
	}
}

func TestDefaultCombiningClass(t *testing.T) {
	if got := (Default{}).CombiningClass(0x17D2); got != 9 {
		t.Errorf("CombiningClass(KHMER SIGN COENG) = %d, want 9 (virama)", got)
	}
	if got := (Default{}).CombiningClass('A'); got != 0 {
		t.Errorf("CombiningClass('A') = %d, want 0", got)
	}
}

func TestDefaultDecomposeCompose(t *testing.T) {
	// U+00E9 (e with acute) decomposes to 'e' + combining acute U+0301.
	a, b, ok := (Default{}).Decompose(0x00E9)
	if !ok || a != 'e' || b != 0x0301 {
		t.Fatalf("Decompose(é) = (%U, %U, %v), want (e, U+0301, true)", a, b, ok)
	}
	c, ok := (Default{}).Compose('e', 0x0301)
	if !ok || c != 0x00E9 {
		t.Fatalf("Compose(e, U+0301) = (%U, %v), want (é, true)", c, ok)
	}
}

func TestDefaultDecomposeNoDecomposition(t *testing.T) {
	if _, _, ok := (Default{}).Decompose('A'); ok {
		t.Error("Decompose('A') reported a decomposition for a base letter")
	}
}

func TestDefaultDecomposeExcludesCompatibility(t *testing.T) {
	// U+FB01 LATIN SMALL LIGATURE FI only has a compatibility decomposition.
	if _, _, ok := (Default{}).Decompose(0xFB01); ok {
		t.Error("Decompose(ﬁ) reported a canonical decomposition, want none (compatibility-only)")
	}
}

func TestDefaultScript(t *testing.T) {
	cases := []struct {
		cp   rune
		want font.Script
	}{
		{'A', font.ScriptLatin},
		{0x0627, font.ScriptArabic}, // ALEF
		{0x0915, font.ScriptDevanagari},
		{0x17A0, font.ScriptKhmer},
	}
	for _, c := range cases {
		if got := (Default{}).Script(c.cp); got != c.want {
			t.Errorf("Script(%U) = %v, want %v", c.cp, got, c.want)
		}
	}
}

func TestDefaultJoiningType(t *testing.T) {
	cases := []struct {
		cp   rune
		want JoiningType
	}{
		{0x0644, JoiningDual},  // LAM
		{0x0627, JoiningRight}, // ALEF
		{0x0621, JoiningNone},  // HAMZA
		{'A', JoiningNone},
	}
	for _, c := range cases {
		if got := (Default{}).JoiningType(c.cp); got != c.want {
			t.Errorf("JoiningType(%U) = %v, want %v", c.cp, got, c.want)
		}
	}
}

func TestDefaultIsDefaultIgnorable(t *testing.T) {
	if !(Default{}).IsDefaultIgnorable(0x200B) { // ZWSP
		t.Error("IsDefaultIgnorable(ZWSP) = false, want true")
	}
	if (Default{}).IsDefaultIgnorable('A') {
		t.Error("IsDefaultIgnorable('A') = true, want false")
	}
}
