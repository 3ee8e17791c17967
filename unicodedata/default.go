package unicodedata

import (
	"sort"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"

	"github.com/inkwell/shaping/font"
)

// Default is a Provider backed by the standard library's Unicode tables
// (general category, script ranges) and golang.org/x/text (canonical
// decomposition/combining class via unicode/norm, bidi class via
// unicode/bidi). The Unicode Character Database itself is reproduced
// nowhere in the examples pack as a third-party Go library beyond these
// two, so general-category/script classification falls back to the
// standard library's generated range tables — see DESIGN.md.
type Default struct{}

var _ Provider = Default{}

func (Default) GeneralCategory(cp rune) GeneralCategory {
	switch {
	case unicode.Is(unicode.Cc, cp):
		return Control
	case unicode.Is(unicode.Cf, cp):
		return Format
	case unicode.Is(unicode.Co, cp):
		return PrivateUse
	case unicode.Is(unicode.Cs, cp):
		return Surrogate
	case unicode.Is(unicode.Ll, cp):
		return LowercaseLetter
	case unicode.Is(unicode.Lm, cp):
		return ModifierLetter
	case unicode.Is(unicode.Lo, cp):
		return OtherLetter
	case unicode.Is(unicode.Lt, cp):
		return TitlecaseLetter
	case unicode.Is(unicode.Lu, cp):
		return UppercaseLetter
	case unicode.Is(unicode.Mc, cp):
		return SpacingMark
	case unicode.Is(unicode.Me, cp):
		return EnclosingMark
	case unicode.Is(unicode.Mn, cp):
		return NonSpacingMark
	case unicode.Is(unicode.Nd, cp):
		return DecimalNumber
	case unicode.Is(unicode.Nl, cp):
		return LetterNumber
	case unicode.Is(unicode.No, cp):
		return OtherNumber
	case unicode.Is(unicode.Pc, cp):
		return ConnectPunctuation
	case unicode.Is(unicode.Pd, cp):
		return DashPunctuation
	case unicode.Is(unicode.Pe, cp):
		return ClosePunctuation
	case unicode.Is(unicode.Pf, cp):
		return FinalPunctuation
	case unicode.Is(unicode.Pi, cp):
		return InitialPunctuation
	case unicode.Is(unicode.Po, cp):
		return OtherPunctuation
	case unicode.Is(unicode.Ps, cp):
		return OpenPunctuation
	case unicode.Is(unicode.Sc, cp):
		return CurrencySymbol
	case unicode.Is(unicode.Sk, cp):
		return ModifierSymbol
	case unicode.Is(unicode.Sm, cp):
		return MathSymbol
	case unicode.Is(unicode.So, cp):
		return OtherSymbol
	case cp == ' ':
		return LineSeparator
	case cp == ' ':
		return ParagraphSeparator
	case unicode.Is(unicode.Zs, cp):
		return SpaceSeparator
	default:
		return Unassigned
	}
}

func (Default) CombiningClass(cp rune) uint8 {
	return norm.NFD.PropertiesString(string(cp)).CCC()
}

func (Default) Decompose(cp rune) (a, b rune, ok bool) {
	props := norm.NFD.PropertiesString(string(cp))
	dec := props.Decomposition()
	if dec == nil || props.IsCompatibility() {
		return 0, 0, false
	}
	r1, n := utf8.DecodeRune(dec)
	if n == 0 || n == len(dec) {
		if n == len(dec) && r1 != utf8.RuneError {
			return r1, 0, true
		}
		return 0, 0, false
	}
	r2, _ := utf8.DecodeRune(dec[n:])
	return r1, r2, true
}

// Compose inverts Decompose by normalizing "a"+"b" to NFC and checking
// whether it collapsed to a single codepoint; golang.org/x/text/unicode/norm
// does not expose pairwise composition directly, so this is the
// standard way to query it through the public API.
func (Default) Compose(a, b rune) (rune, bool) {
	buf := make([]byte, 0, 8)
	buf = utf8.AppendRune(buf, a)
	buf = utf8.AppendRune(buf, b)
	composed := norm.NFC.Bytes(buf)
	r, n := utf8.DecodeRune(composed)
	if n != len(composed) || r == utf8.RuneError {
		return 0, false
	}
	return r, true
}

func (Default) BidiClass(cp rune) BidiClass {
	p, _ := bidi.Lookup([]byte(string(cp)))
	if p == nil {
		return BidiOther
	}
	switch p.Class() {
	case bidi.L:
		return BidiL
	case bidi.R:
		return BidiR
	case bidi.AL:
		return BidiAL
	case bidi.EN:
		return BidiEN
	case bidi.ES:
		return BidiES
	case bidi.ET:
		return BidiET
	case bidi.AN:
		return BidiAN
	case bidi.CS:
		return BidiCS
	case bidi.NSM:
		return BidiNSM
	case bidi.BN:
		return BidiBN
	default:
		return BidiOther
	}
}

// scriptRanges maps a stdlib unicode script table to the ISO 15924 tag
// the complex shapers key off of. Only the scripts this engine has a
// dedicated or Universal-Shaping-Engine path for are listed; anything
// else resolves via the catch-all below to ScriptInherited (control
// characters and nonspacing marks) or ScriptCommon.
var scriptRanges = []struct {
	table *unicode.RangeTable
	tag   font.Script
}{
	{unicode.Arabic, font.ScriptArabic},
	{unicode.Hebrew, font.ScriptHebrew},
	{unicode.Devanagari, font.ScriptDevanagari},
	{unicode.Bengali, font.ScriptBengali},
	{unicode.Gurmukhi, font.ScriptGurmukhi},
	{unicode.Gujarati, font.ScriptGujarati},
	{unicode.Oriya, font.ScriptOriya},
	{unicode.Tamil, font.ScriptTamil},
	{unicode.Telugu, font.ScriptTelugu},
	{unicode.Kannada, font.ScriptKannada},
	{unicode.Malayalam, font.ScriptMalayalam},
	{unicode.Khmer, font.ScriptKhmer},
	{unicode.Myanmar, font.ScriptMyanmar},
	{unicode.Hangul, font.ScriptHangul},
	{unicode.Thai, font.ScriptThai},
	{unicode.Greek, font.ScriptGreek},
	{unicode.Cyrillic, font.ScriptCyrillic},
	{unicode.Han, font.ScriptHan},
	{unicode.Hiragana, font.ScriptHiragana},
	{unicode.Katakana, font.ScriptKatakana},
	{unicode.Latin, font.ScriptLatin},
}

func (Default) Script(cp rune) font.Script {
	for _, sr := range scriptRanges {
		if unicode.Is(sr.table, cp) {
			return sr.tag
		}
	}
	if unicode.IsControl(cp) || unicode.Is(unicode.Mn, cp) {
		return font.ScriptInherited
	}
	return font.ScriptCommon
}

// joiningRange is one contiguous run of codepoints sharing a joining type.
// The table covers the core Arabic block and the lam-alef presentation
// ligatures only; Syriac and Mongolian letters are not listed and report
// JoiningNone.
// This table has no third-party source in the examples pack (Arabic
// joining type is not exposed by golang.org/x/text); see DESIGN.md.
type joiningRange struct {
	lo, hi rune
	typ    JoiningType
}

var joiningTable = []joiningRange{
	{0x0600, 0x0605, JoiningTransparent},
	{0x060C, 0x060C, JoiningNone},
	{0x0610, 0x061A, JoiningTransparent},
	{0x0621, 0x0621, JoiningNone},       // HAMZA
	{0x0622, 0x0622, JoiningRight},      // ALEF WITH MADDA ABOVE
	{0x0623, 0x0623, JoiningRight},      // ALEF WITH HAMZA ABOVE
	{0x0624, 0x0624, JoiningRight},      // WAW WITH HAMZA ABOVE
	{0x0625, 0x0625, JoiningRight},      // ALEF WITH HAMZA BELOW
	{0x0626, 0x0626, JoiningDual},       // YEH WITH HAMZA ABOVE
	{0x0627, 0x0627, JoiningRight},      // ALEF
	{0x0628, 0x0628, JoiningDual},       // BEH
	{0x0629, 0x0629, JoiningRight},      // TEH MARBUTA
	{0x062A, 0x062B, JoiningDual},       // TEH, THEH
	{0x062C, 0x062E, JoiningDual},       // JEEM, HAH, KHAH
	{0x062F, 0x0630, JoiningRight},      // DAL, THAL
	{0x0631, 0x0632, JoiningRight},      // REH, ZAIN
	{0x0633, 0x0634, JoiningDual},       // SEEN, SHEEN
	{0x0635, 0x0638, JoiningDual},       // SAD..ZAH
	{0x0639, 0x063A, JoiningDual},       // AIN, GHAIN
	{0x0640, 0x0640, JoiningCausing},    // TATWEEL
	{0x0641, 0x0642, JoiningDual},       // FEH, QAF
	{0x0643, 0x0643, JoiningDual},       // KAF
	{0x0644, 0x0644, JoiningDual},       // LAM
	{0x0645, 0x0646, JoiningDual},       // MEEM, NOON
	{0x0647, 0x0647, JoiningDual},       // HEH
	{0x0648, 0x0648, JoiningRight},      // WAW
	{0x0649, 0x064A, JoiningDual},       // ALEF MAKSURA, YEH
	{0x064B, 0x065F, JoiningTransparent},
	{0x0670, 0x0670, JoiningTransparent},
	{0x0671, 0x0673, JoiningRight},
	{0x0674, 0x0674, JoiningNone},
	{0x0675, 0x0677, JoiningRight},
	{0x0678, 0x0687, JoiningDual},
	{0x0688, 0x0699, JoiningRight},
	{0x069A, 0x06D3, JoiningDual},
	{0x06D5, 0x06D5, JoiningRight},
	{0x06D6, 0x06DC, JoiningTransparent},
	{0x06DF, 0x06E4, JoiningTransparent},
	{0x06E7, 0x06E8, JoiningTransparent},
	{0x06EA, 0x06ED, JoiningTransparent},
	{0xFEFB, 0xFEFC, JoiningRight}, // LAM-ALEF presentation ligatures
}

func init() {
	sort.Slice(joiningTable, func(i, j int) bool { return joiningTable[i].lo < joiningTable[j].lo })
}

func (Default) JoiningType(cp rune) JoiningType {
	lo, hi := 0, len(joiningTable)
	for lo < hi {
		mid := (lo + hi) / 2
		r := joiningTable[mid]
		switch {
		case cp < r.lo:
			hi = mid
		case cp > r.hi:
			lo = mid + 1
		default:
			return r.typ
		}
	}
	return JoiningNone
}

// defaultIgnorableRanges is the commonly-needed subset of
// Default_Ignorable_Code_Point: not derivable from a single stdlib table,
// so the well-known format/control ranges are listed explicitly.
var defaultIgnorableRanges = []struct{ lo, hi rune }{
	{0x00AD, 0x00AD},   // SOFT HYPHEN
	{0x034F, 0x034F},   // COMBINING GRAPHEME JOINER
	{0x061C, 0x061C},   // ARABIC LETTER MARK
	{0x115F, 0x1160},   // HANGUL CHOSEONG/JUNGSEONG FILLER
	{0x17B4, 0x17B5},   // KHMER VOWEL INHERENT AQ/AA
	{0x180B, 0x180F},   // MONGOLIAN FREE VARIATION SELECTORS
	{0x200B, 0x200F},   // ZWSP, ZWJ, ZWNJ, directional marks
	{0x202A, 0x202E},   // directional embeddings/overrides
	{0x2060, 0x206F},   // WORD JOINER and deprecated format chars
	{0xFE00, 0xFE0F},   // variation selectors 1-16
	{0xFEFF, 0xFEFF},   // ZERO WIDTH NO-BREAK SPACE / BOM
	{0xFFF0, 0xFFF8},   // unassigned specials
	{0xE0000, 0xE0FFF}, // tag characters and variation selectors 17-256
}

func (Default) IsDefaultIgnorable(cp rune) bool {
	for _, r := range defaultIgnorableRanges {
		if cp >= r.lo && cp <= r.hi {
			return true
		}
	}
	return false
}
