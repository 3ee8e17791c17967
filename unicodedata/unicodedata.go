// Package unicodedata defines the UnicodeData provider boundary the
// shaping engine consumes (spec §6) and a Default implementation backed
// by the standard library's generated Unicode tables (general category,
// script) plus golang.org/x/text for normalization and bidi class.
package unicodedata

import "github.com/inkwell/shaping/font"

// GeneralCategory is the Unicode General_Category, compacted to fit the
// 5-bit field GlyphInfo packs it into (spec §3).
type GeneralCategory uint8

const (
	Unassigned GeneralCategory = iota
	Control
	Format
	PrivateUse
	Surrogate
	LowercaseLetter
	ModifierLetter
	OtherLetter
	TitlecaseLetter
	UppercaseLetter
	SpacingMark
	EnclosingMark
	NonSpacingMark
	DecimalNumber
	LetterNumber
	OtherNumber
	ConnectPunctuation
	DashPunctuation
	ClosePunctuation
	FinalPunctuation
	InitialPunctuation
	OtherPunctuation
	OpenPunctuation
	CurrencySymbol
	ModifierSymbol
	MathSymbol
	OtherSymbol
	LineSeparator
	ParagraphSeparator
	SpaceSeparator
)

func (g GeneralCategory) IsMark() bool {
	return g == SpacingMark || g == EnclosingMark || g == NonSpacingMark
}

// JoiningType is the Arabic joining behavior of a codepoint.
type JoiningType uint8

const (
	JoiningNone JoiningType = iota
	JoiningCausing
	JoiningDual
	JoiningLeft
	JoiningRight
	JoiningTransparent
)

// BidiClass is a (small) subset of the Unicode bidirectional classes,
// enough to tell the normalizer and complex shapers what they need.
type BidiClass uint8

const (
	BidiL BidiClass = iota
	BidiR
	BidiAL
	BidiEN
	BidiES
	BidiET
	BidiAN
	BidiCS
	BidiNSM
	BidiBN
	BidiOther
)

// Provider is the external collaborator the engine needs: Unicode
// character properties and canonical decomposition/composition. Treated
// as a pure function of its input (spec §5).
type Provider interface {
	GeneralCategory(cp rune) GeneralCategory
	CombiningClass(cp rune) uint8
	Script(cp rune) font.Script
	JoiningType(cp rune) JoiningType
	BidiClass(cp rune) BidiClass
	IsDefaultIgnorable(cp rune) bool
	// Decompose returns the canonical decomposition of cp, if any.
	Decompose(cp rune) (a, b rune, ok bool)
	// Compose returns the canonical composition of a,b, if any.
	Compose(a, b rune) (c rune, ok bool)
}
