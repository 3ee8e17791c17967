package font

// GSUB subtable payloads. The engine (package shaping) type-switches over
// these; parsing font bytes into them is the adapter's job (see
// package sfntface), not the engine's.

type SingleSubst1 struct {
	Cov   Coverage
	Delta int16 // gid' = gid + Delta, mod 65536
}

type SingleSubst2 struct {
	Cov         Coverage
	Substitutes []GID // indexed by coverage index
}

type MultipleSubst struct {
	Cov       Coverage
	Sequences [][]GID // indexed by coverage index; output sequence per input glyph
}

type AlternateSubst struct {
	Cov        Coverage
	Alternates [][]GID // indexed by coverage index
}

type Ligature struct {
	Glyph      GID
	Components []GID // the 2nd..nth input glyphs (the first is implied by coverage)
}

type LigatureSubst struct {
	Cov          Coverage
	LigatureSets [][]Ligature // indexed by coverage index, longest-component-sequence first
}

type ReverseChainSingleSubst struct {
	Cov         Coverage
	Backtrack   []Coverage
	Lookahead   []Coverage
	Substitutes []GID // indexed by coverage index
}

// SequenceLookupRecord applies SubLookup at the given zero-based position
// within the matched input sequence (used by context/chain-context rules
// and by AAT-independent GSUB/GPOS contextual chaining).
type SequenceLookupRecord struct {
	SequenceIndex   uint16
	LookupListIndex uint16
}

// Context/chain-context format 1: a coverage-indexed set of explicit
// glyph-id rule sets.
type SequenceRule struct {
	Input        []GID // glyphs 2..n of the input sequence (first is covered glyph)
	LookupRecord []SequenceLookupRecord
}
type SequenceRuleSet []SequenceRule
type SequenceContext1 struct {
	Cov      Coverage
	RuleSets []SequenceRuleSet // indexed by coverage index
}

// Format 2: class-based.
type ClassSequenceRule struct {
	Input        []uint16 // classes 2..n
	LookupRecord []SequenceLookupRecord
}
type ClassSequenceRuleSet []ClassSequenceRule
type SequenceContext2 struct {
	Cov      Coverage
	ClassDef ClassDef
	RuleSets []ClassSequenceRuleSet // indexed by class
}

// Format 3: explicit per-position coverage.
type SequenceContext3 struct {
	Input        []Coverage
	LookupRecord []SequenceLookupRecord
}

// Chained variants add backtrack/lookahead context, each matched by the
// same per-format strategy (glyph, class, or coverage).
type ChainedSequenceRule struct {
	Backtrack    []GID // matched in reverse-scan order, closest glyph first
	Input        []GID
	Lookahead    []GID
	LookupRecord []SequenceLookupRecord
}
type ChainedSequenceRuleSet []ChainedSequenceRule
type ChainedSequenceContext1 struct {
	Cov      Coverage
	RuleSets []ChainedSequenceRuleSet
}

type ChainedClassSequenceRule struct {
	Backtrack    []uint16
	Input        []uint16
	Lookahead    []uint16
	LookupRecord []SequenceLookupRecord
}
type ChainedClassSequenceRuleSet []ChainedClassSequenceRule
type ChainedSequenceContext2 struct {
	Cov                                     Coverage
	BacktrackClassDef, InputClassDef, LookaheadClassDef ClassDef
	RuleSets                                []ChainedClassSequenceRuleSet // indexed by input class
}

type ChainedSequenceContext3 struct {
	Backtrack    []Coverage
	Input        []Coverage
	Lookahead    []Coverage
	LookupRecord []SequenceLookupRecord
}
