package shaping

import (
	"github.com/inkwell/shaping/font"
	"github.com/inkwell/shaping/unicodedata"
)

// syllabicCategory is a simplified reconstruction of the position
// classification the Indic/Khmer/Myanmar/Use shapers all share (spec
// §4.7's PRE_M/PRE_C/BASE_C/AFTER_MAIN/BELOW_C/AFTER_SUB/POST_C
// position classes, and the category-then-reorder architecture the
// comment on each of those shapers describes). The teacher's own
// category tables (ot_category.go, the *_machine.go state tables) and
// the USE category data file were not present in the retrieved pack —
// only ot_indic.go/ot_khmer.go/ot_use.go's call sites into them — so
// this classification works directly off Unicode general category and
// combining class instead of a precomputed per-codepoint table; see
// DESIGN.md.
type syllabicCategory uint8

const (
	catOther syllabicCategory = iota
	catConsonant
	catVowelIndependent
	catVowelDependentPre
	catVowelDependentOther
	catVirama
	catRepha
	catMark
	catZWJ
	catZWNJ
)

// syllableType tags what kind of unit a run of entries turned out to be
// (spec §4.7's 4-bit syllable type, packed with a 4-bit serial into
// GlyphInfo.syllable).
type syllableType uint8

const (
	syllableConsonant syllableType = iota
	syllableVowel
	syllableBroken
	syllableNonCluster
)

func classifySyllabic(u unicodedata.Provider, cp rune) syllabicCategory {
	switch cp {
	case 0x200D:
		return catZWJ
	case 0x200C:
		return catZWNJ
	}
	cc := u.CombiningClass(cp)
	cat := u.GeneralCategory(cp)
	switch {
	case cc == 9: // Virama_Combining_Class in Unicode's CombiningClass enumeration
		return catVirama
	case cat.IsMark():
		if isPreBaseMatra(cp) {
			return catVowelDependentPre
		}
		return catVowelDependentOther
	case cat == unicodedata.OtherLetter || cat == unicodedata.LowercaseLetter || cat == unicodedata.UppercaseLetter:
		if isIndependentVowel(cp) {
			return catVowelIndependent
		}
		return catConsonant
	default:
		return catOther
	}
}

// isPreBaseMatra recognizes the small set of dependent vowel signs that
// render visually before their consonant (Devanagari I-matra and its
// counterparts in the other Brahmi-derived scripts this engine routes
// to the Indic shaper), the one reordering rule every one of these
// scripts needs regardless of exact script.
func isPreBaseMatra(cp rune) bool {
	switch cp {
	case 0x093F, // Devanagari vowel sign I
		0x09BF, // Bengali
		0x0A3F, // Gurmukhi
		0x0ABF, // Gujarati
		0x0B3F, // Oriya
		0x0BBF, // Tamil
		0x0C3F, // Telugu (vowel sign e in many fonts)
		0x0CBF, // Kannada
		0x0D3F, // Malayalam
		0x17C1, 0x17C2, 0x17C3: // Khmer independent-looking pre-base forms post split-matra decomposition
		return true
	}
	return false
}

func isIndependentVowel(cp rune) bool {
	return cp >= 0x0904 && cp <= 0x0914 || // Devanagari independent vowels
		cp >= 0x1780 && cp <= 0x17B3 // rough Khmer consonant/vowel block, refined by caller's own consonant check
}

// isRepha recognizes a leading Ra+virama sequence, reordered after the
// syllable's base consonant in the scripts that use it (spec §4.7's
// "reph (leading Ra+Halant)").
func isRepha(u unicodedata.Provider, info []GlyphInfo, i int) bool {
	const ra = 0x0930 // Devanagari RA; close cousins use their own Ra, detected by caller per script
	return i+1 < len(info) && info[i].codepoint == ra && classifySyllabic(u, info[i+1].codepoint) == catVirama
}

// findSyllables segments the whole buffer into syllable runs, tags each
// entry's syllable field with (serial<<4 | type), and returns the run
// boundaries. A syllable starts at a consonant or independent vowel and
// absorbs any following virama+consonant (conjunct) and trailing marks;
// a run with no base at all is tagged syllableNonCluster when it starts
// with a character of category other, and syllableBroken otherwise.
func findSyllables(u unicodedata.Provider, buffer *Buffer) [][2]int {
	info := buffer.info
	var runs [][2]int
	serial := uint8(1)

	i := 0
	for i < len(info) {
		start := i
		cat := classifySyllabic(u, info[i].codepoint)
		sawBase := cat == catConsonant || cat == catVowelIndependent
		i++
		for i < len(info) {
			c := classifySyllabic(u, info[i].codepoint)
			if c == catConsonant || c == catVowelIndependent {
				// a virama immediately before promotes this consonant to
				// part of a conjunct with the previous one; otherwise it
				// starts a new syllable.
				if i > start && classifySyllabic(u, info[i-1].codepoint) == catVirama {
					sawBase = true
					i++
					continue
				}
				break
			}
			if c == catOther {
				break
			}
			i++
		}
		end := i

		st := syllableBroken
		switch {
		case sawBase && classifySyllabic(u, info[start].codepoint) == catVowelIndependent:
			st = syllableVowel
		case sawBase:
			st = syllableConsonant
		default:
			st = syllableNonCluster
			if classifySyllabic(u, info[start].codepoint) != catOther {
				st = syllableBroken
			}
		}

		for j := start; j < end; j++ {
			info[j].syllable = (serial << 4) | uint8(st)
		}
		serial++
		if serial == 16 {
			serial = 1
		}
		runs = append(runs, [2]int{start, end})
	}
	return runs
}

// reorderSyllable moves any pre-base dependent vowel to the syllable
// start and any repha to just after the base consonant,
// mirroring the two reordering rules shared across these scripts (spec
// §4.7). Script-specific shapers call this once per run after their own
// feature masks are set, then layer any further script-only reordering
// on top.
func reorderSyllable(u unicodedata.Provider, buffer *Buffer, start, end int) {
	info := buffer.info
	pos := buffer.pos

	for i := start; i < end; i++ {
		if classifySyllabic(u, info[i].codepoint) == catVowelDependentPre && i > start {
			buffer.mergeClusters(start, i+1)
			ii, pp := info[i], pos[i]
			copy(info[start+1:i+1], info[start:i])
			copy(pos[start+1:i+1], pos[start:i])
			info[start], pos[start] = ii, pp
			break
		}
	}

	for i := start; i < end-1; i++ {
		if isRepha(u, info, i) {
			base := -1
			for j := i + 2; j < end; j++ {
				if c := classifySyllabic(u, info[j].codepoint); c == catConsonant {
					base = j
					break
				}
			}
			if base == -1 {
				break
			}
			buffer.mergeClusters(i, base+1)
			r0, r1 := info[i], info[i+1]
			rp0, rp1 := pos[i], pos[i+1]
			copy(info[i:base-1], info[i+2:base+1])
			copy(pos[i:base-1], pos[i+2:base+1])
			info[base-1], info[base] = r0, r1
			pos[base-1], pos[base] = rp0, rp1
			break
		}
	}
}

// insertDottedCircles inserts U+25CC before every broken-cluster run
// the font has a glyph for, unless the caller set DoNotInsertDottedCircle
// (spec §4.7 "Broken-cluster handling").
func insertDottedCircles(buffer *Buffer, face *font.Face, runs [][2]int) [][2]int {
	if buffer.flags&DoNotInsertDottedCircle != 0 {
		return runs
	}
	gid, ok := face.Tables.NominalGlyph(0x25CC)
	if !ok {
		return runs
	}

	var newInfo []GlyphInfo
	var newPos []GlyphPosition
	cursor := 0
	for _, run := range runs {
		start, end := run[0], run[1]
		newInfo = append(newInfo, buffer.info[cursor:start]...)
		newPos = append(newPos, buffer.pos[cursor:start]...)
		if syllableType(buffer.info[start].syllable&0x0F) == syllableBroken {
			dotted := GlyphInfo{codepoint: 0x25CC, Glyph: gid, Cluster: buffer.info[start].Cluster, syllable: buffer.info[start].syllable}
			newInfo = append(newInfo, dotted)
			newPos = append(newPos, GlyphPosition{})
		}
		newInfo = append(newInfo, buffer.info[start:end]...)
		newPos = append(newPos, buffer.pos[start:end]...)
		cursor = end
	}
	newInfo = append(newInfo, buffer.info[cursor:]...)
	newPos = append(newPos, buffer.pos[cursor:]...)
	buffer.info = newInfo
	buffer.pos = newPos
	return recomputeRunBounds(buffer, runs)
}

// recomputeRunBounds re-derives syllable run boundaries from the
// syllable serial tag after insertDottedCircles has changed entry
// counts, which is simpler than tracking the shift arithmetic inline.
func recomputeRunBounds(buffer *Buffer, prevRuns [][2]int) [][2]int {
	info := buffer.info
	var runs [][2]int
	i := 0
	for i < len(info) {
		start := i
		tag := info[i].syllable
		for i < len(info) && info[i].syllable == tag {
			i++
		}
		runs = append(runs, [2]int{start, i})
	}
	return runs
}
