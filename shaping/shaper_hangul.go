package shaping

import "github.com/inkwell/shaping/font"

// Hangul syllable block boundaries and arithmetic (Unicode §3.12): a
// precomposed LVT syllable decomposes into an initial consonant (L), a
// vowel (V), and an optional final consonant (T) with simple modular
// arithmetic, unlike every other script's decomposition which goes
// through the general canonical-decomposition table the normalizer uses
// for everything else — which is why this shaper skips the generic
// normalizer (normalizationPreference = None) and does its own
// decompose/compose against font coverage directly in preprocessText,
// the way spec §4.7 describes it.
const (
	hangulSBase  = 0xAC00
	hangulLBase  = 0x1100
	hangulVBase  = 0x1161
	hangulTBase  = 0x11A7
	hangulLCount = 19
	hangulVCount = 21
	hangulTCount = 28
	hangulNCount = hangulVCount * hangulTCount
	hangulSCount = hangulLCount * hangulNCount
)

func isHangulSyllable(cp rune) bool { return cp >= hangulSBase && cp < hangulSBase+hangulSCount }
func isHangulLJamo(cp rune) bool    { return cp >= hangulLBase && cp < hangulLBase+hangulLCount }
func isHangulVJamo(cp rune) bool    { return cp >= hangulVBase && cp < hangulVBase+hangulVCount }
func isHangulTJamo(cp rune) bool    { return cp > hangulTBase && cp < hangulTBase+hangulTCount }

type complexShaperHangul struct {
	complexShaperDefault
	ljmoMask, vjmoMask, tjmoMask Mask
}

func (h *complexShaperHangul) collectFeatures(mb *mapBuilder, props font.SegmentProperties) {
	mb.addFeature(font.NewTag("ljmo"))
	mb.addFeature(font.NewTag("vjmo"))
	mb.addFeature(font.NewTag("tjmo"))
}

func (h *complexShaperHangul) normalizationPreference() normalizationPreference {
	return normPreferenceNone
}

// preprocessText composes/decomposes Hangul syllables against whatever
// the font's cmap actually has: a precomposed syllable the font covers is
// kept whole; one it doesn't is split into its L/V/T jamo. A run of bare
// L+V(+T) jamo is composed the other way, into a single precomposed
// syllable, whenever the font has that syllable.
func (h *complexShaperHangul) preprocessText(plan *shapePlan, buffer *Buffer, face *font.Face) {
	info := buffer.info
	var out []GlyphInfo
	var outPos []GlyphPosition
	changed := false

	for i := 0; i < len(info); i++ {
		cp := info[i].codepoint

		if isHangulSyllable(cp) {
			if _, ok := face.Tables.NominalGlyph(cp); ok {
				out = append(out, info[i])
				outPos = append(outPos, buffer.pos[i])
				continue
			}
			changed = true
			sIndex := cp - hangulSBase
			l := rune(hangulLBase + sIndex/hangulNCount)
			v := rune(hangulVBase + (sIndex%hangulNCount)/hangulTCount)
			t := sIndex % hangulTCount
			out = append(out, GlyphInfo{codepoint: l, Cluster: info[i].Cluster})
			out = append(out, GlyphInfo{codepoint: v, Cluster: info[i].Cluster})
			outPos = append(outPos, GlyphPosition{}, GlyphPosition{})
			if t != 0 {
				out = append(out, GlyphInfo{codepoint: rune(hangulTBase + t), Cluster: info[i].Cluster})
				outPos = append(outPos, GlyphPosition{})
			}
			continue
		}

		if isHangulLJamo(cp) && i+1 < len(info) && isHangulVJamo(info[i+1].codepoint) {
			l, v := cp, info[i+1].codepoint
			tJamo := rune(0)
			consumed := 2
			if i+2 < len(info) && isHangulTJamo(info[i+2].codepoint) {
				tJamo = info[i+2].codepoint
				consumed = 3
			}
			lIdx := l - hangulLBase
			vIdx := v - hangulVBase
			syllable := rune(hangulSBase + (lIdx*hangulVCount+vIdx)*hangulTCount)
			if tJamo != 0 {
				syllable += tJamo - hangulTBase
			}
			if _, ok := face.Tables.NominalGlyph(syllable); ok {
				changed = true
				out = append(out, GlyphInfo{codepoint: syllable, Cluster: info[i].Cluster})
				outPos = append(outPos, GlyphPosition{})
				i += consumed - 1
				continue
			}
		}

		out = append(out, info[i])
		outPos = append(outPos, buffer.pos[i])
	}

	if changed {
		buffer.info = out
		buffer.pos = outPos
	}
	for i := range buffer.info {
		if gid, ok := face.Tables.NominalGlyph(buffer.info[i].codepoint); ok {
			buffer.info[i].Glyph = gid
		}
	}
}

func (h *complexShaperHangul) setupMasks(plan *shapePlan, buffer *Buffer, face *font.Face) {
	h.ljmoMask = plan.otMap.getMask1(font.NewTag("ljmo"))
	h.vjmoMask = plan.otMap.getMask1(font.NewTag("vjmo"))
	h.tjmoMask = plan.otMap.getMask1(font.NewTag("tjmo"))
	for i := range buffer.info {
		cp := buffer.info[i].codepoint
		switch {
		case isHangulLJamo(cp):
			buffer.info[i].Mask |= h.ljmoMask
		case isHangulVJamo(cp):
			buffer.info[i].Mask |= h.vjmoMask
		case isHangulTJamo(cp):
			buffer.info[i].Mask |= h.tjmoMask
		}
	}
}

func (complexShaperHangul) marksBehavior() (zeroWidthMarks, bool) {
	return zeroWidthMarksByGdefLate, false
}
