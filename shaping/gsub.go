package shaping

import (
	"github.com/inkwell/shaping/font"
	"github.com/inkwell/shaping/unicodedata"
)

// applyGSUBSubtable applies one already-coverage-matched GSUB subtable at
// the buffer cursor (spec §4.5). Ported from the teacher's GSUB dispatch
// in ot_layout_gsubgpos.go (applyGSUB), generalized from the teacher's
// *tables.GSUBLookup interface switch to this engine's plain struct
// types.
func (c *applyContext) applyGSUBSubtable(sub interface{}) bool {
	gid := c.buffer.curInfo(0).Glyph
	switch s := sub.(type) {
	case font.SingleSubst1:
		idx, ok := s.Cov.Index(gid)
		if !ok {
			return false
		}
		_ = idx
		c.replaceGlyph(GID(int32(gid) + int32(s.Delta)))
		return true

	case font.SingleSubst2:
		idx, ok := s.Cov.Index(gid)
		if !ok || idx >= len(s.Substitutes) {
			return false
		}
		c.replaceGlyph(s.Substitutes[idx])
		return true

	case font.MultipleSubst:
		idx, ok := s.Cov.Index(gid)
		if !ok || idx >= len(s.Sequences) {
			return false
		}
		return c.applyMultiple(s.Sequences[idx])

	case font.AlternateSubst:
		idx, ok := s.Cov.Index(gid)
		if !ok || idx >= len(s.Alternates) {
			return false
		}
		return c.applyAlternate(s.Alternates[idx])

	case font.LigatureSubst:
		idx, ok := s.Cov.Index(gid)
		if !ok || idx >= len(s.LigatureSets) {
			return false
		}
		return c.applyLigature(s.LigatureSets[idx])

	case font.ReverseChainSingleSubst:
		return c.applyReverseChainSingle(s)
	}
	return false
}

// applyMultiple implements 1-to-many substitution: the covered glyph is
// replaced by the recorded output sequence, clusters merging onto the
// original (spec §4.5). An empty sequence deletes the glyph.
func (c *applyContext) applyMultiple(seq []GID) bool {
	buffer := c.buffer
	if len(seq) == 1 {
		c.replaceGlyph(seq[0])
		return true
	}
	if len(seq) == 0 {
		// deletion: drop the glyph entirely, emitting nothing, but keep
		// its cluster alive on a neighbor (spec §3 cluster preservation).
		buffer.deleteGlyph()
		return true
	}
	ligID := buffer.curInfo(0).getLigID()
	for _, g := range seq {
		out := buffer.outputGlyph(g)
		out.setLigPropsForMark(ligID, 0)
	}
	buffer.idx++
	return true
}

// applyAlternate implements GSUB AlternateSubst: pick one glyph from the
// recorded set, randomly when the lookup's "random" feature flag is set
// (spec's rand feature), otherwise always the first alternate.
func (c *applyContext) applyAlternate(alts []GID) bool {
	if len(alts) == 0 {
		return false
	}
	idx := 0
	if c.random {
		idx = int(c.randomNumber()) % len(alts)
	}
	c.replaceGlyph(alts[idx])
	return true
}

// applyLigature walks the ligature set (longest-match-first, as the font
// orders it) trying each candidate's component sequence against the
// input (spec §4.5).
func (c *applyContext) applyLigature(set []font.Ligature) bool {
	buffer := c.buffer
	for _, lig := range set {
		if len(lig.Components) == 0 {
			c.replaceGlyph(lig.Glyph)
			return true
		}
		input := make([]uint16, len(lig.Components))
		for i, g := range lig.Components {
			input[i] = uint16(g)
		}
		var matchPositions [maxContextLength]int
		ok, matchEnd, totalComponents := c.matchInput(input, matchGlyph, &matchPositions)
		if !ok {
			continue
		}
		c.ligateInput(len(lig.Components)+1, matchPositions, matchEnd, lig.Glyph, totalComponents)
		_ = buffer
		return true
	}
	return false
}

// ligateInput collapses matchPositions[0:count) into a single ligature
// glyph, reassigning the ligature id/component of every skipped mark so
// later GPOS mark positioning still finds the right anchor point (spec
// §4.5, the bookkeeping the spec calls out as the trickiest part of the
// whole engine).
func (c *applyContext) ligateInput(count int, matchPositions [maxContextLength]int, matchEnd int, ligGlyph GID, totalComponentCount uint8) {
	buffer := c.buffer
	buffer.mergeClusters(buffer.idx, matchEnd)

	isBaseLigature := buffer.info[matchPositions[0]].isBaseGlyph()
	isMarkLigature := buffer.info[matchPositions[0]].isMark()
	for i := 1; i < count; i++ {
		if !buffer.info[matchPositions[i]].isMark() {
			isBaseLigature = false
			isMarkLigature = false
			break
		}
	}
	isLigature := !isBaseLigature && !isMarkLigature

	var class uint16
	var ligID uint8
	if isLigature {
		class = font.GlyphClassLigature
		ligID = buffer.allocateLigID()
	}
	lastLigID := buffer.curInfo(0).getLigID()
	lastNumComponents := buffer.curInfo(0).getLigNumComps()
	componentsSoFar := lastNumComponents

	if isLigature {
		buffer.curInfo(0).setLigPropsForLigature(ligID, totalComponentCount)
		if buffer.curInfo(0).isUnicodeMark() {
			buffer.curInfo(0).setGeneralCategory(unicodedata.OtherLetter)
		}
	}

	c.setGlyphClassExt(ligGlyph, class, true, false)
	buffer.replaceGlyphIndex(ligGlyph)
	buffer.nextGlyph()

	for i := 1; i < count; i++ {
		for buffer.idx < matchPositions[i] {
			if isLigature {
				thisComp := buffer.curInfo(0).getLigComp()
				if thisComp == 0 {
					thisComp = lastNumComponents
				}
				newLigComp := componentsSoFar - lastNumComponents + min8(thisComp, lastNumComponents)
				buffer.curInfo(0).setLigPropsForMark(ligID, newLigComp)
			}
			buffer.nextGlyph()
		}
		lastLigID = buffer.curInfo(0).getLigID()
		lastNumComponents = buffer.curInfo(0).getLigNumComps()
		componentsSoFar += lastNumComponents
		buffer.skipGlyph()
	}

	if !isMarkLigature && lastLigID != 0 {
		for i := buffer.idx; i < len(buffer.info); i++ {
			if lastLigID != buffer.info[i].getLigID() {
				break
			}
			thisComp := buffer.info[i].getLigComp()
			if thisComp == 0 {
				break
			}
			newLigComp := componentsSoFar - lastNumComponents + min8(thisComp, lastNumComponents)
			buffer.info[i].setLigPropsForMark(ligID, newLigComp)
		}
	}
}

func min8(a, b uint8) uint8 {
	if a < b {
		return a
	}
	return b
}

// applyReverseChainSingle implements GSUB lookup type 8: applied back to
// front over the whole buffer in a dedicated final pass (spec §4.5),
// because unlike every other GSUB lookup its backtrack/lookahead context
// is expressed in terms of the *original* glyph stream, not the
// in-progress substitution output.
func (c *applyContext) applyReverseChainSingle(s font.ReverseChainSingleSubst) bool {
	buffer := c.buffer
	gid := buffer.curInfo(0).Glyph
	idx, ok := s.Cov.Index(gid)
	if !ok || idx >= len(s.Substitutes) {
		return false
	}

	backtrackOK := true
	bi := buffer.idx
	for _, cov := range s.Backtrack {
		bi--
		if bi < 0 {
			backtrackOK = false
			break
		}
		if _, ok := cov.Index(buffer.info[bi].Glyph); !ok {
			backtrackOK = false
			break
		}
	}
	if !backtrackOK {
		return false
	}

	lookaheadOK := true
	li := buffer.idx
	for _, cov := range s.Lookahead {
		li++
		if li >= len(buffer.info) {
			lookaheadOK = false
			break
		}
		if _, ok := cov.Index(buffer.info[li].Glyph); !ok {
			lookaheadOK = false
			break
		}
	}
	if !lookaheadOK {
		return false
	}

	buffer.info[buffer.idx].Glyph = s.Substitutes[idx]
	buffer.info[buffer.idx].glyphProps |= font.GlyphPropsSubstituted
	return true
}
