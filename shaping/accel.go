package shaping

import "github.com/inkwell/shaping/font"

// lookupAccelerator precomputes a coverage digest for one lookup (across
// all its subtables) so otMap.apply can skip lookups that cannot
// possibly match the current buffer contents without even inspecting
// their subtables (spec §4.9). Ported from the teacher's
// otLayoutLookupAccelerator in ot_layout_gsubgpos.go.
type lookupAccelerator struct {
	flag      font.LookupFlag
	digest    setDigest
	subtables []interface{}
	// reverse marks a GSUB lookup type 8 (ReverseChainSingleSubst): per
	// spec §4.5 it is "processed right-to-left over the whole buffer as a
	// separate pass", unlike every other lookup kind which scans forward
	// and rewrites into the output half.
	reverse bool
}

func newLookupAccelerator(l font.Lookup) lookupAccelerator {
	acc := lookupAccelerator{flag: l.Flag, subtables: l.Subtables}
	for _, sub := range l.Subtables {
		acc.digest.collectCoverage(subtableCoverage(sub))
		if _, ok := sub.(font.ReverseChainSingleSubst); ok {
			acc.reverse = true
		}
	}
	return acc
}

// faceAccel caches per-lookup accelerators for one Face's GSUB and GPOS
// tables across an entire Shape call; rebuilding these per lookup would
// make the fast-reject digest pointless.
type faceAccel struct {
	gsub []lookupAccelerator
	gpos []lookupAccelerator
}

func buildFaceAccel(face *font.Face) *faceAccel {
	fa := &faceAccel{}
	if g := face.Tables.GSUB(); g != nil {
		fa.gsub = make([]lookupAccelerator, len(g.Layout.Lookups))
		for i, l := range g.Layout.Lookups {
			fa.gsub[i] = newLookupAccelerator(l)
		}
	}
	if g := face.Tables.GPOS(); g != nil {
		fa.gpos = make([]lookupAccelerator, len(g.Layout.Lookups))
		for i, l := range g.Layout.Lookups {
			fa.gpos[i] = newLookupAccelerator(l)
		}
	}
	return fa
}

func (fa *faceAccel) table(tableIndex int) []lookupAccelerator {
	if tableIndex == 0 {
		return fa.gsub
	}
	return fa.gpos
}

// subtableCoverage extracts the Coverage driving a subtable's fast-reject
// digest; context/chain-context subtables use their own Cov/first
// operand the same way the underlying format does.
func subtableCoverage(sub interface{}) font.Coverage {
	switch s := sub.(type) {
	case font.SingleSubst1:
		return s.Cov
	case font.SingleSubst2:
		return s.Cov
	case font.MultipleSubst:
		return s.Cov
	case font.AlternateSubst:
		return s.Cov
	case font.LigatureSubst:
		return s.Cov
	case font.ReverseChainSingleSubst:
		return s.Cov
	case font.SequenceContext1:
		return s.Cov
	case font.SequenceContext2:
		return s.Cov
	case font.ChainedSequenceContext1:
		return s.Cov
	case font.ChainedSequenceContext2:
		return s.Cov
	case font.SequenceContext3:
		if len(s.Input) == 0 {
			return nil
		}
		return s.Input[0]
	case font.ChainedSequenceContext3:
		if len(s.Input) == 0 {
			return nil
		}
		return s.Input[0]
	case font.SinglePos1:
		return s.Cov
	case font.SinglePos2:
		return s.Cov
	case font.PairPos1:
		return s.Cov
	case font.PairPos2:
		return s.Cov
	case font.CursivePos:
		return s.Cov
	case font.MarkBasePos:
		return s.MarkCov
	case font.MarkLigPos:
		return s.MarkCov
	case font.MarkMarkPos:
		return s.Mark1Cov
	default:
		return nil
	}
}

// applySubtable dispatches one subtable against the buffer cursor; it
// returns true if it matched and applied (in which case the caller
// should stop trying further subtables of the same lookup, first match
// wins per OpenType's rules).
func (c *applyContext) applySubtable(sub interface{}) bool {
	switch s := sub.(type) {
	case font.SingleSubst1, font.SingleSubst2, font.MultipleSubst, font.AlternateSubst,
		font.LigatureSubst, font.ReverseChainSingleSubst:
		return c.applyGSUBSubtable(s)
	case font.SequenceContext1, font.SequenceContext2, font.SequenceContext3:
		return c.applySequenceContext(s)
	case font.ChainedSequenceContext1, font.ChainedSequenceContext2, font.ChainedSequenceContext3:
		return c.applyChainedSequenceContext(s)
	case font.SinglePos1, font.SinglePos2, font.PairPos1, font.PairPos2,
		font.CursivePos, font.MarkBasePos, font.MarkLigPos, font.MarkMarkPos, font.KernTable:
		return c.applyGPOSSubtable(s)
	default:
		return false
	}
}

// applyLookupAtCursor tries every subtable of one lookup at the current
// buffer position, stopping at the first one that applies.
func (c *applyContext) applyLookupAtCursor(acc *lookupAccelerator) bool {
	gid := c.buffer.curInfo(0).Glyph
	if !acc.digest.mayHave(gid) {
		return false
	}
	for _, sub := range acc.subtables {
		if c.applySubtable(sub) {
			return true
		}
	}
	return false
}

// apply runs every stage of tableIndex (0=GSUB, 1=GPOS), calling pause
// functions between stages and refreshing the buffer digest whenever one
// reports it may have changed the glyph sequence (spec §4.3 "stage
// pauses", used by complex shapers to reorder/reclassify between
// feature groups).
func (m *otMap) apply(tableIndex int, plan *shapePlan, face *font.Face, fa *faceAccel, buffer *Buffer) {
	c := &applyContext{}
	c.reset(tableIndex, face, buffer)
	accels := fa.table(tableIndex)
	c.recurse = func(cc *applyContext, lookupIndex uint16) bool {
		if int(lookupIndex) >= len(accels) {
			return false
		}
		return cc.applyLookupAtCursor(&accels[lookupIndex])
	}

	i := 0
	for _, stage := range m.stages[tableIndex] {
		for ; i < stage.lastLookup; i++ {
			lookup := m.lookups[tableIndex][i]
			if int(lookup.index) >= len(accels) {
				continue
			}
			acc := &accels[lookup.index]
			if !c.digest.mayHaveDigest(acc.digest) {
				continue
			}
			c.lookupIndex = lookup.index
			c.setLookupMask(lookup.mask)
			c.autoZWJ = lookup.autoZWJ
			c.autoZWNJ = lookup.autoZWNJ
			c.random = lookup.random
			c.perSyllable = lookup.perSyllable

			if len(buffer.info) > maxBufferLength {
				return
			}
			c.applyString(acc)
		}
		if stage.pauseFunc != nil {
			if stage.pauseFunc(plan, face, buffer) {
				c.digest = buffer.digest()
			}
		}
	}
}

const maxBufferLength = 1 << 20

func (sd setDigest) mayHaveDigest(o setDigest) bool {
	return sd[0]&o[0] != 0 && sd[1]&o[1] != 0 && sd[2]&o[2] != 0
}

// applyString walks the whole buffer left to right applying one lookup
// everywhere it can match, honoring the skipping-iterator's
// ignore-marks/ligatures rules (spec §4.4-§4.5).
//
// LookupRightToLeft does not change the traversal: every lookup except
// ReverseChainSingleSubst walks the buffer front to back in logical
// order, for RTL runs as for LTR ones. The flag is read only by cursive
// attachment (gpos.go), to decide which glyph of a pair is the child.
func (c *applyContext) applyString(acc *lookupAccelerator) {
	buffer := c.buffer
	if len(buffer.info) == 0 {
		return
	}
	c.setLookupFlag(acc.flag)

	if acc.reverse {
		c.applyStringReverse(acc)
		return
	}

	buffer.clearOutput()
	for buffer.idx < len(buffer.info) && buffer.MaxOps > 0 {
		buffer.MaxOps--
		applied := false
		if c.digest.mayHave(buffer.curInfo(0).Glyph) {
			applied = c.applyLookupAtCursor(acc)
		}
		if !applied {
			buffer.nextGlyph()
		}
	}
	buffer.swapBuffers()
}

// applyStringReverse drives a ReverseChainSingleSubst lookup back to
// front over the whole buffer, in place (no output-half rewrite: each
// matched position is a 1-for-1 substitution, never a length change).
func (c *applyContext) applyStringReverse(acc *lookupAccelerator) {
	buffer := c.buffer
	for i := len(buffer.info) - 1; i >= 0 && buffer.MaxOps > 0; i-- {
		buffer.MaxOps--
		buffer.idx = i
		if !c.digest.mayHave(buffer.info[i].Glyph) {
			continue
		}
		for _, sub := range acc.subtables {
			if c.applySubtable(sub) {
				break
			}
		}
	}
	buffer.idx = 0
}
