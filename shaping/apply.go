package shaping

import "github.com/inkwell/shaping/font"

// The skipping iterator, context/chain-context matcher, and ligature
// bookkeeping below are the core of the apply engine (spec §4.4, §4.5):
// ported from the teacher's ot_layout_gsubgpos.go (itself a port of
// harfbuzz's hb-ot-layout-gsubgpos.hh).

const (
	maxContextLength = 64
	maxNestingLevel  = 6
)

// BufferFlags are caller-visible shape options (spec §3).
type BufferFlags uint32

const (
	ProduceUnsafeToConcat BufferFlags = 1 << iota
	// DoNotInsertDottedCircle suppresses the broken-cluster dotted-circle
	// insertion the Indic/Khmer/Myanmar/Use shapers otherwise perform
	// (spec §4.7).
	DoNotInsertDottedCircle
	// PreserveDefaultIgnorables keeps default-ignorable glyphs (ZWJ,
	// ZWNJ, variation selectors, ...) in the output as zero-width glyphs
	// instead of the default behavior of hiding them behind the font's
	// invisible-space glyph (spec §4.9).
	PreserveDefaultIgnorables
	// RemoveDefaultIgnorables deletes default-ignorable glyphs from the
	// output entirely, rather than hiding or preserving them.
	RemoveDefaultIgnorables
)

type matchTri uint8

const (
	no matchTri = iota
	yes
	maybe
)

// matcherFunc interprets a raw rule operand (glyph id, class, or coverage
// index, depending on the rule format) against a live glyph id.
type matcherFunc func(gid GID, value uint16) bool

func matchGlyph(gid GID, value uint16) bool { return uint16(gid) == value }

func matchClass(cd font.ClassDef) matcherFunc {
	return func(gid GID, value uint16) bool { return cd != nil && cd.Class(gid) == value }
}

func matchCoverage(covs []font.Coverage) matcherFunc {
	return func(gid GID, value uint16) bool {
		if int(value) >= len(covs) || covs[value] == nil {
			return false
		}
		_, ok := covs[value].Index(gid)
		return ok
	}
}

type applyMatcher struct {
	matchFunc   matcherFunc
	lookupFlag  font.LookupFlag
	mask        Mask
	ignoreZWNJ  bool
	ignoreZWJ   bool
	perSyllable bool
	syllable    uint8
}

func (m *applyMatcher) setSyllable(s uint8) {
	if m.perSyllable {
		m.syllable = s
	} else {
		m.syllable = 0
	}
}

func (m applyMatcher) mayMatch(info *GlyphInfo, data []uint16) matchTri {
	if info.Mask&m.mask == 0 || (m.syllable != 0 && m.syllable != info.syllable) {
		return no
	}
	if m.matchFunc != nil {
		if len(data) == 0 {
			return no
		}
		if m.matchFunc(info.Glyph, data[0]) {
			return yes
		}
		return no
	}
	return maybe
}

func (m applyMatcher) maySkip(c *applyContext, info *GlyphInfo) matchTri {
	if !c.checkGlyphProperty(info, m.lookupFlag) {
		return yes
	}
	if info.isDefaultIgnorableAndNotHidden() && (m.ignoreZWNJ || !info.isZwnj()) && (m.ignoreZWJ || !info.isZwj()) {
		return maybe
	}
	return no
}

type matchRes uint8

const (
	mMatch matchRes = iota
	mNotMatch
	mSkip
)

type skippingIterator struct {
	c       *applyContext
	matcher applyMatcher

	data      []uint16
	dataStart int

	idx      int
	numItems int
	end      int
}

func (it *skippingIterator) init(c *applyContext, contextMatch bool) {
	it.c = c
	it.matcher = applyMatcher{}
	it.matcher.lookupFlag = c.lookupFlag
	it.matcher.ignoreZWNJ = c.tableIndex == 1 || (contextMatch && c.autoZWNJ)
	it.matcher.ignoreZWJ = contextMatch || c.autoZWJ
	if contextMatch {
		it.matcher.mask = ^Mask(0)
	} else {
		it.matcher.mask = c.lookupMask
	}
	it.matcher.perSyllable = c.tableIndex == 0 && c.perSyllable
	it.matcher.setSyllable(0)
}

func (it *skippingIterator) setMatchFunc(fn matcherFunc, data []uint16) {
	it.matcher.matchFunc = fn
	it.data = data
	it.dataStart = 0
}

func (it *skippingIterator) reset(startIndex, numItems int) {
	it.idx = startIndex
	it.numItems = numItems
	it.end = len(it.c.buffer.info)
	if startIndex == it.c.buffer.idx {
		it.matcher.setSyllable(it.c.buffer.curInfo(0).syllable)
	} else {
		it.matcher.setSyllable(0)
	}
}

func (it *skippingIterator) maySkip(info *GlyphInfo) matchTri { return it.matcher.maySkip(it.c, info) }

func (it *skippingIterator) match(info *GlyphInfo) matchRes {
	skip := it.matcher.maySkip(it.c, info)
	if skip == yes {
		return mSkip
	}
	match := it.matcher.mayMatch(info, it.data[it.dataStart:])
	if match == yes || (match == maybe && skip == no) {
		return mMatch
	}
	if skip == no {
		return mNotMatch
	}
	return mSkip
}

func (it *skippingIterator) next() (ok bool, unsafeTo int) {
	stop := it.end - it.numItems
	if it.c.buffer.flags&ProduceUnsafeToConcat != 0 {
		stop = it.end - 1
	}
	for it.idx < stop {
		it.idx++
		info := &it.c.buffer.info[it.idx]
		switch it.match(info) {
		case mMatch:
			it.numItems--
			if len(it.data) != 0 {
				it.dataStart++
			}
			return true, 0
		case mNotMatch:
			return false, it.idx + 1
		case mSkip:
			continue
		}
	}
	return false, it.end
}

func (it *skippingIterator) prev() (ok bool, unsafeFrom int) {
	stop := it.numItems - 1
	if it.c.buffer.flags&ProduceUnsafeToConcat != 0 {
		stop = 0
	}
	outLen := len(it.c.buffer.outInfo)
	for it.idx > stop {
		it.idx--
		var info *GlyphInfo
		if it.idx < outLen {
			info = &it.c.buffer.outInfo[it.idx]
		} else {
			info = &it.c.buffer.info[it.idx]
		}
		switch it.match(info) {
		case mMatch:
			it.numItems--
			if len(it.data) != 0 {
				it.dataStart++
			}
			return true, 0
		case mNotMatch:
			if it.idx > 0 {
				return false, it.idx - 1
			}
			return false, 0
		case mSkip:
			continue
		}
	}
	return false, 0
}

// recurseFunc dispatches into a sub-lookup by index; bound separately for
// GSUB (substitution) and GPOS (positioning), since the two apply
// different subtable sets.
type recurseFunc func(c *applyContext, lookupIndex uint16) bool

// applyContext is the live state threaded through one lookup application
// pass: which buffer, which table (GSUB=0/GPOS=1), the active mask/flag,
// and the two skipping iterators context matching walks with.
type applyContext struct {
	face   *font.Face
	buffer *Buffer

	recurse recurseFunc
	gdef    *font.GDEF
	indices []uint16

	digest setDigest

	iterInput   skippingIterator
	iterContext skippingIterator

	nestingLevelLeft int
	tableIndex       int
	lookupMask       Mask
	lookupFlag       font.LookupFlag
	randomState      uint32
	lookupIndex      uint16
	direction        font.Direction

	hasGlyphClasses bool
	autoZWNJ        bool
	autoZWJ         bool
	perSyllable     bool
	newSyllables    uint8
	random          bool

	lastBase      int
	lastBaseUntil int
}

func (c *applyContext) reset(tableIndex int, face *font.Face, buffer *Buffer) {
	c.face = face
	c.buffer = buffer
	c.recurse = nil
	c.gdef = face.Tables.GDEF()
	c.indices = c.indices[:0]
	c.digest = buffer.digest()
	c.nestingLevelLeft = maxNestingLevel
	c.tableIndex = tableIndex
	c.lookupMask = 1
	c.lookupFlag = 0
	c.randomState = 1
	c.lookupIndex = 0
	c.direction = buffer.Props.Direction
	c.hasGlyphClasses = c.gdef != nil && c.gdef.GlyphClass != nil
	c.autoZWNJ = true
	c.autoZWJ = true
	c.perSyllable = false
	c.newSyllables = 0xFF
	c.random = false
	c.lastBase = -1
	c.lastBaseUntil = 0
	c.initIters()
}

func (c *applyContext) initIters() {
	c.iterInput.init(c, false)
	c.iterContext.init(c, true)
}

func (c *applyContext) setLookupMask(mask Mask)         { c.lookupMask = mask; c.initIters() }
func (c *applyContext) setLookupFlag(flag font.LookupFlag) { c.lookupFlag = flag; c.initIters() }

func (c *applyContext) checkGlyphProperty(info *GlyphInfo, matchFlag font.LookupFlag) bool {
	props := info.glyphProps
	if props&uint16(matchFlag)&uint16(font.LookupIgnoreFlags) != 0 {
		return false
	}
	if props&font.GlyphClassMark != 0 {
		return c.matchPropertiesMark(info.Glyph, props, matchFlag)
	}
	return true
}

func (c *applyContext) matchPropertiesMark(glyph GID, glyphProps uint16, matchFlag font.LookupFlag) bool {
	if matchFlag&font.LookupUseMarkFilteringSet != 0 {
		if c.gdef == nil {
			return false
		}
		setIdx := matchFlag.MarkFilteringSet()
		if int(setIdx) >= len(c.gdef.MarkGlyphSets) || c.gdef.MarkGlyphSets[setIdx] == nil {
			return false
		}
		_, ok := c.gdef.MarkGlyphSets[setIdx].Index(glyph)
		return ok
	}
	if matchFlag&font.LookupMarkAttachTypeMask != 0 {
		return uint16(matchFlag&font.LookupMarkAttachTypeMask)>>8 == glyphProps>>8
	}
	return true
}

func (c *applyContext) setGlyphClass(gid GID) { c.setGlyphClassExt(gid, 0, false, false) }

func (c *applyContext) setGlyphClassExt(gid GID, classGuess uint16, ligature, component bool) {
	c.digest.add(gid)
	if c.newSyllables != 0xFF {
		c.buffer.curInfo(0).syllable = c.newSyllables
	}
	props := c.buffer.curInfo(0).glyphProps | font.GlyphPropsSubstituted
	if ligature {
		props |= font.GlyphPropsLigated
		props &^= font.GlyphPropsMultiplied
	}
	if component {
		props |= font.GlyphPropsMultiplied
	}
	switch {
	case c.hasGlyphClasses:
		props &= font.GlyphPropsPreserve
		props |= c.gdef.GlyphProps(gid)
	case classGuess != 0:
		props &= font.GlyphPropsPreserve
		props |= classGuess
	}
	c.buffer.curInfo(0).glyphProps = props
}

func (c *applyContext) replaceGlyph(gid GID) {
	c.setGlyphClass(gid)
	c.buffer.replaceGlyphIndex(gid)
}

func (c *applyContext) randomNumber() uint32 {
	c.randomState = c.randomState * 48271 % 2147483647
	return c.randomState
}

// recurse enters a sub-lookup referenced from a context/chain-context
// rule, bounded by nesting depth and the buffer's total operation budget
// so a maliciously self-referential lookup graph cannot loop forever
// (spec §4.9).
func (c *applyContext) doRecurse(lookupIndex uint16) bool {
	if c.nestingLevelLeft == 0 || c.recurse == nil || c.buffer.MaxOps <= 0 {
		if c.buffer.MaxOps > 0 {
			c.buffer.MaxOps--
		}
		return false
	}
	c.buffer.MaxOps--
	c.nestingLevelLeft--
	ok := c.recurse(c, lookupIndex)
	c.nestingLevelLeft++
	return ok
}

// get1N returns [start, start+1, ..., end-1], reusing *indices as scratch.
func get1N(indices *[]uint16, start, end int) []uint16 {
	if end > cap(*indices) {
		*indices = make([]uint16, end)
		for i := range *indices {
			(*indices)[i] = uint16(i)
		}
	}
	return (*indices)[start:end]
}

// matchInput walks forward from the buffer cursor trying to match a
// lookup's input sequence (the second-glyph-onward operands of a
// context/chain-context rule), honoring the ligature-id/component
// compatibility rules that keep an in-progress ligature's marks from
// being pulled into an unrelated later ligation (spec §4.5).
func (c *applyContext) matchInput(input []uint16, matchFunc matcherFunc, matchPositions *[maxContextLength]int) (ok bool, endPosition int, totalComponentCount uint8) {
	count := len(input) + 1
	if count > maxContextLength {
		return false, 0, 0
	}
	buffer := c.buffer
	it := &c.iterInput
	it.reset(buffer.idx, count-1)
	it.setMatchFunc(matchFunc, input)

	firstLigID := buffer.curInfo(0).getLigID()
	firstLigComp := buffer.curInfo(0).getLigComp()

	const (
		ligbaseNotChecked = iota
		ligbaseMayNotSkip
		ligbaseMaySkip
	)
	ligbase := ligbaseNotChecked
	for i := 1; i < count; i++ {
		okNext, unsafeTo := it.next()
		if !okNext {
			return false, unsafeTo, 0
		}
		matchPositions[i] = it.idx

		thisLigID := buffer.info[it.idx].getLigID()
		thisLigComp := buffer.info[it.idx].getLigComp()
		if firstLigID != 0 && firstLigComp != 0 {
			if firstLigID != thisLigID || firstLigComp != thisLigComp {
				if ligbase == ligbaseNotChecked {
					found := false
					out := buffer.outInfo
					j := len(out)
					for j != 0 && out[j-1].getLigID() == firstLigID {
						if out[j-1].getLigComp() == 0 {
							j--
							found = true
							break
						}
						j--
					}
					if found && it.maySkip(&out[j]) == yes {
						ligbase = ligbaseMaySkip
					} else {
						ligbase = ligbaseMayNotSkip
					}
				}
				if ligbase == ligbaseMayNotSkip {
					return false, 0, 0
				}
			}
		} else if thisLigID != 0 && thisLigComp != 0 && thisLigID != firstLigID {
			return false, 0, 0
		}

		totalComponentCount += buffer.info[it.idx].getLigNumComps()
	}

	endPosition = it.idx + 1
	totalComponentCount += buffer.curInfo(0).getLigNumComps()
	matchPositions[0] = buffer.idx
	return true, endPosition, totalComponentCount
}

func (c *applyContext) matchBacktrack(backtrack []uint16, matchFunc matcherFunc) (ok bool, matchStart int) {
	it := &c.iterContext
	it.reset(c.buffer.backtrackLen(), len(backtrack))
	it.setMatchFunc(matchFunc, backtrack)
	for range backtrack {
		okPrev, unsafeFrom := it.prev()
		if !okPrev {
			return false, unsafeFrom
		}
	}
	return true, it.idx
}

func (c *applyContext) matchLookahead(lookahead []uint16, matchFunc matcherFunc, startIndex int) (ok bool, endIndex int) {
	it := &c.iterContext
	it.reset(startIndex-1, len(lookahead))
	it.setMatchFunc(matchFunc, lookahead)
	for range lookahead {
		okNext, unsafeTo := it.next()
		if !okNext {
			return false, unsafeTo
		}
	}
	return true, it.idx + 1
}

// applyLookup runs the recorded sub-lookups of a matched context/chain
// rule at their recorded positions, re-indexing subsequent positions
// when a recursed lookup changed the buffer length (spec §4.5
// "recursion bookkeeping").
func (c *applyContext) applyLookup(count int, matchPositions *[maxContextLength]int, lookupRecord []font.SequenceLookupRecord, matchLength int) {
	buffer := c.buffer
	var end int
	bl := buffer.backtrackLen()
	end = bl + matchLength - buffer.idx
	delta := bl - buffer.idx
	for j := 0; j < count; j++ {
		matchPositions[j] += delta
	}

	for _, lk := range lookupRecord {
		idx := int(lk.SequenceIndex)
		if idx >= count {
			continue
		}
		origLen := buffer.backtrackLen() + buffer.lookaheadLen()
		if matchPositions[idx] >= origLen {
			continue
		}
		buffer.moveTo(matchPositions[idx])
		if buffer.MaxOps <= 0 {
			break
		}
		if !c.doRecurse(lk.LookupListIndex) {
			continue
		}
		newLen := buffer.backtrackLen() + buffer.lookaheadLen()
		delta := newLen - origLen
		if delta == 0 {
			continue
		}
		end += delta
		if end < matchPositions[idx] {
			delta += matchPositions[idx] - end
			end = matchPositions[idx]
		}
		next := idx + 1
		if delta > 0 {
			if delta+count > maxContextLength {
				break
			}
		} else {
			if m := next - count; delta < m {
				delta = m
			}
			next -= delta
		}
		copy(matchPositions[next+delta:count+delta], matchPositions[next:count])
		next += delta
		count += delta
		for j := idx + 1; j < next; j++ {
			matchPositions[j] = matchPositions[j-1] + 1
		}
		for ; next < count; next++ {
			matchPositions[next] += delta
		}
	}
	buffer.moveTo(end)
}

// contextApplyLookup matches a GSUB/GPOS Context (non-chained) rule's
// input sequence and, on success, runs its nested lookups.
func (c *applyContext) contextApplyLookup(input []uint16, lookupRecord []font.SequenceLookupRecord, matchFunc matcherFunc) bool {
	var matchPositions [maxContextLength]int
	hasMatch, matchEnd, _ := c.matchInput(input, matchFunc, &matchPositions)
	if hasMatch {
		c.buffer.unsafeToBreak(c.buffer.idx, matchEnd)
		c.applyLookup(len(input)+1, &matchPositions, lookupRecord, matchEnd)
		return true
	}
	c.buffer.unsafeToConcat(c.buffer.idx, matchEnd)
	return false
}

// chainContextApplyLookup is contextApplyLookup extended with
// backtrack/lookahead context that must also match, but whose glyphs are
// not themselves substituted (spec §4.4 chained sequence context).
func (c *applyContext) chainContextApplyLookup(backtrack, input, lookahead []uint16, lookupRecord []font.SequenceLookupRecord, matchFuncs [3]matcherFunc) bool {
	var matchPositions [maxContextLength]int
	hasMatch, matchEnd, _ := c.matchInput(input, matchFuncs[1], &matchPositions)
	if !hasMatch || matchEnd == 0 {
		c.buffer.unsafeToConcat(c.buffer.idx, matchEnd)
		return false
	}
	endIndex := matchEnd
	hasMatch, endIndex = c.matchLookahead(lookahead, matchFuncs[2], matchEnd)
	if !hasMatch {
		c.buffer.unsafeToConcat(c.buffer.idx, endIndex)
		return false
	}
	hasMatch, startIndex := c.matchBacktrack(backtrack, matchFuncs[0])
	if !hasMatch {
		c.buffer.unsafeToConcatFromOutbuffer(startIndex, endIndex)
		return false
	}
	c.buffer.unsafeToBreakFromOutbuffer(startIndex, endIndex)
	c.applyLookup(len(input)+1, &matchPositions, lookupRecord, matchEnd)
	return true
}

func (c *applyContext) applyRuleSet(ruleSet font.SequenceRuleSet, matchFunc matcherFunc) bool {
	for _, rule := range ruleSet {
		input := make([]uint16, len(rule.Input))
		for i, g := range rule.Input {
			input[i] = uint16(g)
		}
		if c.contextApplyLookup(input, rule.LookupRecord, matchFunc) {
			return true
		}
	}
	return false
}

func (c *applyContext) applyClassRuleSet(ruleSet font.ClassSequenceRuleSet, matchFunc matcherFunc) bool {
	for _, rule := range ruleSet {
		if c.contextApplyLookup(rule.Input, rule.LookupRecord, matchFunc) {
			return true
		}
	}
	return false
}

func (c *applyContext) applyChainRuleSet(ruleSet font.ChainedSequenceRuleSet, matchFuncs [3]matcherFunc) bool {
	for _, rule := range ruleSet {
		back := make([]uint16, len(rule.Backtrack))
		for i, g := range rule.Backtrack {
			back[i] = uint16(g)
		}
		input := make([]uint16, len(rule.Input))
		for i, g := range rule.Input {
			input[i] = uint16(g)
		}
		look := make([]uint16, len(rule.Lookahead))
		for i, g := range rule.Lookahead {
			look[i] = uint16(g)
		}
		if c.chainContextApplyLookup(back, input, look, rule.LookupRecord, matchFuncs) {
			return true
		}
	}
	return false
}

func (c *applyContext) applyChainClassRuleSet(ruleSet font.ChainedClassSequenceRuleSet, matchFuncs [3]matcherFunc) bool {
	for _, rule := range ruleSet {
		if c.chainContextApplyLookup(rule.Backtrack, rule.Input, rule.Lookahead, rule.LookupRecord, matchFuncs) {
			return true
		}
	}
	return false
}

// applySequenceContext dispatches a GSUB/GPOS Context subtable (formats
// 1-3, spec §4.4) at the buffer cursor.
func (c *applyContext) applySequenceContext(ctx interface{}) bool {
	switch data := ctx.(type) {
	case font.SequenceContext1:
		gid := c.buffer.curInfo(0).Glyph
		idx, ok := data.Cov.Index(gid)
		if !ok || idx >= len(data.RuleSets) {
			return false
		}
		return c.applyRuleSet(data.RuleSets[idx], matchGlyph)
	case font.SequenceContext2:
		class := data.ClassDef.Class(c.buffer.curInfo(0).Glyph)
		if int(class) >= len(data.RuleSets) {
			return false
		}
		return c.applyClassRuleSet(data.RuleSets[class], matchClass(data.ClassDef))
	case font.SequenceContext3:
		if len(data.Input) == 0 || data.Input[0] == nil {
			return false
		}
		if _, ok := data.Input[0].Index(c.buffer.curInfo(0).Glyph); !ok {
			return false
		}
		covs := get1N(&c.indices, 1, len(data.Input))
		return c.contextApplyLookup(covs, data.LookupRecord, matchCoverage(data.Input))
	}
	return false
}

// applyChainedSequenceContext dispatches a chained context subtable
// (formats 1-3) the same way applySequenceContext does for the
// non-chained formats.
func (c *applyContext) applyChainedSequenceContext(ctx interface{}) bool {
	switch data := ctx.(type) {
	case font.ChainedSequenceContext1:
		gid := c.buffer.curInfo(0).Glyph
		idx, ok := data.Cov.Index(gid)
		if !ok || idx >= len(data.RuleSets) {
			return false
		}
		return c.applyChainRuleSet(data.RuleSets[idx], [3]matcherFunc{matchGlyph, matchGlyph, matchGlyph})
	case font.ChainedSequenceContext2:
		class := data.InputClassDef.Class(c.buffer.curInfo(0).Glyph)
		if int(class) >= len(data.RuleSets) {
			return false
		}
		return c.applyChainClassRuleSet(data.RuleSets[class], [3]matcherFunc{
			matchClass(data.BacktrackClassDef), matchClass(data.InputClassDef), matchClass(data.LookaheadClassDef),
		})
	case font.ChainedSequenceContext3:
		if len(data.Input) == 0 || data.Input[0] == nil {
			return false
		}
		if _, ok := data.Input[0].Index(c.buffer.curInfo(0).Glyph); !ok {
			return false
		}
		lB, lI, lL := len(data.Backtrack), len(data.Input), len(data.Lookahead)
		return c.chainContextApplyLookup(
			get1N(&c.indices, 0, lB), get1N(&c.indices, 1, lI), get1N(&c.indices, 0, lL),
			data.LookupRecord,
			[3]matcherFunc{matchCoverage(data.Backtrack), matchCoverage(data.Input), matchCoverage(data.Lookahead)},
		)
	}
	return false
}
