package shaping

import "github.com/inkwell/shaping/font"

// GPOS subtable appliers (spec §4.5's "GPOS single/pair/cursive/mark-to-
// base/mark-to-ligature/mark-to-mark" contract). Ported from the
// teacher's ot_layout_gpos.go; positions are mutated in place rather than
// rewritten into the output buffer, per spec §4.5 ("GPOS is in-place").

// applyGPOSSubtable dispatches one GPOS subtable against the buffer
// cursor, mirroring applyGSUBSubtable's contract in gsub.go.
func (c *applyContext) applyGPOSSubtable(sub interface{}) bool {
	buffer := c.buffer
	switch data := sub.(type) {
	case font.SinglePos1:
		if _, ok := data.Cov.Index(buffer.curInfo(0).Glyph); !ok {
			return false
		}
		c.applyValueRecord(data.Format, data.Value, buffer.curPos(0))
		buffer.idx++
		return true

	case font.SinglePos2:
		index, ok := data.Cov.Index(buffer.curInfo(0).Glyph)
		if !ok {
			return false
		}
		if index < len(data.Values) {
			c.applyValueRecord(data.Format, data.Values[index], buffer.curPos(0))
		}
		buffer.idx++
		return true

	case font.PairPos1:
		index, ok := data.Cov.Index(buffer.curInfo(0).Glyph)
		if !ok {
			return false
		}
		return c.applyPair1(data, index)

	case font.PairPos2:
		if _, ok := data.Cov.Index(buffer.curInfo(0).Glyph); !ok {
			return false
		}
		return c.applyPair2(data)

	case font.CursivePos:
		index, ok := data.Cov.Index(buffer.curInfo(0).Glyph)
		if !ok {
			return false
		}
		return c.applyCursive(data, index)

	case font.MarkBasePos:
		index, ok := data.MarkCov.Index(buffer.curInfo(0).Glyph)
		if !ok {
			return false
		}
		return c.applyMarkToBase(data, index)

	case font.MarkLigPos:
		index, ok := data.MarkCov.Index(buffer.curInfo(0).Glyph)
		if !ok {
			return false
		}
		return c.applyMarkToLigature(data, index)

	case font.MarkMarkPos:
		index, ok := data.Mark1Cov.Index(buffer.curInfo(0).Glyph)
		if !ok {
			return false
		}
		return c.applyMarkToMark(data, index)

	case font.KernTable:
		return c.applyLegacyKern(data)
	}
	return false
}

// applyValueRecord adds a GPOS value record's offsets/advances into pos,
// honoring the direction-dependent advance sign (spec §4.5).
func (c *applyContext) applyValueRecord(format font.ValueFormat, v font.ValueRecord, pos *GlyphPosition) bool {
	if format == 0 {
		return false
	}
	var changed bool
	horizontal := c.direction.IsHorizontal()
	if format&font.ValueXPlacement != 0 && v.XPlacement != 0 {
		pos.XOffset += c.face.HScale(int32(v.XPlacement))
		changed = true
	}
	if format&font.ValueYPlacement != 0 && v.YPlacement != 0 {
		pos.YOffset += c.face.VScale(int32(v.YPlacement))
		changed = true
	}
	if format&font.ValueXAdvance != 0 && horizontal && v.XAdvance != 0 {
		pos.XAdvance += c.face.HScale(int32(v.XAdvance))
		changed = true
	}
	if format&font.ValueYAdvance != 0 && !horizontal && v.YAdvance != 0 {
		// YAdvance grows downward in the font format but upward in our
		// coordinate space, hence the negation.
		pos.YAdvance -= c.face.VScale(int32(v.YAdvance))
		changed = true
	}
	return changed
}

func (c *applyContext) applyPair1(data font.PairPos1, index int) bool {
	buffer := c.buffer
	it := &c.iterInput
	it.reset(buffer.idx, 1)
	if ok, unsafeTo := it.next(); !ok {
		buffer.unsafeToConcat(buffer.idx, unsafeTo)
		return false
	}
	pos := it.idx
	set := data.PairSets[index]
	second := buffer.curInfo(pos - buffer.idx).Glyph
	lo, hi := 0, len(set)
	for lo < hi {
		mid := (lo + hi) / 2
		if set[mid].SecondGlyph < second {
			lo = mid + 1
		} else if set[mid].SecondGlyph > second {
			hi = mid
		} else {
			lo = mid
			break
		}
	}
	if lo >= len(set) || set[lo].SecondGlyph != second {
		buffer.unsafeToConcat(buffer.idx, pos+1)
		return false
	}
	rec := set[lo]
	ap1 := c.applyValueRecordFmt(rec.Value1, buffer.curPos(0))
	ap2 := c.applyValueRecordFmt(rec.Value2, &buffer.pos[pos])
	if ap1 || ap2 {
		buffer.unsafeToBreak(buffer.idx, pos+1)
	}
	hasFmt2 := rec.Value2 != (font.ValueRecord{})
	if hasFmt2 {
		pos++
		buffer.unsafeToBreak(buffer.idx, pos+1)
	}
	buffer.idx = pos
	return true
}

// applyValueRecordFmt applies a raw ValueRecord with all fields implicitly
// "present" (PairPos1's per-record fields have no separate format mask in
// this engine's flattened representation; zero fields are no-ops).
func (c *applyContext) applyValueRecordFmt(v font.ValueRecord, pos *GlyphPosition) bool {
	return c.applyValueRecord(font.ValueXPlacement|font.ValueYPlacement|font.ValueXAdvance|font.ValueYAdvance, v, pos)
}

func (c *applyContext) applyPair2(data font.PairPos2) bool {
	buffer := c.buffer
	it := &c.iterInput
	it.reset(buffer.idx, 1)
	if ok, unsafeTo := it.next(); !ok {
		buffer.unsafeToConcat(buffer.idx, unsafeTo)
		return false
	}
	pos := it.idx
	class2 := data.ClassDef2.Class(buffer.curInfo(pos - buffer.idx).Glyph)
	class1 := data.ClassDef1.Class(buffer.curInfo(0).Glyph)
	vals := data.At(int(class1), int(class2))

	ap1 := c.applyValueRecordFmt(vals.Value1, buffer.curPos(0))
	ap2 := c.applyValueRecordFmt(vals.Value2, &buffer.pos[pos])
	if ap1 || ap2 {
		buffer.unsafeToBreak(buffer.idx, pos+1)
	} else {
		buffer.unsafeToConcat(buffer.idx, pos+1)
	}
	hasFmt2 := vals.Value2 != (font.ValueRecord{})
	if hasFmt2 {
		pos++
		buffer.unsafeToBreak(buffer.idx, pos+1)
	}
	buffer.idx = pos
	return true
}

func (c *applyContext) applyCursive(data font.CursivePos, covIndex int) bool {
	buffer := c.buffer
	this := data.Records[covIndex]
	if !this.HasEntry {
		return false
	}

	it := &c.iterInput
	it.reset(buffer.idx, 1)
	if ok, unsafeFrom := it.prev(); !ok {
		buffer.unsafeToConcatFromOutbuffer(unsafeFrom, buffer.idx+1)
		return false
	}

	prevIndex, ok := data.Cov.Index(buffer.logicalAt(it.idx).Glyph)
	if !ok {
		buffer.unsafeToConcatFromOutbuffer(it.idx, buffer.idx+1)
		return false
	}
	prev := data.Records[prevIndex]
	if !prev.HasExit {
		buffer.unsafeToConcatFromOutbuffer(it.idx, buffer.idx+1)
		return false
	}

	i := it.idx
	j := buffer.idx
	buffer.unsafeToBreak(i, j+1)

	exitX, exitY := prev.Exit.X, prev.Exit.Y
	entryX, entryY := this.Entry.X, this.Entry.Y
	pos := buffer.pos

	switch c.direction {
	case font.LeftToRight:
		pos[i].XAdvance = c.face.HScale(exitX) + pos[i].XOffset
		d := c.face.HScale(entryX) + pos[j].XOffset
		pos[j].XAdvance -= d
		pos[j].XOffset -= d
	case font.RightToLeft:
		d := c.face.HScale(exitX) + pos[i].XOffset
		pos[i].XAdvance -= d
		pos[i].XOffset -= d
		pos[j].XAdvance = c.face.HScale(entryX) + pos[j].XOffset
	case font.TopToBottom:
		pos[i].YAdvance = c.face.VScale(exitY) + pos[i].YOffset
		d := c.face.VScale(entryY) + pos[j].YOffset
		pos[j].YAdvance -= d
		pos[j].YOffset -= d
	case font.BottomToTop:
		d := c.face.VScale(exitY) + pos[i].YOffset
		pos[i].YAdvance -= d
		pos[i].YOffset -= d
		pos[j].YAdvance = c.face.VScale(entryY)
	}

	child, parent := i, j
	xOffset := c.face.HScale(entryX) - c.face.HScale(exitX)
	yOffset := c.face.VScale(entryY) - c.face.VScale(exitY)
	if c.lookupFlag&font.LookupRightToLeft == 0 {
		child, parent = parent, child
		xOffset, yOffset = -xOffset, -yOffset
	}

	reverseCursiveMinorOffset(pos, child, c.direction, parent)

	pos[child].attachType = attachTypeCursive
	pos[child].attachChain = int16(parent - child)
	buffer.scratchFlags |= scratchHasGPOSAttachment
	if c.direction.IsHorizontal() {
		pos[child].YOffset = yOffset
	} else {
		pos[child].XOffset = xOffset
	}

	if pos[parent].attachChain == -pos[child].attachChain {
		pos[parent].attachChain = 0
		if c.direction.IsHorizontal() {
			pos[parent].YOffset = 0
		} else {
			pos[parent].XOffset = 0
		}
	}

	buffer.idx++
	return true
}

// reverseCursiveMinorOffset walks a chain being reattached and flips the
// minor-direction offset at each step, so reparenting a subtree preserves
// absolute position (spec §4.5 cursive contract).
func reverseCursiveMinorOffset(pos []GlyphPosition, i int, direction font.Direction, newParent int) {
	chain, typ := pos[i].attachChain, pos[i].attachType
	if chain == 0 || typ&attachTypeCursive == 0 {
		return
	}
	pos[i].attachChain = 0
	j := i + int(chain)
	if j == newParent {
		return
	}
	reverseCursiveMinorOffset(pos, j, direction, newParent)
	if direction.IsHorizontal() {
		pos[j].YOffset = -pos[i].YOffset
	} else {
		pos[j].XOffset = -pos[i].XOffset
	}
	pos[j].attachChain = int16(-chain)
	pos[j].attachType = typ
}

// applyMarks records a mark-to-base/ligature/mark attachment, common to
// all three mark-positioning subtable kinds.
func (c *applyContext) applyMarks(marks []font.MarkRecord, markIndex, glyphIndex int, anchors font.AnchorMatrix, glyphPos int) bool {
	buffer := c.buffer
	rec := marks[markIndex]
	glyphAnchor, ok := anchors.Get(glyphIndex, int(rec.Class))
	if !ok {
		return false
	}
	buffer.unsafeToBreak(glyphPos, buffer.idx+1)

	o := buffer.curPos(0)
	o.XOffset = c.face.HScale(glyphAnchor.X) - c.face.HScale(rec.Anchor.X)
	o.YOffset = c.face.VScale(glyphAnchor.Y) - c.face.VScale(rec.Anchor.Y)
	o.attachType = attachTypeMark
	o.attachChain = int16(glyphPos - buffer.idx)
	buffer.scratchFlags |= scratchHasGPOSAttachment

	buffer.idx++
	return true
}

func (c *applyContext) applyMarkToBase(data font.MarkBasePos, markIndex int) bool {
	buffer := c.buffer
	it := &c.iterInput
	savedFlag := it.matcher.lookupFlag
	it.matcher.lookupFlag = font.LookupIgnoreMarks

	if c.lastBaseUntil > buffer.idx {
		c.lastBaseUntil = 0
		c.lastBase = -1
	}
	for j := buffer.idx; j > c.lastBaseUntil; j-- {
		if it.match(&buffer.info[j-1]) == mMatch {
			c.lastBase = j - 1
			break
		}
	}
	c.lastBaseUntil = buffer.idx
	it.matcher.lookupFlag = savedFlag
	if c.lastBase == -1 {
		buffer.unsafeToConcatFromOutbuffer(0, buffer.idx+1)
		return false
	}

	idx := c.lastBase
	baseIndex, ok := data.BaseCov.Index(buffer.info[idx].Glyph)
	if !ok {
		buffer.unsafeToConcatFromOutbuffer(idx, buffer.idx+1)
		return false
	}
	return c.applyMarks(data.MarkArray, markIndex, baseIndex, data.BaseArray, idx)
}

func (c *applyContext) applyMarkToLigature(data font.MarkLigPos, markIndex int) bool {
	buffer := c.buffer
	it := &c.iterInput
	savedFlag := it.matcher.lookupFlag
	it.matcher.lookupFlag = font.LookupIgnoreMarks

	if c.lastBaseUntil > buffer.idx {
		c.lastBaseUntil = 0
		c.lastBase = -1
	}
	for j := buffer.idx; j > c.lastBaseUntil; j-- {
		if it.match(&buffer.info[j-1]) == mMatch {
			c.lastBase = j - 1
			break
		}
	}
	c.lastBaseUntil = buffer.idx
	it.matcher.lookupFlag = savedFlag
	if c.lastBase == -1 {
		buffer.unsafeToConcatFromOutbuffer(0, buffer.idx+1)
		return false
	}

	idx := c.lastBase
	ligIndex, ok := data.LigatureCov.Index(buffer.info[idx].Glyph)
	if !ok {
		buffer.unsafeToConcatFromOutbuffer(idx, buffer.idx+1)
		return false
	}
	ligAttach := data.LigatureArray[ligIndex]
	compCount := len(ligAttach.Rows)
	if compCount == 0 {
		return false
	}

	ligID := buffer.info[idx].getLigID()
	markID := buffer.curInfo(0).getLigID()
	markComp := buffer.curInfo(0).getLigComp()
	compIndex := compCount - 1
	if ligID != 0 && ligID == markID && markComp > 0 {
		compIndex = min8(uint8(compCount), markComp) - 1
		if int(compIndex) < 0 {
			compIndex = 0
		}
		return c.applyMarks(data.MarkArray, markIndex, int(compIndex), ligAttach, idx)
	}
	return c.applyMarks(data.MarkArray, markIndex, compIndex, ligAttach, idx)
}

func (c *applyContext) applyMarkToMark(data font.MarkMarkPos, mark1Index int) bool {
	buffer := c.buffer
	it := &c.iterInput
	it.reset(buffer.idx, 1)
	savedFlag := it.matcher.lookupFlag
	it.matcher.lookupFlag = c.lookupFlag &^ font.LookupIgnoreFlags
	ok, _ := it.prev()
	it.matcher.lookupFlag = savedFlag
	if !ok {
		return false
	}
	if !buffer.info[it.idx].isMark() {
		return false
	}
	j := it.idx

	id1 := buffer.curInfo(0).getLigID()
	id2 := buffer.info[j].getLigID()
	comp1 := buffer.curInfo(0).getLigComp()
	comp2 := buffer.info[j].getLigComp()

	good := false
	if id1 == id2 {
		if id1 == 0 || comp1 == comp2 {
			good = true
		}
	} else if (id1 > 0 && comp1 == 0) || (id2 > 0 && comp2 == 0) {
		good = true
	}
	if !good {
		return false
	}

	mark2Index, ok := data.Mark2Cov.Index(buffer.info[j].Glyph)
	if !ok {
		return false
	}
	return c.applyMarks(data.Mark1Array, mark1Index, mark2Index, data.Mark2Array, j)
}

// applyLegacyKern applies a 'kern' table pair adjustment (spec §4.8 step
// 5's last-resort path, used when neither GPOS nor AAT kerx supplied
// kerning).
func (c *applyContext) applyLegacyKern(k font.KernTable) bool {
	buffer := c.buffer
	it := &c.iterInput
	it.reset(buffer.idx, 1)
	if ok, unsafeTo := it.next(); !ok {
		buffer.unsafeToConcat(buffer.idx, unsafeTo)
		return false
	}
	adv, ok := k.Lookup(buffer.curInfo(0).Glyph, buffer.logicalAt(it.idx).Glyph)
	if !ok {
		return false
	}
	if c.direction.IsHorizontal() {
		buffer.curPos(0).XAdvance += c.face.HScale(int32(adv))
	} else {
		buffer.curPos(0).YAdvance += c.face.VScale(int32(adv))
	}
	buffer.unsafeToBreak(buffer.idx, it.idx+1)
	return true
}
