// Package shaping implements the complex text shaping pipeline: the
// segmented glyph buffer, the feature-mask/lookup map builder, the
// OpenType GSUB/GPOS apply engine, the AAT morx/kerx state-machine
// driver, the per-script complex shapers, and the normalization stage
// that bridges Unicode text and a font's internal glyph vocabulary.
//
// Ported from and adapted to the design of go-text/typesetting's
// harfbuzz package (itself a Go port of harfbuzz/rustybuzz); see
// DESIGN.md for the grounding of each file.
package shaping

import (
	"fmt"

	"github.com/inkwell/shaping/font"
	"github.com/inkwell/shaping/unicodedata"
)

// GID is re-exported for convenience; the engine's internal glyph
// identifier is always font.GID.
type GID = font.GID

// Mask is the per-glyph feature-gating bitfield (spec §3).
type Mask = uint32

// unicodeProp packs the Unicode-derived properties of a buffer entry
// into 16 bits: General_Category (5 bits), three single-bit flags, and,
// switched by the general category, either the modified combining class
// (for marks) or a ZWJ/ZWNJ tag (for format characters).
type unicodeProp uint16

const (
	upropsMaskGenCat      unicodeProp = 1<<5 - 1
	upropsMaskIgnorable   unicodeProp = 1 << 5
	upropsMaskHidden      unicodeProp = 1 << 6
	upropsMaskContinuation unicodeProp = 1 << 7
	upropsMaskCfZwj       unicodeProp = 1 << 8
	upropsMaskCfZwnj      unicodeProp = 1 << 9
)

func (p unicodeProp) generalCategory() unicodedata.GeneralCategory {
	return unicodedata.GeneralCategory(p & upropsMaskGenCat)
}

// GlyphMask bits gate per-feature application and carry break-safety
// annotations (spec §3, §8 "unsafe_to_break soundness").
const (
	MaskUnsafeToBreak Mask = 1 << iota
	MaskUnsafeToConcat
	MaskSafeToInsertTatweel

	maskFlagsDefined = MaskUnsafeToBreak | MaskUnsafeToConcat | MaskSafeToInsertTatweel
)

// ligProps packs the ligature-id (high 3 bits), the "is ligature base"
// flag, and the component index (low 4 bits) described in spec §3.
const ligPropsIsBase uint8 = 0x10

// GlyphInfo is a single buffer entry: a Unicode codepoint before GSUB, a
// font glyph id after (spec §3).
type GlyphInfo struct {
	// Cluster is the index of the original input character (or whatever
	// the caller passed to Buffer.Add) this entry traces back to. More
	// than one entry can share a Cluster (1-to-many substitution); when
	// several characters merge into one glyph, the glyph takes the
	// smallest of their Cluster values.
	Cluster int

	codepoint rune // pre-GSUB payload
	Glyph     GID  // post-GSUB payload

	Mask Mask

	glyphProps uint16 // GDEF class + substituted/ligated/multiplied bits
	ligProps   uint8
	syllable   uint8

	unicode unicodeProp

	complexCategory, complexAux uint8 // per-shaper scratch (spec §3 "auxiliary category/position")
}

func (info GlyphInfo) String() string {
	return fmt.Sprintf("%d=%d(0x%x)", info.Glyph, info.Cluster, info.Mask&maskFlagsDefined)
}

func (info *GlyphInfo) setCluster(cluster int, mask Mask) {
	if info.Cluster != cluster {
		info.Mask = (info.Mask &^ maskFlagsDefined) | (mask & maskFlagsDefined)
	}
	info.Cluster = cluster
}

func (info *GlyphInfo) setUnicodeProps(u unicodedata.Provider) {
	cp := info.codepoint
	cat := u.GeneralCategory(cp)
	info.unicode = unicodeProp(cat)
	if u.IsDefaultIgnorable(cp) {
		info.unicode |= upropsMaskIgnorable
	}
	switch cp {
	case 0x200B, 0x2060, 0x180B, 0x180C, 0x180D, 0x180E, 0xFE00, 0xFEFF:
		// Mongolian FVS / CGJ-like: hidden but participates in matching,
		// unlike most other default-ignorables.
		info.unicode |= upropsMaskHidden
	}
	if cat == unicodedata.NonSpacingMark || cat == unicodedata.SpacingMark || cat == unicodedata.EnclosingMark {
		info.setModifiedCombiningClass(u.CombiningClass(cp))
	} else if cat == unicodedata.Format {
		switch cp {
		case 0x200D:
			info.unicode |= upropsMaskCfZwj
		case 0x200C:
			info.unicode |= upropsMaskCfZwnj
		}
	}
}

func (info *GlyphInfo) setGeneralCategory(cat unicodedata.GeneralCategory) {
	info.unicode = unicodeProp(cat) | (info.unicode &^ upropsMaskGenCat)
}

func (info *GlyphInfo) setContinuation()      { info.unicode |= upropsMaskContinuation }
func (info *GlyphInfo) isContinuation() bool  { return info.unicode&upropsMaskContinuation != 0 }
func (info *GlyphInfo) resetContinuation()    { info.unicode &^= upropsMaskContinuation }
func (info *GlyphInfo) unhide()               { info.unicode &^= upropsMaskHidden }
func (info *GlyphInfo) isHidden() bool        { return info.unicode&upropsMaskHidden != 0 }

func (info *GlyphInfo) isUnicodeSpace() bool  { return info.unicode.generalCategory() == unicodedata.SpaceSeparator }
func (info *GlyphInfo) isUnicodeFormat() bool { return info.unicode.generalCategory() == unicodedata.Format }
func (info *GlyphInfo) isUnicodeMark() bool   { return info.unicode.generalCategory().IsMark() }

func (info *GlyphInfo) isZwj() bool  { return info.isUnicodeFormat() && info.unicode&upropsMaskCfZwj != 0 }
func (info *GlyphInfo) isZwnj() bool { return info.isUnicodeFormat() && info.unicode&upropsMaskCfZwnj != 0 }

func (info *GlyphInfo) getModifiedCombiningClass() uint8 {
	if info.isUnicodeMark() {
		return uint8(info.unicode >> 10)
	}
	return 0
}

func (info *GlyphInfo) setModifiedCombiningClass(cc uint8) {
	if !info.isUnicodeMark() {
		return
	}
	info.unicode = unicodeProp(cc)<<10 | (info.unicode & 0x3FF)
}

func (info *GlyphInfo) isDefaultIgnorable() bool {
	return info.unicode&upropsMaskIgnorable != 0 && !info.substituted()
}

func (info *GlyphInfo) isDefaultIgnorableAndNotHidden() bool {
	return (info.unicode&(upropsMaskIgnorable|upropsMaskHidden)) == upropsMaskIgnorable && !info.substituted()
}

// GDEF-derived glyph classification.
func (info *GlyphInfo) isMark() bool      { return info.glyphProps&font.GlyphClassMark != 0 }
func (info *GlyphInfo) isBaseGlyph() bool { return info.glyphProps&font.GlyphClassBase != 0 }
func (info *GlyphInfo) isLigature() bool  { return info.glyphProps&font.GlyphClassLigature != 0 }

func (info *GlyphInfo) substituted() bool { return info.glyphProps&font.GlyphPropsSubstituted != 0 }
func (info *GlyphInfo) ligated() bool     { return info.glyphProps&font.GlyphPropsLigated != 0 }
func (info *GlyphInfo) multiplied() bool  { return info.glyphProps&font.GlyphPropsMultiplied != 0 }

func (info *GlyphInfo) clearLigatedAndMultiplied() {
	info.glyphProps &^= font.GlyphPropsLigated | font.GlyphPropsMultiplied
}

func (info *GlyphInfo) ligatedAndDidntMultiply() bool { return info.ligated() && !info.multiplied() }

// Ligature id/component bookkeeping (spec §4.5, "the single most
// intricate piece of bookkeeping in the engine").
func (info *GlyphInfo) getLigID() uint8          { return info.ligProps >> 5 }
func (info *GlyphInfo) ligatedInternal() bool    { return info.ligProps&ligPropsIsBase != 0 }

func (info *GlyphInfo) getLigComp() uint8 {
	if info.ligatedInternal() {
		return 0
	}
	return info.ligProps & 0x0F
}

func (info *GlyphInfo) getLigNumComps() uint8 {
	if info.glyphProps&font.GlyphClassLigature != 0 && info.ligatedInternal() {
		return info.ligProps & 0x0F
	}
	return 1
}

func (info *GlyphInfo) setLigPropsForMark(ligID, ligComp uint8) {
	info.ligProps = (ligID << 5) | (ligComp & 0x0F)
}

func (info *GlyphInfo) setLigPropsForLigature(ligID, ligNumComps uint8) {
	info.ligProps = (ligID << 5) | ligPropsIsBase | (ligNumComps & 0x0F)
}

// GlyphPosition is a positioned glyph's offsets and advances (spec §3).
type GlyphPosition struct {
	XAdvance, YAdvance int32
	XOffset, YOffset   int32

	// attachChain is a signed delta (relative to this entry's index) to
	// the glyph this one attaches to; 0 means "no attachment". attachType
	// distinguishes mark-attachment (full 2D offset) from cursive
	// attachment (cross-direction offset only).
	attachChain int16
	attachType  uint8
}

const (
	attachTypeNone uint8 = iota
	attachTypeMark
	attachTypeCursive
)
