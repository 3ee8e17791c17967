package shaping

import (
	"github.com/inkwell/shaping/font"
	"github.com/inkwell/shaping/unicodedata"
)

// normalizeBuffer runs the Unicode normalizer (spec §4.2, C2): maps every
// entry's codepoint to a glyph the font's cmap provides directly, or
// decomposes it and recomposes the pieces the font does have. No
// direct teacher file grounds this stage (see DESIGN.md); the four-mode
// algorithm follows spec §4.2, itself distilled from rustybuzz's
// normalize.rs.
func normalizeBuffer(buffer *Buffer, face *font.Face, u unicodedata.Provider, shaper complexShaper) {
	for i := range buffer.info {
		buffer.info[i].setUnicodeProps(u)
	}

	pref := shaper.normalizationPreference()
	if pref == normPreferenceNone {
		for i := range buffer.info {
			if gid, ok := face.Tables.NominalGlyph(buffer.info[i].codepoint); ok {
				buffer.info[i].Glyph = gid
			}
		}
		return
	}

	decomposeBuffer(buffer, face, u, shaper, pref)
	composeBuffer(buffer, face, u, shaper, pref)
	reorderMarks(buffer)
}

// decomposeBuffer is normalizer step 1-2: a codepoint the font maps
// directly is kept as is (unless the shaper insists on decomposing
// regardless, the NoShortCircuit mode Myanmar needs); anything else is
// fully decomposed into leaf codepoints, each individually looked up.
func decomposeBuffer(buffer *Buffer, face *font.Face, u unicodedata.Provider, shaper complexShaper, pref normalizationPreference) {
	buffer.clearOutput()
	shortCircuit := pref == normPreferenceComposedDiacritics
	for buffer.idx < len(buffer.info) {
		entry := buffer.curInfo(0)
		cp := entry.codepoint

		if shortCircuit {
			if gid, ok := face.Tables.NominalGlyph(cp); ok {
				entry.Glyph = gid
				buffer.nextGlyph()
				continue
			}
		}

		a, b, ok := shaper.decompose(u, cp)
		if !ok {
			if gid, mapped := face.Tables.NominalGlyph(cp); mapped {
				entry.Glyph = gid
			}
			buffer.nextGlyph()
			continue
		}

		cluster := entry.Cluster
		var leaves []rune
		fullyDecompose(u, shaper, a, &leaves)
		fullyDecompose(u, shaper, b, &leaves)
		for _, leaf := range leaves {
			li := GlyphInfo{codepoint: leaf, Cluster: cluster}
			li.setUnicodeProps(u)
			if gid, mapped := face.Tables.NominalGlyph(leaf); mapped {
				li.Glyph = gid
			}
			buffer.outputInfo(li)
		}
		buffer.idx++
	}
	buffer.swapBuffers()
}

// fullyDecompose recursively expands cp through the shaper's decompose
// hook until every leaf has no further canonical decomposition,
// appending leaves to out in logical (reading) order.
func fullyDecompose(u unicodedata.Provider, shaper complexShaper, cp rune, out *[]rune) {
	a, b, ok := shaper.decompose(u, cp)
	if !ok {
		*out = append(*out, cp)
		return
	}
	fullyDecompose(u, shaper, a, out)
	fullyDecompose(u, shaper, b, out)
}

// composeBuffer is normalizer step 3: greedily recompose a decomposed
// starter with whatever follows it, as long as the shaper's compose hook
// accepts the pair and the font has a glyph for the result. Skipped
// entirely for the Decomposed preference.
func composeBuffer(buffer *Buffer, face *font.Face, u unicodedata.Provider, shaper complexShaper, pref normalizationPreference) {
	if pref == normPreferenceDecomposed {
		return
	}
	buffer.clearOutput()
	for buffer.idx < len(buffer.info) {
		buffer.nextGlyph()
		for buffer.idx < len(buffer.info) {
			last := &buffer.outInfo[len(buffer.outInfo)-1]
			cur := buffer.curInfo(0)

			composed, ok := shaper.compose(u, last.codepoint, cur.codepoint)
			if !ok {
				break
			}
			gid, mapped := face.Tables.NominalGlyph(composed)
			if !mapped {
				break
			}

			if cur.Cluster < last.Cluster {
				last.Cluster = cur.Cluster
			}
			last.codepoint = composed
			last.Glyph = gid
			last.setUnicodeProps(u)
			buffer.idx++
		}
	}
	buffer.swapBuffers()
}

// reorderMarks is normalizer step 4 (spec §4.2): stable-sorts each run of
// consecutive combining marks by modified combining
// class, so the font's GPOS mark attachment sees marks in canonical
// (not input) order.
func reorderMarks(buffer *Buffer) {
	info := buffer.info
	pos := buffer.pos
	start := 0
	for start < len(info) {
		if !info[start].isUnicodeMark() || info[start].getModifiedCombiningClass() == 0 {
			start++
			continue
		}
		end := start
		for end < len(info) && info[end].isUnicodeMark() && info[end].getModifiedCombiningClass() != 0 {
			end++
		}
		for i := start + 1; i < end; i++ {
			j := i
			for j > start && info[j-1].getModifiedCombiningClass() > info[j].getModifiedCombiningClass() {
				info[j-1], info[j] = info[j], info[j-1]
				pos[j-1], pos[j] = pos[j], pos[j-1]
				j--
			}
		}
		start = end
	}
}
