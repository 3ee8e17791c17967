package shaping

import "github.com/inkwell/shaping/font"

// Thai (and Lao) write certain leading vowels before the consonant they
// logically follow (sara e/ae/o/ai-maimuan/ai-maimalai and their Lao
// counterparts), a visual quirk Unicode's encoding order already
// reflects for input text but that a font built assuming glyph order
// matches pronunciation order still wants reordered back before it
// attaches tone marks (spec §4.7 "Thai").
var thaiLeadingVowels = map[rune]bool{
	0x0E40: true, 0x0E41: true, 0x0E42: true, 0x0E43: true, 0x0E44: true,
	0x0EC0: true, 0x0EC1: true, 0x0EC2: true, 0x0EC3: true, 0x0EC4: true,
}

type complexShaperThai struct {
	complexShaperDefault
}

// preprocessText swaps a leading vowel with the following consonant, the
// one reordering this script needs; everything else (tone marks,
// below/above vowels) the font's own GPOS mark attachment handles from
// here.
func (complexShaperThai) preprocessText(plan *shapePlan, buffer *Buffer, face *font.Face) {
	info := buffer.info
	for i := 0; i+1 < len(info); i++ {
		if thaiLeadingVowels[info[i].codepoint] && !thaiLeadingVowels[info[i+1].codepoint] {
			info[i], info[i+1] = info[i+1], info[i]
			buffer.pos[i], buffer.pos[i+1] = buffer.pos[i+1], buffer.pos[i]
			i++
		}
	}
}

func (complexShaperThai) marksBehavior() (zeroWidthMarks, bool) {
	return zeroWidthMarksByGdefLate, true
}
