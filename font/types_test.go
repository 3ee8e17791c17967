package font

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagRoundTrip(t *testing.T) {
	for _, s := range []string{"liga", "kern", "DFLT", "ab"} {
		tag := NewTag(s)
		want := s
		if len(want) < 4 {
			want = want + "    "[:4-len(want)]
		}
		if got := tag.String(); got != want {
			t.Errorf("NewTag(%q).String() = %q, want %q", s, got, want)
		}
	}
}

func TestScriptString(t *testing.T) {
	if got := ScriptArabic.String(); got != "Arab" {
		t.Errorf("ScriptArabic.String() = %q, want Arab", got)
	}
}

func TestDirectionPredicates(t *testing.T) {
	cases := []struct {
		d                      Direction
		horizontal, backward bool
	}{
		{LeftToRight, true, false},
		{RightToLeft, true, true},
		{TopToBottom, false, false},
		{BottomToTop, false, true},
	}
	for _, c := range cases {
		if got := c.d.IsHorizontal(); got != c.horizontal {
			t.Errorf("%v.IsHorizontal() = %v, want %v", c.d, got, c.horizontal)
		}
		if got := c.d.IsBackward(); got != c.backward {
			t.Errorf("%v.IsBackward() = %v, want %v", c.d, got, c.backward)
		}
		if !c.d.IsValid() {
			t.Errorf("%v.IsValid() = false", c.d)
		}
	}
	if DirectionInvalid.IsValid() {
		t.Error("DirectionInvalid.IsValid() = true")
	}
}

func TestDirectionReverse(t *testing.T) {
	if LeftToRight.Reverse() != RightToLeft {
		t.Error("LeftToRight.Reverse() != RightToLeft")
	}
	if TopToBottom.Reverse() != BottomToTop {
		t.Error("TopToBottom.Reverse() != BottomToTop")
	}
}

// SegmentProperties is a plain 3-field struct; comparing it wholesale
// with assert.Equal reads clearer than three separate equality checks
// and still reports every mismatched field on failure.
func TestSegmentPropertiesString(t *testing.T) {
	props := SegmentProperties{Direction: RightToLeft, Script: ScriptArabic, Language: "ar"}
	assert.Equal(t, SegmentProperties{Direction: RightToLeft, Script: ScriptArabic, Language: "ar"}, props)
	assert.Equal(t, "RightToLeft/Arab/ar", props.String())
}
