package shaping

import (
	"testing"

	"github.com/inkwell/shaping/font"
)

func TestParseFeatureEnable(t *testing.T) {
	f, err := ParseFeature("liga")
	if err != nil {
		t.Fatal(err)
	}
	if f.Tag != font.NewTag("liga") || f.Value != 1 {
		t.Errorf("got %+v, want enabled liga", f)
	}
}

func TestParseFeatureDisable(t *testing.T) {
	f, err := ParseFeature("-liga")
	if err != nil {
		t.Fatal(err)
	}
	if f.Tag != font.NewTag("liga") || f.Value != 0 {
		t.Errorf("got %+v, want disabled liga", f)
	}
}

func TestParseFeatureExplicitValue(t *testing.T) {
	f, err := ParseFeature("ss01=1")
	if err != nil {
		t.Fatal(err)
	}
	if f.Tag != font.NewTag("ss01") || f.Value != 1 {
		t.Errorf("got %+v, want ss01=1", f)
	}
}

func TestParseFeatureRange(t *testing.T) {
	f, err := ParseFeature("liga[3:7]")
	if err != nil {
		t.Fatal(err)
	}
	if f.Start != 3 || f.End != 7 {
		t.Errorf("got Start=%d End=%d, want 3,7", f.Start, f.End)
	}
}

func TestParseFeatureRangeOpenEnd(t *testing.T) {
	f, err := ParseFeature("liga[3:]")
	if err != nil {
		t.Fatal(err)
	}
	if f.Start != 3 || f.End != 0 {
		t.Errorf("got Start=%d End=%d, want 3,0 (open end)", f.Start, f.End)
	}
}

func TestParseFeatureMalformedRange(t *testing.T) {
	if _, err := ParseFeature("liga[3:7"); err == nil {
		t.Error("want error for unterminated range")
	}
}

func TestParseFeatureBadTag(t *testing.T) {
	if _, err := ParseFeature("toolong5"); err == nil {
		t.Error("want error for a tag longer than 4 bytes")
	}
}
