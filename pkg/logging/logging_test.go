package logging

import (
	"bytes"
	"strings"
	"testing"
)

// TestLevels verifies debug records only appear in verbose mode
func TestLevels(t *testing.T) {
	var quiet, loud bytes.Buffer

	NewWithWriter(&quiet, false).Named(ComponentConvert).Debugw("loaded", "ones", 3)
	NewWithWriter(&quiet, false).Warnw("reference extents differ")
	NewWithWriter(&loud, true).Named(ComponentConvert).Debugw("loaded", "ones", 3)

	if strings.Contains(quiet.String(), "loaded") {
		t.Errorf("Expected debug record to be suppressed, got %q", quiet.String())
	}
	if !strings.Contains(quiet.String(), "reference extents differ") {
		t.Errorf("Expected warning to be written, got %q", quiet.String())
	}
	out := loud.String()
	if !strings.Contains(out, "loaded") || !strings.Contains(out, "convert") || !strings.Contains(out, "ones") {
		t.Errorf("Expected verbose record with component and fields, got %q", out)
	}
}
