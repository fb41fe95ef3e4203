package cli

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"voxmask/internal/models"
	"voxmask/pkg/config"
	"voxmask/pkg/convert"
)

// TestParseRawToThinned covers positional parsing and interspersed flags
func TestParseRawToThinned(t *testing.T) {
	opts, err := ParseRawToThinned([]string{"in.raw", "4", "5", "6", "--profile", "out.raw", "-v"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if opts.In != "in.raw" || opts.Out != "out.raw" {
		t.Errorf("Unexpected paths %q %q", opts.In, opts.Out)
	}
	if opts.Dims != (models.Dims{D: 4, H: 5, W: 6}) {
		t.Errorf("Unexpected dims %+v", opts.Dims)
	}
	if !opts.Profile || !opts.Verbose {
		t.Errorf("Expected profile and verbose flags to be set")
	}
	if opts.ConfigPath != config.DefaultPath {
		t.Errorf("Expected default config path, got %q", opts.ConfigPath)
	}
}

// TestParseImageToRaw covers the optional threshold
func TestParseImageToRaw(t *testing.T) {
	opts, err := ParseImageToRaw([]string{"in.nii.gz", "out.raw"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if opts.Threshold != nil {
		t.Errorf("Expected no threshold, got %v", *opts.Threshold)
	}
	if !opts.Mode().Test(0.001) {
		t.Error("Expected nonzero mode by default")
	}

	opts, err = ParseImageToRaw([]string{"in.nii", "out.raw", "--threshold", "15", "--config", "other.yaml"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if opts.Threshold == nil || *opts.Threshold != 15 {
		t.Fatalf("Expected threshold 15, got %v", opts.Threshold)
	}
	if opts.Mode().Test(15) || !opts.Mode().Test(15.5) {
		t.Error("Expected strict threshold comparison")
	}
	if opts.ConfigPath != "other.yaml" {
		t.Errorf("Expected config path override, got %q", opts.ConfigPath)
	}

	opts, err = ParseImageToRaw([]string{"--threshold=0", "in.nii", "out.raw"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if opts.Threshold == nil || *opts.Threshold != 0 {
		t.Errorf("Expected explicit zero threshold to be kept")
	}
}

// TestParseRawToImage covers the six positional arguments
func TestParseRawToImage(t *testing.T) {
	opts, err := ParseRawToImage([]string{"in.raw", "1", "2", "3", "ref.nii", "out.nii.gz"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if opts.Ref != "ref.nii" || opts.Out != "out.nii.gz" || opts.Dims.W != 3 {
		t.Errorf("Unexpected options %+v", opts)
	}
}

// TestUsageErrors verifies bad command lines are rejected before any I/O
func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name  string
		parse func() error
	}{
		{"too few", func() error { _, err := ParseRawToThinned([]string{"in.raw", "1", "2"}); return err }},
		{"too many", func() error { _, err := ParseImageToRaw([]string{"a", "b", "c"}); return err }},
		{"not a number", func() error { _, err := ParseRawToImage([]string{"in", "x", "2", "3", "r", "o"}); return err }},
		{"zero extent", func() error { _, err := ParseRawToThinned([]string{"in", "0", "2", "3", "o"}); return err }},
		{"unknown flag", func() error { _, err := ParseImageToRaw([]string{"--bogus", "a", "b"}); return err }},
		{"bad threshold", func() error { _, err := ParseImageToRaw([]string{"a", "b", "--threshold", "high"}); return err }},
	}

	for _, tt := range tests {
		if err := tt.parse(); !errors.Is(err, ErrUsage) {
			t.Errorf("%s: expected usage error, got %v", tt.name, err)
		}
	}

	if _, err := ParseImageToRaw([]string{"-h"}); !errors.Is(err, ErrHelp) {
		t.Errorf("Expected help error, got %v", err)
	}
}

// TestParseFloats verifies numeric helpers used by voxtool
func TestParseFloats(t *testing.T) {
	got, err := ParseFloats("1.5", "-2", "3e1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got[0] != 1.5 || got[1] != -2 || got[2] != 30 {
		t.Errorf("Unexpected values %v", got)
	}
	if _, err := ParseFloats("nope"); !errors.Is(err, ErrUsage) {
		t.Errorf("Expected usage error, got %v", err)
	}
}

func TestFormatTimings(t *testing.T) {
	got := FormatTimings(convert.Timings{
		Load:      500 * time.Millisecond,
		Transform: 2 * time.Second,
		Write:     250 * time.Millisecond,
	})
	for _, want := range []string{"load 0.500s", "binarize 0.000s", "transform 2.000s", "write 0.250s", "total 2.750s"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatTimings = %q, missing %q", got, want)
		}
	}
}

// TestSetup loads a config file and builds a verbose logger
func TestSetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxmask.yaml")
	cfg := config.DefaultConfig()
	cfg.Thinning.Spacing = [3]float64{0.5, 0.5, 2}
	if err := config.SaveConfig(cfg, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, log, err := Common{ConfigPath: path, Verbose: true}.Setup()
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if loaded.Thinning.Spacing != cfg.Thinning.Spacing {
		t.Errorf("Expected spacing %v, got %v", cfg.Thinning.Spacing, loaded.Thinning.Spacing)
	}
	if log == nil {
		t.Fatal("Expected a logger")
	}

	if _, _, err := (Common{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")}).Setup(); err != nil {
		t.Errorf("Expected defaults for a missing config, got %v", err)
	}
}
