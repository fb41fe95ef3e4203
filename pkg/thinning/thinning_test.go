package thinning

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"voxmask/internal/models"
)

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func lineVolume() models.ZYXVolume {
	vol := models.NewZYXVolume(models.Dims{D: 3, H: 3, W: 5})
	for x := 0; x < 5; x++ {
		vol.Set(1, 1, x, 1)
	}
	return vol
}

// TestFuncAdapter verifies that Func satisfies Operator
func TestFuncAdapter(t *testing.T) {
	var called bool
	var op Operator = Func(func(_ context.Context, vol models.ZYXVolume, spacing Spacing) (models.ZYXVolume, error) {
		called = true
		if spacing != UnitSpacing {
			t.Errorf("Expected unit spacing, got %v", spacing)
		}
		return vol, nil
	})

	if _, err := op.Thin(context.Background(), lineVolume(), UnitSpacing); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !called {
		t.Error("Expected wrapped function to be called")
	}
}

// TestCheckResult verifies the collaborator contract checks
func TestCheckResult(t *testing.T) {
	in := lineVolume()

	if err := CheckResult(in, in); err != nil {
		t.Errorf("Expected identical volume to pass, got %v", err)
	}

	other := models.NewZYXVolume(models.Dims{D: 5, H: 3, W: 3})
	if err := CheckResult(in, other); !errors.Is(err, ErrContract) {
		t.Errorf("Expected contract error for different extents, got %v", err)
	}

	bad := models.NewZYXVolume(in.Dims)
	bad.Data[3] = 7
	if err := CheckResult(in, bad); !errors.Is(err, ErrContract) {
		t.Errorf("Expected contract error for non-binary samples, got %v", err)
	}

	grown := models.NewZYXVolume(in.Dims)
	copy(grown.Data, in.Data)
	grown.Set(0, 2, 4, 1)
	err := CheckResult(in, grown)
	if !errors.Is(err, ErrContract) {
		t.Errorf("Expected contract error for added foreground, got %v", err)
	} else if !strings.Contains(err.Error(), "z=0, y=2, x=4") {
		t.Errorf("Expected error to locate the added voxel, got %v", err)
	}

	thinned := models.NewZYXVolume(in.Dims)
	thinned.Set(1, 1, 2, 1)
	if err := CheckResult(in, thinned); err != nil {
		t.Errorf("Expected a subset of the input to pass, got %v", err)
	}
}

// TestExternalCommand runs the operator with an identity command
func TestExternalCommand(t *testing.T) {
	requireTool(t, "cp")

	ext := &External{Command: []string{"cp", "{in}", "{out}"}, TempDir: t.TempDir()}
	in := lineVolume()

	out, err := ext.Thin(context.Background(), in, UnitSpacing)
	if err != nil {
		t.Fatalf("Thin failed: %v", err)
	}
	if !bytes.Equal(out.Data, in.Data) || out.Dims != in.Dims {
		t.Errorf("Expected identity command to return the input unchanged")
	}

	entries, err := os.ReadDir(ext.TempDir)
	if err != nil {
		t.Fatalf("Failed to read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected work dir to be removed, found %d entries", len(entries))
	}
}

// TestExternalContractViolations verifies bad results are rejected
func TestExternalContractViolations(t *testing.T) {
	requireTool(t, "sh")

	tests := []struct {
		name    string
		command []string
		input   func() models.ZYXVolume
	}{
		{"short output", []string{"sh", "-c", "head -c 3 {in} > {out}"}, lineVolume},
		{"missing output", []string{"sh", "-c", "true"}, lineVolume},
		{"added foreground", []string{"sh", "-c", "printf '\\001' | cat - {in} | head -c 45 > {out}"}, lineVolume},
		{"non-binary output", []string{"sh", "-c", "cp {in} {out}"}, func() models.ZYXVolume {
			vol := lineVolume()
			vol.Data[0] = 9
			return vol
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &External{Command: tt.command}
			_, err := ext.Thin(context.Background(), tt.input(), UnitSpacing)
			if !errors.Is(err, ErrContract) {
				t.Errorf("Expected contract error, got %v", err)
			}
		})
	}
}

// TestExternalFailure verifies that stderr of a failing command is reported
func TestExternalFailure(t *testing.T) {
	requireTool(t, "sh")

	ext := &External{Command: []string{"sh", "-c", "echo itk missing >&2; exit 3"}}
	_, err := ext.Thin(context.Background(), lineVolume(), UnitSpacing)
	if err == nil || !strings.Contains(err.Error(), "itk missing") {
		t.Errorf("Expected error mentioning stderr, got %v", err)
	}
}

// TestExternalTimeout verifies the per-invocation timeout
func TestExternalTimeout(t *testing.T) {
	requireTool(t, "sleep")

	ext := &External{Command: []string{"sleep", "5"}, Timeout: 50 * time.Millisecond}
	_, err := ext.Thin(context.Background(), lineVolume(), UnitSpacing)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

// TestCommandLine verifies placeholder expansion and the embedded helper
func TestCommandLine(t *testing.T) {
	dir := t.TempDir()
	dims := models.Dims{D: 4, H: 5, W: 6}
	spacing := Spacing{0.5, 1, 2.5}

	ext := &External{Command: []string{"thin", "--in={in}", "{d}x{h}x{w}", "{sx},{sy},{sz}", "{out}"}}
	argv, err := ext.commandLine(dir, "a.raw", "b.raw", dims, spacing)
	if err != nil {
		t.Fatalf("commandLine failed: %v", err)
	}
	want := []string{"thin", "--in=a.raw", "4x5x6", "0.5,1,2.5", "b.raw"}
	if strings.Join(argv, " ") != strings.Join(want, " ") {
		t.Errorf("Expected %v, got %v", want, argv)
	}

	helper := &External{Python: "/opt/itk/bin/python"}
	argv, err = helper.commandLine(dir, "a.raw", "b.raw", dims, spacing)
	if err != nil {
		t.Fatalf("commandLine failed: %v", err)
	}
	if argv[0] != "/opt/itk/bin/python" || argv[1] != filepath.Join(dir, helperName) {
		t.Errorf("Unexpected helper invocation %v", argv)
	}
	if len(argv) != 10 || argv[6] != "b.raw" || argv[9] != "2.5" {
		t.Errorf("Unexpected helper arguments %v", argv)
	}

	script, err := os.ReadFile(argv[1])
	if err != nil {
		t.Fatalf("Helper not installed: %v", err)
	}
	if !bytes.Contains(script, []byte("BinaryThinningImageFilter3D")) {
		t.Error("Expected installed helper to call BinaryThinningImageFilter3D")
	}
}
