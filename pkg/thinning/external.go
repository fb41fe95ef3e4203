package thinning

import (
	"bytes"
	"context"
	_ "embed"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"voxmask/internal/models"
	"voxmask/pkg/volume"
)

//go:embed helper/itk_thin.py
var itkHelper []byte

const helperName = "itk_thin.py"

// External runs thinning in a separate process. Volumes are exchanged as raw
// ZYX-flat files in a private temp directory.
//
// With no Command set the embedded helper script is run with Python and uses
// ITK's BinaryThinningImageFilter3D. Command replaces it; each argument may use
// the placeholders {in} {out} {d} {h} {w} {sx} {sy} {sz}.
type External struct {
	// Python is the interpreter for the embedded helper
	Python string

	// Command is an optional command template
	Command []string

	// Timeout bounds one invocation; zero means no limit
	Timeout time.Duration

	// TempDir is where the exchange directory is created; empty uses os.TempDir
	TempDir string

	// KeepTemp leaves the exchange directory in place for debugging
	KeepTemp bool

	Logger *zap.SugaredLogger
}

// Thin writes vol to disk, runs the external command and reads the result back
func (e *External) Thin(ctx context.Context, vol models.ZYXVolume, spacing Spacing) (models.ZYXVolume, error) {
	log := e.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	dir, err := os.MkdirTemp(e.TempDir, "voxmask-thin-*")
	if err != nil {
		return models.ZYXVolume{}, errors.Wrap(err, "create thinning work dir")
	}
	if e.KeepTemp {
		log.Infow("Keeping thinning work dir", "dir", dir)
	} else {
		defer os.RemoveAll(dir)
	}

	inPath := filepath.Join(dir, "in.raw")
	outPath := filepath.Join(dir, "out.raw")
	if err := volume.WriteFlat(vol, inPath); err != nil {
		return models.ZYXVolume{}, err
	}

	argv, err := e.commandLine(dir, inPath, outPath, vol.Dims, spacing)
	if err != nil {
		return models.ZYXVolume{}, err
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugw("Running thinning command", "argv", argv)
	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.ZYXVolume{}, errors.Wrapf(ctxErr, "thinning command %s", argv[0])
		}
		return models.ZYXVolume{}, errors.Wrapf(err, "thinning command %s: %s",
			argv[0], strings.TrimSpace(stderr.String()))
	}
	log.Debugw("Thinning command finished",
		"elapsed", time.Since(start),
		"stdout", strings.TrimSpace(stdout.String()))

	out, err := volume.LoadFlat(outPath, vol.Dims)
	if err != nil {
		if errors.Is(err, volume.ErrSizeMismatch) || errors.Is(err, os.ErrNotExist) {
			return models.ZYXVolume{}, errors.Wrap(ErrContract, err.Error())
		}
		return models.ZYXVolume{}, err
	}
	if err := CheckResult(vol, out); err != nil {
		return models.ZYXVolume{}, err
	}
	return out, nil
}

// commandLine expands the configured template, or installs the embedded
// helper into dir and returns the Python invocation for it
func (e *External) commandLine(dir, in, out string, dims models.Dims, spacing Spacing) ([]string, error) {
	replacer := strings.NewReplacer(
		"{in}", in,
		"{out}", out,
		"{d}", strconv.Itoa(dims.D),
		"{h}", strconv.Itoa(dims.H),
		"{w}", strconv.Itoa(dims.W),
		"{sx}", formatFloat(spacing[0]),
		"{sy}", formatFloat(spacing[1]),
		"{sz}", formatFloat(spacing[2]),
	)

	if len(e.Command) > 0 {
		argv := make([]string, len(e.Command))
		for i, arg := range e.Command {
			argv[i] = replacer.Replace(arg)
		}
		return argv, nil
	}

	helper := filepath.Join(dir, helperName)
	if err := os.WriteFile(helper, itkHelper, 0o644); err != nil {
		return nil, errors.Wrap(err, "install thinning helper")
	}

	python := e.Python
	if python == "" {
		python = "python3"
	}
	return []string{python, helper, in,
		strconv.Itoa(dims.D), strconv.Itoa(dims.H), strconv.Itoa(dims.W), out,
		formatFloat(spacing[0]), formatFloat(spacing[1]), formatFloat(spacing[2]),
	}, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
