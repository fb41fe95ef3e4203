// Package cli parses and validates command lines for the voxmask binaries.
// Parsing never touches the filesystem; every option struct is complete and
// checked before any input is opened.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"voxmask/internal/models"
	"voxmask/pkg/config"
	"voxmask/pkg/convert"
	"voxmask/pkg/logging"
)

var (
	// ErrUsage is returned for a wrong argument count or malformed arguments
	ErrUsage = errors.New("usage error")

	// ErrHelp is returned when -h or --help was given
	ErrHelp = flag.ErrHelp
)

// Common holds the flags every command accepts
type Common struct {
	ConfigPath string
	Verbose    bool
}

func (c *Common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigPath, "config", config.DefaultPath, "YAML configuration file")
	fs.BoolVar(&c.Verbose, "v", false, "log debug details to stderr")
}

// Setup loads the configuration named by the common flags and builds the logger
func (c Common) Setup() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.LoadConfig(c.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	log := logging.New(c.Verbose || cfg.Output.Verbose)
	log.Named(logging.ComponentCLI).Debugw("Loaded configuration",
		"path", c.ConfigPath,
		"thinningCommand", cfg.Thinning.Command,
		"spacing", cfg.Thinning.Spacing)
	return cfg, log, nil
}

// NewFlagSet returns a flag set that reports errors instead of exiting and
// prints nothing on its own
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// Parse parses args with fs, allowing flags before, between and after
// positional arguments, and requires exactly want positionals
func Parse(fs *flag.FlagSet, args []string, want int) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if err == flag.ErrHelp {
				return nil, ErrHelp
			}
			return nil, errors.Wrap(ErrUsage, err.Error())
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	if len(positional) != want {
		return nil, errors.Wrapf(ErrUsage, "expected %d arguments, got %d", want, len(positional))
	}
	return positional, nil
}

// ParseInts converts every argument to an int
func ParseInts(args ...string) ([]int, error) {
	out := make([]int, len(args))
	for i, s := range args {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrapf(ErrUsage, "%q is not an integer", s)
		}
		out[i] = n
	}
	return out, nil
}

// ParseFloats converts every argument to a float64
func ParseFloats(args ...string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, s := range args {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrUsage, "%q is not a number", s)
		}
		out[i] = f
	}
	return out, nil
}

// ParseDims reads D, H and W and checks that they describe a valid volume
func ParseDims(d, h, w string) (models.Dims, error) {
	n, err := ParseInts(d, h, w)
	if err != nil {
		return models.Dims{}, err
	}
	dims := models.Dims{D: n[0], H: n[1], W: n[2]}
	if err := dims.Validate(); err != nil {
		return models.Dims{}, errors.Wrap(ErrUsage, err.Error())
	}
	return dims, nil
}

// ExitUsage reports a parse error and terminates. Help requests exit 0,
// everything else exits 1.
func ExitUsage(usage string, err error) {
	if errors.Is(err, ErrHelp) {
		fmt.Fprintln(os.Stdout, usage)
		os.Exit(0)
	}
	fmt.Fprintln(os.Stderr, err)
	fmt.Fprintln(os.Stderr, usage)
	os.Exit(1)
}

// FormatTimings renders per stage timings as one line
func FormatTimings(t convert.Timings) string {
	stages := []struct {
		name string
		d    time.Duration
	}{
		{"load", t.Load},
		{"binarize", t.Binarize},
		{"transform", t.Transform},
		{"write", t.Write},
	}

	parts := make([]string, 0, len(stages)+1)
	var total time.Duration
	for _, s := range stages {
		parts = append(parts, fmt.Sprintf("%s %.3fs", s.name, s.d.Seconds()))
		total += s.d
	}
	parts = append(parts, fmt.Sprintf("total %.3fs", total.Seconds()))
	return strings.Join(parts, ", ")
}
