// Command raw2thin thins a raw ZYX-flat binary mask to a one voxel wide
// skeleton using the configured external thinning backend.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"voxmask/pkg/cli"
	"voxmask/pkg/convert"
	"voxmask/pkg/logging"
	"voxmask/pkg/thinning"
)

func main() {
	opts, err := cli.ParseRawToThinned(os.Args[1:])
	if err != nil {
		cli.ExitUsage(cli.RawToThinnedUsage, err)
	}

	cfg, logger, err := opts.Setup()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	defer logger.Sync()

	thinner := cfg.ThinningOperator()
	thinner.Logger = logger.Named(logging.ComponentThinning)

	converter := &convert.Converter{
		Thinner: thinner,
		Spacing: thinning.Spacing(cfg.Thinning.Spacing),
		Logger:  logger.Named(logging.ComponentConvert),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := converter.RawToThinned(ctx, opts.In, opts.Dims, opts.Out)
	if err != nil {
		stop()
		log.Fatalf("raw2thin: %v", err)
	}

	fmt.Printf("Wrote %s, ones %d -> %d\n", summary.Output, summary.OnesIn, summary.OnesOut)
	if opts.Profile {
		fmt.Printf("Timings: %s\n", cli.FormatTimings(summary.Timings))
	}
}
