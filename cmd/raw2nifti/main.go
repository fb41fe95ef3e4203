// Command raw2nifti writes a raw ZYX-flat volume as a NIfTI-1 image whose
// geometry and metadata are copied from a reference image.
package main

import (
	"fmt"
	"log"
	"os"

	"voxmask/pkg/cli"
	"voxmask/pkg/convert"
	"voxmask/pkg/logging"
	"voxmask/pkg/nifti"
)

func main() {
	opts, err := cli.ParseRawToImage(os.Args[1:])
	if err != nil {
		cli.ExitUsage(cli.RawToImageUsage, err)
	}

	cfg, logger, err := opts.Setup()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	defer logger.Sync()

	converter := &convert.Converter{
		Codec:  convert.NIfTICodec{Codec: nifti.Codec{CompressionLevel: cfg.Output.CompressionLevel}},
		Logger: logger.Named(logging.ComponentConvert),
	}

	summary, err := converter.RawToImage(opts.In, opts.Dims, opts.Ref, opts.Out)
	if err != nil {
		log.Fatalf("raw2nifti: %v", err)
	}

	fmt.Printf("Wrote %s, ones=%d\n", summary.Output, summary.OnesOut)
}
