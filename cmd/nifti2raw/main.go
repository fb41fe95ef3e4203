// Command nifti2raw binarizes a NIfTI-1 image and writes it as a raw
// ZYX-flat mask.
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
	opts, err := cli.ParseImageToRaw(os.Args[1:])
	if err != nil {
		cli.ExitUsage(cli.ImageToRawUsage, err)
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

	summary, err := converter.ImageToRaw(opts.In, opts.Out, opts.Mode())
	if err != nil {
		log.Fatalf("nifti2raw: %v", err)
	}

	d := summary.Dims
	fmt.Printf("Wrote %s\n", summary.Output)
	fmt.Printf("D H W = %d %d %d\n", d.D, d.H, d.W)
	fmt.Printf("ones = %d\n", summary.OnesOut)
}
