package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"voxmask/internal/models"
	"voxmask/pkg/cli"
	"voxmask/pkg/compare"
	"voxmask/pkg/config"
	"voxmask/pkg/nifti"
	"voxmask/pkg/phantom"
	"voxmask/pkg/stl"
	"voxmask/pkg/visualization"
	"voxmask/pkg/volume"
)

// positional parses args that carry no flags of their own
func positional(name string, args []string, want int) ([]string, error) {
	return cli.Parse(cli.NewFlagSet(name), args, want)
}

// generate parses `D H W <n ints> out.raw`, builds the mask and writes it
func generate(name string, args []string, n int, build func(models.Dims, []int) models.ZYXVolume) error {
	pos, err := positional(name, args, n+4)
	if err != nil {
		return err
	}
	dims, err := cli.ParseDims(pos[0], pos[1], pos[2])
	if err != nil {
		return err
	}
	params, err := cli.ParseInts(pos[3 : 3+n]...)
	if err != nil {
		return err
	}
	return writeMask(build(dims, params), pos[3+n])
}

func writeMask(vol models.ZYXVolume, out string) error {
	if err := volume.WriteFlat(vol, out); err != nil {
		return err
	}
	fmt.Printf("Wrote %s, ones=%d\n", out, volume.CountOnes(vol.Data))
	return nil
}

func genLine(args []string) error {
	return generate("gen-line", args, 4, func(d models.Dims, p []int) models.ZYXVolume {
		return phantom.Line(d, p[0], p[1], p[2], p[3])
	})
}

func genBox(args []string) error {
	return generate("gen-box", args, 6, func(d models.Dims, p []int) models.ZYXVolume {
		return phantom.Box(d, p[0], p[1], p[2], p[3], p[4], p[5])
	})
}

func genCross(args []string) error {
	return generate("gen-cross", args, 4, func(d models.Dims, p []int) models.ZYXVolume {
		return phantom.Cross(d, p[0], p[1], p[2], p[3])
	})
}

func genLoop(args []string) error {
	return generate("gen-loop", args, 5, func(d models.Dims, p []int) models.ZYXVolume {
		return phantom.SquareLoop(d, p[0], p[1], p[2], p[3], p[4])
	})
}

func genTorus(args []string) error {
	pos, err := positional("gen-torus", args, 9)
	if err != nil {
		return err
	}
	dims, err := cli.ParseDims(pos[0], pos[1], pos[2])
	if err != nil {
		return err
	}
	c, err := cli.ParseInts(pos[3:6]...)
	if err != nil {
		return err
	}
	radii, err := cli.ParseFloats(pos[6:8]...)
	if err != nil {
		return err
	}
	return writeMask(phantom.Torus(dims, c[0], c[1], c[2], radii[0], radii[1]), pos[8])
}

func diff(args []string) error {
	pos, err := positional("diff", args, 5)
	if err != nil {
		return err
	}
	dims, err := cli.ParseDims(pos[0], pos[1], pos[2])
	if err != nil {
		return err
	}
	a, err := volume.LoadFlat(pos[3], dims)
	if err != nil {
		return err
	}
	b, err := volume.LoadFlat(pos[4], dims)
	if err != nil {
		return err
	}

	report, err := compare.Compare(a, b)
	if err != nil {
		return err
	}
	fmt.Println(report)
	return nil
}

func crop(args []string) error {
	pos, err := positional("crop", args, 11)
	if err != nil {
		return err
	}
	dims, err := cli.ParseDims(pos[1], pos[2], pos[3])
	if err != nil {
		return err
	}
	origin, err := cli.ParseInts(pos[4:7]...)
	if err != nil {
		return err
	}
	size, err := cli.ParseDims(pos[7], pos[8], pos[9])
	if err != nil {
		return err
	}

	vol, err := volume.LoadFlat(pos[0], dims)
	if err != nil {
		return err
	}
	region, err := visualization.NewViewer(vol, 1).ExtractRegion(origin[0], origin[1], origin[2], size)
	if err != nil {
		return err
	}
	return writeMask(region, pos[10])
}

func info(args []string) error {
	pos, err := positional("info", args, 1)
	if err != nil {
		return err
	}

	h, err := nifti.Codec{}.ReadHeaderFile(pos[0])
	if err != nil {
		return err
	}

	nx, ny, nz := h.Extents()
	order := "little endian"
	if h.ByteOrder == binary.BigEndian {
		order = "big endian"
	}
	fmt.Printf("File:        %s\n", pos[0])
	fmt.Printf("Extents:     %d x %d x %d (D H W = %d %d %d)\n", nx, ny, nz, nz, ny, nx)
	fmt.Printf("Datatype:    %s (%d bits, %s)\n", nifti.DatatypeName(h.Datatype), h.Bitpix, order)
	fmt.Printf("Voxel size:  %g x %g x %g\n", h.Pixdim[1], h.Pixdim[2], h.Pixdim[3])
	if slope, inter, ok := h.Scaling(); ok {
		fmt.Printf("Scaling:     %g * v + %g\n", slope, inter)
	}
	if d := h.Description(); d != "" {
		fmt.Printf("Description: %s\n", d)
	}
	fmt.Printf("Extensions:  %d\n", len(h.Extensions))

	affine, method := h.Affine()
	fmt.Printf("Affine (%s):\n%v\n", method, mat.Formatted(affine, mat.Prefix("  "), mat.Squeeze()))
	return nil
}

func meshCmd(args []string) error {
	fs := cli.NewFlagSet("mesh")
	spacing := fs.String("spacing", "1,1,1", "voxel size along X, Y and Z")
	pos, err := cli.Parse(fs, args, 5)
	if err != nil {
		return err
	}
	dims, err := cli.ParseDims(pos[1], pos[2], pos[3])
	if err != nil {
		return err
	}
	scale, err := cli.ParseFloats(strings.Split(*spacing, ",")...)
	if err != nil {
		return err
	}
	if len(scale) != 3 {
		return errors.Wrapf(cli.ErrUsage, "-spacing needs three values, got %q", *spacing)
	}

	vol, err := volume.LoadFlat(pos[0], dims)
	if err != nil {
		return err
	}
	mesher := stl.NewMesher(vol)
	mesher.SetScale(float32(scale[0]), float32(scale[1]), float32(scale[2]))
	triangles := mesher.GenerateTriangles()
	if err := stl.SaveToSTL(pos[4], triangles); err != nil {
		return err
	}

	fmt.Printf("Wrote %s, triangles=%d\n", pos[4], len(triangles))
	return nil
}

type sliceOptions struct {
	scale int
	ext   string
}

// sliceFlags registers the options shared by preview and slices
func sliceFlags(name string) (*sliceOptions, *flag.FlagSet) {
	fs := cli.NewFlagSet(name)
	opts := &sliceOptions{}
	fs.IntVar(&opts.scale, "scale", 4, "pixels per voxel edge")
	fs.StringVar(&opts.ext, "ext", ".png", "image format for slices")
	return opts, fs
}

func preview(args []string) error {
	opts, fs := sliceFlags("preview")
	pos, err := cli.Parse(fs, args, 7)
	if err != nil {
		return err
	}
	dims, err := cli.ParseDims(pos[1], pos[2], pos[3])
	if err != nil {
		return err
	}
	at, err := strconv.Atoi(pos[5])
	if err != nil {
		return errors.Wrapf(cli.ErrUsage, "%q is not an integer", pos[5])
	}

	vol, err := volume.LoadFlat(pos[0], dims)
	if err != nil {
		return err
	}
	viewer := visualization.NewViewer(vol, opts.scale)
	img, err := viewer.ExtractSlice(pos[4], at)
	if err != nil {
		return err
	}
	if err := viewer.SaveSlice(img, pos[6]); err != nil {
		return err
	}

	fmt.Printf("Wrote %s (%dx%d)\n", pos[6], img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

func slices(args []string) error {
	opts, fs := sliceFlags("slices")
	pos, err := cli.Parse(fs, args, 6)
	if err != nil {
		return err
	}
	dims, err := cli.ParseDims(pos[1], pos[2], pos[3])
	if err != nil {
		return err
	}

	vol, err := volume.LoadFlat(pos[0], dims)
	if err != nil {
		return err
	}
	n, err := visualization.NewViewer(vol, opts.scale).SaveSliceSequence(pos[4], pos[5], opts.ext)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d slices to %s\n", n, filepath.Clean(pos[5]))
	return nil
}

func initConfig(args []string) error {
	fs := cli.NewFlagSet("init-config")
	pos, err := cli.Parse(fs, args, 1)
	if err != nil {
		if len(args) != 0 {
			return err
		}
		pos = []string{config.DefaultPath}
	}

	if err := config.CreateDefaultConfigFile(pos[0]); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", pos[0])
	return nil
}
