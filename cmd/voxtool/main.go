// Command voxtool bundles helpers around the conversion binaries: synthetic
// mask generation, mask comparison, slice previews, header inspection and
// configuration scaffolding.
package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"voxmask/pkg/cli"
)

type command struct {
	usage string
	run   func(args []string) error
}

var commands = map[string]command{
	"gen-line":    {"gen-line D H W z y x0 x1 out.raw", genLine},
	"gen-box":     {"gen-box D H W z0 z1 y0 y1 x0 x1 out.raw", genBox},
	"gen-cross":   {"gen-cross D H W cz cy cx arm out.raw", genCross},
	"gen-loop":    {"gen-loop D H W z y0 y1 x0 x1 out.raw", genLoop},
	"gen-torus":   {"gen-torus D H W cz cy cx R r out.raw", genTorus},
	"diff":        {"diff D H W a.raw b.raw", diff},
	"crop":        {"crop in.raw D H W z y x d h w out.raw", crop},
	"info":        {"info image", info},
	"mesh":        {"mesh [-spacing sx,sy,sz] in.raw D H W out.stl", meshCmd},
	"preview":     {"preview [-scale n] in.raw D H W axis pos out.png", preview},
	"slices":      {"slices [-scale n] [-ext .png] in.raw D H W axis outdir", slices},
	"init-config": {"init-config [path]", initConfig},
}

func usage() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("usage: voxtool <command> [arguments]\n\ncommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s\n", commands[name].usage)
	}
	return strings.TrimRight(b.String(), "\n")
}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		cli.ExitUsage(usage(), errors.Wrap(cli.ErrUsage, "missing command"))
	}

	name := os.Args[1]
	if name == "-h" || name == "--help" || name == "help" {
		cli.ExitUsage(usage(), cli.ErrHelp)
	}

	cmd, ok := commands[name]
	if !ok {
		cli.ExitUsage(usage(), errors.Wrapf(cli.ErrUsage, "unknown command %q", name))
	}

	if err := cmd.run(os.Args[2:]); err != nil {
		if errors.Is(err, cli.ErrUsage) || errors.Is(err, cli.ErrHelp) {
			cli.ExitUsage("usage: voxtool "+cmd.usage, err)
		}
		log.Fatalf("voxtool %s: %v", name, err)
	}
}
