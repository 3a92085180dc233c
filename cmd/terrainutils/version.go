package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
	"github.com/google/subcommands"
)

type versionCmd struct{}

func (c *versionCmd) Name() string             { return "version" }
func (c *versionCmd) Synopsis() string         { return "print the build version" }
func (c *versionCmd) Usage() string            { return "terrainutils version\n" }
func (c *versionCmd) SetFlags(_ *flag.FlagSet) {}

func (c *versionCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	fmt.Println(versioninfo.Short())
	return subcommands.ExitSuccess
}
