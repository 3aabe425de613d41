// Package main provides the entry point for the Recipebox server application.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

const name = "recipebox"

// overridden during build with ldflags
var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    name,
		Usage:   "Recipe API server",
		Version: version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			serveCmd(),
			createSuperuserCmd(),
			setActiveCmd(),
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
