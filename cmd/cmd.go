package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v2"
)

var DefaultApp = &cli.App{
	Name:    name,
	Usage:   description + "\n\n	 Use `" + name + " [command] --help` to see command specific help.",
	Version: Version(),
}

// Register CLI commands
func Register(cmds ...*cli.Command) {
	app := DefaultApp
	app.Commands = append(app.Commands, cmds...)

	// sort the commands so they're listed in order on the cli
	sort.Slice(app.Commands, func(i, j int) bool {
		return app.Commands[i].Name < app.Commands[j].Name
	})
}

// Run the default command
func Run() {
	if err := DefaultApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
