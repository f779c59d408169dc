// Package main implements the posturefix CLI, which applies and reverts
// remediations for failing host security attributes.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/posturefix/internal/bootparam"
	"github.com/fyrsmithlabs/posturefix/internal/repair"
)

// version is set at build time via -ldflags.
var version = "dev"

// Exit codes.
const (
	exitOK           = 0
	exitFailure      = 1
	exitUnsupported  = 2
	exitNotFound     = 3
	exitToolNotFound = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cli holds state shared by the command tree for one invocation.
type cli struct {
	configPath string
	editorOpts []bootparam.Option
	app        *application
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, editorOpts ...bootparam.Option) int {
	c := &cli{editorOpts: editorOpts}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)

	if c.app != nil {
		if cerr := c.app.close(context.WithoutCancel(ctx)); cerr != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", cerr)
		}
	}

	if err != nil {
		printError(stderr, err)
		return exitCode(err)
	}
	return exitOK
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "posturefix",
		Short: "Repair failing host security attributes",
		Long: `posturefix applies and reverts remediations for failing host security
(HSI) attributes, such as enabling kernel lockdown or forcing the IOMMU on.

Remediations edit the persistent kernel command line with grubby and take
effect after the next reboot.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApplication(cmd.Context(), c.configPath, c.editorOpts...)
			if err != nil {
				return err
			}
			c.app = app
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default /etc/posturefix/config.yaml or ~/.config/posturefix/config.yaml)")

	root.AddCommand(
		c.listCmd(),
		c.modeCmd(repair.Apply),
		c.modeCmd(repair.Revert),
		c.repairCmd(),
		c.attributesCmd(),
		c.statusCmd(),
		versionCmd(),
	)
	return root
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	var re *repair.Error
	if errors.As(err, &re) && re.Output != "" {
		fmt.Fprintf(w, "Tool output:\n%s\n", re.Output)
	}
}

func exitCode(err error) int {
	// status talks to the editor directly, so its errors are not repair errors.
	if bootparam.IsToolNotFound(err) {
		return exitToolNotFound
	}
	switch repair.KindOf(err) {
	case repair.KindUnsupported:
		return exitUnsupported
	case repair.KindNotFound:
		return exitNotFound
	case repair.KindToolNotFound:
		return exitToolNotFound
	default:
		return exitFailure
	}
}
