package main

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/posturefix/internal/repair"
)

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available repairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := c.app.engine.Registry().Names()
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
			return nil
		},
	}
}

// modeCmd builds the "do" and "undo" commands.
func (c *cli) modeCmd(mode repair.Mode) *cobra.Command {
	short, verb := "Apply a repair by name", "applied"
	if mode == repair.Revert {
		short, verb = "Revert a repair by name", "reverted"
	}
	return &cobra.Command{
		Use:   mode.String() + " <name>",
		Short: short,
		Long: short + `.

Run "posturefix list" for the available names. Kernel command line changes
take effect after the next reboot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.engine.Execute(cmd.Context(), args[0], mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", res.Action, verb)
			return nil
		},
	}
}

func (c *cli) repairCmd() *cobra.Command {
	var (
		undo  bool
		value string
	)
	cmd := &cobra.Command{
		Use:   "repair <attribute-id>",
		Short: "Repair a security attribute by its HSI identifier",
		Long: `Repair a security attribute by its HSI identifier, for example
org.fwupd.hsi.Kernel.Lockdown.

Attributes that are known but have no remediation exit with status 2.
Unknown identifiers exit with status 3.`,
		Example: `  posturefix repair org.fwupd.hsi.Iommu
  posturefix repair org.fwupd.hsi.Iommu --value undo
  posturefix repair org.fwupd.hsi.Kernel.Lockdown --undo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := repair.Apply
			if undo {
				mode = repair.Revert
			}
			res, err := c.app.engine.Repair(cmd.Context(), args[0], mode, value)
			if err != nil {
				return err
			}
			verb := "applied"
			if res.Mode == repair.Revert {
				verb = "reverted"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", res.Action, verb, res.Attribute)
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "revert instead of apply")
	cmd.Flags().StringVar(&value, "value", "", "attribute value reported by the auditing engine")
	return cmd
}

func (c *cli) attributesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attributes",
		Short: "List known security attributes and their repairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, attr := range c.app.engine.Registry().Attributes() {
				repairName := "unsupported"
				if attr.Supported() {
					repairName = attr.Action.String()
				}
				fmt.Fprintf(tw, "%s\t%s\n", attr.ID, repairName)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which repairs are present on the kernel command line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := c.app.editor.Args(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, a := range c.app.engine.Registry().Actions() {
				state := "unknown"
				if bp, ok := a.Handler.(*repair.BootParam); ok {
					state = "absent"
					if slices.Contains(current, bp.Argument) {
						state = "applied"
					}
				}
				fmt.Fprintf(tw, "%s\t%s\n", a.Name, state)
			}
			return tw.Flush()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Printing the version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "posturefix %s (%s, %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
