package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/schrebra/storeappx/internal/install"
)

func newInstallCmd(c *cli) *cobra.Command {
	var recurse bool

	cmd := &cobra.Command{
		Use:   "install [dir]",
		Short: "Install downloaded packages with Add-AppxPackage",
		Long: `Install runs Add-AppxPackage over the package files in a directory,
plain packages before bundles so dependencies land first. Without an
argument the configured download destination is used. --recurse also
walks one level of subdirectories, the layout download produces.`,
		Example: `  storeappx install
  storeappx install --recurse
  storeappx install C:\packages\Windows-Terminal`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return usagef("install takes at most one directory")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := c.cfg.Download.Destination
			if len(args) == 1 {
				dir = args[0]
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			installer := install.New(install.NewPowerShell(c.cfg.Install.PowerShell, c.log), c.log)
			var (
				results []install.Result
				err     error
			)
			if recurse {
				results, err = installer.InstallTree(ctx, dir)
			} else {
				var res install.Result
				res, err = installer.InstallDirectory(ctx, dir)
				results = []install.Result{res}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			installed, failed := 0, 0
			for _, res := range results {
				printInstallResult(out, res)
				installed += res.Installed
				failed += res.Failed
			}
			if installed == 0 && failed == 0 {
				fmt.Fprintln(out, "no package files found")
				return nil
			}
			if failed > 0 {
				fmt.Fprintln(out, color.RedString("%d installed, %d failed", installed, failed))
				return &exitCodeError{code: exitFailed}
			}
			fmt.Fprintln(out, color.GreenString("%d installed", installed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&recurse, "recurse", false, "also install packages in subdirectories")
	return cmd
}

func printInstallResult(out io.Writer, res install.Result) {
	if res.Installed == 0 && res.Failed == 0 {
		return
	}
	fmt.Fprintf(out, "%s: %d installed, %d failed\n", res.Dir, res.Installed, res.Failed)
	for _, err := range res.Errors {
		fmt.Fprintln(out, color.RedString("  %v", err))
	}
}
