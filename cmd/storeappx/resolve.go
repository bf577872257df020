package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/schrebra/storeappx/internal/apps"
	"github.com/schrebra/storeappx/internal/arch"
	"github.com/schrebra/storeappx/internal/catalog"
)

func newResolveCmd(c *cli) *cobra.Command {
	var (
		archFlag string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <app-or-url>",
		Short: "List the package links behind an app or store reference",
		Long: `Resolve asks the catalog service which package files back a store
reference and prints them without downloading anything. The argument
may be a catalog app id or any store URL.`,
		Example: `  storeappx resolve windows-terminal
  storeappx resolve https://apps.microsoft.com/detail/9n0dx20hk701 --arch neutral`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("resolve takes exactly one app or reference")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			reference := args[0]
			if app, ok := apps.Find(c.loadApps(), reference); ok {
				reference = app.Reference
				fmt.Fprintf(cmd.OutOrStdout(), "resolving %s\n", app.Name)
			}
			if archFlag == "" {
				archFlag = c.cfg.Download.Architecture
			}
			pattern, err := arch.Parse(archFlag)
			if err != nil {
				return usagef("%v", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			resolver := catalog.NewResolver(c.newClient(), c.cfg.Catalog.Endpoint, c.cfg.Catalog.Ring, c.log)
			links, err := resolver.Resolve(ctx, reference)
			if err != nil {
				return err
			}
			matched := catalog.SelectArchitecture(links, pattern, arch.Detect())

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := sonic.ConfigDefault.MarshalIndent(matched, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			if len(links) == 0 {
				fmt.Fprintln(out, color.YellowString("the catalog lists no package links for this reference"))
				return nil
			}

			w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tARCH\tTYPE")
			for _, link := range matched {
				archLabel := string(link.Arch)
				if archLabel == "" {
					archLabel = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", link.Name, archLabel, link.Ext)
			}
			w.Flush()
			fmt.Fprintf(out, "%d of %d link(s) match %s\n",
				len(matched), len(links), arch.Normalize(pattern, arch.Detect()))
			return nil
		},
	}

	cmd.Flags().StringVar(&archFlag, "arch", "", "architecture filter: auto, neutral, x64, x86, arm")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print matching links as JSON")
	return cmd
}
