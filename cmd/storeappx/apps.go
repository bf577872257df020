package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

func newAppsCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List the known apps",
		Long: `Apps prints the built-in catalog merged with the user catalog
(~/.config/storeappx/apps.yaml). Entries from the user file override
built-ins sharing the same id.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := c.loadApps()
			sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := sonic.ConfigDefault.MarshalIndent(list, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY")
			for _, app := range list {
				category := app.Category
				if category == "" {
					category = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", app.ID, app.Name, category)
			}
			w.Flush()
			fmt.Fprintf(out, "%d app(s)\n", len(list))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}
