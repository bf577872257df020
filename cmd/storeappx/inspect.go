package main

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/schrebra/storeappx/internal/pkgfile"
)

func newInspectCmd(c *cli) *cobra.Command {
	var (
		recursive bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <path ...>",
		Short: "Read the identity of downloaded package files",
		Long: `Inspect opens appx/msix containers and prints the identity declared
in their manifest. With --recursive each path is a directory to scan
for package files.`,
		Example: `  storeappx inspect Downloads/Terminal_1.18_x64.msixbundle
  storeappx inspect --recursive ~/Downloads/storeappx`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("inspect needs at least one path")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if recursive {
				var found []string
				for _, root := range args {
					files, err := pkgfile.Discover(root)
					if err != nil {
						return err
					}
					found = append(found, files...)
				}
				paths = found
			}

			out := cmd.OutOrStdout()
			var infos []pkgfile.Info
			failures := 0
			for _, path := range paths {
				info, err := pkgfile.Inspect(path)
				if err != nil {
					failures++
					fmt.Fprintln(cmd.ErrOrStderr(), color.RedString("%v", err))
					continue
				}
				infos = append(infos, info)
			}

			if asJSON {
				data, err := sonic.ConfigDefault.MarshalIndent(infos, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			} else {
				for _, info := range infos {
					printInfo(out, info)
				}
				if len(infos) == 0 && failures == 0 {
					fmt.Fprintln(out, "no package files found")
				}
			}

			if failures > 0 {
				return &exitCodeError{code: exitFailed}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&recursive, "recursive", false, "scan directories for package files")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func printInfo(out io.Writer, info pkgfile.Info) {
	kind := string(info.Class)
	if info.Bundle {
		kind += " (bundle)"
	}
	fmt.Fprintf(out, "%s\n", color.CyanString(info.Path))
	fmt.Fprintf(out, "  type: %s, %s, %d entries\n", kind, formatBytes(info.Size), info.Entries)
	if info.Identity.Name != "" {
		fmt.Fprintf(out, "  identity: %s %s", info.Identity.Name, info.Identity.Version)
		if info.Identity.Architecture != "" {
			fmt.Fprintf(out, " (%s)", info.Identity.Architecture)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  publisher: %s\n", info.Identity.Publisher)
	}
}
