package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uilive"
	"github.com/spf13/cobra"

	"github.com/schrebra/storeappx/internal/apps"
	"github.com/schrebra/storeappx/internal/arch"
	"github.com/schrebra/storeappx/internal/batch"
	"github.com/schrebra/storeappx/internal/catalog"
	"github.com/schrebra/storeappx/internal/fetch"
	"github.com/schrebra/storeappx/internal/install"
	"github.com/schrebra/storeappx/internal/plan"
	"github.com/schrebra/storeappx/internal/report"
	"github.com/schrebra/storeappx/internal/shared/id"
)

type downloadOptions struct {
	url        string
	arch       string
	dest       string
	reportPath string
	noReport   bool
	install    bool
}

func newDownloadCmd(c *cli) *cobra.Command {
	var opts downloadOptions

	cmd := &cobra.Command{
		Use:   "download [app ...]",
		Short: "Download packages for catalog apps or a custom reference",
		Long: `Download resolves each app (or a raw --url reference) against the
catalog service, keeps the links matching the selected architecture,
and downloads whatever is not already present. Files that exist are
never overwritten; a clashing name gets a (n) suffix instead.`,
		Example: `  storeappx download windows-terminal powershell
  storeappx download --url https://apps.microsoft.com/detail/9n0dx20hk701
  storeappx download notepad --arch x86 --dest /tmp/packages`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDownload(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "download a single custom reference instead of catalog apps")
	cmd.Flags().StringVar(&opts.arch, "arch", "", "architecture filter: auto, neutral, x64, x86, arm")
	cmd.Flags().StringVar(&opts.dest, "dest", "", "destination directory (default from config)")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "write the run report to this path")
	cmd.Flags().BoolVar(&opts.noReport, "no-report", false, "skip writing the run report")
	cmd.Flags().BoolVar(&opts.install, "install", false, "install downloaded packages when the run completes")

	return cmd
}

func (c *cli) runDownload(cmd *cobra.Command, args []string, opts downloadOptions) error {
	if len(args) == 0 && opts.url == "" {
		return usagef("name at least one app, or pass --url")
	}
	if len(args) > 0 && opts.url != "" {
		return usagef("apps and --url are mutually exclusive")
	}

	if opts.arch == "" {
		opts.arch = c.cfg.Download.Architecture
	}
	pattern, err := arch.Parse(opts.arch)
	if err != nil {
		return usagef("%v", err)
	}
	if opts.dest == "" {
		opts.dest = c.cfg.Download.Destination
	}

	req := batch.Request{
		Destination:  opts.dest,
		Architecture: pattern,
	}
	if opts.url != "" {
		req.Targets = []batch.Target{{Name: "custom", Reference: opts.url}}
		req.Flat = true
	} else {
		list := c.loadApps()
		for _, key := range args {
			app, ok := apps.Find(list, key)
			if !ok {
				return usagef("unknown app %q (see: storeappx apps)", key)
			}
			req.Targets = append(req.Targets, batch.Target{Name: app.Name, Reference: app.Reference})
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := c.newClient()
	coordinator := batch.NewCoordinator(
		catalog.NewResolver(httpClient, c.cfg.Catalog.Endpoint, c.cfg.Catalog.Ring, c.log),
		plan.NewPlanner(httpClient, c.log),
		fetch.NewExecutor(httpClient, c.log),
		c.log,
	)

	run, err := coordinator.Start(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	resolved := arch.Normalize(pattern, arch.Detect())
	fmt.Fprintf(out, "run %s: %d target(s), architecture %s, into %s\n",
		id.Short(run.ID()), len(req.Targets), resolved, opts.dest)

	builder := report.NewBuilder(run.ID(), string(resolved), opts.dest, run.Started())
	touched := renderProgress(out, run, builder)

	res := run.Wait()
	printSummary(out, res)

	if c.cfg.Download.Report && !opts.noReport {
		path := opts.reportPath
		if path == "" {
			path = report.DefaultPath(opts.dest, run.ID())
		}
		if err := report.Write(path, builder.Finalize(res)); err != nil {
			fmt.Fprintln(out, color.YellowString("run report not written: %v", err))
		} else {
			fmt.Fprintf(out, "run report: %s\n", path)
		}
	}

	if opts.install && res.State == batch.StateCompleted {
		if err := c.installDownloaded(ctx, cmd, touched); err != nil {
			return err
		}
	}

	switch {
	case res.State == batch.StateCompleted:
		return nil
	case res.State == batch.StateCancelled:
		return &exitCodeError{code: exitCancelled}
	case res.Partial():
		return &exitCodeError{code: exitPartial}
	default:
		return &exitCodeError{code: exitFailed}
	}
}

// renderProgress drains the run's event stream into a live display and
// the report builder. It returns the directories that received files.
func renderProgress(out io.Writer, run *batch.Run, builder *report.Builder) []string {
	writer := uilive.New()
	writer.Out = out
	writer.Start()
	defer writer.Stop()

	touched := make(map[string]bool)
	for ev := range run.Events() {
		builder.Observe(ev)
		switch ev.Kind {
		case batch.EventStatus:
			fmt.Fprintf(writer, "%s %s\n", color.CyanString("%s:", ev.Target), ev.Message)
		case batch.EventFileProgress:
			if ev.Error != "" {
				fmt.Fprintln(writer.Bypass(), color.RedString("  failed %s: %s", ev.File, ev.Error))
				continue
			}
			if ev.Path != "" {
				touched[filepath.Dir(ev.Path)] = true
			}
			fmt.Fprintf(writer, "%s [%d/%d] %s (%s)\n",
				color.CyanString("%s:", ev.Target), ev.Completed, ev.Total, ev.File, formatBytes(ev.Bytes))
		}
	}

	dirs := make([]string, 0, len(touched))
	for dir := range touched {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

func printSummary(out io.Writer, res batch.Result) {
	for _, terr := range res.Errors {
		fmt.Fprintln(out, color.RedString("  %v", terr))
	}
	line := fmt.Sprintf("%d downloaded, %d already present, %d error(s) in %s",
		res.FilesDownloaded, res.FilesSkipped, len(res.Errors), res.Duration.Round(time.Millisecond))
	switch {
	case res.State == batch.StateCompleted && res.NoWorkNeeded():
		fmt.Fprintln(out, color.GreenString("nothing to do: %s", line))
	case res.State == batch.StateCompleted:
		fmt.Fprintln(out, color.GreenString("completed: %s", line))
	case res.State == batch.StateCancelled:
		fmt.Fprintln(out, color.YellowString("cancelled: %s", line))
	case res.Partial():
		fmt.Fprintln(out, color.RedString("failed (partial): %s", line))
	default:
		fmt.Fprintln(out, color.RedString("failed: %s", line))
	}
}

// installDownloaded installs exactly the directories this run wrote into,
// plain packages before bundles within each.
func (c *cli) installDownloaded(ctx context.Context, cmd *cobra.Command, dirs []string) error {
	out := cmd.OutOrStdout()
	if len(dirs) == 0 {
		fmt.Fprintln(out, "nothing new to install")
		return nil
	}
	if runtime.GOOS != "windows" {
		return fmt.Errorf("install requires Windows: %w", install.ErrUnsupportedPlatform)
	}

	installer := install.New(install.NewPowerShell(c.cfg.Install.PowerShell, c.log), c.log)
	failed := 0
	for _, dir := range dirs {
		res, err := installer.InstallDirectory(ctx, dir)
		if err != nil {
			return err
		}
		printInstallResult(out, res)
		failed += res.Failed
	}
	if failed > 0 {
		return &exitCodeError{code: exitFailed}
	}
	return nil
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
