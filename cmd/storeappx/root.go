package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/schrebra/storeappx/internal/apps"
	"github.com/schrebra/storeappx/internal/client"
	"github.com/schrebra/storeappx/internal/infrastructure/config"
	"github.com/schrebra/storeappx/internal/infrastructure/logging"
	"github.com/schrebra/storeappx/internal/version"
)

// cli carries the configuration and logger shared by every subcommand,
// built once in the root's PersistentPreRunE.
type cli struct {
	cfg *config.Config
	log *logging.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	var (
		endpoint string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "storeappx",
		Short: "Download and install Microsoft Store packages without the Store",
		Long: `storeappx resolves Microsoft Store product pages into direct
appx/msix package links, downloads the variants matching an
architecture, and installs them with Add-AppxPackage.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.cfg = config.LoadOrDefault()
			if endpoint != "" {
				c.cfg.Catalog.Endpoint = endpoint
			}
			if verbose {
				c.cfg.Logging.Level = "debug"
				c.cfg.Logging.Development = true
			}
			log, err := logging.New(logging.Config{
				Level:       c.cfg.Logging.Level,
				Development: c.cfg.Logging.Development,
			})
			if err != nil {
				return fmt.Errorf("cannot build logger: %w", err)
			}
			c.log = log
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "catalog lookup endpoint (overrides config)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newDownloadCmd(c),
		newResolveCmd(c),
		newAppsCmd(c),
		newInspectCmd(c),
		newInstallCmd(c),
		newServeCmd(c),
	)
	return cmd
}

// newClient builds the outbound HTTP client from configuration.
func (c *cli) newClient() *client.Client {
	return client.New(client.Options{
		UserAgent:         c.cfg.HTTP.UserAgent,
		Timeout:           time.Duration(c.cfg.HTTP.TimeoutSeconds) * time.Second,
		RetryMax:          c.cfg.HTTP.RetryMax,
		RequestsPerSecond: float64(c.cfg.HTTP.RequestsPerSecond),
		Burst:             c.cfg.HTTP.Burst,
	})
}

// loadApps returns the merged built-in and user app catalog.
func (c *cli) loadApps() []apps.App {
	path, err := apps.UserPath()
	if err != nil {
		return apps.Builtin()
	}
	list, err := apps.Load(path)
	if err != nil {
		c.log.Warn("user app catalog is unreadable, using built-ins", zap.Error(err))
		return apps.Builtin()
	}
	return list
}
