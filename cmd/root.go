// Package cmd defines the CLI commands for the charmresolver executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/charm-vin-resolver/internal/app"
	"github.com/JakeFAU/charm-vin-resolver/internal/config"
	"github.com/JakeFAU/charm-vin-resolver/internal/resolver"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App is what the subcommands need from the application. Tests inject a fake.
type App interface {
	Resolve(ctx context.Context, vin string) (resolver.Resolution, error)
	ListCategories(ctx context.Context, baseURL string, section resolver.Section) ([]resolver.Category, error)
	Run(ctx context.Context) error
	Close(ctx context.Context) error
	Logger() *zap.Logger
}

// newApp is the application factory. It is a variable so tests can replace it.
var newApp = func(ctx context.Context, cfgPath string) (App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.Build(ctx, cfg)
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "charmresolver",
		Short: "Resolve VINs to repair documentation directories.",
		Long: `charmresolver decodes a VIN, walks the make, year and model listings of a
repair documentation site, and serves the matched directory and its
DTC, labor and repair categories over HTTP.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				return appInstance.Close(context.WithoutCancel(cmd.Context()))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); env vars use the RESOLVER_ prefix")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIdentifyCmd())
	cmd.AddCommand(newCategoriesCmd())

	return cmd
}

// resolveApp retrieves the App installed by the root command.
func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
