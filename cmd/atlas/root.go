package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/miradorstack/cluster-atlas/internal/bootstrap"
	"github.com/miradorstack/cluster-atlas/internal/config"
	"github.com/miradorstack/cluster-atlas/internal/services"
	"github.com/miradorstack/cluster-atlas/internal/utils"
)

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
	output     string
	cases      string
	geometry   string
}

type cliContextKey struct{}

// cliContext carries the loaded service through the command tree.
type cliContext struct {
	service *services.AtlasService
	runtime *bootstrap.Runtime
	logger  *slog.Logger
	output  string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "atlas",
		Short:         "Compute per-region cluster metrics from the published artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initContext(cmd, opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if cc, ok := cmd.Context().Value(cliContextKey{}).(*cliContext); ok {
				cc.runtime.Close()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path (default: $ATLAS_CONFIG)")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file read before the config")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.output, "output", "o", "-", "output file, - for stdout")
	pf.StringVar(&opts.cases, "cases", "", "override the case table reference")
	pf.StringVar(&opts.geometry, "geometry", "", "override the boundary GeoJSON reference")

	cmd.AddCommand(newShareCmd(), newDominantCmd(), newDistributionCmd(), newChoroplethCmd())
	return cmd
}

func initContext(cmd *cobra.Command, opts *rootOptions) error {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read %s: %w", opts.envFile, err)
		}
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.cases != "" {
		cfg.Artifacts.Cases.URI = opts.cases
	}
	if opts.geometry != "" {
		cfg.Artifacts.Geometry.URI = opts.geometry
	}

	// Logs go to stderr so stdout stays a clean JSON stream.
	logger := utils.NewLoggerTo(cmd.ErrOrStderr(), opts.logLevel, false)
	rt, err := bootstrap.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	if _, err := rt.Service.Reload(cmd.Context()); err != nil {
		rt.Close()
		return fmt.Errorf("load dataset: %s: %w", utils.UserMessage(err), err)
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, &cliContext{
		service: rt.Service,
		runtime: rt,
		logger:  logger,
		output:  opts.output,
	}))
	return nil
}

func fromCommand(cmd *cobra.Command) (*cliContext, error) {
	cc, ok := cmd.Context().Value(cliContextKey{}).(*cliContext)
	if !ok {
		return nil, errors.New("atlas: command context not initialised")
	}
	return cc, nil
}

// writeOutput writes data to the configured destination.
func (cc *cliContext) writeOutput(cmd *cobra.Command, data []byte) error {
	if cc.output == "" || cc.output == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(cc.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cc.output, err)
	}
	cc.logger.Info("output written", slog.String("path", cc.output), slog.Int("bytes", len(data)))
	return nil
}

func (cc *cliContext) writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return cc.writeOutput(cmd, append(data, '\n'))
}
