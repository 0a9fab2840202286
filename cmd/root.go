package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amaliebjorgen/fabricops/pkg/auth"
	"github.com/amaliebjorgen/fabricops/pkg/cicd"
	"github.com/amaliebjorgen/fabricops/pkg/devops"
	"github.com/amaliebjorgen/fabricops/pkg/fabric"
	"github.com/amaliebjorgen/fabricops/pkg/powerbi"
)

var (
	flagProvider string
	flagVerbose  bool
	flagNoCache  bool
)

var rootCmd = &cobra.Command{
	Use:   "fabricops",
	Short: "fabricops: CLI for Microsoft Fabric and Power BI operations",
	Long: `A command line tool for managing Microsoft Fabric workspaces, capacities,
connections and items, with git-based deployment flows for CI/CD.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "auto",
		"auth provider: env, oauth, vault, fabric or auto")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-token-cache", false,
		"disable the on-disk token cache")
}

func newLogger() *zap.Logger {
	if !flagVerbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// newResolver builds the auth resolver from the --provider flag.
func newResolver(logger *zap.Logger) (*auth.Resolver, error) {
	opts := []auth.Option{auth.WithLogger(logger)}
	if !flagNoCache {
		if path, err := auth.DefaultCachePath(); err == nil {
			opts = append(opts, auth.WithFileCache(auth.NewFileCache(path)))
		}
	}

	resolver := auth.NewResolver(opts...)
	if err := resolver.SetProvider(auth.Mode(flagProvider)); err != nil {
		return nil, err
	}
	return resolver, nil
}

func newFabricClient() (*fabric.Client, error) {
	logger := newLogger()
	resolver, err := newResolver(logger)
	if err != nil {
		return nil, err
	}
	return fabric.NewClient(resolver, fabric.WithLogger(logger)), nil
}

func newPowerBIClient() (*powerbi.Client, error) {
	logger := newLogger()
	resolver, err := newResolver(logger)
	if err != nil {
		return nil, err
	}
	return powerbi.NewClient(resolver, powerbi.WithLogger(logger)), nil
}

func newDeployer() (*cicd.Deployer, error) {
	logger := newLogger()
	resolver, err := newResolver(logger)
	if err != nil {
		return nil, err
	}
	return cicd.NewDeployer(
		fabric.NewClient(resolver, fabric.WithLogger(logger)),
		devops.NewClient(resolver, devops.WithLogger(logger)),
		logger,
	), nil
}

// printJSON renders a command result as indented JSON on stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
