package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trustpipe/trustpipe/internal/metrics"
	"github.com/trustpipe/trustpipe/internal/model"
)

var (
	cfgFile  string
	logLevel string
)

// NewRootCmd builds the trustpipe command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trustpipe",
		Short: "Staged content verification pipeline",
		Long: `trustpipe runs user content through staged verification:
risk pre-check, claim extraction, fact verification, discussion analysis
and value scoring, resolving each item to clean, needs_review or blocked.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default trustpipe.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(),
		newBatchCmd(),
		newVoteCmd(),
		newStatusCmd(),
		newSweepCmd(),
		newConfigCmd(),
	)

	cobra.OnInitialize(func() { metrics.Init() })

	return root
}

// loadConfig merges defaults, the config file and TRUSTPIPE_* environment
// variables, in increasing precedence.
func loadConfig() (*model.Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRUSTPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("trustpipe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.trustpipe")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// loadApp is the shared command preamble: config plus wiring
func loadApp() (*App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return buildApp(cfg)
}
