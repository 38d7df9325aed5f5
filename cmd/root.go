// Package cmd implements the darkpan command line.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/darkpan/internal/config"
	"github.com/zjrosen/darkpan/internal/log"
	"github.com/zjrosen/darkpan/internal/paths"
)

var (
	version   = "dev"
	cfgFile   string
	rootDir   string
	debugFlag bool
	cfg       config.Config

	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "darkpan",
	Short: "Manage a private CPAN-style package repository",
	Long: `darkpan maintains a private repository of Perl distributions.

Local archives are added under their author's directory, upstream archives
are imported by URL, and every change keeps the metadata index and the
archive tree in step.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: <root>/.darkpan/config.yaml, then ~/.config/darkpan/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "",
		"repository root (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug logging to <root>/.darkpan/log/darkpan.log")
}

func initConfig() {
	_ = viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.SetEnvPrefix("DARKPAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. <root>/.darkpan/config.yaml
		// 2. ~/.config/darkpan/config.yaml
		layout, err := paths.NewLayout(viper.GetString("root"))
		if err == nil {
			if _, statErr := os.Stat(layout.ConfigPath()); statErr == nil {
				viper.SetConfigFile(layout.ConfigPath())
			}
		}
		if viper.ConfigFileUsed() == "" {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "darkpan"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "darkpan: reading config: %v\n", err)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func setDefaults(v *viper.Viper) {
	defaults := config.Defaults()
	v.SetDefault("store.type", defaults.Store.Type)
	v.SetDefault("store.git.author_name", defaults.Store.Git.AuthorName)
	v.SetDefault("store.git.author_email", defaults.Store.Git.AuthorEmail)
	v.SetDefault("mirrors", defaults.Mirrors)
	v.SetDefault("cache.ttl", defaults.Cache.TTL)
	v.SetDefault("fetch.timeout", defaults.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", defaults.Fetch.UserAgent)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.debug", false)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
}

// setupLogging enables the file logger when --debug, DARKPAN_DEBUG or
// log.path asks for it.
func setupLogging(_ *cobra.Command, _ []string) error {
	debug := debugFlag || os.Getenv("DARKPAN_DEBUG") != "" || cfg.Log.Debug
	if !debug && cfg.Log.Path == "" {
		return nil
	}

	layout, err := paths.NewLayout(cfg.Root)
	if err != nil {
		return err
	}
	logPath := cfg.Log.Path
	if logPath == "" {
		logPath = layout.LogPath()
	} else if !filepath.IsAbs(logPath) {
		logPath = filepath.Join(layout.Root(), logPath)
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	cleanup, err := log.Init(logPath)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	logCleanup = cleanup
	if !debug {
		log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
	}
	log.Debug(log.CatConfig, "darkpan starting", "version", version, "config", viper.ConfigFileUsed(), "root", layout.Root())
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
