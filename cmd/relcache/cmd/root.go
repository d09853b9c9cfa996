package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aweris/relcache"
)

var rootCmd = &cobra.Command{
	Use:   "relcache",
	Short: "Release artifact cache",
	Long:  "Download, verify and cache compiler release builds from a solc-bin style origin.",

	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ~/.config/relcache/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("cache-dir", "", "cache directory (default: ~/.cache/relcache)")
	flags.String("origin", "", "base URL builds are published under (http, https, file or oci)")
	flags.String("platform", "", "platform directory, e.g. linux-amd64")
	flags.String("storage", "", "storage backend: direct, os, memory, altroot, overlay")
	flags.String("codec", "", "compress cached objects: none, deflate, brotli, lz4, zstd")
	flags.String("codec-level", "", "storage compression level: default, none, fast, best")
	flags.String("payload-codec", "", "codec the origin publishes artifacts with")
	flags.String("checksum", "", "verification policy: all, keccak256, sha256, unverified")
	flags.Int("concurrency", 0, "parallel downloads")
	flags.Duration("timeout", 0, "per request timeout")

	for key, flag := range map[string]string{
		"cache_dir":     "cache-dir",
		"origin":        "origin",
		"platform":      "platform",
		"storage":       "storage",
		"codec":         "codec",
		"codec_level":   "codec-level",
		"payload_codec": "payload-codec",
		"checksum":      "checksum",
		"concurrency":   "concurrency",
		"timeout":       "timeout",
		"log_level":     "log-level",
	} {
		viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func initConfig() {
	if cfg := rootCmd.PersistentFlags().Lookup("config").Value.String(); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("RELCACHE")
	viper.AutomaticEnv()

	d := relcache.DefaultConfig()
	viper.SetDefault("origin", d.Origin)
	viper.SetDefault("manifest", d.Manifest)
	viper.SetDefault("platform", d.Platform)
	viper.SetDefault("cache_dir", d.CacheDir)
	viper.SetDefault("storage", d.Storage)
	viper.SetDefault("codec", d.Codec)
	viper.SetDefault("checksum", d.Checksum)
	viper.SetDefault("concurrency", d.Concurrency)
	viper.SetDefault("timeout", d.Timeout)

	if err := viper.ReadInConfig(); err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Debug("config loaded")
	}
}

func setupLogging(*cobra.Command, []string) error {
	level, err := logrus.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
	return nil
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "relcache")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "relcache")
	}
	return ".relcache"
}

// newManager builds a Manager from the merged flag, env and file config.
func newManager(extra ...relcache.Option) (*relcache.Manager, error) {
	var cfg relcache.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	opts, err := relcache.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return relcache.New(append(opts, extra...)...)
}
