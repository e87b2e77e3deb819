package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/engine"
	"github.com/rushteam/hybridrec/pkg/logging"
)

var (
	configPath string
	envFile    string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:           "hybridrec",
	Short:         "Hybrid recommendation engine",
	Long:          `hybridrec recommends catalog items by visitor segment, blending a learned ranker with item-similarity search.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logging.Error().Err(err).Msg("hybridrec failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, recommendCmd, segmentCmd)
}

// loadConfig 读取 .env、配置文件并初始化日志。
func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, nil
}

// loadEngine 加载配置与全部产物。
func loadEngine(ctx context.Context) (*config.Config, *engine.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	e, err := engine.Load(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, e, nil
}
