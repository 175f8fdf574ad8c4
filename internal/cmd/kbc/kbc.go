// Package kbc binds the data directory layout and KBC_ environment shared
// by the commands that read a component configuration.
package kbc

import (
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/turbolytics/shop-extractor/internal/config"
	"github.com/turbolytics/shop-extractor/internal/logging"
)

const (
	EnvPrefix      = "KBC"
	DefaultDataDir = "/data/"
)

// ResultsPath is where a run writes its table inside the data directory.
func ResultsPath(dataDir string) string {
	return filepath.Join(dataDir, "out", "tables", "results.csv")
}

// NewViper registers the data directory flags on cmd and binds them,
// together with the KBC_ environment, to a fresh viper instance.
func NewViper(cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	cmd.Flags().String("data-dir", DefaultDataDir, "Data directory holding config.json and out/tables")
	cmd.Flags().StringP("config", "c", "", "Path to config file, defaults to <data-dir>/config.json")
	cmd.Flags().String("log-level", "info", "Log level")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.BindPFlag("datadir", cmd.Flags().Lookup("data-dir"))
	v.BindPFlag("config", cmd.Flags().Lookup("config"))
	v.BindPFlag("log_level", cmd.Flags().Lookup("log-level"))
	v.BindEnv("logger_addr")
	v.BindEnv("logger_port")
	return v
}

func ConfigPath(v *viper.Viper) string {
	if p := v.GetString("config"); p != "" {
		return p
	}
	return filepath.Join(v.GetString("datadir"), config.FileName)
}

// Setup loads the configuration and builds the logger. A configuration
// error is logged before it is returned.
func Setup(v *viper.Viper, out io.Writer, name string) (*config.Config, *logging.Logger, error) {
	c, cfgErr := config.NewFromFile(ConfigPath(v))

	level := v.GetString("log_level")
	if cfgErr == nil && c.Parameters.Debug {
		level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:  level,
		Addr:   v.GetString("logger_addr"),
		Port:   v.GetString("logger_port"),
		Output: out,
	})
	if err != nil {
		return nil, nil, err
	}

	if cfgErr != nil {
		logger.Named(name).Error("invalid configuration", zap.Error(cfgErr))
		logger.Close()
		return nil, nil, cfgErr
	}
	return c, logger, nil
}
