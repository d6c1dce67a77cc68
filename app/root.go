// Package app implements the main application commands.
package app

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
	"github.com/gopalparivar/dhenu-mahima/internal/logger"
)

var (
	configPath string // directory holding main.toml
	envFile    string // optional dotenv file loaded before the config

	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "dhenu-mahima",
		Short: "dhenu-mahima is the api of Shree Gopal Parivar Sang",
		Long: `dhenu-mahima serves the content, shop, donation and membership api
of Shree Gopal Parivar Sang and runs its scheduled payment jobs.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "directory of main.toml")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the config")
}

// loadConfig reads the dotenv file, the configuration and initialises logging.
func loadConfig(initLogger bool) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return pkgerrors.Wrapf(err, "load %s", envFile)
	}

	var err error
	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	if !initLogger {
		return nil
	}

	return logger.Init(cfg.Log)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		log.Error().Err(err).Msg("command failed")
	}

	if closeErr := logger.Close(); closeErr != nil {
		log.Warn().Err(closeErr).Msg("flush log shipping")
	}

	return err
}
