package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ppiankov/wayfare/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	cfgFile string
	verbose bool

	// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
	Version = "v0.1.0"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wayfare",
	Short: "Wayfare - constraint-based ranking of travel offers",
	Long: `Wayfare turns a structured trip brief into per-domain provider queries,
filters provider offers against the brief's hard constraints, scores the
survivors on soft preferences and returns an explainable, diversified
ranking.

Domains: accommodation, activities, dining, flights, transport.

Wayfare does not search or book. It ranks what it is given.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wayfare %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.wayfare/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig layers defaults, the config file, .env and WAYFARE_* variables
func initConfig() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Seed viper with every default key so AutomaticEnv can override any of them
	viper.SetConfigType("yaml")
	if defaults, err := yaml.Marshal(model.DefaultConfig()); err == nil {
		_ = viper.ReadConfig(bytes.NewReader(defaults))
	}
	viper.SetDefault("llm.api_key", "")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".wayfare"))
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("WAYFARE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.MergeInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		if verbose {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	case errors.As(err, &notFound):
	default:
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
	}
}

// loadConfig decodes the layered viper state into a Config
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	// viper already holds the default map and list entries; decoding on top
	// of them would merge instead of replace
	cfg.Currency.Rates = nil
	cfg.Diversity.Brands = nil
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs go to stderr so stdout stays
// clean for JSON and Markdown output.
func newLogger(cfg model.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	level := cfg.Level
	if verbose {
		level = "debug"
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zc.Level = lvl
	}
	return zc.Build()
}
