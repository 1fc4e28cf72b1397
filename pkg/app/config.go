package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autopeer-io/carbridge/pkg/log"
)

const (
	configFlagName = "config"
	dotEnvFile     = ".env"
)

var cfgFile string

func addConfigFlag(basename, envPrefix string, fs *pflag.FlagSet) {
	fs.StringVarP(&cfgFile, configFlagName, "c", cfgFile, "Read configuration from specified `FILE`, "+
		"support JSON, TOML, YAML, HCL, or Java properties formats.")

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	viper.SetConfigName(basename)
}

// loadConfig layers .env, environment, config file and command line flags
// (highest wins) and decodes the result into opts.
func loadConfig(flags *pflag.FlagSet, opts any) error {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", dotEnvFile, err)
	}

	if err := viper.BindPFlags(flags); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read configuration file %q: %w", cfgFile, err)
		}
		viper.OnConfigChange(func(e fsnotify.Event) {
			if e.Has(fsnotify.Write) || e.Has(fsnotify.Create) {
				log.Warn("Configuration file changed, restart to apply", "file", e.Name, "op", e.Op.String())
			}
		})
		viper.WatchConfig()
	}

	if err := viper.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return nil
}

func envPrefixFor(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
