package configuration

import (
	"os"

	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

type ApiConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

type StatisticsConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// DaemonConfig carries the ambient daemon settings that are not part of the
// board profile: where the profile lives, where runtime artifacts go and
// whether the optional servers run. It is read from fancontrol.yaml and the
// environment, the board profile itself stays in its own text format.
type DaemonConfig struct {
	ConfigPath string `json:"configPath"`
	DbPath     string `json:"dbPath"`
	StatusPath string `json:"statusPath"`
	PidPath    string `json:"pidPath"`

	Api        ApiConfig        `json:"api"`
	Statistics StatisticsConfig `json:"statistics"`
}

var CurrentDaemonConfig DaemonConfig

// InitDaemonConfig reads in the daemon settings file and ENV variables if set.
func InitDaemonConfig(cfgFile string) {
	viper.SetConfigName("fancontrol")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/fancontrol/")
	}

	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("ConfigPath", DefaultConfigPath)
	viper.SetDefault("DbPath", "/etc/fancontrol/fancontrol.db")
	viper.SetDefault("StatusPath", RuntimeStatusPath)
	viper.SetDefault("PidPath", PidfilePath)

	viper.SetDefault("Api.Enabled", false)
	viper.SetDefault("Api.Host", "localhost")
	viper.SetDefault("Api.Port", 9440)

	viper.SetDefault("Statistics.Enabled", false)
	viper.SetDefault("Statistics.Host", "localhost")
	viper.SetDefault("Statistics.Port", 9441)
}

// ReadDaemonConfig loads the daemon settings. The settings file is optional,
// defaults cover a bare installation.
func ReadDaemonConfig() {
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			ui.Fatal("Error reading daemon settings file, %s", err)
		}
	} else {
		// this is only populated _after_ ReadInConfig()
		ui.Debug("Using daemon settings file at: %s", viper.ConfigFileUsed())
	}

	LoadDaemonConfig()
}

func LoadDaemonConfig() {
	err := viper.Unmarshal(&CurrentDaemonConfig)
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
}
