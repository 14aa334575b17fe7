package config

import "path/filepath"

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Store: StoreConfig{
			DBPath: filepath.Join(DefaultConfigDir(), "channels.db"),
		},
	}
}
