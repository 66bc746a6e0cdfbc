package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var configDir string
var configFilePath string
var sessionPath string

// getConfigDir returns platform-specific config directory
func getConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		// Windows: %LOCALAPPDATA%\sociofeed
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, "sociofeed"), nil
	}

	// Unix-like (macOS, Linux): ~/.config/sociofeed
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sociofeed"), nil
}

// getSystemConfigPaths returns platform-specific system config paths
func getSystemConfigPaths() []string {
	if runtime.GOOS == "windows" {
		return []string{filepath.Join(os.Getenv("ProgramFiles"), "Sociofeed", "config.toml")}
	}

	return []string{
		"/etc/sociofeed/config.toml",
		"/usr/local/etc/sociofeed/config.toml",
	}
}

// Init initializes the configuration
func Init(configPath string) error {
	var err error
	if configPath != "" {
		configDir = filepath.Dir(configPath)
		configFilePath = configPath
	} else {
		configDir, err = getConfigDir()
		if err != nil {
			return err
		}
		configFilePath = filepath.Join(configDir, "config.toml")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	sessionPath = filepath.Join(configDir, "session.json")

	viper.Reset()
	viper.SetConfigType("toml")
	viper.SetEnvPrefix("SOCIOFEED")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// System config is the foundation, user config overrides it
	for _, sysConfigPath := range getSystemConfigPaths() {
		if _, err := os.Stat(sysConfigPath); err == nil {
			viper.SetConfigFile(sysConfigPath)
			_ = viper.MergeInConfig()
			break
		}
	}

	viper.SetConfigFile(configFilePath)
	_ = viper.MergeInConfig()

	return nil
}

func setDefaults() {
	viper.SetDefault("api.base_url", "http://localhost:5000")
	viper.SetDefault("api.timeout", 30)
	viper.SetDefault("api.user_agent", "Sociofeed-CLI/0.1.0")
	viper.SetDefault("output.format", "text")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", filepath.Join(configDir, "sociofeed.log"))
	viper.SetDefault("log.max_size_mb", 10)
	viper.SetDefault("log.max_backups", 3)

	viper.SetDefault("feed.page_size", 10)
	viper.SetDefault("comments.limit", 10)
	viper.SetDefault("follow.page_size", 10)
	viper.SetDefault("search.page_size", 10)

	viper.SetDefault("avatar.max_bytes", 5*1024*1024)
	viper.SetDefault("avatar.size", 400)

	viper.SetDefault("live.path", "/events")
	viper.SetDefault("live.heartbeat", 30)
	viper.SetDefault("live.reconnect_max", 30)

	viper.SetDefault("mock.addr", ":5000")
	viper.SetDefault("mock.seed_users", 12)
	viper.SetDefault("mock.seed_posts", 35)
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetString returns a string configuration value
func GetString(key string) string {
	value := viper.GetString(key)
	if key == "log.file" {
		return expandPath(value)
	}
	return value
}

// GetInt returns an int configuration value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetInt64 returns an int64 configuration value
func GetInt64(key string) int64 {
	return viper.GetInt64(key)
}

// GetBool returns a bool configuration value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a value stored in seconds as a time.Duration
func GetDuration(key string) time.Duration {
	return time.Duration(viper.GetInt(key)) * time.Second
}

// Set overrides a value for the current process only
func Set(key string, value interface{}) {
	viper.Set(key, value)
}

// SetString sets a string configuration value and persists it
func SetString(key string, value string) error {
	viper.Set(key, value)
	return viper.WriteConfigAs(configFilePath)
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	return configDir
}

// GetSessionPath returns the path of the persisted session file
func GetSessionPath() string {
	return sessionPath
}
