// config.go: settings struct and functions to load application configuration.
package conf

import (
	"crypto/rand"
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled bool   // true to enable this log
	Path    string // path to log file
}

// WebServerSettings contains settings for the web server.
type WebServerSettings struct {
	Debug bool      // true to enable debug logging
	Port  string    // port for the web server
	Log   LogConfig // web server log settings
}

// SecuritySettings contains session and credential handling settings.
type SecuritySettings struct {
	SessionSecret   string        // secret key for session cookie signing
	SessionDuration time.Duration // duration of the login session
	RedirectToHTTPS bool          // true to mark session cookies secure
}

// ModelSettings contains settings for the classification model.
type ModelSettings struct {
	Path       string   // path to the TensorFlow Lite model file
	Labels     []string // class labels, in output tensor order
	Threads    int      // number of CPU threads for inference, 0 for all
	UseXNNPACK bool     // true to use XNNPACK delegate
}

// UploadSettings contains settings for uploaded slide images.
type UploadSettings struct {
	Path string // directory where uploaded images are stored
}

// OutputSettings contains database output settings.
type OutputSettings struct {
	SQLite struct {
		Enabled bool   // true to enable SQLite
		Path    string // path to SQLite database file
	}
	MySQL struct {
		Enabled  bool   // true to enable MySQL
		Username string // MySQL username
		Password string // MySQL password
		Database string // MySQL database name
		Host     string // MySQL host
		Port     string // MySQL port
	}
}

// Settings contains all configuration options for the application.
type Settings struct {
	Debug bool // true to enable debug mode

	Main struct {
		Name string    // name of the node
		Log  LogConfig // main log settings
	}

	WebServer WebServerSettings
	Security  SecuritySettings
	Model     ModelSettings
	Uploads   UploadSettings
	Output    OutputSettings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	// Initialize viper and read config
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	// Unmarshal the config into settings
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	// Validate settings
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/msinet-go")

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	// Environment variables override file values.
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the working directory.
func createDefaultConfig() error {
	configPath := filepath.Join(".", "config.yaml")
	defaultConfig := getDefaultConfig()

	// If the session secret is not set, generate a random one
	if viper.GetString("security.sessionsecret") == "" {
		viper.Set("security.sessionsecret", GenerateRandomSecret())
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// GenerateRandomSecret generates a URL-safe random string suitable for
// signing session cookies.
func GenerateRandomSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Printf("Error generating random secret: %v", err)
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
