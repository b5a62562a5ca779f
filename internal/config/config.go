package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the directory passed to Load.
const FileName = "annotator.cfg.json"

// SQLiteConfig holds settings for the in-memory SQLite bookmark store.
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// MemoryConfig holds settings for the in-memory bookmark store, which writes
// a JSON export when closed.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// StorageConfig selects and configures the bookmark store.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// CoordinatorConfig tunes the live edit coordinator.
type CoordinatorConfig struct {
	// Debounce is how long caption edits wait before being committed.
	Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
	// BlinkInterval toggles the caption text cursor.
	BlinkInterval time.Duration `json:"blinkInterval" mapstructure:"blinkInterval"`
	// FadeInterval is the laser fade tick.
	FadeInterval        time.Duration `json:"fadeInterval" mapstructure:"fadeInterval"`
	LaserFadeStep       float64       `json:"laserFadeStep" mapstructure:"laserFadeStep"`
	HandleSize          float64       `json:"handleSize" mapstructure:"handleSize"`
	CaptionMinWrapWidth float64       `json:"captionMinWrapWidth" mapstructure:"captionMinWrapWidth"`
	HideWhenPlaying     bool          `json:"hideWhenPlaying" mapstructure:"hideWhenPlaying"`
}

// CaptionDefaults are applied to captions created by a click on empty image.
type CaptionDefaults struct {
	FontName          string     `json:"fontName" mapstructure:"fontName"`
	FontSize          float64    `json:"fontSize" mapstructure:"fontSize"`
	WrapWidth         float64    `json:"wrapWidth" mapstructure:"wrapWidth"`
	Opacity           float64    `json:"opacity" mapstructure:"opacity"`
	BackgroundOpacity float64    `json:"backgroundOpacity" mapstructure:"backgroundOpacity"`
	Colour            [3]float64 `json:"colour" mapstructure:"colour"`
	BackgroundColour  [3]float64 `json:"backgroundColour" mapstructure:"backgroundColour"`
}

// BroadcastConfig controls the collaboration WebSocket server.
type BroadcastConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Listen  string `json:"listen" mapstructure:"listen"`
}

// APIConfig points at the review server exports are uploaded to.
type APIConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	ServerURL string `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey    string `json:"apiKey" mapstructure:"apiKey"`
	Project   string `json:"project" mapstructure:"project"`
	Tag       string `json:"tag" mapstructure:"tag"`
}

// MonitorConfig controls the periodic status file.
type MonitorConfig struct {
	Enabled    bool          `json:"enabled" mapstructure:"enabled"`
	Interval   time.Duration `json:"interval" mapstructure:"interval"`
	StatusFile string        `json:"statusFile" mapstructure:"statusFile"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./annotatorlogs")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "annotations")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "annotator")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("coordinator.debounce", "500ms")
	viper.SetDefault("coordinator.blinkInterval", "300ms")
	viper.SetDefault("coordinator.fadeInterval", "16ms")
	viper.SetDefault("coordinator.laserFadeStep", 0.01)
	viper.SetDefault("coordinator.handleSize", 50.0)
	viper.SetDefault("coordinator.captionMinWrapWidth", 0.05)
	viper.SetDefault("coordinator.hideWhenPlaying", true)

	viper.SetDefault("caption.fontName", "")
	viper.SetDefault("caption.fontSize", 50.0)
	viper.SetDefault("caption.wrapWidth", 0.5)
	viper.SetDefault("caption.opacity", 1.0)
	viper.SetDefault("caption.backgroundOpacity", 0.5)
	viper.SetDefault("caption.colour", []float64{1, 0, 0})
	viper.SetDefault("caption.backgroundColour", []float64{0, 0, 0})

	viper.SetDefault("broadcast.enabled", false)
	viper.SetDefault("broadcast.listen", "127.0.0.1:8765")

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.project", "")
	viper.SetDefault("api.tag", "")

	viper.SetDefault("monitor.enabled", false)
	viper.SetDefault("monitor.interval", "1s")
	viper.SetDefault("monitor.statusFile", "")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// LoadDefaults populates viper with defaults only, for runs without a
// config file.
func LoadDefaults() {
	setDefaults()
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the bookmark store settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetCoordinatorConfig returns the coordinator tuning.
func GetCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		Debounce:            viper.GetDuration("coordinator.debounce"),
		BlinkInterval:       viper.GetDuration("coordinator.blinkInterval"),
		FadeInterval:        viper.GetDuration("coordinator.fadeInterval"),
		LaserFadeStep:       viper.GetFloat64("coordinator.laserFadeStep"),
		HandleSize:          viper.GetFloat64("coordinator.handleSize"),
		CaptionMinWrapWidth: viper.GetFloat64("coordinator.captionMinWrapWidth"),
		HideWhenPlaying:     viper.GetBool("coordinator.hideWhenPlaying"),
	}
}

// GetCaptionDefaults returns the style for new captions.
func GetCaptionDefaults() CaptionDefaults {
	return CaptionDefaults{
		FontName:          viper.GetString("caption.fontName"),
		FontSize:          viper.GetFloat64("caption.fontSize"),
		WrapWidth:         viper.GetFloat64("caption.wrapWidth"),
		Opacity:           viper.GetFloat64("caption.opacity"),
		BackgroundOpacity: viper.GetFloat64("caption.backgroundOpacity"),
		Colour:            getTriple("caption.colour"),
		BackgroundColour:  getTriple("caption.backgroundColour"),
	}
}

// GetBroadcastConfig returns the collaboration server settings.
func GetBroadcastConfig() BroadcastConfig {
	return BroadcastConfig{
		Enabled: viper.GetBool("broadcast.enabled"),
		Listen:  viper.GetString("broadcast.listen"),
	}
}

// GetAPIConfig returns the review server settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		Enabled:   viper.GetBool("api.enabled"),
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
		Project:   viper.GetString("api.project"),
		Tag:       viper.GetString("api.tag"),
	}
}

// GetMonitorConfig returns the status monitor settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:    viper.GetBool("monitor.enabled"),
		Interval:   viper.GetDuration("monitor.interval"),
		StatusFile: viper.GetString("monitor.statusFile"),
	}
}

// getTriple reads a three element number array. JSON files yield []any,
// defaults []float64.
func getTriple(key string) [3]float64 {
	var out [3]float64
	switch v := viper.Get(key).(type) {
	case []float64:
		copy(out[:], v)
	case []any:
		for i := 0; i < len(v) && i < 3; i++ {
			switch n := v[i].(type) {
			case float64:
				out[i] = n
			case int:
				out[i] = float64(n)
			}
		}
	}
	return out
}
