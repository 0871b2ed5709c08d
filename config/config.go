// Package config loads presenter settings from defaults, presenter.yaml, a
// .env file, PRESENTER_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"handsfree-presenter/gesture"
)

const (
	EnvPrefix         = "PRESENTER"
	DefaultConfigFile = "presenter.yaml"
	DefaultDotEnvFile = ".env"
)

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Sensor  SensorConfig  `mapstructure:"sensor"`
	Gesture GestureConfig `mapstructure:"gesture"`
	Speech  SpeechConfig  `mapstructure:"speech"`
	Cues    CuesConfig    `mapstructure:"cues"`
	Host    HostConfig    `mapstructure:"host"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type SensorConfig struct {
	// URL of the skeleton bridge. Ignored when Replay is set.
	URL           string        `mapstructure:"url"`
	Replay        string        `mapstructure:"replay"`
	FrameInterval time.Duration `mapstructure:"frame_interval"`
}

// GestureConfig tunes the swipe recognizers. Zero distances and variance
// leave the recognizer unbounded.
type GestureConfig struct {
	FramesThreshold   int     `mapstructure:"frames_threshold"`
	MinDistance       float64 `mapstructure:"min_distance"`
	MaxDistance       float64 `mapstructure:"max_distance"`
	SecondaryVariance float64 `mapstructure:"secondary_variance"`
	Next              string  `mapstructure:"next"`
	Previous          string  `mapstructure:"previous"`
}

type SpeechConfig struct {
	Model            string  `mapstructure:"model"`
	Language         string  `mapstructure:"language"`
	Confidence       float64 `mapstructure:"confidence"`
	WakeWord         string  `mapstructure:"wake_word"`
	Replay           string  `mapstructure:"replay"`
	CaptureDir       string  `mapstructure:"capture_dir"`
	DeviceSampleRate int     `mapstructure:"device_sample_rate"`
}

type CuesConfig struct {
	File string `mapstructure:"file"`
}

type HostConfig struct {
	URL string `mapstructure:"url"`
}

var defaults = map[string]any{
	"log.level":                  "info",
	"log.file":                   "",
	"sensor.url":                 "ws://localhost:8765/skeleton",
	"sensor.replay":              "",
	"sensor.frame_interval":      time.Second / 30,
	"gesture.frames_threshold":   20,
	"gesture.min_distance":       0.0,
	"gesture.max_distance":       0.0,
	"gesture.secondary_variance": 0.0,
	"gesture.next":               gesture.RightHandedSwipeFromRightToLeft.String(),
	"gesture.previous":           gesture.LeftHandedSwipeFromLeftToRight.String(),
	"speech.model":               "models/ggml-base.en.bin",
	"speech.language":            "en",
	"speech.confidence":          0.8,
	"speech.wake_word":           "powerpoint",
	"speech.replay":              "",
	"speech.capture_dir":         "",
	"speech.device_sample_rate":  16000,
	"cues.file":                  "cues.yaml",
	"host.url":                   "ws://localhost:8766/presentation",
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"log-level": "log.level",
	"log-file":  "log.file",
}

// EnvKey returns the environment variable for a config key, e.g.
// PRESENTER_SPEECH_WAKE_WORD for speech.wake_word.
func EnvKey(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads configuration. An empty path looks for presenter.yaml in the
// working directory and is fine without one; an explicit path must exist.
// flags may be nil.
func Load(fileSys afero.Fs, path string, flags *pflag.FlagSet) (*Config, error) {
	if fileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	v := viper.New()
	v.SetFs(fileSys)

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := readConfigFile(v, fileSys, path); err != nil {
		return nil, err
	}

	if err := mergeDotEnv(v, fileSys, DefaultDotEnvFile); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfigFile(v *viper.Viper, fileSys afero.Fs, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	if _, err := fileSys.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return nil
}

// mergeDotEnv layers PRESENTER_* entries of a .env file over the config
// file. The process environment still wins over them.
func mergeDotEnv(v *viper.Viper, fileSys afero.Fs, path string) error {
	data, err := afero.ReadFile(fileSys, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	layer := make(map[string]any)
	for key := range defaults {
		value, ok := envMap[EnvKey(key)]
		if !ok {
			continue
		}

		section, name, _ := strings.Cut(key, ".")
		values, _ := layer[section].(map[string]any)
		if values == nil {
			values = make(map[string]any)
			layer[section] = values
		}
		values[name] = value
	}

	if len(layer) == 0 {
		return nil
	}

	return v.MergeConfigMap(layer)
}

// Validate rejects values the components cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error, fatal", c.Log.Level))
	}

	if c.Sensor.URL == "" && c.Sensor.Replay == "" {
		errs = append(errs, fmt.Errorf("sensor.url or sensor.replay is required"))
	}

	if c.Sensor.FrameInterval < 0 {
		errs = append(errs, fmt.Errorf("sensor.frame_interval must not be negative"))
	}

	if c.Gesture.FramesThreshold < 1 {
		errs = append(errs, fmt.Errorf("gesture.frames_threshold must be at least 1, got %d", c.Gesture.FramesThreshold))
	}

	if c.Gesture.MinDistance < 0 || c.Gesture.MaxDistance < 0 || c.Gesture.SecondaryVariance < 0 {
		errs = append(errs, fmt.Errorf("gesture distances and variance must not be negative"))
	}

	if c.Gesture.MaxDistance != 0 && c.Gesture.MaxDistance <= c.Gesture.MinDistance {
		errs = append(errs, fmt.Errorf("gesture.max_distance must exceed gesture.min_distance"))
	}

	next, nextErr := gesture.ParseSubType(c.Gesture.Next)
	if nextErr != nil {
		errs = append(errs, fmt.Errorf("gesture.next: %w", nextErr))
	}

	previous, previousErr := gesture.ParseSubType(c.Gesture.Previous)
	if previousErr != nil {
		errs = append(errs, fmt.Errorf("gesture.previous: %w", previousErr))
	}

	if nextErr == nil && previousErr == nil && next == previous {
		errs = append(errs, fmt.Errorf("gesture.next and gesture.previous must differ"))
	}

	if c.Speech.Model == "" {
		errs = append(errs, fmt.Errorf("speech.model is required"))
	}

	if c.Speech.Confidence < 0 || c.Speech.Confidence > 1 {
		errs = append(errs, fmt.Errorf("speech.confidence must be within [0,1], got %v", c.Speech.Confidence))
	}

	if strings.TrimSpace(c.Speech.WakeWord) == "" {
		errs = append(errs, fmt.Errorf("speech.wake_word is required"))
	}

	if c.Speech.DeviceSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("speech.device_sample_rate must be positive"))
	}

	if c.Cues.File == "" {
		errs = append(errs, fmt.Errorf("cues.file is required"))
	}

	if c.Host.URL == "" {
		errs = append(errs, fmt.Errorf("host.url is required"))
	}

	return errors.Join(errs...)
}
