package stream

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// Config is the service configuration, read from YAML or TOML.
type Config struct {
	Mqtt struct {
		URL      string `yaml:"url" toml:"url"`
		Username string `yaml:"username" toml:"username"`
		Password string `yaml:"password" toml:"password"`
		ClientID string `yaml:"clientId" toml:"client_id" validate:"required"`
		Topics   struct {
			Stream  string `yaml:"stream" toml:"stream"`
			Command string `yaml:"command" toml:"command"`
			Level   string `yaml:"level" toml:"level"`
		} `yaml:"topics" toml:"topics"`
	} `yaml:"mqtt" toml:"mqtt"`
	HTTP struct {
		Addr string `yaml:"addr" toml:"addr"`
	} `yaml:"http" toml:"http"`
	Icon struct {
		Path string `yaml:"path" toml:"path" validate:"required"`
		Name string `yaml:"name" toml:"name" validate:"required"`
	} `yaml:"icon" toml:"icon"`
	Animation struct {
		Duration   float64 `yaml:"duration" toml:"duration" validate:"gt=0"`
		Iterations int     `yaml:"iterations" toml:"iterations" validate:"eq=-1|gt=0"`
		Direction  string  `yaml:"direction" toml:"direction" validate:"oneof=normal reverse alternate alternate-reverse"`
		Easing     string  `yaml:"easing" toml:"easing"`
		Autoplay   bool    `yaml:"autoplay" toml:"autoplay"`
		FrameRate  float64 `yaml:"frameRate" toml:"frame_rate" validate:"gt=0,lte=120"`
	} `yaml:"animation" toml:"animation"`
	Level LevelConfig `yaml:"level" toml:"level"`
	Theme struct {
		Colors map[string]string `yaml:"colors" toml:"colors"`
	} `yaml:"theme" toml:"theme"`
	Log struct {
		Level string `yaml:"level" toml:"level" validate:"omitempty,oneof=trace debug info warn error"`
		Human bool   `yaml:"human" toml:"human"`
	} `yaml:"log" toml:"log"`
}

// LevelConfig maps a numeric reading, such as a blind level, onto the
// animation position.
type LevelConfig struct {
	Min    float64 `yaml:"min" toml:"min"`
	Max    float64 `yaml:"max" toml:"max" validate:"gtfield=Min"`
	Invert bool    `yaml:"invert" toml:"invert"`
}

// Position converts a reading into a normalised animation position.
func (l LevelConfig) Position(value float64) float64 {
	p := (value - l.Min) / (l.Max - l.Min)
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	if l.Invert {
		p = 1 - p
	}
	return p
}

// DefaultConfig returns the configuration used for anything a file leaves out.
func DefaultConfig() *Config {
	c := new(Config)
	c.Mqtt.ClientID = "iconanim"
	c.Mqtt.Topics.Stream = "home/iconanim/frame"
	c.Mqtt.Topics.Command = "home/iconanim/command"
	c.HTTP.Addr = ":3000"
	c.Icon.Path = "icons/multicolor"
	c.Icon.Name = "blind"
	c.Animation.Duration = 1
	c.Animation.Iterations = 1
	c.Animation.Direction = string(DirectionNormal)
	c.Animation.Easing = "linear"
	c.Animation.Autoplay = true
	c.Animation.FrameRate = 30
	c.Level.Min = 0
	c.Level.Max = 100
	c.Level.Invert = true
	c.Log.Level = "info"
	return c
}

// ConfigError describes an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
	}
	return "config: " + e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LoadConfig reads a YAML or TOML file over the defaults and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return nil, &ConfigError{Message: "parse " + path, Err: err}
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, &ConfigError{Message: "parse " + path, Err: err}
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New()
	})
	return validateInst
}

// Validate checks field constraints and that the animation options build.
func (c *Config) Validate() error {
	if err := validatorInstance().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ConfigError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed %q validation (value %v)", fe.Tag(), fe.Value()),
				Err:     err,
			}
		}
		return &ConfigError{Message: err.Error(), Err: err}
	}

	if _, err := c.Options(); err != nil {
		return &ConfigError{Field: "Config.Animation", Message: err.Error(), Err: err}
	}
	return nil
}

// Options returns the animation timing described by the config.
func (c *Config) Options() (Options, error) {
	direction, err := ParseDirection(c.Animation.Direction)
	if err != nil {
		return Options{}, err
	}
	opts := Options{
		Duration:   c.Animation.Duration,
		Iterations: c.Animation.Iterations,
		Direction:  direction,
		Easing:     c.Animation.Easing,
	}
	return opts, opts.Validate()
}
