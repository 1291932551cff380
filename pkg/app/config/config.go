package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/womat/debug"
	"gopkg.in/yaml.v2"
)

// Config holds the application configuration.
// Config defines the struct of the global config and the struct of the
// configuration file.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Serial    SerialConfig    `yaml:"serial"`
	Engine    EngineConfig    `yaml:"engine"`
	Flag      FlagConfig      `yaml:"-"`
	Log       LogConfig       `yaml:"log"`
	Webserver WebserverConfig `yaml:"webserver"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// InputConfig defines the watched input line.
type InputConfig struct {
	// Gpio is the BCM number of the input line.
	Gpio int `yaml:"gpio"`
	// Terminator selects the line bias (pullup/pulldown/none).
	Terminator string `yaml:"terminator"`
	// BounceTimeInt is the debounce timeout in ms, 0 disables debouncing.
	BounceTimeInt int           `yaml:"bouncetime"`
	BounceTime    time.Duration `yaml:"-"`
}

// OutputConfig defines the driven output line.
type OutputConfig struct {
	// Gpio is the BCM number of the output line.
	Gpio int `yaml:"gpio"`
}

// SerialConfig defines the control port the host sends command bytes to.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baudrate"`
}

// EngineConfig defines the scheduling engine parameters.
type EngineConfig struct {
	// Capacity is the transition queue length; must be even.
	Capacity int `yaml:"capacity"`
	// DelayFactor is the linear mode step width in ms.
	DelayFactor int `yaml:"delayfactor"`
	// PollIntervalInt is the dispatch granularity in ms.
	PollIntervalInt int           `yaml:"pollinterval"`
	PollInterval    time.Duration `yaml:"-"`
}

// FlagConfig defines the configured command line flags (parameters).
type FlagConfig struct {
	Version    bool
	LogLevel   string
	ConfigFile string
}

// WebserverConfig defines the struct of the webserver and webservice
// configuration and configuration file.
type WebserverConfig struct {
	URL         string          `yaml:"url"`
	Webservices map[string]bool `yaml:"webservices"`
}

// MQTTConfig defines the struct of the mqtt client configuration and
// configuration file.
type MQTTConfig struct {
	Connection  string        `yaml:"connection"`
	Topic       string        `yaml:"topic"`
	IntervalInt int           `yaml:"interval"`
	Interval    time.Duration `yaml:"-"`
}

// LogConfig defines the struct of the log configuration and
// configuration file.
type LogConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
}

// NewConfig sets the default values.
func NewConfig() *Config {
	return &Config{
		Input: InputConfig{
			Gpio:       17,
			Terminator: "pullup",
		},
		Output: OutputConfig{
			Gpio: 27,
		},
		Serial: SerialConfig{
			Port:     "/dev/ttyAMA0",
			BaudRate: 9600,
		},
		Engine: EngineConfig{
			Capacity:        512,
			DelayFactor:     20,
			PollIntervalInt: 1,
		},
		Flag: FlagConfig{},
		Log: LogConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"status":  true,
				"config":  true,
			},
		},
		MQTT: MQTTConfig{
			IntervalInt: 30,
			Topic:       "/delayline/status",
		},
	}
}

// LoadConfig reads the configuration file and applies the command line
// overrides.
func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}

	if c.Flag.LogLevel != "" {
		c.Log.FlagString = c.Flag.LogLevel
	}
	if err := c.setLogConfig(); err != nil {
		return fmt.Errorf("unable to open log file %q: %w", c.Log.FileString, err)
	}

	c.Input.BounceTime = time.Duration(c.Input.BounceTimeInt) * time.Millisecond
	c.Engine.PollInterval = time.Duration(c.Engine.PollIntervalInt) * time.Millisecond
	c.MQTT.Interval = time.Duration(c.MQTT.IntervalInt) * time.Second

	return nil
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	return yaml.NewDecoder(file).Decode(c)
}

func (c *Config) setLogConfig() (err error) {
	switch c.Log.FlagString {
	case "trace", "full":
		c.Log.Flag = debug.Full
	case "debug":
		c.Log.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard":
		c.Log.Flag = debug.Standard
	}

	switch c.Log.FileString {
	case "stderr":
		c.Log.File = os.Stderr
	case "stdout":
		c.Log.File = os.Stdout
	default:
		if c.Log.File, err = os.OpenFile(c.Log.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}

	return
}
