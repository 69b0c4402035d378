package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dusterilizer-go/errcode"
	"dusterilizer-go/x/strx"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "dusterilizer"
	configName = "dusterilizer"

	// DefaultConfigIndex is the profile the deployed units run.
	DefaultConfigIndex = 5
	// IndexFromDIP selects the profile from the DIP switch bank.
	IndexFromDIP = -1
)

type AppConfig struct {
	General      GeneralConfig
	ConfigIndex  int
	ProfilesFile string
	I2C          I2CConfig
	GPIO         GPIOConfig
	Display      DisplayConfig
	Sensors      SensorsConfig
	MQTT         MQTTConfig
	Publish      PublishConfig
	Metrics      MetricsConfig
}

type GeneralConfig struct {
	LogLevel string
}

type I2CConfig struct {
	Bus    string
	FreqHz int
	Settle time.Duration
}

type GPIOConfig struct {
	Chip     string
	LogicPin int
	FanPin   int // negative disables the fan output
	DIPPins  []int
}

type DisplayConfig struct {
	NumLEDs    int
	UpdateRate time.Duration
	PulseSteps int
	Splash     time.Duration
	Backend    string // "memory" | "log"
}

type SensorConfig struct {
	Enabled    bool
	UpdateRate time.Duration
}

type SensorsConfig struct {
	SPS30 SensorConfig
	SHT31 SensorConfig
	SGP30 SensorConfig
}

type MQTTConfig struct {
	Enabled        bool
	Broker         string
	ClientID       string
	Username       string
	Password       string
	PublishTimeout time.Duration
}

type PublishConfig struct {
	Climate bool
}

type MetricsConfig struct {
	Addr string
}

// Flags registers the command-line flags Load understands.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to the config file")
	fs.String("log-level", "", "debug|info|warn|error")
	fs.Int("config-index", DefaultConfigIndex, "profile index; negative reads the DIP switches")
	fs.String("profiles", "", "threshold profile table (JSON)")
	fs.String("broker", "", "MQTT broker URL")
	fs.String("metrics-addr", "", "metrics listen address; empty disables")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("config_index", DefaultConfigIndex)
	v.SetDefault("profiles_file", "config/profiles.json")

	v.SetDefault("i2c.bus", "/dev/i2c-1")
	v.SetDefault("i2c.freq_hz", 100000)
	v.SetDefault("i2c.settle", 20*time.Millisecond)

	v.SetDefault("gpio.chip", "gpiochip0")
	v.SetDefault("gpio.logic_pin", 33)
	v.SetDefault("gpio.fan_pin", 32)
	v.SetDefault("gpio.dip_pins", []int{36, 39, 34, 35, 32, 33, 15, 16})

	v.SetDefault("display.num_leds", 14)
	v.SetDefault("display.update_rate", 1500*time.Millisecond)
	v.SetDefault("display.pulse_steps", 60)
	v.SetDefault("display.splash", 2*time.Second)
	v.SetDefault("display.backend", "memory")

	for _, s := range []string{"sps30", "sht31", "sgp30"} {
		v.SetDefault("sensors."+s+".enabled", s != "sgp30")
		v.SetDefault("sensors."+s+".update_rate", 1500*time.Millisecond)
	}

	v.SetDefault("mqtt.enabled", true)
	v.SetDefault("mqtt.broker", "tcp://192.168.50.100:1883")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.publish_timeout", 5*time.Second)

	v.SetDefault("publish.climate", false)
	v.SetDefault("metrics.addr", ":9100")
}

// Load reads defaults, the config file, DUSTERILIZER_* environment
// variables and fs, in increasing precedence. fs may be nil. A missing
// config file is not an error unless --config named one.
func Load(fs *pflag.FlagSet) (AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := ""
	if fs != nil {
		explicit, _ = fs.GetString("config")
		bind := map[string]string{
			"general.log_level": "log-level",
			"config_index":      "config-index",
			"profiles_file":     "profiles",
			"mqtt.broker":       "broker",
			"metrics.addr":      "metrics-addr",
		}
		for key, flag := range bind {
			if f := fs.Lookup(flag); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return AppConfig{}, err
				}
			}
		}
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath("config")
		v.AddConfigPath("/etc/dusterilizer")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := fromViper(v)
	cfg.MQTT.ClientID = strx.Coalesce(cfg.MQTT.ClientID, "dusterilizer_"+uuid.NewString())
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) AppConfig {
	sensor := func(name string) SensorConfig {
		return SensorConfig{
			Enabled:    v.GetBool("sensors." + name + ".enabled"),
			UpdateRate: v.GetDuration("sensors." + name + ".update_rate"),
		}
	}
	return AppConfig{
		General: GeneralConfig{
			LogLevel: v.GetString("general.log_level"),
		},
		ConfigIndex:  v.GetInt("config_index"),
		ProfilesFile: v.GetString("profiles_file"),
		I2C: I2CConfig{
			Bus:    v.GetString("i2c.bus"),
			FreqHz: v.GetInt("i2c.freq_hz"),
			Settle: v.GetDuration("i2c.settle"),
		},
		GPIO: GPIOConfig{
			Chip:     v.GetString("gpio.chip"),
			LogicPin: v.GetInt("gpio.logic_pin"),
			FanPin:   v.GetInt("gpio.fan_pin"),
			DIPPins:  v.GetIntSlice("gpio.dip_pins"),
		},
		Display: DisplayConfig{
			NumLEDs:    v.GetInt("display.num_leds"),
			UpdateRate: v.GetDuration("display.update_rate"),
			PulseSteps: v.GetInt("display.pulse_steps"),
			Splash:     v.GetDuration("display.splash"),
			Backend:    v.GetString("display.backend"),
		},
		Sensors: SensorsConfig{
			SPS30: sensor("sps30"),
			SHT31: sensor("sht31"),
			SGP30: sensor("sgp30"),
		},
		MQTT: MQTTConfig{
			Enabled:        v.GetBool("mqtt.enabled"),
			Broker:         v.GetString("mqtt.broker"),
			ClientID:       v.GetString("mqtt.client_id"),
			Username:       v.GetString("mqtt.username"),
			Password:       v.GetString("mqtt.password"),
			PublishTimeout: v.GetDuration("mqtt.publish_timeout"),
		},
		Publish: PublishConfig{
			Climate: v.GetBool("publish.climate"),
		},
		Metrics: MetricsConfig{
			Addr: v.GetString("metrics.addr"),
		},
	}
}

// Validate checks the values the tasks depend on.
func (c AppConfig) Validate() error {
	fail := func(msg string) error { return errcode.New(errcode.InvalidConfig, "config", msg) }
	switch {
	case c.Display.NumLEDs <= 0:
		return fail("display.num_leds must be positive")
	case c.Display.UpdateRate <= 0:
		return fail("display.update_rate must be positive")
	case c.Display.PulseSteps < 2:
		return fail("display.pulse_steps must be at least 2")
	case c.Display.Backend != "memory" && c.Display.Backend != "log":
		return fail("display.backend must be memory or log")
	case c.I2C.Settle <= 0:
		return fail("i2c.settle must be positive")
	}
	for name, s := range map[string]SensorConfig{"sps30": c.Sensors.SPS30, "sht31": c.Sensors.SHT31, "sgp30": c.Sensors.SGP30} {
		if s.Enabled && s.UpdateRate <= 0 {
			return fail("sensors." + name + ".update_rate must be positive")
		}
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fail("mqtt.broker is required when mqtt is enabled")
	}
	if c.ConfigIndex < 0 {
		if len(c.GPIO.DIPPins) == 0 {
			return fail("gpio.dip_pins is required when config_index is negative")
		}
		// The bank is read and then partly driven low before the fan and
		// logic outputs are claimed, so it must not share their lines.
		for _, p := range c.GPIO.DIPPins {
			if p == c.GPIO.LogicPin || (c.GPIO.FanPin >= 0 && p == c.GPIO.FanPin) {
				return fail(fmt.Sprintf("gpio.dip_pins: pin %d is also the fan or logic pin", p))
			}
		}
	}
	return nil
}

// SlogLevel maps general.log_level onto a slog level, defaulting to info.
func (g GeneralConfig) SlogLevel() slog.Level {
	switch strings.ToLower(g.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
