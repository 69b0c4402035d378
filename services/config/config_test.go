package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dusterilizer-go/errcode"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.General.LogLevel)
	assert.Equal(t, DefaultConfigIndex, cfg.ConfigIndex)
	assert.Equal(t, 5, cfg.ConfigIndex)
	assert.Equal(t, 14, cfg.Display.NumLEDs)
	assert.Equal(t, 1500*time.Millisecond, cfg.Display.UpdateRate)
	assert.Equal(t, 60, cfg.Display.PulseSteps)
	assert.Equal(t, 2*time.Second, cfg.Display.Splash)
	assert.Equal(t, 20*time.Millisecond, cfg.I2C.Settle)
	assert.Equal(t, []int{36, 39, 34, 35, 32, 33, 15, 16}, cfg.GPIO.DIPPins)
	assert.True(t, cfg.Sensors.SPS30.Enabled)
	assert.True(t, cfg.Sensors.SHT31.Enabled)
	assert.False(t, cfg.Sensors.SGP30.Enabled)
	assert.Equal(t, "tcp://192.168.50.100:1883", cfg.MQTT.Broker)
	assert.True(t, strings.HasPrefix(cfg.MQTT.ClientID, "dusterilizer_"))
	assert.False(t, cfg.Publish.Climate)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dusterilizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
general:
  log_level: debug
config_index: 3
display:
  num_leds: 10
  update_rate: 500ms
mqtt:
  client_id: bench
publish:
  climate: true
`), 0o644))

	t.Setenv("DUSTERILIZER_DISPLAY_NUM_LEDS", "12")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse([]string{"--config", path, "--config-index", "6"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.General.LogLevel)
	assert.Equal(t, 6, cfg.ConfigIndex, "flag beats file")
	assert.Equal(t, 12, cfg.Display.NumLEDs, "env beats file")
	assert.Equal(t, 500*time.Millisecond, cfg.Display.UpdateRate)
	assert.Equal(t, "bench", cfg.MQTT.ClientID)
	assert.True(t, cfg.Publish.Climate)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}))
	_, err := Load(fs)
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("DUSTERILIZER_DISPLAY_NUM_LEDS", "0")
	_, err := Load(nil)
	require.Error(t, err)
	assert.Equal(t, errcode.InvalidConfig, errcode.Of(err))
}

func TestLoad_DefaultsSelectAProfile(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	pr, err := DefaultProfiles.Select(cfg.ConfigIndex)
	require.NoError(t, err)
	assert.Equal(t, "workshop", pr.Mode)
}

func TestValidate_DIPPinsMustNotOverlapOutputs(t *testing.T) {
	t.Setenv("DUSTERILIZER_CONFIG_INDEX", "-1")
	_, err := Load(nil)
	require.Error(t, err, "default dip pins include the fan and logic pins")
	assert.Equal(t, errcode.InvalidConfig, errcode.Of(err))
	assert.ErrorContains(t, err, "pin 32")

	t.Setenv("DUSTERILIZER_GPIO_FAN_PIN", "-1")
	t.Setenv("DUSTERILIZER_GPIO_LOGIC_PIN", "17")
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, IndexFromDIP, cfg.ConfigIndex)
}

func TestLoadProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"config":[
		{"mode":"a","thres":{"pm10":50,"co2":1000,"voc":200}},
		{"mode":"b","thres":{"pm10":0,"co2":1000,"voc":200}}
	]}`), 0o644))

	p, err := LoadProfiles(path)
	require.NoError(t, err)
	require.Len(t, p, 2)

	pr, err := p.Select(0)
	require.NoError(t, err)
	assert.Equal(t, "a", pr.Mode)
	assert.Equal(t, Thresholds{PM10: 50, CO2: 1000, VOC: 200}, pr.Thres)

	_, err = p.Select(1)
	assert.Equal(t, errcode.InvalidConfig, errcode.Of(err))
	_, err = p.Select(7)
	assert.Equal(t, errcode.InvalidConfig, errcode.Of(err))
}

func TestLoadProfiles_MissingFileUsesDefaults(t *testing.T) {
	p, err := LoadProfiles(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultProfiles, p)

	pr, err := p.Select(5)
	require.NoError(t, err)
	assert.Equal(t, "workshop", pr.Mode)
}
