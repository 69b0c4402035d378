package config

import (
	"errors"
	"fmt"
	"os"

	"dusterilizer-go/errcode"

	"github.com/spf13/viper"
)

// Thresholds are the hazard limits of one profile. A reading equal to its
// threshold is a ratio of 1.0.
type Thresholds struct {
	PM10 float64 `mapstructure:"pm10" json:"pm10"`
	CO2  float64 `mapstructure:"co2" json:"co2"`
	VOC  float64 `mapstructure:"voc" json:"voc"`
}

// Profile is one entry of the threshold table.
type Profile struct {
	Mode  string     `mapstructure:"mode" json:"mode"`
	Thres Thresholds `mapstructure:"thres" json:"thres"`
}

// Profiles maps a config index to its profile.
type Profiles []Profile

// DefaultProfiles is used when the profile file does not exist.
var DefaultProfiles = Profiles{
	{Mode: "cleanroom", Thres: Thresholds{PM10: 10, CO2: 800, VOC: 150}},
	{Mode: "office", Thres: Thresholds{PM10: 20, CO2: 1000, VOC: 250}},
	{Mode: "residential", Thres: Thresholds{PM10: 25, CO2: 1000, VOC: 300}},
	{Mode: "classroom", Thres: Thresholds{PM10: 30, CO2: 1200, VOC: 350}},
	{Mode: "kitchen", Thres: Thresholds{PM10: 40, CO2: 1400, VOC: 500}},
	{Mode: "workshop", Thres: Thresholds{PM10: 50, CO2: 1500, VOC: 600}},
	{Mode: "woodshop", Thres: Thresholds{PM10: 100, CO2: 2000, VOC: 1000}},
	{Mode: "construction", Thres: Thresholds{PM10: 150, CO2: 2500, VOC: 1500}},
}

// LoadProfiles reads a {"config":[{mode, thres:{pm10,co2,voc}}]} table.
// An empty path or a missing file yields DefaultProfiles.
func LoadProfiles(path string) (Profiles, error) {
	if path == "" {
		return DefaultProfiles, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultProfiles, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read profiles %s: %w", path, err)
	}
	var out Profiles
	if err := v.UnmarshalKey("config", &out); err != nil {
		return nil, fmt.Errorf("decode profiles %s: %w", path, err)
	}
	if len(out) == 0 {
		return nil, errcode.New(errcode.InvalidConfig, "config.profiles", "profile table is empty")
	}
	return out, nil
}

// Select returns the profile at index, checking its thresholds.
func (p Profiles) Select(index int) (Profile, error) {
	if index < 0 || index >= len(p) {
		return Profile{}, errcode.New(errcode.InvalidConfig, "config.profiles",
			fmt.Sprintf("no profile for config index %d", index))
	}
	pr := p[index]
	if pr.Thres.PM10 <= 0 {
		return Profile{}, errcode.New(errcode.InvalidConfig, "config.profiles",
			fmt.Sprintf("profile %d: pm10 threshold must be positive", index))
	}
	return pr, nil
}
