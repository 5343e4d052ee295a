// Package config loads and holds the host application's configuration:
// window/video presentation, input key mapping, and emulation policy.
// A missing file falls back to defaults rather than failing startup; a
// file that cannot be read or parsed, or fails validation, is an error.
package config

import (
	"encoding/json"
	"os"
)

// Config holds all host application configuration.
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Paths     PathsConfig     `json:"paths"`
}

// WindowConfig controls the host window.
type WindowConfig struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
	Scale      int  `json:"scale"`
}

// VideoConfig controls frame presentation.
type VideoConfig struct {
	VSync       bool    `json:"vsync"`
	AspectRatio string  `json:"aspect_ratio"` // "4:3", "stretch"
	Filter      string  `json:"filter"`       // "nearest", "linear"
	Backend     string  `json:"backend"`      // "ebitengine", "headless", "terminal"
	Brightness  float32 `json:"brightness"`
	Contrast    float32 `json:"contrast"`
	Saturation  float32 `json:"saturation"`
}

// InputConfig carries keyboard mappings for both controller ports.
type InputConfig struct {
	Player1Keys KeyMapping `json:"player1_keys"`
	Player2Keys KeyMapping `json:"player2_keys"`
}

// KeyMapping maps NES buttons to host key names.
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// EmulationConfig carries policy decisions the core needs but the
// cartridge/ROM doesn't dictate on its own.
type EmulationConfig struct {
	Region              string `json:"region"`                // "NTSC" only; PAL is rejected at load
	IllegalOpcodePolicy string `json:"illegal_opcode_policy"`  // "nop" or "halt"
	FrameCap            int    `json:"frame_cap"`              // 0 = unbounded; used by scripted/headless runs
}

// PathsConfig carries filesystem locations the host reads ROMs from.
type PathsConfig struct {
	ROMs string `json:"roms"`
}

// Default returns the zero-config startup configuration.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  512,
			Height: 480,
			Scale:  2,
		},
		Video: VideoConfig{
			VSync:       true,
			AspectRatio: "4:3",
			Filter:      "nearest",
			Backend:     "ebitengine",
			Brightness:  1.0,
			Contrast:    1.0,
			Saturation:  1.0,
		},
		Input: InputConfig{
			Player1Keys: KeyMapping{
				Up: "W", Down: "S", Left: "A", Right: "D",
				A: "J", B: "K", Start: "Return", Select: "Space",
			},
			Player2Keys: KeyMapping{
				Up: "Up", Down: "Down", Left: "Left", Right: "Right",
				A: "N", B: "M", Start: "RShift", Select: "RCtrl",
			},
		},
		Emulation: EmulationConfig{
			Region:              "NTSC",
			IllegalOpcodePolicy: "nop",
			FrameCap:            0,
		},
		Paths: PathsConfig{
			ROMs: "roms",
		},
	}
}

// Load reads a JSON configuration file and overlays it onto the
// defaults. A missing file is not an error: Load returns the defaults
// unchanged so a fresh checkout runs with no config file present.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

// validate rejects configuration combinations the core can't run,
// notably PAL timing, which nothing in this implementation supports.
func (c *Config) validate() error {
	if c.Emulation.Region != "NTSC" {
		return &ConfigError{Field: "emulation.region", Reason: "only NTSC timing is supported"}
	}
	switch c.Emulation.IllegalOpcodePolicy {
	case "nop", "halt":
	default:
		return &ConfigError{Field: "emulation.illegal_opcode_policy", Reason: "must be \"nop\" or \"halt\""}
	}
	return nil
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string { return e.Field + ": " + e.Reason }

// Save writes the configuration back to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
