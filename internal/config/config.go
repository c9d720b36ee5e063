// Package config parses process-wide configuration the same way the
// teacher's internal/config does: a flag.FlagSet-backed struct with an
// env-var override for the data directory.
package config

import (
	"flag"
	"os"
	"path/filepath"
)

// Config holds the settings the clawdaw CLI needs regardless of which
// sub-command is invoked.
type Config struct {
	DataDir    string
	LogLevel   string
	SoundFont  string
	SampleRate int
	MediaTool  string // path/name of the external media tool binary (ffmpeg-shaped)
	SFRenderer string // path/name of the external SoundFont renderer binary
}

// Parse parses args into a Config using fs, so sub-commands can layer their
// own flags onto the same FlagSet before calling Parse.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}

	fs.StringVar(&cfg.DataDir, "data-dir", defaultDataDir(), "data directory for presets and caches")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.SoundFont, "soundfont", "", "path to a .sf2 SoundFont for synthless tracks")
	fs.IntVar(&cfg.SampleRate, "sample-rate", 44100, "render sample rate in Hz")
	fs.StringVar(&cfg.MediaTool, "media-tool", "ffmpeg", "external media tool binary")
	fs.StringVar(&cfg.SFRenderer, "sf-renderer", "fluidsynth", "external SoundFont renderer binary")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultDataDir() string {
	if dir := os.Getenv("CLAWDAW_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clawdaw"
	}
	return filepath.Join(home, ".clawdaw")
}
