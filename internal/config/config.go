// Package config loads runtime settings from defaults, a config file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tilestream/internal/chunk"
	"tilestream/internal/terrain"
	"tilestream/internal/tile"
	"tilestream/pkg/logger"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// EnvPrefix is prepended to environment keys: stream.radius_x is read from
// TILESTREAM_STREAM_RADIUS_X.
const EnvPrefix = "TILESTREAM"

type Settings struct {
	Chunk    ChunkSettings    `mapstructure:"chunk"`
	Stream   StreamSettings   `mapstructure:"stream"`
	Atlas    AtlasSettings    `mapstructure:"atlas"`
	Terrain  TerrainSettings  `mapstructure:"terrain"`
	Autotile AutotileSettings `mapstructure:"autotile"`
	Window   WindowSettings   `mapstructure:"window"`
	Camera   CameraSettings   `mapstructure:"camera"`
	Debug    DebugSettings    `mapstructure:"debug"`
	Log      LogSettings      `mapstructure:"log"`

	// ConfigFile is the file that was read, empty when none was found.
	ConfigFile string `mapstructure:"-"`
}

type ChunkSettings struct {
	TilesX      int `mapstructure:"tiles_x"`
	TilesY      int `mapstructure:"tiles_y"`
	TilePixelsX int `mapstructure:"tile_pixels_x"`
	TilePixelsY int `mapstructure:"tile_pixels_y"`
}

type StreamSettings struct {
	RadiusX int `mapstructure:"radius_x"`
	RadiusY int `mapstructure:"radius_y"`
}

type AtlasSettings struct {
	Path        string `mapstructure:"path"`
	TilePixelsU int    `mapstructure:"tile_pixels_u"`
	TilePixelsV int    `mapstructure:"tile_pixels_v"`
}

type TerrainSettings struct {
	Kind        string  `mapstructure:"kind"`
	Seed        int64   `mapstructure:"seed"`
	Scale       float64 `mapstructure:"scale"`
	WaterLevel  float64 `mapstructure:"water_level"`
	ForestLevel float64 `mapstructure:"forest_level"`
	CacheMB     int     `mapstructure:"cache_mb"`
}

type AutotileSettings struct {
	Layout string `mapstructure:"layout"`
}

type WindowSettings struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	VSync  bool   `mapstructure:"vsync"`
	Title  string `mapstructure:"title"`
}

type CameraSettings struct {
	Speed float64 `mapstructure:"speed"` // pixels per second
	X     float64 `mapstructure:"x"`
	Y     float64 `mapstructure:"y"`
}

type DebugSettings struct {
	Overlay bool `mapstructure:"overlay"`
}

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

var defaults = map[string]any{
	"chunk.tiles_x":        16,
	"chunk.tiles_y":        16,
	"chunk.tile_pixels_x":  32,
	"chunk.tile_pixels_y":  32,
	"stream.radius_x":      1,
	"stream.radius_y":      1,
	"atlas.path":           "resources/images/terrain16.png",
	"atlas.tile_pixels_u":  16,
	"atlas.tile_pixels_v":  16,
	"terrain.kind":         terrain.KindPattern,
	"terrain.seed":         1,
	"terrain.scale":        48.0,
	"terrain.water_level":  -0.25,
	"terrain.forest_level": 0.3,
	"terrain.cache_mb":     8,
	"autotile.layout":      string(tile.LayoutBlob),
	"window.width":         800,
	"window.height":        600,
	"window.vsync":         true,
	"window.title":         "tilestream",
	"camera.speed":         480.0,
	"camera.x":             0.0,
	"camera.y":             0.0,
	"debug.overlay":        false,
	"log.level":            "info",
	"log.format":           "text",
	"log.file":             "",
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"tiles-x":    "chunk.tiles_x",
	"tiles-y":    "chunk.tiles_y",
	"radius-x":   "stream.radius_x",
	"radius-y":   "stream.radius_y",
	"atlas":      "atlas.path",
	"terrain":    "terrain.kind",
	"seed":       "terrain.seed",
	"layout":     "autotile.layout",
	"width":      "window.width",
	"height":     "window.height",
	"vsync":      "window.vsync",
	"overlay":    "debug.overlay",
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",
}

// Flags returns the command-line flag set understood by Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("tilestream", pflag.ContinueOnError)
	fs.String("config", "", "config file (default tilestream.{yaml,json,toml} in . or $HOME/.config/tilestream)")
	fs.Int("tiles-x", 16, "tiles per chunk horizontally")
	fs.Int("tiles-y", 16, "tiles per chunk vertically")
	fs.Int("radius-x", 1, "activation radius in chunks, horizontal")
	fs.Int("radius-y", 1, "activation radius in chunks, vertical")
	fs.String("atlas", "resources/images/terrain16.png", "tile atlas image")
	fs.String("terrain", terrain.KindPattern, "terrain source: pattern or noise")
	fs.Int64("seed", 1, "terrain noise seed")
	fs.String("layout", string(tile.LayoutBlob), "autotile layout: blob or cardinal")
	fs.Int("width", 800, "window width")
	fs.Int("height", 600, "window height")
	fs.Bool("vsync", true, "wait for vertical sync")
	fs.Bool("overlay", false, "show the debug overlay at start")
	fs.String("log-level", "info", "trace, debug, info, warn or error")
	fs.String("log-format", "text", "text or json")
	fs.String("log-file", "", "also write logs to this rotating file")
	return fs
}

// Load parses args and resolves the settings. A .env file in the working
// directory is loaded first when present. pflag.ErrHelp is returned as is.
func Load(args []string) (*Settings, error) {
	_ = godotenv.Load()

	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tilestream")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tilestream")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	s.ConfigFile = v.ConfigFileUsed()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate reports every problem at once, each wrapping ErrInvalid.
func (s *Settings) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if s.Chunk.TilesX <= 0 || s.Chunk.TilesY <= 0 {
		bad("chunk tiles %dx%d must be positive", s.Chunk.TilesX, s.Chunk.TilesY)
	}
	if s.Chunk.TilePixelsX <= 0 || s.Chunk.TilePixelsY <= 0 {
		bad("chunk tile pixels %dx%d must be positive", s.Chunk.TilePixelsX, s.Chunk.TilePixelsY)
	}
	if s.Stream.RadiusX < 0 || s.Stream.RadiusY < 0 {
		bad("stream radius %dx%d must not be negative", s.Stream.RadiusX, s.Stream.RadiusY)
	}
	if s.Atlas.TilePixelsU <= 0 || s.Atlas.TilePixelsV <= 0 {
		bad("atlas tile pixels %dx%d must be positive", s.Atlas.TilePixelsU, s.Atlas.TilePixelsV)
	}
	switch s.Terrain.Kind {
	case terrain.KindPattern, terrain.KindNoise:
	default:
		bad("terrain kind %q", s.Terrain.Kind)
	}
	if s.Terrain.Kind == terrain.KindNoise && s.Terrain.Scale <= 0 {
		bad("terrain scale %v must be positive", s.Terrain.Scale)
	}
	if s.Terrain.CacheMB < 0 {
		bad("terrain cache %d MB must not be negative", s.Terrain.CacheMB)
	}
	switch tile.Layout(s.Autotile.Layout) {
	case tile.LayoutBlob, tile.LayoutCardinal:
	default:
		bad("autotile layout %q", s.Autotile.Layout)
	}
	if s.Window.Width <= 0 || s.Window.Height <= 0 {
		bad("window size %dx%d must be positive", s.Window.Width, s.Window.Height)
	}
	if s.Camera.Speed < 0 {
		bad("camera speed %v must not be negative", s.Camera.Speed)
	}
	switch strings.ToLower(s.Log.Format) {
	case "text", "json":
	default:
		bad("log format %q", s.Log.Format)
	}
	return errors.Join(errs...)
}

func (s *Settings) Layout() chunk.Layout {
	return chunk.Layout{
		TilesX:      s.Chunk.TilesX,
		TilesY:      s.Chunk.TilesY,
		TilePixelsX: s.Chunk.TilePixelsX,
		TilePixelsY: s.Chunk.TilePixelsY,
	}
}

func (s *Settings) TerrainOptions() terrain.Options {
	return terrain.Options{
		Kind:        s.Terrain.Kind,
		Seed:        s.Terrain.Seed,
		Scale:       s.Terrain.Scale,
		WaterLevel:  s.Terrain.WaterLevel,
		ForestLevel: s.Terrain.ForestLevel,
		CacheMB:     s.Terrain.CacheMB,
	}
}

func (s *Settings) LoggerOptions() logger.Options {
	return logger.Options{Level: s.Log.Level, Format: s.Log.Format, File: s.Log.File}
}
