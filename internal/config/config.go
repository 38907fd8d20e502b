package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pders01/timelines/internal/navigation"
	"github.com/pders01/timelines/internal/validation"
	"github.com/spf13/viper"
)

type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Search     SearchConfig     `mapstructure:"search"`
	Import     ImportConfig     `mapstructure:"import"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	UI         UIConfig         `mapstructure:"ui"`
	Keys       KeyConfig        `mapstructure:"keys"`
	Log        LogConfig        `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type SearchConfig struct {
	// Backend is "bleve" or "simple".
	Backend string `mapstructure:"backend"`
	Limit   int    `mapstructure:"limit"`
}

type ImportConfig struct {
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	// AllowPrivate lets the importer fetch feeds from localhost and private
	// networks.
	AllowPrivate bool `mapstructure:"allow_private"`
}

// NavigationConfig mirrors navigation.Config with TOML-friendly durations.
type NavigationConfig struct {
	DefaultScroll       float64       `mapstructure:"default_scroll"`
	MaximumScroll       float64       `mapstructure:"maximum_scroll"`
	MinScaleStep        int           `mapstructure:"min_scale_step"`
	MaxScaleStep        int           `mapstructure:"max_scale_step"`
	DecayFactor         float64       `mapstructure:"decay_factor"`
	OverscrollExponent  float64       `mapstructure:"overscroll_exponent"`
	OverscrollEpsilon   float64       `mapstructure:"overscroll_epsilon"`
	DecayInterval       time.Duration `mapstructure:"decay_interval"`
	ScaleDebounce       time.Duration `mapstructure:"scale_debounce"`
	DragThreshold       float64       `mapstructure:"drag_threshold"`
	DoubleClickWindow   time.Duration `mapstructure:"double_click_window"`
	DoubleClickDistance float64       `mapstructure:"double_click_distance"`
	// PanStep is how many columns one h/l key press pans.
	PanStep float64 `mapstructure:"pan_step"`
}

type UIConfig struct {
	Colors   UIColors `mapstructure:"colors"`
	WrapMax  int      `mapstructure:"wrap_max"`
	WrapMin  int      `mapstructure:"wrap_min"`
	Snippets int      `mapstructure:"snippet_length"`
	// Opener launches event source links; empty picks the platform default.
	Opener string `mapstructure:"opener"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type KeyConfig struct {
	Quit     string `mapstructure:"quit"`
	Back     string `mapstructure:"back"`
	Search   string `mapstructure:"search"`
	NewWorld string `mapstructure:"new_world"`
	NewEvent string `mapstructure:"new_event"`
	Articles string `mapstructure:"articles"`
	Delete   string `mapstructure:"delete"`
	Import   string `mapstructure:"import"`
	PanLeft  string `mapstructure:"pan_left"`
	PanRight string `mapstructure:"pan_right"`
	ZoomIn   string `mapstructure:"zoom_in"`
	ZoomOut  string `mapstructure:"zoom_out"`
	Help     string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

const envPrefix = "TIMELINES"

// DataDir is where the database, index and log live by default.
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".timelines")
}

// DefaultPath is the config file Load reads when no path is given.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "timelines", "config.toml")
}

func defaultConfig() *Config {
	nav := navigation.DefaultConfig()
	return &Config{
		Database: DatabaseConfig{
			Path:        filepath.Join(DataDir(), "timelines.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(DataDir(), "index.bleve"),
		},
		Search: SearchConfig{
			Backend: "bleve",
			Limit:   50,
		},
		Import: ImportConfig{
			HTTPTimeout: 30 * time.Second,
			UserAgent:   "timelines/1.0 (https://github.com/pders01/timelines)",
		},
		Navigation: NavigationConfig{
			DefaultScroll:       nav.DefaultScroll,
			MaximumScroll:       nav.MaximumScroll,
			MinScaleStep:        nav.MinScaleStep,
			MaxScaleStep:        nav.MaxScaleStep,
			DecayFactor:         nav.DecayFactor,
			OverscrollExponent:  nav.OverscrollExponent,
			OverscrollEpsilon:   nav.OverscrollEpsilon,
			DecayInterval:       nav.DecayInterval,
			ScaleDebounce:       nav.ScaleDebounce,
			DragThreshold:       nav.DragThreshold,
			DoubleClickWindow:   nav.DoubleClickWindow,
			DoubleClickDistance: nav.DoubleClickDistance,
			PanStep:             8,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			WrapMax:  120,
			WrapMin:  40,
			Snippets: 150,
		},
		Keys: KeyConfig{
			Quit:     "q",
			Back:     "esc",
			Search:   "/",
			NewWorld: "n",
			NewEvent: "n",
			Articles: "a",
			Delete:   "x",
			Import:   "i",
			PanLeft:  "h",
			PanRight: "l",
			ZoomIn:   "+",
			ZoomOut:  "-",
			Help:     "?",
		},
		Log: LogConfig{
			Level: "INFO",
			File:  filepath.Join(DataDir(), "timelines.log"),
		},
	}
}

// Engine converts the navigation section into the engine's config.
func (n NavigationConfig) Engine() navigation.Config {
	return navigation.Config{
		DefaultScroll:       n.DefaultScroll,
		MaximumScroll:       n.MaximumScroll,
		MinScaleStep:        n.MinScaleStep,
		MaxScaleStep:        n.MaxScaleStep,
		DecayFactor:         n.DecayFactor,
		OverscrollExponent:  n.OverscrollExponent,
		OverscrollEpsilon:   n.OverscrollEpsilon,
		DecayInterval:       n.DecayInterval,
		ScaleDebounce:       n.ScaleDebounce,
		DragThreshold:       n.DragThreshold,
		DoubleClickWindow:   n.DoubleClickWindow,
		DoubleClickDistance: n.DoubleClickDistance,
	}
}

// NavigationConfig returns the engine config for the timeline view.
func (c *Config) NavigationConfig() navigation.Config {
	return c.Navigation.Engine()
}

func setDefaults(v *viper.Viper, prefix string, values map[string]any) {
	for k, val := range values {
		v.SetDefault(prefix+"."+k, val)
	}
}

// Load reads configPath, or the default location when it is empty, on top
// of the built-in defaults. TIMELINES_* environment variables override both,
// e.g. TIMELINES_DATABASE_PATH.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	for section, values := range sections(defaultConfig()) {
		setDefaults(v, section, values)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := expandPaths(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.NavigationConfig().Validate(); err != nil {
		return nil, fmt.Errorf("navigation section: %w", err)
	}

	return &cfg, nil
}

func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	path, err := validation.ExpandHome(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return path, nil
}

func expandPaths(cfg *Config) error {
	for _, p := range []*string{&cfg.Database.Path, &cfg.Database.SearchIndex, &cfg.Log.File} {
		expanded, err := expandPath(*p)
		if err != nil {
			return fmt.Errorf("expanding %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// sections flattens cfg into per-section maps. Durations are written as
// strings so the TOML stays readable.
func sections(cfg *Config) map[string]map[string]any {
	n := cfg.Navigation
	c := cfg.UI.Colors
	k := cfg.Keys
	return map[string]map[string]any{
		"database": {
			"path":         cfg.Database.Path,
			"timeout":      cfg.Database.Timeout.String(),
			"search_index": cfg.Database.SearchIndex,
		},
		"search": {
			"backend": cfg.Search.Backend,
			"limit":   cfg.Search.Limit,
		},
		"import": {
			"http_timeout":  cfg.Import.HTTPTimeout.String(),
			"user_agent":    cfg.Import.UserAgent,
			"allow_private": cfg.Import.AllowPrivate,
		},
		"navigation": {
			"default_scroll":        n.DefaultScroll,
			"maximum_scroll":        n.MaximumScroll,
			"min_scale_step":        n.MinScaleStep,
			"max_scale_step":        n.MaxScaleStep,
			"decay_factor":          n.DecayFactor,
			"overscroll_exponent":   n.OverscrollExponent,
			"overscroll_epsilon":    n.OverscrollEpsilon,
			"decay_interval":        n.DecayInterval.String(),
			"scale_debounce":        n.ScaleDebounce.String(),
			"drag_threshold":        n.DragThreshold,
			"double_click_window":   n.DoubleClickWindow.String(),
			"double_click_distance": n.DoubleClickDistance,
			"pan_step":              n.PanStep,
		},
		"ui": {
			"wrap_max":       cfg.UI.WrapMax,
			"wrap_min":       cfg.UI.WrapMin,
			"snippet_length": cfg.UI.Snippets,
			"opener":         cfg.UI.Opener,
			"colors": map[string]any{
				"primary":    c.Primary,
				"secondary":  c.Secondary,
				"accent":     c.Accent,
				"background": c.Background,
				"surface":    c.Surface,
				"text":       c.Text,
				"muted":      c.Muted,
				"error":      c.Error,
				"success":    c.Success,
			},
		},
		"keys": {
			"quit":      k.Quit,
			"back":      k.Back,
			"search":    k.Search,
			"new_world": k.NewWorld,
			"new_event": k.NewEvent,
			"articles":  k.Articles,
			"delete":    k.Delete,
			"import":    k.Import,
			"pan_left":  k.PanLeft,
			"pan_right": k.PanRight,
			"zoom_in":   k.ZoomIn,
			"zoom_out":  k.ZoomOut,
			"help":      k.Help,
		},
		"log": {
			"level": cfg.Log.Level,
			"file":  cfg.Log.File,
		},
	}
}

func Save(config *Config, path string) error {
	v := viper.New()
	for section, values := range sections(config) {
		v.Set(section, values)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
