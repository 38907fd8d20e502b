package main

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/timelines/internal/config"
	"github.com/pders01/timelines/internal/debuglog"
	"github.com/pders01/timelines/internal/search"
	"github.com/pders01/timelines/internal/storage"
	"github.com/pders01/timelines/internal/tui"
)

var (
	configPath string
	dbPath     string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "timelines",
	Short:         "Build worlds and explore their history on a zoomable timeline",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		app := tui.NewApp(env.store, env.cfg, env.searcher)
		defer app.Close()

		p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running UI: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: DEBUG, INFO, WARN, ERROR or OFF (overrides config)")

	rootCmd.AddCommand(versionCmd, configCmd, worldCmd, importFeedCmd, exportCmd, importCmd)
}

// env bundles what every data command needs.
type env struct {
	cfg      *config.Config
	store    *storage.Store
	searcher search.Searcher
}

func openEnv() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, err
	}

	store, err := storage.NewStoreWithTimeout(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		debuglog.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	debuglog.Infof("opened %s", cfg.Database.Path)

	return &env{cfg: cfg, store: store, searcher: search.New(store, cfg)}, nil
}

func (e *env) Close() {
	if c, ok := e.searcher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			debuglog.Warnf("closing search index: %v", err)
		}
	}
	if err := e.store.Close(); err != nil {
		debuglog.Warnf("closing database: %v", err)
	}
	debuglog.Close()
}

// findWorld resolves a world by ID, or by name ignoring case.
func findWorld(store *storage.Store, ref string) (*storage.World, error) {
	if w, err := store.GetWorld(ref); err == nil {
		return w, nil
	}
	worlds, err := store.GetAllWorlds()
	if err != nil {
		return nil, err
	}
	var found *storage.World
	for _, w := range worlds {
		if strings.EqualFold(w.Name, ref) {
			if found != nil {
				return nil, fmt.Errorf("more than one world is named %q, use its id", ref)
			}
			found = w
		}
	}
	if found == nil {
		return nil, fmt.Errorf("no world matches %q", ref)
	}
	return found, nil
}
