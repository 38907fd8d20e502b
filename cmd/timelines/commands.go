package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pders01/timelines/internal/calendar"
	"github.com/pders01/timelines/internal/config"
	"github.com/pders01/timelines/internal/exchange"
	"github.com/pders01/timelines/internal/importer"
	"github.com/pders01/timelines/internal/search"
	"github.com/pders01/timelines/internal/storage"
	"github.com/pders01/timelines/internal/tui"
	"github.com/pders01/timelines/internal/validation"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, tui.Banner(Version))
		fmt.Fprintf(out, "%s %s\n", tui.AppName, Version)
		fmt.Fprintln(out, "github.com/pders01/timelines")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			return fmt.Errorf("generating config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
		return nil
	},
}

var worldCmd = &cobra.Command{
	Use:   "world",
	Short: "Create and list worlds",
}

var worldCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a world",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		calName, _ := cmd.Flags().GetString("calendar")
		origin, _ := cmd.Flags().GetInt64("origin")
		desc, _ := cmd.Flags().GetString("description")

		if _, err := calendar.Lookup(calName); err != nil {
			return err
		}
		name := strings.TrimSpace(args[0])
		if name == "" {
			return fmt.Errorf("world name cannot be empty")
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		world := &storage.World{Name: name, Description: desc, Calendar: calName, TimeOrigin: origin}
		if err := e.store.SaveWorld(world); err != nil {
			return fmt.Errorf("creating world: %w", err)
		}
		search.Notify(e.searcher, world.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Created world '%s' (%s calendar) %s\n", world.Name, world.Calendar, world.ID)
		return nil
	},
}

var worldListCmd = &cobra.Command{
	Use:   "list",
	Short: "List worlds",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		worlds, err := e.store.GetAllWorlds()
		if err != nil {
			return err
		}
		if len(worlds) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No worlds yet")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCALENDAR\tEVENTS")
		for _, w := range worlds {
			events, err := e.store.GetEvents(w.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", w.ID, w.Name, w.Calendar, len(events))
		}
		return tw.Flush()
	},
}

var importFeedCmd = &cobra.Command{
	Use:   "import-feed WORLD URL",
	Short: "Import an RSS or Atom feed as events of a world",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		world, err := findWorld(e.store, args[0])
		if err != nil {
			return err
		}
		m := importer.NewManager(e.store, e.cfg)
		m.SetSearcher(e.searcher)
		m.SetForceRefresh(force)

		ctx := cmd.Context()
		if t := e.cfg.Import.HTTPTimeout; t > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, 2*t)
			defer cancel()
		}
		res, err := m.ImportFeed(ctx, world.ID, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.MsgImportSummary(res.Title, res.Events, res.Skipped, res.NotModified))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export WORLD",
	Short: "Write a world as a TOML document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, _ := cmd.Flags().GetString("out")

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		world, err := findWorld(e.store, args[0])
		if err != nil {
			return err
		}
		if outPath == "" {
			return exchange.Export(e.store, world.ID, cmd.OutOrStdout())
		}

		path, err := validation.NewFilePathValidator().ValidateFile(outPath)
		if err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		if err := exchange.Export(e.store, world.ID, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported '%s' to %s\n", world.Name, path)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Load a world from a TOML document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := validation.NewFilePathValidator().ValidateFile(args[0])
		if err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		world, err := exchange.Import(e.store, f)
		if err != nil {
			return err
		}
		search.Notify(e.searcher, world.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported world '%s' %s\n", world.Name, world.ID)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGenCmd)

	worldCreateCmd.Flags().String("calendar", "countup", "Calendar: "+strings.Join(calendar.Names(), ", "))
	worldCreateCmd.Flags().Int64("origin", 0, "Minutes the world's time 0 is offset by")
	worldCreateCmd.Flags().String("description", "", "Short description")
	worldCmd.AddCommand(worldCreateCmd, worldListCmd)

	importFeedCmd.Flags().Bool("force", false, "Ignore cached ETag and Last-Modified headers")
	exportCmd.Flags().StringP("out", "o", "", "Write to this file instead of stdout")
}
