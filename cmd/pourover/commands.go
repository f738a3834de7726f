package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tmorelle/pourover/internal/brew"
	"github.com/tmorelle/pourover/internal/config"
	"github.com/tmorelle/pourover/internal/events"
	"github.com/tmorelle/pourover/internal/inventory"
	"github.com/tmorelle/pourover/internal/notes"
)

// openInventory opens the bean store for CLI commands. No event router is
// wired; CLI mutations do not need a live feed.
func openInventory(cfg *config.Config, logger *slog.Logger) (*inventory.Store, error) {
	return inventory.NewStore(
		inventory.WithDSN(cfg.Paths.DB),
		inventory.WithLogger(logger),
	)
}

func newMethodsCmd(logger *slog.Logger) *cobra.Command {
	methodsCmd := &cobra.Command{
		Use:   "methods",
		Short: "List available brewing methods",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg, logger)
			if err != nil {
				return err
			}

			fmt.Printf("%-24s %-28s %6s %7s %7s\n", "ID", "NAME", "STAGES", "TIME", "WATER")
			for _, m := range cat.Methods() {
				fmt.Printf("%-24s %-28s %6d %7s %6.0fg\n",
					m.ID, m.Name, len(m.Stages),
					events.FormatClock(float64(m.TotalSeconds())), m.TotalWater())
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a method's expanded pour plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg, logger)
			if err != nil {
				return err
			}
			method, ok := cat.Method(args[0])
			if !ok {
				return fmt.Errorf("unknown method %q (try: pourover methods)", args[0])
			}

			fmt.Printf("%s (%s)\n", method.Name, method.ID)
			if method.CoffeeGrams > 0 {
				dose := fmt.Sprintf("%.0fg coffee", method.CoffeeGrams)
				if method.Ratio > 0 {
					dose += fmt.Sprintf(", 1:%.0f", method.Ratio)
				}
				fmt.Printf("  %s\n", dose)
			}
			if method.Grind != "" {
				fmt.Printf("  grind: %s\n", method.Grind)
			}
			if method.WaterTempC > 0 {
				fmt.Printf("  water: %.0f C\n", method.WaterTempC)
			}
			fmt.Println()

			fmt.Printf("%-5s %-6s %-13s %7s  %s\n", "STAGE", "KIND", "WINDOW", "WATER", "DETAIL")
			for _, ev := range brew.Expand(method.Stages) {
				window := fmt.Sprintf("%s-%s",
					events.FormatClock(float64(ev.StartOffset)),
					events.FormatClock(float64(ev.EndOffset)))
				water := "-"
				if ev.Kind == brew.KindPour {
					water = fmt.Sprintf("%.0fg", ev.TargetWater)
				}
				detail := ev.Detail
				if ev.ValveState != brew.ValveNone {
					detail += fmt.Sprintf(" [valve %s]", ev.ValveState)
				}
				fmt.Printf("%5d %-6s %-13s %7s  %s\n",
					ev.SourceStage+1, ev.Kind, window, water, detail)
			}
			return nil
		},
	}

	methodsCmd.AddCommand(showCmd)
	return methodsCmd
}

func newBeansCmd(logger *slog.Logger) *cobra.Command {
	beansCmd := &cobra.Command{
		Use:   "beans",
		Short: "Manage the bean inventory",
	}

	addCmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add a bean to the inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openInventory(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			bean := inventory.Bean{
				ID:      args[0],
				Name:    viper.GetString(FlagName),
				Roaster: viper.GetString(FlagRoaster),
				Origin:  viper.GetString(FlagOrigin),
				WeightG: viper.GetFloat64(FlagWeight),
			}
			if bean.Name == "" {
				bean.Name = bean.ID
			}
			if raw := viper.GetString(FlagRoastDate); raw != "" {
				date, err := time.Parse("2006-01-02", raw)
				if err != nil {
					return fmt.Errorf("parse roast date %q (want YYYY-MM-DD): %w", raw, err)
				}
				bean.RoastDate = &date
			}

			if err := store.AddBean(bean); err != nil {
				return err
			}
			fmt.Printf("Added %s (%.0fg)\n", bean.ID, bean.WeightG)
			return nil
		},
	}
	addCmd.Flags().String(FlagName, "", "Display name")
	addCmd.Flags().String(FlagRoaster, "", "Roaster name")
	addCmd.Flags().String(FlagOrigin, "", "Origin")
	addCmd.Flags().Float64(FlagWeight, 250, "Bag weight in grams")
	addCmd.Flags().String(FlagRoastDate, "", "Roast date (YYYY-MM-DD)")
	addCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List beans with remaining weight",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openInventory(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			beans, err := store.ListBeans()
			if err != nil {
				return err
			}
			if len(beans) == 0 {
				fmt.Println("No beans yet (pourover beans add <id> --weight 250)")
				return nil
			}

			fmt.Printf("%-16s %-20s %9s %7s %6s\n", "ID", "NAME", "REMAINING", "ROASTED", "RATING")
			for _, b := range beans {
				roasted := "-"
				if days := b.DaysSinceRoast(time.Now()); days >= 0 {
					roasted = fmt.Sprintf("%dd", days)
				}
				rating := "-"
				if b.Rating > 0 {
					rating = strings.Repeat("*", b.Rating)
				}
				flag := ""
				if b.RemainingG < cfg.Inventory.LowStockG {
					flag = "  (low)"
				}
				fmt.Printf("%-16s %-20s %8.0fg %7s %6s%s\n",
					b.ID, b.Name, b.RemainingG, roasted, rating, flag)
			}
			return nil
		},
	}

	rateCmd := &cobra.Command{
		Use:   "rate <id> <1-5>",
		Short: "Rate a bean",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parse rating %q: %w", args[1], err)
			}
			store, err := openInventory(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Rate(args[0], rating); err != nil {
				return err
			}
			fmt.Printf("Rated %s\n", args[0])
			return nil
		},
	}

	useCmd := &cobra.Command{
		Use:   "use <id> <grams>",
		Short: "Deduct grams from a bean",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			grams, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("parse grams %q: %w", args[1], err)
			}
			store, err := openInventory(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			bean, err := store.Consume(args[0], grams)
			if err != nil {
				return err
			}
			fmt.Printf("Used %.0fg of %s (%.0fg left)\n", grams, bean.ID, bean.RemainingG)
			return nil
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show inventory statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openInventory(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.Stats()
			if err != nil {
				return err
			}
			fmt.Printf("Beans: %d\n", stats.BeanCount)
			fmt.Printf("Remaining: %.0fg\n", stats.TotalRemainingG)
			fmt.Printf("Consumed: %.0fg\n", stats.TotalConsumedG)
			if stats.RatedCount > 0 {
				fmt.Printf("Average rating: %.1f/5 (%d rated)\n", stats.AverageRating, stats.RatedCount)
			}
			return nil
		},
	}

	beansCmd.AddCommand(addCmd, listCmd, rateCmd, useCmd, statsCmd)
	return beansCmd
}

func newNotesCmd(logger *slog.Logger) *cobra.Command {
	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "Browse and record brew notes",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a brew note",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := notes.NewStore(
				notes.WithDSN(cfg.Paths.DB),
				notes.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			note := notes.BrewNote{
				MethodID: viper.GetString(FlagMethod),
				BeanID:   viper.GetString(FlagBean),
				Rating:   viper.GetInt(FlagRating),
				Text:     viper.GetString(FlagText),
			}
			id, err := store.Add(note)
			if err != nil {
				return err
			}
			fmt.Printf("Recorded note %d\n", id)
			return nil
		},
	}
	addCmd.Flags().String(FlagMethod, "", "Method id the note is about")
	addCmd.Flags().String(FlagBean, "", "Bean id used")
	addCmd.Flags().Int(FlagRating, 0, "Rating 1-5 (0 = unrated)")
	addCmd.Flags().String(FlagText, "", "Note text")
	addCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent brew notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := notes.NewStore(
				notes.WithDSN(cfg.Paths.DB),
				notes.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			list, err := store.List(viper.GetInt(FlagCount))
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No notes yet")
				return nil
			}

			for _, n := range list {
				rating := ""
				if n.Rating > 0 {
					rating = " " + strings.Repeat("*", n.Rating)
				}
				fmt.Printf("[%s] %s%s\n", n.CreatedAt.Format("2006-01-02 15:04"), n.MethodID, rating)
				if n.Text != "" {
					fmt.Printf("  %s\n", events.Truncate(n.Text, 120))
				}
			}
			return nil
		},
	}
	listCmd.Flags().Int(FlagCount, 10, "Number of notes to show (0 = all)")
	listCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	notesCmd.AddCommand(addCmd, listCmd)
	return notesCmd
}

func newStatusCmd() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running brew session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := sessionClient(cfg)
			if err != nil {
				return err
			}

			status, err := client.Status()
			if err != nil {
				return err
			}

			if viper.GetBool(FlagJSON) {
				data, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal status: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Status: %s\n", status.Status)
			if status.MethodName != "" {
				fmt.Printf("Method: %s (%s)\n", status.MethodName, status.MethodID)
			}
			if status.BeanID != "" {
				fmt.Printf("Bean: %s\n", status.BeanID)
			}
			if status.Status != "idle" {
				fmt.Printf("Elapsed: %s\n", events.FormatClock(status.ElapsedSeconds))
				if status.CurrentStage >= 0 {
					fmt.Printf("Stage: %d (%.0f%%)\n", status.CurrentStage+1, status.Progress*100)
				}
				if status.CountdownRemaining != nil {
					fmt.Printf("Countdown: %d\n", *status.CountdownRemaining)
				}
			}
			fmt.Printf("Uptime: %s\n", status.Uptime)
			return nil
		},
	}
	statusCmd.Flags().Bool(FlagJSON, false, "Output status as JSON")
	_ = viper.BindPFlag(FlagJSON, statusCmd.Flags().Lookup(FlagJSON))
	return statusCmd
}

func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the running brew session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := sessionClient(cfg)
			if err != nil {
				return err
			}
			if err := client.Pause(); err != nil {
				return err
			}
			fmt.Println("Paused")
			return nil
		},
	}
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused brew session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := sessionClient(cfg)
			if err != nil {
				return err
			}
			if err := client.Resume(); err != nil {
				return err
			}
			fmt.Println("Resumed")
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Abandon the running brew session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := sessionClient(cfg)
			if err != nil {
				return err
			}
			if err := client.Reset(viper.GetString(FlagReason)); err != nil {
				return err
			}
			fmt.Println("Session reset")
			return nil
		},
	}
	resetCmd.Flags().String(FlagReason, "remote reset", "Reason recorded in the journal")
	_ = viper.BindPFlag(FlagReason, resetCmd.Flags().Lookup(FlagReason))
	return resetCmd
}

func newEventsCmd() *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "View the brew journal event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if viper.GetBool(FlagFollow) {
				return tailFollow(cmd.Context(), cfg.Paths.Journal)
			}
			return tailLast(cfg.Paths.Journal, viper.GetInt(FlagCount))
		},
	}
	eventsCmd.Flags().BoolP(FlagFollow, "f", false, "Follow the event stream (like tail -f)")
	eventsCmd.Flags().IntP(FlagCount, "n", 20, "Number of recent events to show")
	eventsCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})
	return eventsCmd
}

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config and example method file",
		RunE: func(cmd *cobra.Command, args []string) error {
			force := viper.GetBool(FlagForce)

			if err := os.MkdirAll(config.ProjectConfigDir, 0755); err != nil {
				return fmt.Errorf("create %s: %w", config.ProjectConfigDir, err)
			}

			configPath := filepath.Join(config.ProjectConfigDir, "config.yaml")
			if err := writeStarterFile(configPath, starterConfig(), force); err != nil {
				return err
			}

			catalogPath := filepath.Join(config.ProjectConfigDir, "methods.yaml")
			if err := writeStarterFile(catalogPath, []byte(exampleMethods), force); err != nil {
				return err
			}

			fmt.Printf("Initialized %s/\n", config.ProjectConfigDir)
			fmt.Printf("  %s\n", configPath)
			fmt.Printf("  %s\n", catalogPath)
			return nil
		},
	}
	initCmd.Flags().Bool(FlagForce, false, "Overwrite existing files")
	_ = viper.BindPFlag(FlagForce, initCmd.Flags().Lookup(FlagForce))
	return initCmd
}

// starterConfig renders the default configuration as YAML.
func starterConfig() []byte {
	data, err := yaml.Marshal(config.Default())
	if err != nil {
		// Defaults always marshal; this is unreachable.
		return nil
	}
	return data
}

// writeStarterFile writes data to path unless it already exists.
func writeStarterFile(path string, data []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("  %s exists, skipping (use --force to overwrite)\n", path)
			return nil
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// exampleMethods is the starter user catalog written by init.
const exampleMethods = `# Custom brewing methods. Entries here are merged with the builtin
# catalog; a method with a builtin id replaces it.
equipment:
  - id: my-cone
    name: My Cone
    pour_animation: cone

methods:
  - id: my-daily
    name: My Daily Pour Over
    equipment: my-cone
    coffee_grams: 18
    ratio: 16
    stages:
      - end: 30
        pour: 12
        label: bloom
        water: 45
        pour_type: center
      - end: 75
        pour: 25
        label: first pour
        water: 150
        pour_type: circle
      - end: 120
        pour: 25
        label: second pour
        water: 288
        pour_type: circle
`

// tailLast reads and prints the last n lines of the journal.
func tailLast(path string, n int) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No events yet (journal does not exist)")
			return nil
		}
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	if len(lines) == 0 {
		fmt.Println("No events yet")
		return nil
	}

	start := 0
	if len(lines) > n {
		start = len(lines) - n
	}
	for _, line := range lines[start:] {
		printEventLine(line)
	}
	return nil
}

// tailFollow follows the journal and prints new lines as they appear.
func tailFollow(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("open journal: %w", err)
		}
		fmt.Println("Waiting for journal to be created...")
		file, err = waitForFile(ctx, path)
		if err != nil {
			return err
		}
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}

	fmt.Println("Following events (Ctrl+C to stop)...")
	reader := bufio.NewReader(file)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					time.Sleep(100 * time.Millisecond)
					continue
				}
				return fmt.Errorf("read journal: %w", err)
			}
			printEventLine(strings.TrimSuffix(line, "\n"))
		}
	}
}

// waitForFile polls until the file exists and returns it opened.
func waitForFile(ctx context.Context, path string) (*os.File, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
			file, err := os.Open(path)
			if err == nil {
				return file, nil
			}
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("open journal: %w", err)
			}
		}
	}
}

// printEventLine prints a single journal line in a human-readable format.
func printEventLine(line string) {
	var event map[string]interface{}
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		fmt.Println(line)
		return
	}

	timestamp := ""
	if ts, ok := event["timestamp"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			timestamp = t.Format("15:04:05")
		} else {
			timestamp = ts
		}
	}

	eventType := ""
	if t, ok := event["type"].(string); ok {
		eventType = t
	}

	var detail string
	switch eventType {
	case string(events.EventSessionStarted):
		if name, ok := event["method_name"].(string); ok {
			detail = name
		}
	case string(events.EventStageChanged):
		if label, ok := event["label"].(string); ok {
			detail = label
		}
	case string(events.EventCountdownTick):
		if r, ok := event["remaining_s"].(float64); ok {
			detail = strconv.Itoa(int(r))
		}
	case string(events.EventSessionCompleted), string(events.EventSessionPaused), string(events.EventSessionResumed):
		if s, ok := event["elapsed_s"].(float64); ok {
			detail = events.FormatClock(s)
		}
	case string(events.EventSessionReset):
		if reason, ok := event["reason"].(string); ok {
			detail = reason
		}
	case string(events.EventError):
		if msg, ok := event["message"].(string); ok {
			detail = msg
		}
	}

	if detail != "" {
		fmt.Printf("[%s] %s: %s\n", timestamp, eventType, detail)
	} else {
		fmt.Printf("[%s] %s\n", timestamp, eventType)
	}
}
