package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/tmorelle/pourover/internal/brew"
	"github.com/tmorelle/pourover/internal/catalog"
	"github.com/tmorelle/pourover/internal/config"
	"github.com/tmorelle/pourover/internal/events"
	"github.com/tmorelle/pourover/internal/inventory"
	"github.com/tmorelle/pourover/internal/notes"
	"github.com/tmorelle/pourover/internal/notify"
	"github.com/tmorelle/pourover/internal/remote"
	"github.com/tmorelle/pourover/internal/shutdown"
	"github.com/tmorelle/pourover/internal/tui"
)

var version = "dev"

// loadConfig loads the layered configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed(FlagLogFile) {
		cfg.Paths.Log = viper.GetString(FlagLogFile)
	}
	return cfg, nil
}

// loadCatalog builds the method catalog: builtin methods merged with the
// user's catalog file, if present.
func loadCatalog(cfg *config.Config, logger *slog.Logger) (*catalog.Catalog, error) {
	cat, err := catalog.New(catalog.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("load builtin catalog: %w", err)
	}
	if err := cat.MergeFile(cfg.Paths.Catalog); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", cfg.Paths.Catalog, err)
	}
	return cat, nil
}

// sessionClient returns a control client for the running brew session,
// discovered through the session info file.
func sessionClient(cfg *config.Config) (*remote.Client, error) {
	sockPath := cfg.Paths.Socket
	if info, err := remote.ReadInfo(cfg.Paths.Session); err == nil && info.Socket != "" {
		sockPath = info.Socket
	}
	client := remote.NewClient(sockPath)
	if !client.IsRunning() {
		return nil, fmt.Errorf("no brew session running")
	}
	return client, nil
}

func main() {
	logLevel := &slog.LevelVar{}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	viper.SetEnvPrefix("POUROVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "pourover",
		Short: "A pour-over brewing companion for the terminal",
		Long: `pourover guides timed pour-over coffee brewing from the terminal.

It expands a brewing method into a precise pour/wait schedule, runs the
session clock with stage cues and countdowns, tracks your bean inventory,
and keeps a journal of every brew.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .pourover/config.yaml)")
	rootCmd.PersistentFlags().String(FlagLogFile, "", "Log file path")

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pourover %s\n", version)
		},
	}

	brewCmd := &cobra.Command{
		Use:   "brew [method-id]",
		Short: "Run a brewing session",
		Long: `Run a timed brewing session for the given method.

With a terminal attached this opens the interactive brewing screen;
--headless streams formatted events to stdout instead. While a session
runs, a second terminal can drive it with pourover status/pause/resume/reset.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if viper.GetBool(FlagVerbose) {
				logLevel.Set(slog.LevelDebug)
				logger.Debug("verbose logging enabled")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			cat, err := loadCatalog(cfg, logger)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				fmt.Println("Available methods:")
				for _, m := range cat.Methods() {
					fmt.Printf("  %-24s %s\n", m.ID, m.Name)
				}
				return fmt.Errorf("method id required")
			}

			method, ok := cat.Method(args[0])
			if !ok {
				return fmt.Errorf("unknown method %q (try: pourover methods)", args[0])
			}

			subEvents := brew.Expand(method.Stages)
			if len(subEvents) == 0 {
				return fmt.Errorf("method %q has no usable stages", method.ID)
			}

			headless := viper.GetBool(FlagHeadless)
			if !cmd.Flags().Changed(FlagHeadless) {
				headless = !term.IsTerminal(int(os.Stdout.Fd()))
			}

			if err := os.MkdirAll(filepath.Dir(cfg.Paths.Session), 0755); err != nil {
				return fmt.Errorf("create session directory: %w", err)
			}

			return runBrew(cmd.Context(), cfg, logger, logLevel, method, subEvents, headless)
		},
	}

	brewCmd.Flags().String(FlagBean, "", "Bean id to brew with (tracked in inventory)")
	brewCmd.Flags().Bool(FlagHeadless, false, "Stream events to stdout instead of the TUI")
	brewCmd.Flags().Duration(FlagPreRoll, 0, "Countdown before the first pour (overrides config)")
	brewCmd.Flags().Bool(FlagNoSound, false, "Disable sound cues for this session")
	brewCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(brewCmd)
	rootCmd.AddCommand(newMethodsCmd(logger))
	rootCmd.AddCommand(newBeansCmd(logger))
	rootCmd.AddCommand(newNotesCmd(logger))
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newPauseCmd())
	rootCmd.AddCommand(newResumeCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newInitCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// runBrew wires the session: router, sinks, stores, notifier, coordinator,
// control socket, and either the TUI or the headless event stream.
func runBrew(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	logLevel *slog.LevelVar,
	method catalog.Method,
	subEvents []brew.SubEvent,
	headless bool,
) error {
	beanID := viper.GetString(FlagBean)

	router := events.NewRouter(events.DefaultBufferSize)

	sinkCtx, sinkCancel := context.WithCancel(ctx)
	defer sinkCancel()

	logSink := events.NewLogSink(cfg.Paths.Journal)
	if err := logSink.Start(sinkCtx, router.Subscribe()); err != nil {
		router.Close()
		return fmt.Errorf("start journal sink: %w", err)
	}

	summarySink := events.NewSummarySink()
	if err := summarySink.Start(sinkCtx, router.SubscribeBuffered(events.SummaryBufferSize)); err != nil {
		router.Close()
		_ = logSink.Stop()
		return fmt.Errorf("start summary sink: %w", err)
	}

	inv, err := inventory.NewStore(
		inventory.WithDSN(cfg.Paths.DB),
		inventory.WithRouter(router),
		inventory.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("open inventory: %w", err)
	}
	defer func() { _ = inv.Close() }()

	if beanID != "" {
		if _, err := inv.GetBean(beanID); err != nil {
			return fmt.Errorf("bean %q: %w", beanID, err)
		}
	}

	noteStore, err := notes.NewStore(
		notes.WithDSN(cfg.Paths.DB),
		notes.WithRouter(router),
		notes.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() { _ = noteStore.Close() }()

	// TUI mode redirects logging to a rotating file before anything else
	// writes to stderr.
	ctrlLogger := logger
	var tuiLogResult *TUILoggerResult
	if !headless {
		tuiLogResult, err = SetupTUILogger(filepath.Dir(cfg.Paths.Log), logLevel, cfg.LogRotation)
		if err != nil {
			return err
		}
		defer func() { _ = tuiLogResult.Close() }()
		ctrlLogger = tuiLogResult.Logger
		slog.SetDefault(ctrlLogger)
	}

	soundEnabled := cfg.Sound.Enabled && !viper.GetBool(FlagNoSound)
	notifyOpts := []notify.Option{
		notify.WithSoundEnabled(soundEnabled),
		notify.WithHapticsEnabled(cfg.Haptics.Enabled),
		notify.WithHaptic(notify.NewTerminalBell()),
		notify.WithLogger(ctrlLogger),
	}
	if soundEnabled {
		player, err := notify.NewPlayer(cfg.Sound.Volume)
		if err != nil {
			ctrlLogger.Warn("audio unavailable, sound cues disabled", "error", err)
		} else {
			notifyOpts = append(notifyOpts, notify.WithSound(player))
		}
	}
	broadcaster := notify.NewBroadcaster(notifyOpts...)
	defer func() { _ = broadcaster.Close() }()

	preRoll := cfg.Session.PreRoll
	if viper.IsSet(FlagPreRoll) && viper.GetDuration(FlagPreRoll) > 0 {
		preRoll = viper.GetDuration(FlagPreRoll)
	}

	coord := brew.New(router,
		brew.WithNotifier(broadcaster),
		brew.WithLogger(ctrlLogger),
		brew.WithTickInterval(cfg.Session.TickInterval),
		brew.WithPreRoll(int(preRoll.Seconds())),
	)

	server := remote.NewServer(cfg.Paths.Socket, coord, ctrlLogger)
	serverCtx, serverCancel := context.WithCancel(ctx)
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		if err := server.Start(serverCtx); err != nil {
			ctrlLogger.Error("control server error", "error", err)
		}
	}()

	info := remote.SessionInfo{
		PID:       os.Getpid(),
		Socket:    cfg.Paths.Socket,
		MethodID:  method.ID,
		StartedAt: time.Now(),
	}
	if err := remote.WriteInfo(cfg.Paths.Session, info); err != nil {
		ctrlLogger.Warn("failed to write session info", "error", err)
	}

	plan := brew.Plan{
		MethodID:   method.ID,
		MethodName: method.Name,
		BeanID:     beanID,
		SubEvents:  subEvents,
	}

	// finish settles the inventory once the session is over. Callers must
	// run cleanup first so the summary sink has drained every event.
	finish := func() {
		summary := summarySink.Summary()
		if summary.Completed && beanID != "" && cfg.Inventory.AutoConsume && method.CoffeeGrams > 0 {
			if _, err := inv.Consume(beanID, method.CoffeeGrams); err != nil {
				ctrlLogger.Warn("auto-consume failed", "bean", beanID, "error", err)
			}
		}
	}

	// Closing the router closes the subscriber channels; the sink Stops
	// then wait until every buffered event has been applied. The sink
	// context stays live through the drain (cancelled by the deferred
	// sinkCancel), so it cannot preempt it.
	cleanup := func() {
		coord.Reset("shutdown")
		serverCancel()
		<-serverDone
		router.Close()
		_ = logSink.Stop()
		_ = summarySink.Stop()
		_ = remote.RemoveInfo(cfg.Paths.Session)
	}

	if headless {
		err := runHeadless(ctx, ctrlLogger, coord, router, plan)
		cleanup()
		finish()
		return err
	}

	tuiEvents := router.SubscribeBuffered(5000)

	saveNote := func(text string, rating int) error {
		if strings.TrimSpace(text) == "" && rating == 0 {
			return nil
		}
		// The sink applies events asynchronously; the coordinator is the
		// authority for completion at the moment the prompt is saved.
		summary := summarySink.Summary()
		if snap := coord.Snapshot(); snap.Complete {
			summary.Completed = true
			summary.ElapsedSeconds = coord.Elapsed()
		}
		if summary.MethodID == "" {
			summary.MethodID = coord.MethodID()
			summary.MethodName = coord.MethodName()
			summary.BeanID = coord.BeanID()
		}
		note := notes.FromSummary(summary, text, rating)
		_, err := noteStore.Add(note)
		return err
	}

	app := tui.New(tuiEvents,
		tui.WithController(coord),
		tui.WithNoteSaver(saveNote),
	)

	coord.Start(plan)
	tuiErr := app.Run()

	cleanup()
	finish()
	return tuiErr
}

// runHeadless streams formatted events to stdout until the brew completes
// or a signal arrives.
func runHeadless(
	ctx context.Context,
	logger *slog.Logger,
	coord *brew.Coordinator,
	router *events.Router,
	plan brew.Plan,
) error {
	stream := router.SubscribeBuffered(events.SummaryBufferSize)
	defer router.Unsubscribe(stream)

	runner := func(runCtx context.Context) error {
		coord.Start(plan)
		for {
			select {
			case <-runCtx.Done():
				return runCtx.Err()
			case event, ok := <-stream:
				if !ok {
					return nil
				}
				if line := events.FormatWithTimestamp(event); line != "" {
					fmt.Println(line)
				}
				if _, done := event.(*events.SessionCompletedEvent); done {
					return nil
				}
			}
		}
	}

	teardown := func(context.Context) error {
		coord.Reset("interrupted")
		return nil
	}

	return shutdown.Run(ctx, logger, 10*time.Second, runner, teardown)
}
