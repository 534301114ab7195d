package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bnema/niri-spacer/internal/config"
	"github.com/bnema/niri-spacer/internal/logger"
	"github.com/bnema/niri-spacer/internal/session"
	"github.com/bnema/niri-spacer/internal/spacer"
)

// statusInterval paces the periodic heartbeat while running resident.
const statusInterval = 5 * time.Minute

var (
	flagVerbose            bool
	flagDebug              bool
	flagConfig             string
	flagStartWorkspace     uint64
	flagNativeColor        string
	flagCorrelationTimeout int
	flagDebugNative        bool
	flagOneShot            bool
)

var rootCmd = &cobra.Command{
	Use:   "niri-spacer [count]",
	Short: "niri-spacer - workspace spacer windows for niri",
	Long: `niri-spacer creates small native Wayland windows and parks one on each
of a run of niri workspaces, pinned to the first column. The spacers keep
otherwise empty workspaces alive so the scrolling layout stays predictable.

The windows live in this process: keep it running, and stop it (Ctrl+C)
to remove them again.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runRoot,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "debug output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path")

	rootCmd.Flags().Uint64VarP(&flagStartWorkspace, "start-workspace", "s", 0, "first workspace index (0 = pick automatically)")
	rootCmd.Flags().StringVar(&flagNativeColor, "native-color", "", "spacer background color, hex RGB")
	rootCmd.Flags().IntVar(&flagCorrelationTimeout, "correlation-timeout", 0, "window correlation timeout in milliseconds")
	rootCmd.Flags().BoolVar(&flagDebugNative, "debug-native", false, "log Wayland backend internals")
	rootCmd.Flags().BoolVar(&flagOneShot, "one-shot", false, "exit after creating the spacers instead of staying resident")
}

// setupConfig loads the config file and folds the global flags in.
func setupConfig() (*config.Config, error) {
	if flagConfig != "" {
		config.SetConfigPath(flagConfig)
	}
	if err := config.Init(); err != nil {
		return nil, err
	}
	cfg := config.Get()

	switch {
	case flagDebug:
		logger.SetLevel(log.DebugLevel)
	case flagVerbose:
		logger.SetLevel(log.InfoLevel)
	}

	if flagNativeColor != "" {
		cfg.Native.BackgroundColor = flagNativeColor
	}
	if flagCorrelationTimeout > 0 {
		cfg.Native.CorrelationTimeoutMS = flagCorrelationTimeout
	}
	if flagDebugNative {
		cfg.Native.DebugNative = true
	}
	return cfg, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := setupConfig()
	if err != nil {
		return err
	}

	count := cfg.Spacer.WindowCount
	if len(args) == 1 {
		count, err = strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid count %q: %w", args[0], err)
		}
	}
	if err := config.ValidateWindowCount(count); err != nil {
		return err
	}

	startIdx := flagStartWorkspace
	if startIdx == 0 && cfg.Spacer.StartWorkspace > 0 {
		startIdx = uint64(cfg.Spacer.StartWorkspace)
	}

	app, err := spacer.NewApp(cfg)
	if err != nil {
		return sessionHint(err)
	}
	defer app.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(count, startIdx); err != nil {
		return err
	}

	if flagOneShot {
		logger.Warn("Exiting immediately, the spacer windows close with this process")
		return nil
	}

	logger.Info("Spacers in place, press Ctrl+C to remove them and exit")

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.StartFocusMonitoring(ctx)
	}()

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down")
			return nil
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("focus monitoring stopped: %w", err)
			}
			return nil
		case <-ticker.C:
			if stats, err := app.Stats(); err == nil {
				logger.Infof("Status: %s, %d spacers tracked", stats.Summary(), len(app.ActiveSpacers()))
			}
		}
	}
}

// sessionHint attaches a recovery hint to startup failures with a known
// cause.
func sessionHint(err error) error {
	var invalid *session.InvalidSocketPathError
	switch {
	case errors.Is(err, session.ErrNoSocketPath):
		return fmt.Errorf("%w\nrun 'niri-spacer session' to inspect the environment", err)
	case errors.As(err, &invalid):
		return fmt.Errorf("%w\nrun 'niri-spacer session' to inspect the environment", err)
	}
	return err
}

// Exit with error message
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
