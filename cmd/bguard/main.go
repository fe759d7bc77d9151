// Package main provides the CLI entrypoint for bguard.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/bguard/internal/config"
	"github.com/verte-zerg/bguard/internal/guard"
	"github.com/verte-zerg/bguard/internal/logging"
	"github.com/verte-zerg/bguard/internal/report"
	"github.com/verte-zerg/bguard/internal/signal"
	"github.com/verte-zerg/bguard/internal/simulate"
	"github.com/verte-zerg/bguard/internal/tui"
)

const (
	defaultReport          = report.FormatText
	defaultClipboardPollMs = 500
	defaultLogLevel        = "warn"
	defaultLogFormat       = "text"
)

// guardFlags mirrors guard.Options with concrete values so cobra can bind them.
type guardFlags struct {
	trackTabSwitch     bool
	trackMouseActivity bool
	trackCopyPaste     bool
	trackRapidClick    bool
	trackIdleTime      bool
	idleTimeoutMs      int
	idleRepeat         bool
	penaltyTabSwitch   int
	penaltyWindowBlur  int
	penaltyCopyPaste   int
	penaltyRapidClick  int
	penaltyIdle        int
	penaltyMouseLeave  int
}

var (
	configPath string
	logLevel   string
	logFormat  string
	logFile    string

	session         guardFlags
	sessionReport   string
	clipboardPollMs int
	question        string

	simulateReport string
	simulateStart  string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bguard",
		Short:         "Behavioural telemetry for proctored terminal exams",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runSessionCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	pf.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", defaultLogFormat, "log format (text, json)")
	pf.StringVar(&logFile, "log-file", "", "append logs to this file instead of stderr")

	defaults := guard.DefaultConfig()
	f := rootCmd.Flags()
	f.BoolVar(&session.trackTabSwitch, "track-tab-switch", defaults.TrackTabSwitch, "count focus loss and suspend as tab switches")
	f.BoolVar(&session.trackMouseActivity, "track-mouse-activity", defaults.TrackMouseActivity, "count the pointer leaving the window")
	f.BoolVar(&session.trackCopyPaste, "track-copy-paste", defaults.TrackCopyPaste, "count clipboard copies and pastes")
	f.BoolVar(&session.trackRapidClick, "track-rapid-click", defaults.TrackRapidClick, "count bursts of clicks")
	f.BoolVar(&session.trackIdleTime, "track-idle-time", defaults.TrackIdleTime, "count periods without activity")
	f.IntVar(&session.idleTimeoutMs, "idle-timeout-ms", defaults.IdleTimeoutMs, "inactivity before an idle incident (ms)")
	f.BoolVar(&session.idleRepeat, "idle-repeat", defaults.IdleRepeat, "repeat idle incidents while inactivity continues")
	f.IntVar(&session.penaltyTabSwitch, "penalty-tab-switch", defaults.PenaltyTabSwitch, "penalty for a hidden window")
	f.IntVar(&session.penaltyWindowBlur, "penalty-window-blur", defaults.PenaltyWindowBlur, "penalty for focus loss")
	f.IntVar(&session.penaltyCopyPaste, "penalty-copy-paste", defaults.PenaltyCopyPaste, "penalty for a clipboard action")
	f.IntVar(&session.penaltyRapidClick, "penalty-rapid-click", defaults.PenaltyRapidClick, "penalty for a click burst")
	f.IntVar(&session.penaltyIdle, "penalty-idle", defaults.PenaltyIdle, "penalty for an idle incident")
	f.IntVar(&session.penaltyMouseLeave, "penalty-mouse-leave", defaults.PenaltyMouseLeave, "penalty for the pointer leaving the window")
	f.StringVar(&sessionReport, "report", defaultReport, "summary format printed on exit (text, json, yaml, none)")
	f.IntVar(&clipboardPollMs, "clipboard-poll-ms", defaultClipboardPollMs, "clipboard polling interval for copy detection (ms)")
	f.StringVar(&question, "question", tui.DefaultQuestion, "exam question shown above the answer field")

	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runSessionCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applySessionConfig(cmd, fileCfg)
	if _, err := report.ParseFormat(sessionReport); err != nil {
		return fmt.Errorf("--report: %w", err)
	}
	if clipboardPollMs <= 0 {
		return fmt.Errorf("--clipboard-poll-ms must be > 0")
	}

	logger, closeLog, err := setupLogger(cmd, fileCfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	var readClipboard tui.ClipboardReader
	if session.trackCopyPaste {
		readClipboard = tui.SystemClipboard()
	}
	bus := signal.NewBus(tui.Kinds(readClipboard != nil)...)
	g := guard.New(bus, guard.WithLogger(logger))
	gaps, err := g.Activate(session.options())
	if err != nil {
		return err
	}
	defer g.Deactivate()
	for _, gap := range gaps {
		logger.Info("signal not available in this terminal", "category", gap.Category, "kind", gap.Kind)
	}

	m := tui.NewModel(g, bus, tui.Options{
		Question:      question,
		Clipboard:     readClipboard,
		ClipboardPoll: time.Duration(clipboardPollMs) * time.Millisecond,
		Logger:        logger,
	})
	program := tea.NewProgram(m, tui.ProgramOptions()...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	g.Deactivate()

	r := report.Build(g.Snapshot(), m.StartedAt(), time.Now())
	r.Answer = m.Answer()
	return report.Render(cmd.OutOrStdout(), r, sessionReport)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <script>",
		Short: "Replay a scripted session (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulateCmd,
	}
	cmd.Flags().StringVar(&simulateReport, "report", defaultReport, "summary format (text, json, yaml, none)")
	cmd.Flags().StringVar(&simulateStart, "start", "", "session start time (RFC3339, default: now)")
	return cmd
}

func runSimulateCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "report", &simulateReport, fileCfg.UI.Report)
	if _, err := report.ParseFormat(simulateReport); err != nil {
		return fmt.Errorf("--report: %w", err)
	}
	start := time.Now()
	if simulateStart != "" {
		start, err = time.Parse(time.RFC3339, simulateStart)
		if err != nil {
			return fmt.Errorf("invalid --start value: %w", err)
		}
	}

	logger, closeLog, err := setupLogger(cmd, fileCfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	script, err := loadScript(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	script.Options = fileCfg.Guard.Merge(script.Options)

	res, err := simulate.Run(script, start, logger)
	if err != nil {
		return err
	}
	r := report.Build(res.Snapshot, res.StartedAt, res.EndedAt)
	return report.Render(cmd.OutOrStdout(), r, simulateReport)
}

func loadScript(stdin io.Reader, path string) (*simulate.Script, error) {
	if path == "-" {
		return simulate.Load(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close script: %v\n", cerr)
		}
	}()
	return simulate.Load(f)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// loadFileConfig reads the TOML file, then the first .env file found, then
// BGUARD_* variables. Flags are applied on top by the caller.
func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := config.LoadDotEnv(config.DefaultDotEnvPaths()...); err != nil {
		return config.FileConfig{}, err
	}
	if err := config.ApplyEnv(&fileCfg, os.LookupEnv); err != nil {
		return config.FileConfig{}, err
	}
	return fileCfg, nil
}

func applySessionConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	gc := fileCfg.Guard
	applyBoolConfig(cmd, "track-tab-switch", &session.trackTabSwitch, gc.TrackTabSwitch)
	applyBoolConfig(cmd, "track-mouse-activity", &session.trackMouseActivity, gc.TrackMouseActivity)
	applyBoolConfig(cmd, "track-copy-paste", &session.trackCopyPaste, gc.TrackCopyPaste)
	applyBoolConfig(cmd, "track-rapid-click", &session.trackRapidClick, gc.TrackRapidClick)
	applyBoolConfig(cmd, "track-idle-time", &session.trackIdleTime, gc.TrackIdleTime)
	applyIntConfig(cmd, "idle-timeout-ms", &session.idleTimeoutMs, gc.IdleTimeoutMs)
	applyBoolConfig(cmd, "idle-repeat", &session.idleRepeat, gc.IdleRepeat)
	applyIntConfig(cmd, "penalty-tab-switch", &session.penaltyTabSwitch, gc.PenaltyTabSwitch)
	applyIntConfig(cmd, "penalty-window-blur", &session.penaltyWindowBlur, gc.PenaltyWindowBlur)
	applyIntConfig(cmd, "penalty-copy-paste", &session.penaltyCopyPaste, gc.PenaltyCopyPaste)
	applyIntConfig(cmd, "penalty-rapid-click", &session.penaltyRapidClick, gc.PenaltyRapidClick)
	applyIntConfig(cmd, "penalty-idle", &session.penaltyIdle, gc.PenaltyIdle)
	applyIntConfig(cmd, "penalty-mouse-leave", &session.penaltyMouseLeave, gc.PenaltyMouseLeave)
	applyStringConfig(cmd, "report", &sessionReport, fileCfg.UI.Report)
	applyIntConfig(cmd, "clipboard-poll-ms", &clipboardPollMs, fileCfg.UI.ClipboardPollMs)
	applyStringConfig(cmd, "question", &question, fileCfg.UI.Question)
}

func (f *guardFlags) options() guard.Options {
	return guard.Options{
		TrackTabSwitch:     &f.trackTabSwitch,
		TrackMouseActivity: &f.trackMouseActivity,
		TrackCopyPaste:     &f.trackCopyPaste,
		TrackRapidClick:    &f.trackRapidClick,
		TrackIdleTime:      &f.trackIdleTime,
		IdleTimeoutMs:      &f.idleTimeoutMs,
		IdleRepeat:         &f.idleRepeat,
		PenaltyTabSwitch:   &f.penaltyTabSwitch,
		PenaltyWindowBlur:  &f.penaltyWindowBlur,
		PenaltyCopyPaste:   &f.penaltyCopyPaste,
		PenaltyRapidClick:  &f.penaltyRapidClick,
		PenaltyIdle:        &f.penaltyIdle,
		PenaltyMouseLeave:  &f.penaltyMouseLeave,
	}
}

// setupLogger builds the slog logger. While the TUI owns the terminal, logs
// only reach the screen when a log file is configured, so the default output
// is discarded for the live session.
func setupLogger(cmd *cobra.Command, lc config.LogConfig) (*slog.Logger, func(), error) {
	applyStringConfig(cmd, "log-level", &logLevel, lc.Level)
	applyStringConfig(cmd, "log-format", &logFormat, lc.Format)
	applyStringConfig(cmd, "log-file", &logFile, lc.File)

	var fallback io.Writer = cmd.ErrOrStderr()
	if cmd.Name() == "bguard" {
		fallback = io.Discard
	}
	sink, err := logging.Open(config.LogConfig{Level: &logLevel, Format: &logFormat, File: &logFile}, fallback)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if cerr := sink.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}
	return sink.Logger, closeFn, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	d := guard.DefaultConfig()
	return fmt.Sprintf(`# bguard configuration
# Uncomment a value to enable it. BGUARD_* environment variables override
# config values; CLI flags override both.

[guard]
# track-tab-switch = %t      # Focus loss and suspend count as tab switches
# track-mouse-activity = %t  # Pointer leaving the window
# track-copy-paste = %t      # Clipboard copies and pastes
# track-rapid-click = %t     # More than five clicks within two seconds
# track-idle-time = %t       # Periods without activity
# idle-timeout-ms = %d     # Inactivity before an idle incident
# idle-repeat = %t           # Repeat idle incidents while inactivity continues
# penalty-tab-switch = %d      # Window hidden
# penalty-window-blur = %d     # Window lost focus
# penalty-copy-paste = %d      # Clipboard action
# penalty-rapid-click = %d      # Click burst
# penalty-idle = %d            # Idle incident
# penalty-mouse-leave = %d      # Pointer left the window

[ui]
# clipboard-poll-ms = %d     # Clipboard polling interval for copy detection
# report = %q            # Summary printed on exit: text, json, yaml or none
# question = "..."           # Exam question shown above the answer field

[log]
# level = %q             # debug, info, warn or error
# format = %q            # text or json
# file = ""                  # Append logs to a file; the live session discards them otherwise
`,
		d.TrackTabSwitch,
		d.TrackMouseActivity,
		d.TrackCopyPaste,
		d.TrackRapidClick,
		d.TrackIdleTime,
		d.IdleTimeoutMs,
		d.IdleRepeat,
		d.PenaltyTabSwitch,
		d.PenaltyWindowBlur,
		d.PenaltyCopyPaste,
		d.PenaltyRapidClick,
		d.PenaltyIdle,
		d.PenaltyMouseLeave,
		defaultClipboardPollMs,
		defaultReport,
		defaultLogLevel,
		defaultLogFormat,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
