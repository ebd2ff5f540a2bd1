package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/checkin/internal/daemon"
	"github.com/joescharf/checkin/internal/output"
	"github.com/joescharf/checkin/internal/sheets"
)

const sheetStopTimeout = 10 * time.Second

var sheetCmd = &cobra.Command{
	Use:   "sheet",
	Short: "Run the sheet endpoint that records check-ins remotely",
	Long: `The sheet endpoint is the append-only table every check-in is copied
to. It speaks the same JSON protocol as the spreadsheet script the web
form posts to, so either can be configured as sheets.url.`,
}

var sheetServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sheet endpoint in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sheetServeRun(cmd.Context())
	},
}

var sheetStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sheet endpoint in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sheetStartRun()
	},
}

var sheetStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background sheet endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sheetStopRun()
	},
}

var sheetStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the background sheet endpoint is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sheetStatusRun()
	},
}

var sheetPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the configured sheets.url answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sheetPingRun(cmd.Context())
	},
}

func init() {
	sheetCmd.PersistentFlags().IntP("port", "p", 8787, "Port to listen on")
	_ = viper.BindPFlag("sheet.port", sheetCmd.PersistentFlags().Lookup("port"))

	sheetCmd.AddCommand(sheetServeCmd)
	sheetCmd.AddCommand(sheetStartCmd)
	sheetCmd.AddCommand(sheetStopCmd)
	sheetCmd.AddCommand(sheetStatusCmd)
	sheetCmd.AddCommand(sheetPingCmd)
	rootCmd.AddCommand(sheetCmd)
}

// sheetPidFile returns the PID file tracking the background endpoint.
func sheetPidFile() *daemon.PIDFile {
	return daemon.NewPIDFile(filepath.Join(viper.GetString("state_dir"), "checkin-sheet.pid"))
}

// sheetLogPath is where the background endpoint writes its log.
func sheetLogPath() string {
	return filepath.Join(viper.GetString("state_dir"), "checkin-sheet.log")
}

func sheetAddr() string {
	return fmt.Sprintf(":%d", viper.GetInt("sheet.port"))
}

func sheetServeRun(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(cmdContext(ctx), shutdownSignals()...)
	defer stop()

	rows, err := openStore(viper.GetString("sheet.db_path"))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	addr := sheetAddr()
	pf := sheetPidFile()
	if err := pf.Acquire(addr); err != nil {
		return fmt.Errorf("sheet endpoint: %w", err)
	}
	defer func() { _ = pf.Remove() }()

	srv := sheets.NewServer(rows, logger.With("component", "sheet"), sheets.ServerOptions{
		AllowedOrigins: viper.GetStringSlice("sheet.allowed_origins"),
	})
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Serve(ln) }()

	ui.Success("Sheet endpoint listening on http://localhost%s", addr)
	logger.Info("sheet endpoint started", "addr", addr, "db", viper.GetString("sheet.db_path"))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("sheet endpoint shutting down")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func sheetStartRun() error {
	pf := sheetPidFile()
	if rec, running := pf.IsRunning(); running {
		return fmt.Errorf("sheet endpoint already running (PID %d, %s)", rec.PID, rec.Addr)
	}

	if dryRun {
		ui.DryRunMsg("Would start sheet endpoint on %s (log: %s)", sheetAddr(), sheetLogPath())
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	logPath := sheetLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	args := []string{"sheet", "serve", "--port", fmt.Sprint(viper.GetInt("sheet.port"))}
	if cfg := viper.ConfigFileUsed(); cfg != "" {
		args = append(args, "--config", cfg)
	}

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	setDaemonAttrs(child)
	if err := child.Start(); err != nil {
		return fmt.Errorf("start sheet endpoint: %w", err)
	}

	ui.Success("Sheet endpoint started (PID %d) on %s", child.Process.Pid, sheetAddr())
	ui.Info("Log: %s", logPath)
	return child.Process.Release()
}

func sheetStopRun() error {
	pf := sheetPidFile()
	if _, running := pf.IsRunning(); !running {
		_ = pf.Remove()
		return fmt.Errorf("sheet endpoint is not running")
	}

	if dryRun {
		ui.DryRunMsg("Would stop sheet endpoint")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), sheetStopTimeout)
	defer cancel()
	rec, err := pf.Stop(ctx, 100*time.Millisecond)
	if errors.Is(err, daemon.ErrNotRunning) {
		return fmt.Errorf("sheet endpoint is not running")
	}
	if err != nil {
		return err
	}
	ui.Success("Sheet endpoint stopped (PID %d)", rec.PID)
	return nil
}

func sheetStatusRun() error {
	rec, running := sheetPidFile().IsRunning()
	if !running {
		ui.Info("Sheet endpoint: %s", output.Yellow("not running"))
		return nil
	}
	ui.Info("Sheet endpoint: %s (PID %d, %s)", output.Green("running"), rec.PID, rec.Addr)
	ui.Info("Log: %s", sheetLogPath())
	return nil
}

func sheetPingRun(ctx context.Context) error {
	msg, err := newSheetsClient().Ping(cmdContext(ctx))
	if err != nil {
		return fmt.Errorf("ping sheet endpoint: %w", err)
	}
	ui.Success("%s: %s", viper.GetString("sheets.url"), msg)
	return nil
}
