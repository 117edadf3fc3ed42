// Package cmd provides the CLI commands for ptyglass.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/pprof"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/ptyglass/ptyglass/internal/config"
	"github.com/ptyglass/ptyglass/internal/diag"
	"github.com/ptyglass/ptyglass/internal/tui"
	"github.com/ptyglass/ptyglass/internal/tuilog"
)

// global flags
var (
	profileFile *os.File // held open for profiling
	flagURL     string
	flagToken   string
	flagConfig  string
	flagLog     string
	flagDebug   string
	flagDiag    bool
)

// rootCmd is the root command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "ptyglass",
	Short: "Terminal viewer for remote PTY sessions",
	Long: `ptyglass connects to a remote PTY stream over WebSocket and renders
it in the terminal with pixel-accurate scrolling, output follow,
touch gestures, and inertial scrolling.

Examples:
  ptyglass --url wss://host.example/terminal
  ptyglass --url wss://host.example/terminal --token s3cret
  ptyglass --debug-addr localhost:6080   # expose /metrics and /healthz`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Start pprof profiling if PTYGLASS_PROFILE is set
		if profilePath := os.Getenv("PTYGLASS_PROFILE"); profilePath != "" {
			f, err := os.Create(profilePath)
			if err != nil {
				return fmt.Errorf("create profile file: %w", err)
			}
			profileFile = f

			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				profileFile = nil
				return fmt.Errorf("start CPU profile: %w", err)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		// Stop CPU profiling
		if profileFile != nil {
			pprof.StopCPUProfile()
			profileFile.Close()
			profileFile = nil
		}
		return nil
	},
	RunE: runViewer,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVar(&flagURL, "url", "", "WebSocket terminal stream URL (overrides config)")
	rootCmd.Flags().StringVar(&flagToken, "token", "", "bearer token for the stream (overrides config)")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "config file path (default ~/.ptyglass/config.toml)")
	rootCmd.Flags().StringVar(&flagLog, "log", "", "write debug log to file")
	rootCmd.Flags().StringVar(&flagDebug, "debug-addr", "", "serve /metrics and /healthz on this address")
	rootCmd.Flags().BoolVar(&flagDiag, "diagnostics", false, "show the render diagnostics overlay")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the effective configuration from file plus flags.
func loadConfig() (config.Config, string, error) {
	path := flagConfig
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return config.Config{}, "", err
		}
		path = p
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return config.Config{}, "", err
	}

	if flagURL != "" {
		cfg.Connection.URL = flagURL
	}
	if flagToken != "" {
		cfg.Connection.Token = flagToken
	}
	if flagLog != "" {
		cfg.Log.File = flagLog
	}
	if flagDebug != "" {
		cfg.Debug.Addr = flagDebug
	}
	if flagDiag {
		cfg.Display.Diagnostics = true
	}
	return cfg, path, nil
}

func runViewer(cmd *cobra.Command, args []string) error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Connection.URL == "" {
		return errors.New("no stream URL: pass --url or set connection.url in the config")
	}

	if cfg.Log.File != "" {
		if err := tuilog.Init(cfg.Log.File); err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Debug.Addr != "" {
		go func() {
			if err := diag.Serve(ctx, cfg.Debug.Addr); err != nil {
				tuilog.Log.Error("debug server exited", "error", err)
			}
		}()
	}

	return tui.Run(cfg, func(p *tea.Program) {
		w, err := config.Watch(ctx, cfgPath, func(next config.Config) {
			p.Send(tui.ConfigReloadedMsg{Cfg: next})
		})
		if err != nil {
			tuilog.Log.Warn("config watch unavailable", "error", err)
			return
		}
		go func() {
			<-ctx.Done()
			w.Stop()
		}()
	})
}
