package main

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fentz26/taskmaster/internal/scheduler"
	"github.com/fentz26/taskmaster/internal/tui"
)

var (
	tuiAPI   string
	tuiSpawn bool
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the task catalog interactively",
	Long: `Opens a terminal browser over the task catalog. By default it works on the
configured storage directly; with --api it talks to a running daemon.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiAPI, "api", "", "Daemon address, e.g. http://127.0.0.1:7466")
	tuiCmd.Flags().BoolVar(&tuiSpawn, "spawn", false, "Start a background daemon if --api is not reachable")
}

func runTUI(cmd *cobra.Command, args []string) error {
	if tuiAPI != "" {
		client := tui.NewClient(tuiAPI)
		if ok, _ := client.CheckHealth(); !ok {
			if !tuiSpawn {
				return fmt.Errorf("daemon not reachable at %s (use --spawn to start one)", tuiAPI)
			}
			fmt.Println("⚡ TaskMaster daemon not running. Starting background service...")
			if err := startDaemon(client); err != nil {
				return fmt.Errorf("failed to start daemon: %w", err)
			}
		}
		return runApp(tui.New(client, "daemon: "+tuiAPI))
	}

	// The alt screen owns the terminal; log lines would tear it.
	log = zap.NewNop()

	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	// Passes started from the browser go through a scheduler so they are
	// serialized like the daemon's.
	proc, err := b.processor(cfg, false)
	if err != nil {
		return err
	}
	sched := scheduler.New(proc, nil, log)
	return runApp(tui.New(b.service(sched), b.origin))
}

func runApp(app *tui.App) error {
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func startDaemon(client *tui.Client) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	args := []string{"daemon"}
	if u, err := url.Parse(tuiAPI); err == nil && u.Host != "" {
		args = append(args, "--listen", u.Host)
	}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	c := exec.Command(exe, args...)
	// Detach process so it survives TUI exit
	configureDaemonProc(c)
	c.Stdin = nil
	c.Stdout = nil
	c.Stderr = nil

	if err := c.Start(); err != nil {
		return err
	}

	fmt.Print("   Waiting for daemon...")
	for i := 0; i < 20; i++ {
		if ok, _ := client.CheckHealth(); ok {
			fmt.Println(" Done.")
			return nil
		}
		time.Sleep(250 * time.Millisecond)
		fmt.Print(".")
	}
	fmt.Println(" Timeout!")
	return fmt.Errorf("daemon started but API not reachable at %s", tuiAPI)
}
