// Package daemon runs the background cache refresher: a single instance
// enforced through a PID file, refreshing the scan cache every TTL until it
// receives a termination signal.
package daemon

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/eon-ic/rofi-rwifi/internal/refresh"
)

// Daemon is the long-lived refresher process.
type Daemon struct {
	PIDPath  string
	Refresh  *refresh.Coordinator
	Interval time.Duration
	Logger   *slog.Logger
}

// Run claims the PID file and loops until a termination signal arrives.
// If another live instance already owns the PID file, Run reports it and
// returns without side effects.
func (d *Daemon) Run() error {
	if pid, ok := readPID(d.PIDPath); ok && alive(pid) {
		fmt.Printf("daemon already running (pid %d)\n", pid)
		return nil
	}

	pid := os.Getpid()
	if err := os.WriteFile(d.PIDPath, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}
	defer os.Remove(d.PIDPath)

	d.Logger.Info("daemon started", "pid", pid, "interval", d.Interval)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()

	for {
		// A failed iteration is the coordinator's problem to log; the
		// loop itself never stops for one.
		d.Refresh.EnsureFresh(true)

		select {
		case sig := <-sigs:
			d.Logger.Info("daemon stopping", "signal", sig)
			return nil
		case <-ticker.C:
		}
	}
}

// Stop signals the running daemon to terminate and removes the PID file.
// It does not wait for the process to exit: removing the file is the
// completion contract.
func Stop(pidPath string) error {
	pid, ok := readPID(pidPath)
	if !ok {
		fmt.Println("daemon not running")
		return nil
	}
	if err := unix.Kill(pid, syscall.SIGTERM); err != nil && err != unix.ESRCH {
		return fmt.Errorf("signalling pid %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing pid file: %w", err)
	}
	fmt.Printf("daemon stopped (pid %d)\n", pid)
	return nil
}

// readPID parses the PID file.
func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// alive probes a process with the null signal.
func alive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}
