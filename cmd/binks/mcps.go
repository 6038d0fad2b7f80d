package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/binkshq/binks/pkg/daemon"
)

// McpsCmd implements the `mcps` supervisor-daemon lifecycle family
// (§6), grounded on
// original_source/agent/src/handlers/mcps/{daemon,status,refresh,logs}.rs.
type McpsCmd struct {
	Start   McpsStartCmd   `cmd:"" help:"Start the supervisor daemon."`
	Stop    McpsStopCmd    `cmd:"" help:"Stop the supervisor daemon."`
	Status  McpsStatusCmd  `cmd:"" help:"Show per-server status."`
	Refresh McpsRefreshCmd `cmd:"" help:"Clear cached tool lists and reconnect every server."`
	Logs    McpsLogsCmd    `cmd:"" help:"Tail the daemon's log files."`
}

// McpsStartCmd implements `mcps start [--daemon]`.
type McpsStartCmd struct {
	Daemon bool `help:"Detach into the background instead of running in the foreground."`
}

func (c *McpsStartCmd) Run(cc *CommandContext) error {
	socketPath := daemon.DefaultSocketPath()
	pidPath := daemon.DefaultPIDPath()
	logDir := daemon.DefaultLogDir()

	if daemon.IsRunning(socketPath, daemonPingWait) {
		fmt.Println("MCP daemon is already running.")
		fmt.Printf("Socket: %s\n", socketPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return err
	}

	if c.Daemon {
		return startDaemonDetached(socketPath, pidPath, logDir, cc.metricsAddr)
	}
	return startDaemonForeground(cc, socketPath, pidPath)
}

func startDaemonDetached(socketPath, pidPath, logDir, metricsAddr string) error {
	fmt.Println("Starting MCP daemon in background...")

	logFile := filepath.Join(logDir, "daemon.log")
	errFile := filepath.Join(logDir, "daemon.err")

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving own executable: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	outF, err := os.Create(logFile)
	if err != nil {
		return err
	}
	defer outF.Close()
	errF, err := os.Create(errFile)
	if err != nil {
		return err
	}
	defer errF.Close()

	childArgs := []string{"mcps", "start"}
	if metricsAddr != "" {
		childArgs = append(childArgs, "--metrics-addr", metricsAddr)
	}
	child := exec.Command(exe, childArgs...)
	child.Dir = cwd
	child.Stdout = outF
	child.Stderr = errF
	if err := child.Start(); err != nil {
		return fmt.Errorf("spawning daemon: %w", err)
	}

	pid := child.Process.Pid
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return err
	}
	_ = child.Process.Release()

	time.Sleep(daemonStartWait)

	if daemon.IsRunning(socketPath, daemonPingWait) {
		fmt.Println("MCP daemon started successfully.")
		fmt.Printf("  PID: %d\n", pid)
		fmt.Printf("  Socket: %s\n", socketPath)
		fmt.Printf("  Log: %s\n", logFile)
		return nil
	}
	fmt.Println("Warning: daemon may not have started. Check logs:")
	fmt.Printf("  %s\n", logFile)
	return nil
}

func startDaemonForeground(cc *CommandContext, socketPath, pidPath string) error {
	fmt.Println("Starting MCP daemon (foreground)...")
	fmt.Printf("  Socket: %s\n", socketPath)
	fmt.Println("  Press Ctrl+C to stop.")
	fmt.Println()

	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return err
	}
	defer os.Remove(pidPath)

	var metrics *daemon.Metrics
	var registry *prometheus.Registry
	if cc.metricsAddr != "" {
		registry = prometheus.NewRegistry()
		metrics = daemon.NewMetrics(registry)
	}

	d := daemon.New(daemon.Options{
		Manifest:   cc.Manifest,
		SocketPath: socketPath,
		Metrics:    metrics,
	})
	if err := d.Listen(); err != nil {
		return fmt.Errorf("binding daemon socket: %w", err)
	}
	defer d.Close()

	if cc.metricsAddr != "" {
		go serveDaemonMetrics(cc.metricsAddr, d, registry)
	}

	return d.Serve(backgroundCtx())
}

// McpsStopCmd implements `mcps stop`.
type McpsStopCmd struct{}

func (c *McpsStopCmd) Run(cc *CommandContext) error {
	socketPath := daemon.DefaultSocketPath()
	pidPath := daemon.DefaultPIDPath()

	if daemon.IsRunning(socketPath, daemonPingWait) {
		fmt.Println("Sending shutdown command to daemon...")
		client := daemon.NewClient(socketPath)
		if err := client.Shutdown(backgroundCtx()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: shutdown command failed: %v\n", err)
		} else {
			fmt.Println("Daemon shutdown initiated.")
		}
		time.Sleep(daemonStartWait)
	}

	if raw, err := os.ReadFile(pidPath); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(raw))); err == nil {
			if proc, err := os.FindProcess(pid); err == nil {
				_ = proc.Signal(syscall.SIGTERM)
			}
		}
		_ = os.Remove(pidPath)
	}
	_ = os.Remove(socketPath)

	fmt.Println("MCP daemon stopped.")
	return nil
}

// McpsStatusCmd implements `mcps status [-v]`.
type McpsStatusCmd struct {
	Verbose bool `short:"v" help:"List each server's tools."`
}

func (c *McpsStatusCmd) Run(cc *CommandContext) error {
	ctx := backgroundCtx()
	fmt.Println("=== MCP Server Status ===")
	fmt.Println()

	servers := cc.Pool.ServerOrder()
	if len(servers) == 0 {
		fmt.Println("No MCP servers configured.")
		return nil
	}
	fmt.Printf("Configured servers: %d\n\n", len(servers))

	for _, server := range servers {
		cached := cc.Pool.HasCachedTools(server)
		tools, err := cc.Pool.ListToolsFrom(ctx, server)
		if err != nil {
			fmt.Printf("  %s ✗ Failed: %v\n", server, err)
			continue
		}
		cacheStatus := "(fresh)"
		if cached {
			cacheStatus = "(cached)"
		}
		fmt.Printf("  %s ✓ %d tools %s\n", server, len(tools), cacheStatus)
		if c.Verbose {
			for _, t := range tools {
				fmt.Printf("      - %s : %s\n", t.Name, truncateLine(t.Description, 60))
			}
		}
	}

	allTools, err := cc.Pool.ListAllTools(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nTotal: %d tools across %d servers\n", len(allTools), len(servers))
	return nil
}

// McpsRefreshCmd implements `mcps refresh`.
type McpsRefreshCmd struct{}

func (c *McpsRefreshCmd) Run(cc *CommandContext) error {
	ctx := backgroundCtx()
	fmt.Println("Refreshing MCP connections...")
	fmt.Println()

	if socketPath := daemon.DefaultSocketPath(); daemon.IsRunning(socketPath, daemonPingWait) {
		if err := daemon.NewClient(socketPath).RefreshAll(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: daemon refresh failed: %v\n", err)
		}
	}
	cc.Pool.ClearCache()
	fmt.Println("Cache cleared.")

	servers := cc.Pool.ServerOrder()
	success, failed := 0, 0
	for _, server := range servers {
		tools, err := cc.Pool.ListToolsFrom(ctx, server)
		if err != nil {
			fmt.Printf("  %s ✗ %v\n", server, err)
			failed++
			continue
		}
		fmt.Printf("  %s ✓ %d tools\n", server, len(tools))
		success++
	}

	fmt.Printf("\nRefresh complete: %d succeeded, %d failed\n", success, failed)
	return nil
}

// McpsLogsCmd implements `mcps logs [--lines N]`.
type McpsLogsCmd struct {
	Lines int `help:"Number of trailing lines to show (0 = all)." default:"50"`
}

func (c *McpsLogsCmd) Run(cc *CommandContext) error {
	logDir := daemon.DefaultLogDir()
	logFile := filepath.Join(logDir, "daemon.log")
	errFile := filepath.Join(logDir, "daemon.err")

	logExists := fileExists(logFile)
	errExists := fileExists(errFile)
	if !logExists && !errExists {
		fmt.Println("No daemon logs found.")
		fmt.Printf("Expected location: %s\n", logDir)
		return nil
	}

	if logExists {
		fmt.Printf("=== Daemon stdout (%s) ===\n\n", logFile)
		printTail(logFile, c.Lines)
	}
	if errExists {
		content, err := os.ReadFile(errFile)
		if err == nil && strings.TrimSpace(string(content)) != "" {
			fmt.Printf("\n=== Daemon stderr (%s) ===\n\n", errFile)
			printTail(errFile, c.Lines)
		}
	}
	return nil
}

const daemonStartWait = 500 * time.Millisecond

// serveDaemonMetrics runs the daemon's read-only /healthz and /metrics
// surface on addr (§4.4 EXPANSION, A4) until the process exits.
func serveDaemonMetrics(addr string, d *daemon.Daemon, registry *prometheus.Registry) {
	server := &http.Server{Addr: addr, Handler: d.HTTPHandler(registry)}
	_ = server.ListenAndServe()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func printTail(path string, n int) {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %v\n", path, err)
		return
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, l := range lines {
		fmt.Println(l)
	}
}

func truncateLine(s string, max int) string {
	if s == "" {
		return "No description"
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
