package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/1broseidon/displaysnap/internal/config"
	"github.com/1broseidon/displaysnap/internal/display"
	"github.com/1broseidon/displaysnap/internal/engine"
	"github.com/1broseidon/displaysnap/internal/ipc"
	"github.com/1broseidon/displaysnap/internal/tui"
	"github.com/1broseidon/displaysnap/internal/x11"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: displaysnap daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: displaysnap daemon")
			os.Exit(2)
		}
		runDaemon()
	case "displays":
		os.Exit(runDisplays(os.Args[2:]))
	case "detect":
		os.Exit(runDetect(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "profile":
		os.Exit(runProfile(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: displaysnap <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the displaysnap daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  displays            List connected displays")
	fmt.Fprintln(w, "  detect              Re-probe display hardware and list displays")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  profile list        List saved profiles")
	fmt.Fprintln(w, "  profile save        Snapshot the current layout as a profile")
	fmt.Fprintln(w, "  profile show        Print a saved profile")
	fmt.Fprintln(w, "  profile apply       Apply a saved profile")
	fmt.Fprintln(w, "  profile delete      Delete a profile")
	fmt.Fprintln(w, "  profile rename      Rename a profile")
	fmt.Fprintln(w, "  profile export      Export all profiles to a file")
	fmt.Fprintln(w, "  profile import      Import profiles from a file")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open interactive profile picker")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'displaysnap <command> --help' for command-specific options.")
}

// newEngine wires up the direct (daemon-less) engine over a live X
// connection. The caller must invoke the returned cleanup.
func newEngine(cfg *config.Config) (*engine.Engine, func(), error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to display: %w", err)
	}

	eng, err := buildEngine(conn, cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return eng, conn.Close, nil
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
		cfg = &config.Config{}
	}
	return cfg
}

func runDisplays(args []string) int {
	fs := flag.NewFlagSet("displays", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: displaysnap displays [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List connected displays with mode, position and primary marker.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output display details as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "displays takes no arguments")
		fs.Usage()
		return 2
	}

	states, err := enumerateDisplays()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(states); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	printDisplays(states)
	return 0
}

func runDetect(args []string) int {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: displaysnap detect")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Force a hardware re-probe, then list connected displays.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "detect takes no arguments")
		fs.Usage()
		return 2
	}

	conn, err := x11.NewConnection()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	backend := x11.NewBackend(conn)
	if err := backend.Detect(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	states, err := backend.Enumerate()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printDisplays(states)
	return 0
}

// enumerateDisplays asks the daemon when it is running, otherwise opens
// a direct X connection.
func enumerateDisplays() ([]display.State, error) {
	client := ipc.NewClient()
	if client.Available() {
		data, err := client.GetDisplays()
		if err == nil {
			return data.Displays, nil
		}
	}

	conn, err := x11.NewConnection()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return x11.NewBackend(conn).Enumerate()
}

func printDisplays(states []display.State) {
	for _, s := range states {
		fmt.Println(s.String())
	}
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: displaysnap status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running:     %v\n", status.DaemonRunning)
	fmt.Printf("profile_count:      %d\n", status.ProfileCount)
	fmt.Printf("auto_apply_profile: %s\n", status.AutoApplyProfile)
	fmt.Printf("uptime_seconds:     %d\n", status.UptimeSeconds)
	return 0
}

func runTUI(args []string) int {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: displaysnap tui")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive picker for browsing and applying display profiles.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  j/k, ↑/↓  Navigate profiles")
		fmt.Fprintln(os.Stderr, "  Enter, a  Apply selected profile")
		fmt.Fprintln(os.Stderr, "  s         Save current layout as a new profile")
		fmt.Fprintln(os.Stderr, "  d         Delete selected profile")
		fmt.Fprintln(os.Stderr, "  r         Reload profile list")
		fmt.Fprintln(os.Stderr, "  q, Esc    Quit")
		fmt.Fprintln(os.Stderr, "  Ctrl+C    Quit")
		return 0
	}
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "tui takes no arguments")
		return 2
	}

	cfg := loadConfig()
	eng, cleanup, err := newEngine(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cleanup()

	t := tui.New(eng, engine.ApplyOptions{
		DisableExtras: cfg.DisableExtras,
		ManageWindows: cfg.ManageWindowsEnabled(),
	})
	if err := t.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
