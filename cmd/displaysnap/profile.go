package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/displaysnap/internal/engine"
	"github.com/1broseidon/displaysnap/internal/ipc"
	"github.com/1broseidon/displaysnap/internal/profile"
)

func printProfileUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  displaysnap profile list")
	fmt.Fprintln(w, "  displaysnap profile save <name>")
	fmt.Fprintln(w, "  displaysnap profile show <name>")
	fmt.Fprintln(w, "  displaysnap profile apply [--dry-run] [--disable-extras] [--no-windows] <name>")
	fmt.Fprintln(w, "  displaysnap profile delete <name>")
	fmt.Fprintln(w, "  displaysnap profile rename <old> <new>")
	fmt.Fprintln(w, "  displaysnap profile export <file>")
	fmt.Fprintln(w, "  displaysnap profile import <file>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'displaysnap profile <command> --help' for command-specific options.")
}

func runProfile(args []string) int {
	if len(args) == 0 {
		printProfileUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printProfileUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "list":
		return runProfileList(args[1:])
	case "save":
		return runProfileSave(args[1:])
	case "show":
		return runProfileShow(args[1:])
	case "apply":
		return runProfileApply(args[1:])
	case "delete":
		return runProfileDelete(args[1:])
	case "rename":
		return runProfileRename(args[1:])
	case "export":
		return runProfileExport(args[1:])
	case "import":
		return runProfileImport(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown profile command: %s\n\n", args[0])
		printProfileUsage(os.Stderr)
		return 2
	}
}

// newStore opens the profile store without touching the X server. Pure
// store operations (list, show, rename, export, import) go through here
// so they work on headless sessions too.
func newStore() (*profile.Store, error) {
	cfg := loadConfig()
	dir := cfg.ProfilesDir
	if dir == "" {
		var err error
		dir, err = profile.DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	return profile.NewStore(dir)
}

func runProfileList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: displaysnap profile list")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "profile list takes no arguments")
		fs.Usage()
		return 2
	}

	store, err := newStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	names, err := store.List()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return 0
}

func runProfileSave(args []string) int {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: displaysnap profile save <name>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Snapshot the current display layout under the given name.")
		fmt.Fprintln(os.Stderr, "Overwrites an existing profile with the same name.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "profile save requires <name>")
		fs.Usage()
		return 2
	}
	name := fs.Arg(0)

	// Prefer the daemon: its engine serializes saves against applies.
	client := ipc.NewClient()
	if client.Available() {
		if err := client.SaveProfile(name); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("Saved profile %q\n", name)
		return 0
	}

	cfg := loadConfig()
	eng, cleanup, err := newEngine(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cleanup()

	p, err := eng.SaveCurrent(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("Saved profile %q (%d displays)\n", p.Name, len(p.Displays))
	return 0
}

func runProfileShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: displaysnap profile show <name>")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "profile show requires <name>")
		fs.Usage()
		return 2
	}

	store, err := newStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	p, err := store.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Print(string(data))
	return 0
}

func runProfileApply(args []string) int {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: displaysnap profile apply [--dry-run] [--disable-extras] [--no-windows] <name>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Reconcile the live display state against a saved profile and apply")
		fmt.Fprintln(os.Stderr, "the resulting changes. Routes through the daemon when it is running.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	dryRun := fs.Bool("dry-run", false, "Print the plan without touching displays")
	disableExtras := fs.Bool("disable-extras", false, "Disable displays the profile does not mention")
	noWindows := fs.Bool("no-windows", false, "Skip window parking around the apply")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "profile apply requires <name>")
		fs.Usage()
		return 2
	}
	name := fs.Arg(0)

	// Flags override config only when given explicitly.
	var extrasFlag, windowsFlag *bool
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "disable-extras":
			extrasFlag = disableExtras
		case "no-windows":
			v := !*noWindows
			windowsFlag = &v
		}
	})

	cfg := loadConfig()

	if *dryRun {
		eng, cleanup, err := newEngine(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer cleanup()

		extras := cfg.DisableExtras
		if extrasFlag != nil {
			extras = *extrasFlag
		}
		plan, err := eng.Plan(name, extras)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, w := range plan.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
		if plan.Empty() {
			fmt.Println("Nothing to do; display state already matches.")
			return 0
		}
		for _, op := range plan.Ops {
			fmt.Println(op.String())
		}
		return 0
	}

	client := ipc.NewClient()
	if client.Available() {
		result, err := client.ApplyProfile(name, extrasFlag, windowsFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(result.Summary)
		if result.Report != nil && !result.Report.Succeeded() {
			return 1
		}
		return 0
	}

	eng, cleanup, err := newEngine(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cleanup()

	opts := engine.ApplyOptions{
		DisableExtras: cfg.DisableExtras,
		ManageWindows: cfg.ManageWindowsEnabled(),
	}
	if extrasFlag != nil {
		opts.DisableExtras = *extrasFlag
	}
	if windowsFlag != nil {
		opts.ManageWindows = *windowsFlag
	}

	report, err := eng.Apply(context.Background(), name, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(report.Summary())
	if !report.Succeeded() {
		return 1
	}
	return 0
}

func runProfileDelete(args []string) int {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: displaysnap profile delete <name>")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "profile delete requires <name>")
		fs.Usage()
		return 2
	}
	name := fs.Arg(0)

	client := ipc.NewClient()
	if client.Available() {
		if err := client.DeleteProfile(name); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("Deleted profile %q\n", name)
		return 0
	}

	store, err := newStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := store.Delete(name); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("Deleted profile %q\n", name)
	return 0
}

func runProfileRename(args []string) int {
	fs := flag.NewFlagSet("rename", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: displaysnap profile rename <old> <new>")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "profile rename requires <old> <new>")
		fs.Usage()
		return 2
	}

	store, err := newStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := store.Rename(fs.Arg(0), fs.Arg(1)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("Renamed profile %q to %q\n", fs.Arg(0), fs.Arg(1))
	return 0
}

func runProfileExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: displaysnap profile export <file>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Write all saved profiles into a single YAML file.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "profile export requires <file>")
		fs.Usage()
		return 2
	}

	store, err := newStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := store.Export(fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("Exported profiles to %s\n", fs.Arg(0))
	return 0
}

func runProfileImport(args []string) int {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: displaysnap profile import <file>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Merge profiles from an export file into the local store.")
		fmt.Fprintln(os.Stderr, "Same-named profiles are overwritten.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "profile import requires <file>")
		fs.Usage()
		return 2
	}

	store, err := newStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	names, err := store.Import(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, name := range names {
		fmt.Printf("Imported %q\n", name)
	}
	return 0
}
