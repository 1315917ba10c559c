// nacl-modules prints the module list a debugger attached to a Native
// Client host runtime should see: the host's own objects followed by the
// program, integrated runtime and libraries loaded inside the sandbox.
//
// The process is only read, never stopped. Load breakpoints the sandbox
// support asks for are printed instead of inserted.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/wnxd/nacldbg/config"
	"github.com/wnxd/nacldbg/debugger"
	procfs "github.com/wnxd/nacldbg/internal/debugger"
	"github.com/wnxd/nacldbg/manifest"
	"github.com/wnxd/nacldbg/nacl"
)

// debugEnv forces debug logging when set to any non-empty value.
const debugEnv = "NACLDBG_DEBUG"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	pid        int
	configPath string
	manifest   string
	program    string
	irt        string
	strict     bool
	threads    bool
	logLevel   string
	logFormat  string
}

func newFlagSet(f *flags) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("nacl-modules", pflag.ContinueOnError)
	flagSet.IntVarP(&f.pid, "pid", "p", 0, "process ID of the host runtime")
	flagSet.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	flagSet.StringVar(&f.manifest, "manifest", "", "manifest describing the sandboxed program")
	flagSet.StringVar(&f.program, "program", "", "sandboxed program, instead of a manifest")
	flagSet.StringVar(&f.irt, "irt", "", "integrated runtime mapped at the sandbox base")
	flagSet.BoolVar(&f.strict, "strict-duplicates", false, "reject manifests naming a file twice")
	flagSet.BoolVar(&f.threads, "threads", false, "also print each thread's environment")
	flagSet.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flagSet.StringVar(&f.logFormat, "log-format", "", "log format (text, json)")
	flagSet.BoolP("help", "h", false, "show help")
	return flagSet
}

func run(args []string, stdout, stderr io.Writer) error {
	var f flags
	flagSet := newFlagSet(&f)
	flagSet.SetOutput(stderr)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet, stderr)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet, stderr)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	cfg, err := loadConfig(flagSet, &f)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}
	if f.pid <= 0 {
		return errors.New("--pid is required")
	}

	proc, err := procfs.Open(f.pid, procfs.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("attach %d: %w", f.pid, err)
	}
	defer proc.Close()
	return list(proc, cfg, f.threads, logger, stdout)
}

// loadConfig reads the config file, if any, and lets explicitly set flags
// override it.
func loadConfig(flagSet *pflag.FlagSet, f *flags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}
	if flagSet.Changed("manifest") && flagSet.Changed("program") {
		return nil, errors.New("--manifest and --program are mutually exclusive")
	}
	if flagSet.Changed("manifest") {
		cfg.Manifest, cfg.Program = f.manifest, ""
	}
	if flagSet.Changed("program") {
		cfg.Program, cfg.Manifest = f.program, ""
	}
	if flagSet.Changed("irt") {
		cfg.IRT = f.irt
	}
	if flagSet.Changed("strict-duplicates") {
		cfg.StrictDuplicates = f.strict
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if flagSet.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if os.Getenv(debugEnv) != "" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == config.FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

type target interface {
	debugger.Target
	debugger.ModuleManager
	debugger.ThreadLister
	Breakpoints() []uint64
}

func list(proc target, cfg *config.Config, threads bool, logger *slog.Logger, w io.Writer) error {
	var opts []manifest.Option
	if cfg.StrictDuplicates {
		opts = append(opts, manifest.WithStrictDuplicates())
	}
	table := manifest.NewTable(opts...)
	solib := nacl.New(proc, nacl.WithLogger(logger), nacl.WithManifest(table))
	if err := solib.InferiorCreated(); err != nil {
		logger.Warn("sandbox creation hook not armed", "error", err)
	}
	if cfg.IRT != "" {
		table.SetIRT(cfg.IRT)
	}

	var mods []debugger.Module
	var err error
	switch {
	case cfg.Manifest != "":
		mods, err = solib.LoadManifest(cfg.Manifest)
	case cfg.Program != "":
		mods, err = solib.SetProgram(cfg.Program)
	default:
		mods, err = solib.Rebuild()
	}
	if err != nil && mods == nil {
		return err
	} else if err != nil {
		logger.Warn("module list incomplete", "error", err)
	}
	proc.Load(mods)

	sandbox := &solib.State().Sandbox
	for _, m := range mods {
		fmt.Fprintln(w, m)
		if !sandbox.Contains(m.Addr) {
			continue
		}
		if err := solib.ModuleLoaded(m.Name); err != nil {
			logger.Debug("sandboxed module unreadable", "module", m.Name, "error", err)
		}
	}
	if entry, err := solib.EntryPoint(); err == nil {
		fmt.Fprintf(w, "entry %016X\n", entry)
	}
	for _, addr := range proc.Breakpoints() {
		fmt.Fprintf(w, "breakpoint %016X\n", addr)
	}
	if !threads {
		return nil
	}

	ts, err := proc.Threads()
	if err != nil {
		return fmt.Errorf("threads: %w", err)
	}
	for _, t := range ts {
		name := "?"
		if m, err := proc.FindModuleByAddr(t.PC); err == nil {
			name = m.Name
		}
		fmt.Fprintf(w, "thread %d %016X %s %s\n", t.ID, t.PC, solib.ThreadEnvironment(t.PC), name)
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `nacl-modules lists the modules of a Native Client host runtime, including
those loaded inside its sandbox.

Usage:
  nacl-modules --pid PID [flags]

Examples:
  # Use a manifest to map sandbox names to files on disk
  nacl-modules --pid 4242 --manifest out/app.nmf --irt out/irt_core.nexe

  # Name the program directly and show where each thread is
  nacl-modules --pid 4242 --program out/main.nexe --threads

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
