package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nooga/simdjs/pkg/builtins"
	"github.com/nooga/simdjs/pkg/config"
	"github.com/nooga/simdjs/pkg/vm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")).
			Width(10)

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")).
			Width(12)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// newLogger builds the -v logger.
var newLogger = zap.NewDevelopment

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code. Deferred cleanup
// runs before main exits.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("simdrt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFlag := fs.String("config", "", "Path to a simd.toml realm configuration")
	verboseFlag := fs.Bool("v", false, "Log realm bootstrap to stderr")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: simdrt [-config simd.toml] [-v] [lane values...]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 64 // Exit code 64: command line usage error
	}

	if *verboseFlag {
		logger, err := newLogger()
		if err != nil {
			fmt.Fprintln(stderr, errorStyle.Render(err.Error()))
			return 70 // Exit code 70: internal software error
		}
		defer func() { _ = logger.Sync() }()
		builtins.SetLogger(logger)
		defer builtins.SetLogger(zap.NewNop())
	}

	cfg := config.Default()
	if *configFlag != "" {
		loaded, err := config.Load(*configFlag)
		if err != nil {
			fmt.Fprintln(stderr, errorStyle.Render(err.Error()))
			return 78 // Exit code 78: configuration error
		}
		cfg = loaded
	}

	realm, err := builtins.NewRealm(cfg)
	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Render(err.Error()))
		return 70
	}

	lanes := make([]vm.Value, fs.NArg())
	for i, arg := range fs.Args() {
		lanes[i] = vm.NewString(arg)
	}
	if !describeRealm(realm, lanes, stdout, stderr) {
		return 70
	}
	return 0
}

// describeRealm prints every installed SIMD kind with an instance built from
// lanes through the kind's constructor.
func describeRealm(realm *vm.Realm, lanes []vm.Value, stdout, stderr io.Writer) bool {
	kinds := realm.SIMDKinds()
	fmt.Fprintln(stdout, titleStyle.Render(fmt.Sprintf("SIMD realm %d: %d kinds", realm.ID(), len(kinds))))
	if len(kinds) == 0 {
		fmt.Fprintln(stdout, helpStyle.Render("SIMD is disabled in this realm"))
		return true
	}

	toString, ok := realm.ObjectPrototype.AsPlainObject().GetOwn("toString")
	if !ok {
		fmt.Fprintln(stderr, errorStyle.Render("Object.prototype.toString is not installed"))
		return false
	}

	for _, f := range kinds {
		pair, _ := realm.SIMDConstructor(f)
		value, err := realm.Call(pair.Constructor, vm.Undefined, lanes)
		if err != nil {
			fmt.Fprintln(stderr, errorStyle.Render(f.Name()+": "+err.Error()))
			return false
		}
		tag, err := realm.Call(toString, value, nil)
		if err != nil {
			fmt.Fprintln(stderr, errorStyle.Render(f.Name()+": "+err.Error()))
			return false
		}
		t := vm.SIMDGetType(value)
		of, _ := realm.SIMDObjectFactory(f)
		fmt.Fprintf(stdout, "%s %s %s\n",
			kindStyle.Render(t.Name()),
			typeStyle.Render(fmt.Sprintf("%d x %s", t.Lanes(), t.Element())),
			resultStyle.Render(value.Inspect()+"  "+tag.ToString()))
		fmt.Fprintln(stdout, helpStyle.Render("  shape " + of.Shape().Describe()))
	}
	return true
}
