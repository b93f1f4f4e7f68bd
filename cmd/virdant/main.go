// Command virdant is Virdant's command-line front end: it seeds a
// context from a virdant.yaml manifest (or a single source file) and
// runs the elaboration pipeline, printing diagnostics and setting the
// exit status, or drops into the replshell query shell. Code
// generation and simulation live in separate tools; this command only
// checks.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/virdant-lang/virdant/internal/elaborate"
	"github.com/virdant-lang/virdant/internal/manifest"
	"github.com/virdant-lang/virdant/internal/replshell"
)

var (
	Version = "dev"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "Print version information")
		helpFlag    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("virdant %s\n", bold(Version))
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	switch flag.Arg(0) {
	case "check":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing manifest or source file\n", red("Error"))
			fmt.Println("Usage: virdant check <virdant.yaml | file.vir>")
			os.Exit(1)
		}
		checkPath(flag.Arg(1))

	case "repl":
		runREPL()

	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), flag.Arg(0))
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(bold("virdant - a Virdant package checker"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  virdant check <virdant.yaml | file.vir>   elaborate a package and report diagnostics")
	fmt.Println("  virdant repl                               start an interactive query shell")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

func checkPath(path string) {
	ctx := elaborate.NewContext()

	if filepath.Ext(path) == ".yaml" || filepath.Ext(path) == ".yml" {
		m, err := manifest.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			os.Exit(1)
		}
		m.Seed(ctx, filepath.Dir(path))
	} else {
		name := filepath.Base(path)
		ctx.RegisterPackage(name[:len(name)-len(filepath.Ext(name))], path)
	}

	elaborated, diags := ctx.Check()
	if diags.OK() {
		fmt.Printf("%s %d module(s) checked, no diagnostics\n", green("✓"), len(elaborated.Modules))
		return
	}

	for _, r := range diags.Reports() {
		fmt.Fprintf(os.Stderr, "%s %s: %s\n", yellow(string(r.Kind)), r.Code, r.Error())
	}
	os.Exit(1)
}

func runREPL() {
	shell := replshell.New()
	shell.Start(os.Stdout)
}
