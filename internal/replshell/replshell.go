// Package replshell is a small interactive query shell over an
// elaborate.Context: developer tooling for exercising the incremental
// cache live. It performs no subcommand dispatch and no code
// generation, only read-only queries (items, structure, layout, deps,
// check) against whatever packages are loaded.
package replshell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/virdant-lang/virdant/internal/check"
	"github.com/virdant-lang/virdant/internal/elaborate"
	"github.com/virdant-lang/virdant/internal/ids"
	"github.com/virdant-lang/virdant/internal/vtypes"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

var commands = []string{
	":load", ":check", ":items", ":structure", ":layout", ":deps", ":help", ":quit",
}

// Shell is an interactive session wrapping one elaborate.Context.
type Shell struct {
	ctx *elaborate.Context
}

// New creates a shell over a fresh, empty Context.
func New() *Shell {
	return &Shell{ctx: elaborate.NewContext()}
}

// Context returns the shell's underlying analysis session, so a host
// program can seed packages before calling Start (e.g. from a manifest).
func (s *Shell) Context() *elaborate.Context { return s.ctx }

// Start runs the read-eval-print loop until EOF or :quit.
func (s *Shell) Start(out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(false)

	historyFile := filepath.Join(os.TempDir(), ".virdant_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	line.SetCompleter(func(partial string) (c []string) {
		if strings.HasPrefix(partial, ":") {
			for _, cmd := range commands {
				if strings.HasPrefix(cmd, partial) {
					c = append(c, cmd)
				}
			}
		}
		return
	})

	fmt.Fprintf(out, "%s\n", bold("virdant"))
	fmt.Fprintln(out, dim("Type :help for help, :quit to exit"))
	fmt.Fprintln(out)

	for {
		input, err := line.Prompt(cyan("vir> "))
		if err == io.EOF {
			fmt.Fprintln(out, green("Goodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if input == ":quit" {
			break
		}
		s.dispatch(input, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

func (s *Shell) dispatch(input string, out io.Writer) {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case ":help":
		s.help(out)

	case ":load":
		if len(parts) != 3 {
			fmt.Fprintln(out, "Usage: :load <package> <path>")
			return
		}
		s.ctx.RegisterPackage(parts[1], parts[2])
		fmt.Fprintf(out, "registered package %s -> %s\n", yellow(parts[1]), parts[2])

	case ":check":
		s.check(out)

	case ":items":
		if len(parts) != 2 {
			fmt.Fprintln(out, "Usage: :items <package>")
			return
		}
		s.items(parts[1], out)

	case ":structure":
		if len(parts) != 2 {
			fmt.Fprintln(out, "Usage: :structure <pkg::Mod>")
			return
		}
		s.structure(parts[1], out)

	case ":layout":
		if len(parts) != 2 {
			fmt.Fprintln(out, "Usage: :layout <pkg::Union>")
			return
		}
		s.layout(parts[1], out)

	case ":deps":
		if len(parts) != 2 {
			fmt.Fprintln(out, "Usage: :deps <pkg::Item>")
			return
		}
		s.deps(parts[1], out)

	default:
		fmt.Fprintf(out, "unknown command %s; type :help\n", cmd)
	}
}

func (s *Shell) help(out io.Writer) {
	fmt.Fprintln(out, ":load <package> <path>   register a package's source file")
	fmt.Fprintln(out, ":check                   run the full elaboration pass")
	fmt.Fprintln(out, ":items <package>         list a package's declared items")
	fmt.Fprintln(out, ":structure <pkg::Mod>    print a module's built elements/submodules")
	fmt.Fprintln(out, ":layout <pkg::Union>     print a union's bit layout")
	fmt.Fprintln(out, ":deps <pkg::Item>        print an item's direct dependencies")
	fmt.Fprintln(out, ":quit                    exit")
}

func (s *Shell) check(out io.Writer) {
	elaborated, diags := s.ctx.Check()
	if diags.OK() {
		fmt.Fprintf(out, "%s (%d modules)\n", green("ok"), len(elaborated.Modules))
		return
	}
	for _, r := range diags.Reports() {
		fmt.Fprintf(out, "%s %s\n", red(string(r.Kind)+":"), r.Error())
	}
}

func (s *Shell) items(pkg string, out io.Writer) {
	items, diags := s.ctx.Reg.Items(pkg)
	for _, r := range diags.Reports() {
		fmt.Fprintf(out, "%s %s\n", red(string(r.Kind)+":"), r.Error())
	}
	names := make([]string, len(items))
	for i, id := range items {
		kind, _ := s.ctx.Reg.ItemKind(id)
		names[i] = fmt.Sprintf("%s (%s)", id, kind)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintln(out, n)
	}
}

func (s *Shell) structure(ident string, out io.Writer) {
	pkg, bare := splitQualified(ident)
	item, rerr := s.ctx.Reg.Resolve(pkg, bare)
	if rerr != nil {
		fmt.Fprintf(out, "%s %s\n", red("error:"), rerr.Error())
		return
	}
	kind, _ := s.ctx.Reg.ItemKind(item)
	mid, cerr := ids.Coerce[ids.ModDefTag](item, kind, ids.KindModDef)
	if cerr != nil {
		fmt.Fprintf(out, "%s %s\n", red("error:"), cerr.Error())
		return
	}
	mc, diags := s.ctx.Checker.CheckModule(mid)
	for _, r := range diags.Reports() {
		fmt.Fprintf(out, "%s %s\n", red(string(r.Kind)+":"), r.Error())
	}
	if mc == nil {
		return
	}
	printModuleCheck(mc, out)
}

func printModuleCheck(mc *check.ModuleCheck, out io.Writer) {
	for _, el := range mc.Elements {
		driver := "undriven"
		if el.Driver != nil {
			driver = fmt.Sprintf("%s", el.Driver.Type)
		}
		fmt.Fprintf(out, "  %-8s %-16s : %-14v <- %s\n", el.Element.Kind, el.Element.Name, el.Element.Type, driver)
	}
	for _, sub := range mc.Submodules {
		fmt.Fprintf(out, "  submodule %-16s of %s\n", sub.Submodule.Name, sub.Submodule.Target)
	}
}

func (s *Shell) layout(ident string, out io.Writer) {
	pkg, bare := splitQualified(ident)
	item, rerr := s.ctx.Reg.Resolve(pkg, bare)
	if rerr != nil {
		fmt.Fprintf(out, "%s %s\n", red("error:"), rerr.Error())
		return
	}
	kind, _ := s.ctx.Reg.ItemKind(item)
	uid, cerr := ids.Coerce[ids.UnionTag](item, kind, ids.KindUnionDef)
	if cerr != nil {
		fmt.Fprintf(out, "%s %s\n", red("error:"), cerr.Error())
		return
	}
	info, diags := s.ctx.Defs.Union(uid)
	for _, r := range diags.Reports() {
		fmt.Fprintf(out, "%s %s\n", red(string(r.Kind)+":"), r.Error())
	}
	if info == nil {
		return
	}
	layout := vtypes.ComputeLayout(s.ctx.Defs, info)
	fmt.Fprintf(out, "tag_width=%d payload_width=%d total_width=%d\n", layout.TagWidth, layout.PayloadWidth, layout.TotalWidth)
	for _, c := range layout.Ctors {
		fmt.Fprintf(out, "  @%s tag=%d", c.Name, c.Tag)
		for _, slot := range c.Slots {
			fmt.Fprintf(out, " (%d,%d)", slot.Offset, slot.Width)
		}
		fmt.Fprintln(out)
	}
}

func (s *Shell) deps(ident string, out io.Writer) {
	pkg, bare := splitQualified(ident)
	item, rerr := s.ctx.Reg.Resolve(pkg, bare)
	if rerr != nil {
		fmt.Fprintf(out, "%s %s\n", red("error:"), rerr.Error())
		return
	}
	for _, dep := range s.ctx.Graph.Deps(item) {
		fmt.Fprintln(out, dep)
	}
}

func splitQualified(ident string) (pkg, bare string) {
	for i := 0; i+1 < len(ident); i++ {
		if ident[i] == ':' && ident[i+1] == ':' {
			return ident[:i], ident[i+2:]
		}
	}
	return "", ident
}
