// Command play runs a dialogue graph file in the terminal.
//
//	play [-set name=value]... [-lint] [-catalog file -locale code] graph.yaml
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"branchline/internal/codec"
	"branchline/internal/config"
	"branchline/internal/domain"
	"branchline/internal/engine"
	"branchline/internal/localize"
	"branchline/internal/logging"
)

// assignments collects repeated -set flags
type assignments []domain.Property

func (a *assignments) String() string {
	parts := make([]string, 0, len(*a))
	for _, p := range *a {
		parts = append(parts, p.Name+"="+p.Value)
	}
	return strings.Join(parts, ",")
}

func (a *assignments) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	*a = append(*a, domain.Property{Name: name, Value: value})
	return nil
}

func main() {
	var sets assignments
	flag.Var(&sets, "set", "Override a property value (name=value, repeatable)")
	lint := flag.Bool("lint", false, "Print graph warnings and exit")
	catalogPath := flag.String("catalog", "", "Localization catalog file")
	locale := flag.String("locale", "", "Catalog locale")
	verbose := flag.Bool("v", false, "Log runtime diagnostics")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: play [flags] graph.(json|yaml)")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.New(config.LoggingConfig{Level: level, Format: "console"})
	if err != nil {
		fatal(err)
	}
	defer logger.Sync() //nolint:errcheck

	path := flag.Arg(0)
	graph, err := loadGraph(path)
	if err != nil {
		fatal(err)
	}

	if *lint {
		if printWarnings(os.Stdout, engine.Lint(graph)) > 0 {
			os.Exit(1)
		}
		return
	}

	for _, p := range sets {
		if err := graph.SetPropertyValue(p.Name, p.Value); err != nil {
			fatal(err)
		}
	}

	opts := []engine.Option{engine.WithLogger(logger)}
	if *catalogPath != "" {
		catalog := localize.NewCatalog()
		if err := catalog.LoadFile(*catalogPath); err != nil {
			fatal(err)
		}
		opts = append(opts, engine.WithTextResolver(catalog.Resolver(*locale, codec.NameFromPath(path))))
	}

	if err := play(os.Stdin, os.Stdout, engine.New(graph, opts...)); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "play: %v\n", err)
	os.Exit(1)
}

func loadGraph(path string) (*domain.Container, error) {
	format, err := codec.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	cd, err := codec.ForFormat(format)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	graph, err := cd.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	graph.Name = codec.NameFromPath(path)
	return graph, nil
}

func printWarnings(w io.Writer, warnings []domain.Warning) int {
	if len(warnings) == 0 {
		fmt.Fprintln(w, "no warnings")
		return 0
	}
	for _, warning := range warnings {
		fmt.Fprintln(w, warning.String())
	}
	return len(warnings)
}

// play drives a session from line input: a choice number follows that
// choice, "q" quits. Unreadable input is reported and asked again.
func play(in io.Reader, out io.Writer, session *engine.Session) error {
	state, err := session.Start()
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		render(out, state)
		if state.Ended() {
			return nil
		}

		choice, ok, err := readChoice(scanner, out, len(state.Choices))
		if err != nil || !ok {
			return err
		}

		state, err = session.Proceed(state.Choices[choice].TargetID)
		if err != nil {
			return err
		}
	}
}

func render(out io.Writer, state engine.State) {
	if state.Text != "" {
		fmt.Fprintf(out, "\n%s\n", state.Text)
	}
	if state.Ended() {
		fmt.Fprintf(out, "\n[end: %s]\n", state.EndReason)
		return
	}
	for i, c := range state.Choices {
		label := c.Label
		if label == "" {
			label = c.TargetID
		}
		fmt.Fprintf(out, "  %d) %s\n", i+1, label)
	}
}

// readChoice returns a zero-based choice index. ok is false when the
// player quits or input runs out.
func readChoice(scanner *bufio.Scanner, out io.Writer, n int) (int, bool, error) {
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return 0, false, scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "q" || line == "quit" {
			return 0, false, nil
		}

		i, err := strconv.Atoi(line)
		if err != nil || i < 1 || i > n {
			fmt.Fprintf(out, "pick 1-%d, or q to quit\n", n)
			continue
		}
		return i - 1, true, nil
	}
}
