package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rubiojr/pseudo/compiler"
	"github.com/urfave/cli/v3"
	"github.com/xyproto/env/v2"
	"golang.org/x/term"
)

// A golden program X.pseudo is checked against X.out. X.in supplies input
// lines, X.files/ seeds the virtual files and X.err holds text the
// compile or runtime error must contain.
type goldenCase struct {
	source string
	base   string
}

type goldenResult struct {
	skipped bool
	failed  bool
	report  string
}

func (g goldenCase) path(ext string) string {
	return g.base + ext
}

// collectPrograms expands directories into the .pseudo files they hold.
func collectPrograms(targets []string) ([]goldenCase, error) {
	var cases []goldenCase
	add := func(path string) {
		cases = append(cases, goldenCase{source: path, base: strings.TrimSuffix(path, sourceExt)})
	}
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", target, err)
		}
		if !info.IsDir() {
			add(target)
			continue
		}
		entries, err := os.ReadDir(target)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", target, err)
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), sourceExt) {
				add(filepath.Join(target, e.Name()))
			}
		}
	}
	return cases, nil
}

// readLines returns the lines of path, or nil when it does not exist.
func readLines(path string) ([]string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	text := strings.TrimSuffix(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if text == "" {
		return []string{}, true, nil
	}
	return strings.Split(text, "\n"), true, nil
}

func readSeedFiles(dir string) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	files := map[string][]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lines, _, err := readLines(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		files[e.Name()] = lines
	}
	return files, nil
}

func runGolden(comp *compiler.Compiler, g goldenCase) goldenResult {
	want, hasOut, err := readLines(g.path(".out"))
	if err != nil {
		return goldenResult{failed: true, report: err.Error()}
	}
	wantErr, hasErr, err := readLines(g.path(".err"))
	if err != nil {
		return goldenResult{failed: true, report: err.Error()}
	}
	if !hasOut && !hasErr {
		return goldenResult{skipped: true, report: "no .out or .err file"}
	}
	input, _, err := readLines(g.path(".in"))
	if err != nil {
		return goldenResult{failed: true, report: err.Error()}
	}
	files, err := readSeedFiles(g.path(".files"))
	if err != nil {
		return goldenResult{failed: true, report: err.Error()}
	}
	src, err := os.ReadFile(g.source)
	if err != nil {
		return goldenResult{failed: true, report: err.Error()}
	}

	got, _, runErr := comp.RunCapture(string(src), input, files)
	if hasErr {
		expected := strings.Join(wantErr, "\n")
		if runErr == nil {
			return goldenResult{failed: true, report: fmt.Sprintf("expected error containing %q, program succeeded", expected)}
		}
		if !strings.Contains(runErr.Error(), expected) {
			return goldenResult{failed: true, report: fmt.Sprintf("expected error containing %q, got %q", expected, runErr.Error())}
		}
	} else if runErr != nil {
		return goldenResult{failed: true, report: runErr.Error()}
	}
	if hasOut {
		if diff := diffLines(want, got); diff != "" {
			return goldenResult{failed: true, report: diff}
		}
	}
	return goldenResult{}
}

// diffLines describes the first line where got departs from want.
func diffLines(want, got []string) string {
	for i := 0; i < len(want) || i < len(got); i++ {
		switch {
		case i >= len(got):
			return fmt.Sprintf("line %d: missing %q", i+1, want[i])
		case i >= len(want):
			return fmt.Sprintf("line %d: unexpected %q", i+1, got[i])
		case want[i] != got[i]:
			return fmt.Sprintf("line %d: want %q, got %q", i+1, want[i], got[i])
		}
	}
	return ""
}

// runGoldenCases runs cases on jobs workers and prints each result in order.
func runGoldenCases(comp *compiler.Compiler, cases []goldenCase, jobs int, w io.Writer, color bool) (passed, failed, skipped int) {
	if jobs < 1 {
		jobs = 1
	}
	colorOK, colorFail, colorSkip, colorReset := "\033[32m", "\033[31m", "\033[33m", "\033[0m"
	if !color {
		colorOK, colorFail, colorSkip, colorReset = "", "", "", ""
	}

	results := make([]goldenResult, len(cases))
	done := make([]chan struct{}, len(cases))
	for i := range done {
		done[i] = make(chan struct{})
	}
	work := make(chan int, len(cases))
	for i := range cases {
		work <- i
	}
	close(work)
	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				results[i] = runGolden(comp, cases[i])
				close(done[i])
			}
		}()
	}

	for i, g := range cases {
		<-done[i]
		r := results[i]
		switch {
		case r.skipped:
			skipped++
			fmt.Fprintf(w, "%sSKIP%s %s: %s\n", colorSkip, colorReset, g.source, r.report)
		case r.failed:
			failed++
			fmt.Fprintf(w, "%sFAIL%s %s\n", colorFail, colorReset, g.source)
			for _, line := range strings.Split(r.report, "\n") {
				fmt.Fprintf(w, "     %s\n", line)
			}
		default:
			passed++
			fmt.Fprintf(w, "%sPASS%s %s\n", colorOK, colorReset, g.source)
		}
	}
	wg.Wait()

	if failed > 0 {
		fmt.Fprintf(w, "\n%d programs, %d passed, %s%d failed%s, %d skipped\n",
			len(cases), passed, colorFail, failed, colorReset, skipped)
	} else {
		fmt.Fprintf(w, "\n%d programs, %s%d passed%s, %d failed, %d skipped\n",
			len(cases), colorOK, passed, colorReset, failed, skipped)
	}
	return passed, failed, skipped
}

func testAction(ctx context.Context, cmd *cli.Command) error {
	targets := cmd.Args().Slice()
	if len(targets) == 0 {
		targets = []string{"."}
	}
	cases, err := collectPrograms(targets)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("no %s programs found", sourceExt)
	}

	color := !cmd.Bool("no-color") && env.Str("NO_COLOR") == "" && term.IsTerminal(int(os.Stdout.Fd()))
	_, failed, _ := runGoldenCases(newCompiler(cmd), cases, int(cmd.Int("jobs")), os.Stdout, color)
	if failed > 0 {
		return fmt.Errorf("%d of %d programs failed", failed, len(cases))
	}
	return nil
}
