package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"go/format"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rubiojr/pseudo/ast"
	"github.com/rubiojr/pseudo/diag"
	"github.com/rubiojr/pseudo/parser"
	"github.com/xyproto/env/v2"
)

// Compiler orchestrates the pipeline: tokenize, parse, check and generate
// Go, then build and run with the Go toolchain. A Compiler keeps no state
// between compiles.
type Compiler struct {
	// Verbose prints stage timings to Stderr.
	Verbose bool
	// Stderr receives timings and build output. Defaults to os.Stderr.
	Stderr io.Writer
}

// CompileResult holds the output of a compilation.
type CompileResult struct {
	GoSource   string
	Program    *ast.Program
	SourceFile string
}

// RunOptions configures a run of a compiled program.
type RunOptions struct {
	// FilesDir seeds the virtual files: every regular file in it becomes
	// a named list of lines.
	FilesDir string
	// OutDir receives the files the program wrote.
	OutDir string
	// Args are passed to the program.
	Args []string
}

func (c *Compiler) stderr() io.Writer {
	if c.Stderr != nil {
		return c.Stderr
	}
	return os.Stderr
}

func (c *Compiler) timed(stage string, start time.Time) {
	if c.Verbose {
		fmt.Fprintf(c.stderr(), "%-8s %s\n", stage, time.Since(start).Round(time.Microsecond))
	}
}

// Compile reads a pseudocode file and produces Go source.
func (c *Compiler) Compile(filename string) (*CompileResult, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return c.CompileSource(string(src), filename)
}

// CompileSource compiles pseudocode text. name is used in diagnostics.
func (c *Compiler) CompileSource(src, name string) (*CompileResult, error) {
	start := time.Now()
	prog, err := parser.ParseSource(src, name)
	if err != nil {
		return nil, err
	}
	c.timed("parse", start)

	start = time.Now()
	goSrc, err := generate(prog)
	if err != nil {
		return nil, diag.WithFile(err, name)
	}
	formatted, err := format.Source([]byte(goSrc))
	if err != nil {
		return nil, fmt.Errorf("code generation: formatting output: %w", err)
	}
	c.timed("generate", start)

	return &CompileResult{GoSource: string(formatted), Program: prog, SourceFile: name}, nil
}

// Emit compiles a pseudocode file and returns the Go source.
func (c *Compiler) Emit(filename string) (string, error) {
	result, err := c.Compile(filename)
	if err != nil {
		return "", err
	}
	return result.GoSource, nil
}

// goModContent is the go.mod of a generated program. The runtime only
// uses the standard library.
func goModContent() string {
	return "module pseudo_program\n\ngo 1.22\n"
}

// buildDir holds the generated module of one build.
type buildDir struct {
	path string
	keep bool
}

func newBuildDir(result *CompileResult) (*buildDir, error) {
	tmpDir, err := os.MkdirTemp("", "pseudo-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	d := &buildDir{path: tmpDir, keep: env.Bool("PSEUDO_KEEP_BUILD")}
	if err := os.WriteFile(filepath.Join(tmpDir, "main.go"), []byte(result.GoSource), 0o644); err != nil {
		d.cleanup()
		return nil, fmt.Errorf("writing Go source: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "go.mod"), []byte(goModContent()), 0o644); err != nil {
		d.cleanup()
		return nil, fmt.Errorf("writing go.mod: %w", err)
	}
	return d, nil
}

func (d *buildDir) cleanup() {
	if d.keep {
		fmt.Fprintf(os.Stderr, "keeping build directory %s\n", d.path)
		return
	}
	os.RemoveAll(d.path)
}

// build compiles the generated module into output.
func (c *Compiler) build(d *buildDir, output string) error {
	start := time.Now()
	var stderr bytes.Buffer
	cmd := exec.Command(env.Str("PSEUDO_GO", "go"), "build", "-mod=mod", "-ldflags=-s -w", "-o", output, ".")
	cmd.Dir = d.path
	cmd.Env = appendGoNoSumCheck(os.Environ())
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &BuildError{Err: err, Output: strings.TrimSpace(stderr.String())}
	}
	c.timed("build", start)
	return nil
}

// cachedBuild reuses a cached binary for goSource when there is one and
// otherwise builds and caches it.
func (c *Compiler) cachedBuild(d *buildDir, goSource, bin string) error {
	cache := openBinCache()
	if cache == nil {
		return c.build(d, bin)
	}
	key := cache.key(goSource, goModContent())
	if cache.load(key, bin) {
		if c.Verbose {
			fmt.Fprintf(c.stderr(), "%-8s cached %s\n", "build", key)
		}
		return nil
	}
	if err := c.build(d, bin); err != nil {
		return err
	}
	cache.store(key, bin)
	return nil
}

// Build compiles a pseudocode file to a native binary.
func (c *Compiler) Build(filename, output string) error {
	result, err := c.Compile(filename)
	if err != nil {
		return err
	}
	d, err := newBuildDir(result)
	if err != nil {
		return err
	}
	defer d.cleanup()

	if output == "" {
		base := filepath.Base(filename)
		output = strings.TrimSuffix(base, filepath.Ext(base))
	}
	absOutput, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}
	return c.build(d, absOutput)
}

// BuildError reports that the Go toolchain rejected the generated program.
// It does not unwrap to the toolchain's *exec.ExitError.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("go build failed: %v", e.Err)
	}
	return fmt.Sprintf("go build failed: %v\n%s", e.Err, e.Output)
}

// ExitError reports that a program stopped with a runtime error.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return strings.TrimSpace(e.Stderr)
	}
	return fmt.Sprintf("program exited with status %d", e.Code)
}

// Run compiles and runs a pseudocode file with stdin and stdout attached.
func (c *Compiler) Run(filename string, opts RunOptions) error {
	result, err := c.Compile(filename)
	if err != nil {
		return err
	}
	files, err := readFilesDir(opts.FilesDir)
	if err != nil {
		return err
	}
	var stderr bytes.Buffer
	written, err := c.execute(result, files, os.Stdin, os.Stdout, io.MultiWriter(os.Stderr, &stderr), opts.Args)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return err
	}
	if opts.OutDir == "" {
		return nil
	}
	return writeFilesDir(opts.OutDir, written)
}

// RunCapture compiles src and runs it with the given input lines and
// virtual files. It returns the output lines and the files the program
// wrote. A runtime error is returned as an *ExitError together with the
// output produced before it.
func (c *Compiler) RunCapture(src string, input []string, files map[string][]string) ([]string, map[string][]string, error) {
	result, err := c.CompileSource(src, "")
	if err != nil {
		return nil, nil, err
	}
	stdin := strings.NewReader(strings.Join(input, "\n"))
	var stdout, stderr bytes.Buffer
	written, err := c.execute(result, files, stdin, &stdout, &stderr, nil)
	lines := splitLines(stdout.String())
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return lines, nil, &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return lines, nil, err
	}
	return lines, written, nil
}

// execute builds the program and runs it. Virtual files travel through
// PSEUDO_FILES and PSEUDO_FILES_OUT.
func (c *Compiler) execute(result *CompileResult, files map[string][]string, stdin io.Reader, stdout, stderr io.Writer, args []string) (map[string][]string, error) {
	d, err := newBuildDir(result)
	if err != nil {
		return nil, err
	}
	defer d.cleanup()

	bin := filepath.Join(d.path, "pseudo_program")
	if err := c.cachedBuild(d, result.GoSource, bin); err != nil {
		return nil, err
	}

	runEnv := os.Environ()
	if len(files) > 0 {
		seed, err := json.Marshal(files)
		if err != nil {
			return nil, fmt.Errorf("encoding files: %w", err)
		}
		runEnv = append(runEnv, "PSEUDO_FILES="+string(seed))
	}
	outFile := filepath.Join(d.path, "files_out.json")
	runEnv = append(runEnv, "PSEUDO_FILES_OUT="+outFile)

	start := time.Now()
	cmd := exec.Command(bin, args...)
	cmd.Env = runEnv
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	c.timed("run", start)

	data, err := os.ReadFile(outFile)
	if err != nil {
		return nil, fmt.Errorf("reading written files: %w", err)
	}
	var written map[string][]string
	if err := json.Unmarshal(data, &written); err != nil {
		return nil, fmt.Errorf("decoding written files: %w", err)
	}
	return written, nil
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// readFilesDir loads every regular file in dir as a list of lines.
func readFilesDir(dir string) (map[string][]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading files directory: %w", err)
	}
	files := map[string][]string{}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		files[e.Name()] = splitLines(strings.ReplaceAll(string(data), "\r\n", "\n"))
	}
	return files, nil
}

func writeFilesDir(dir string, files map[string][]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for name, lines := range files {
		path := filepath.Join(dir, filepath.Base(name))
		if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// appendGoNoSumCheck adds GONOSUMCHECK=* to the environment if not already set,
// allowing temporary build directories to resolve module dependencies without
// requiring a pre-populated go.sum.
func appendGoNoSumCheck(env []string) []string {
	for _, e := range env {
		if strings.HasPrefix(e, "GONOSUMCHECK=") {
			return env
		}
	}
	return append(env, "GONOSUMCHECK=*")
}
