package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rubiojr/pseudo/compiler"
	"github.com/rubiojr/pseudo/lexer"
	"github.com/urfave/cli/v3"
	"github.com/xyproto/env/v2"
	"golang.org/x/term"
)

const sourceExt = ".pseudo"

// Execute runs the pseudo CLI with the given version string.
func Execute(version string) {
	cmd := &cli.Command{
		Name:                   "pseudo",
		Usage:                  "Compile exam-board pseudocode to Go",
		Version:                version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Print stage timings to stderr",
			},
		},
		// Allow `pseudo prog.pseudo` as shorthand for `pseudo run prog.pseudo`
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 0 && strings.HasSuffix(cmd.Args().First(), sourceExt) {
				return newCompiler(cmd).Run(cmd.Args().First(), compiler.RunOptions{Args: cmd.Args().Tail()})
			}
			return cli.DefaultShowRootCommandHelp(cmd)
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Compile and run a pseudocode file",
				ArgsUsage: "<file.pseudo>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "files",
						Usage: "Seed virtual files from the regular files in `DIR`",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Write the files the program wrote to `DIR`",
					},
				},
				Action: runAction,
			},
			{
				Name:      "build",
				Usage:     "Compile a pseudocode file to a native binary",
				ArgsUsage: "<file.pseudo>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output binary name",
					},
				},
				Action: buildAction,
			},
			{
				Name:      "emit",
				Usage:     "Output the generated Go source code",
				ArgsUsage: "<file.pseudo>",
				Action:    emitAction,
			},
			{
				Name:      "check",
				Usage:     "Check a pseudocode file without building it",
				ArgsUsage: "<file.pseudo>...",
				Action:    checkAction,
			},
			{
				Name:      "tokens",
				Usage:     "Print the classified source lines",
				ArgsUsage: "<file.pseudo>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print tokens as JSON",
					},
				},
				Action: tokensAction,
			},
			{
				Name:      "test",
				Usage:     "Run .pseudo programs against their .out files",
				ArgsUsage: "[file.pseudo | directory]...",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "jobs",
						Aliases: []string{"j"},
						Usage:   "Parallel programs",
						Value:   1,
					},
					&cli.BoolFlag{
						Name:    "no-color",
						Aliases: []string{"C"},
						Usage:   "Disable ANSI color output",
					},
				},
				Action: testAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newCompiler(cmd *cli.Command) *compiler.Compiler {
	return &compiler.Compiler{Verbose: cmd.Bool("verbose")}
}

// useColor reports whether stderr output may carry ANSI colors.
func useColor() bool {
	return env.Str("NO_COLOR") == "" && term.IsTerminal(int(os.Stderr.Fd()))
}

// printError reports err on stderr. A program that failed at run time has
// already printed its own message.
func printError(err error) {
	var exitErr *compiler.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	if useColor() {
		fmt.Fprintf(os.Stderr, "\033[31merror:\033[0m %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

func requireFile(cmd *cli.Command, usage string) (string, error) {
	if cmd.NArg() < 1 {
		return "", fmt.Errorf("usage: pseudo %s", usage)
	}
	return cmd.Args().First(), nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	file, err := requireFile(cmd, "run [--files DIR] [--out DIR] <file.pseudo>")
	if err != nil {
		return err
	}
	return newCompiler(cmd).Run(file, compiler.RunOptions{
		FilesDir: cmd.String("files"),
		OutDir:   cmd.String("out"),
		Args:     cmd.Args().Tail(),
	})
}

func buildAction(ctx context.Context, cmd *cli.Command) error {
	file, err := requireFile(cmd, "build [-o output] <file.pseudo>")
	if err != nil {
		return err
	}
	return newCompiler(cmd).Build(file, cmd.String("output"))
}

func emitAction(ctx context.Context, cmd *cli.Command) error {
	file, err := requireFile(cmd, "emit <file.pseudo>")
	if err != nil {
		return err
	}
	src, err := newCompiler(cmd).Emit(file)
	if err != nil {
		return err
	}
	fmt.Print(src)
	return nil
}

func checkAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: pseudo check <file.pseudo>...")
	}
	comp := newCompiler(cmd)
	failed := 0
	for _, file := range cmd.Args().Slice() {
		if _, err := comp.Compile(file); err != nil {
			printError(err)
			failed++
			continue
		}
		fmt.Printf("%s: ok\n", file)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, cmd.NArg())
	}
	return nil
}

func tokensAction(ctx context.Context, cmd *cli.Command) error {
	file, err := requireFile(cmd, "tokens [--json] <file.pseudo>")
	if err != nil {
		return err
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}
	toks, err := lexer.Tokenize(string(src))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(toks)
	}
	for _, t := range toks {
		fmt.Println(t)
	}
	return nil
}
