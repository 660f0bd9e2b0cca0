package prelude

import (
	"embed"
	"fmt"
	"go/parser"
	"go/token"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Sources embeds the runtime files spliced into generated programs.
//
//go:embed runtime.go array.go builtins.go files.go format.go
var Sources embed.FS

var runtimeFiles = []string{"runtime.go", "array.go", "builtins.go", "files.go", "format.go"}

// Runtime is the prelude split for splicing into a generated main package.
type Runtime struct {
	Imports []string // import paths, sorted and deduplicated
	Body    string   // declarations without package clauses or imports
}

var (
	loadOnce sync.Once
	loaded   *Runtime
	loadErr  error
)

// Load returns the runtime source. It is read and split once per process.
func Load() (*Runtime, error) {
	loadOnce.Do(func() { loaded, loadErr = load() })
	return loaded, loadErr
}

func load() (*Runtime, error) {
	imports := map[string]bool{}
	var body strings.Builder
	fset := token.NewFileSet()
	for _, name := range runtimeFiles {
		src, err := Sources.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading runtime %s: %w", name, err)
		}
		f, err := parser.ParseFile(fset, name, src, parser.ImportsOnly|parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parsing runtime %s: %w", name, err)
		}
		end := f.Name.End()
		for _, imp := range f.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				return nil, fmt.Errorf("runtime %s: bad import %s", name, imp.Path.Value)
			}
			imports[path] = true
		}
		for _, decl := range f.Decls {
			end = decl.End()
		}
		off := fset.Position(end).Offset
		body.WriteString("\n// --- " + name + " ---\n")
		body.WriteString(strings.TrimSpace(string(src[off:])))
		body.WriteString("\n")
	}
	paths := make([]string, 0, len(imports))
	for p := range imports {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return &Runtime{Imports: paths, Body: body.String()}, nil
}
