package prelude

import (
	"encoding/json"
	"fmt"
	"os"
)

// rtFile is one entry of the virtual file table.
type rtFile struct {
	mode     string // READ, WRITE or APPEND while open
	lines    []string
	cursor   int
	modified bool
	open     bool
}

var rtFiles = map[string]*rtFile{}

// rtLoadFiles seeds the file table from the JSON object in PSEUDO_FILES
// (name to list of lines).
func rtLoadFiles() {
	raw := os.Getenv("PSEUDO_FILES")
	if raw == "" {
		return
	}
	var seed map[string][]string
	if err := json.Unmarshal([]byte(raw), &seed); err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring PSEUDO_FILES: %v\n", err)
		return
	}
	for name, lines := range seed {
		rtFiles[name] = &rtFile{lines: lines}
	}
}

// rtModifiedFiles returns the files written during the run that hold at
// least one line.
func rtModifiedFiles() map[string][]string {
	out := map[string][]string{}
	for name, f := range rtFiles {
		if f.modified && len(f.lines) > 0 {
			out[name] = f.lines
		}
	}
	return out
}

// rtSaveFiles writes the modified files as JSON to PSEUDO_FILES_OUT.
func rtSaveFiles() error {
	path := os.Getenv("PSEUDO_FILES_OUT")
	if path == "" {
		return nil
	}
	data, err := json.Marshal(rtModifiedFiles())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func rtOpenFile(line int, name, mode string) {
	f, ok := rtFiles[name]
	switch mode {
	case "READ":
		if !ok {
			rtFail(line, "OPENFILE %q FOR READ: file does not exist", name)
		}
		f.cursor = 0
	case "WRITE":
		if !ok {
			f = &rtFile{}
			rtFiles[name] = f
		}
		f.lines = nil
		f.cursor = 0
		f.modified = true
	case "APPEND":
		if !ok {
			f = &rtFile{}
			rtFiles[name] = f
		}
		f.cursor = len(f.lines)
		f.modified = true
	default:
		rtFail(line, "OPENFILE %q: unknown mode %s", name, mode)
	}
	f.mode = mode
	f.open = true
}

func rtOpened(line int, name, stmt string) *rtFile {
	f, ok := rtFiles[name]
	if !ok || !f.open {
		rtFail(line, "%s %q: file is not open", stmt, name)
	}
	return f
}

func rtCloseFile(line int, name string) {
	f := rtOpened(line, name, "CLOSEFILE")
	f.open = false
	f.mode = ""
}

// rtReadFile returns the next line, or "" past the end of the file.
func rtReadFile(line int, name string) string {
	f := rtOpened(line, name, "READFILE")
	if f.mode != "READ" {
		rtFail(line, "READFILE %q: file is open FOR %s", name, f.mode)
	}
	if f.cursor >= len(f.lines) {
		return ""
	}
	s := f.lines[f.cursor]
	f.cursor++
	return s
}

func rtWriteFile(line int, name, data string) {
	f := rtOpened(line, name, "WRITEFILE")
	if f.mode != "WRITE" && f.mode != "APPEND" {
		rtFail(line, "WRITEFILE %q: file is open FOR %s", name, f.mode)
	}
	f.lines = append(f.lines, data)
	f.cursor = len(f.lines)
}

func rtEOF(line int, name string) bool {
	f := rtOpened(line, name, "EOF")
	return f.cursor >= len(f.lines)
}
