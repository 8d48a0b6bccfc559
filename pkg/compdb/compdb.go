// Package compdb reads clang compilation databases (compile_commands.json).
package compdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileName is the conventional database file name.
const FileName = "compile_commands.json"

// Command is one entry of the database.
type Command struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments,omitempty"`
	Command   string   `json:"command,omitempty"`
	Output    string   `json:"output,omitempty"`
}

// Database indexes commands by absolute source path.
type Database struct {
	Path    string
	entries []*Command
	byFile  map[string]*Command
}

// Load reads a database. path may name the JSON file or a directory holding
// compile_commands.json.
func Load(path string) (*Database, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("compilation database: %w", err)
	}
	if info.IsDir() {
		path = filepath.Join(path, FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compilation database: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes database content. path is only used for messages.
func Parse(data []byte, path string) (*Database, error) {
	var entries []*Command
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	db := &Database{Path: path, byFile: make(map[string]*Command, len(entries))}
	for _, c := range entries {
		if c == nil || c.File == "" {
			continue
		}
		if len(c.Arguments) == 0 && c.Command != "" {
			args, err := SplitCommand(c.Command)
			if err != nil {
				return nil, fmt.Errorf("parse %s: entry %s: %w", path, c.File, err)
			}
			c.Arguments = args
		}
		db.entries = append(db.entries, c)
		// first entry wins, as with clang tooling
		if _, ok := db.byFile[c.AbsFile()]; !ok {
			db.byFile[c.AbsFile()] = c
		}
	}
	return db, nil
}

// Lookup returns the command compiling file.
func (db *Database) Lookup(file string) (*Command, bool) {
	if db == nil {
		return nil, false
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		abs = filepath.Clean(file)
	}
	c, ok := db.byFile[abs]
	return c, ok
}

// Files lists the absolute source paths in the database, sorted.
func (db *Database) Files() []string {
	if db == nil {
		return nil
	}
	out := make([]string, 0, len(db.byFile))
	for f := range db.byFile {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of entries.
func (db *Database) Len() int {
	if db == nil {
		return 0
	}
	return len(db.entries)
}

// AbsFile resolves File against Directory.
func (c *Command) AbsFile() string {
	if filepath.IsAbs(c.File) {
		return filepath.Clean(c.File)
	}
	return filepath.Join(c.Directory, c.File)
}

// CompileArgs returns the arguments that affect parsing: the compiler,
// the source file, -c and output options are dropped.
func (c *Command) CompileArgs() []string {
	if len(c.Arguments) == 0 {
		return nil
	}
	abs := c.AbsFile()
	var out []string
	args := c.Arguments[1:]
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-c":
			continue
		case a == "-o" || a == "-MF" || a == "-MT" || a == "-MQ":
			i++
			continue
		case strings.HasPrefix(a, "-o") && len(a) > 2:
			continue
		case a == "-MD" || a == "-MMD" || a == "-M" || a == "-MM":
			continue
		case a == c.File || (!strings.HasPrefix(a, "-") && c.resolve(a) == abs):
			continue
		}
		out = append(out, a)
	}
	return out
}

// IncludeDirs returns the -I and -isystem directories, resolved against the
// command's working directory.
func (c *Command) IncludeDirs() (user, system []string) {
	args := c.Arguments
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-I" || a == "-iquote":
			if i+1 < len(args) {
				user = append(user, c.resolve(args[i+1]))
				i++
			}
		case strings.HasPrefix(a, "-I"):
			user = append(user, c.resolve(a[2:]))
		case strings.HasPrefix(a, "-iquote"):
			user = append(user, c.resolve(a[len("-iquote"):]))
		case a == "-isystem":
			if i+1 < len(args) {
				system = append(system, c.resolve(args[i+1]))
				i++
			}
		case strings.HasPrefix(a, "-isystem"):
			system = append(system, c.resolve(a[len("-isystem"):]))
		}
	}
	return user, system
}

// Defines returns the -D macro definitions as NAME or NAME=VALUE.
func (c *Command) Defines() []string {
	var out []string
	args := c.Arguments
	for i := 0; i < len(args); i++ {
		switch a := args[i]; {
		case a == "-D":
			if i+1 < len(args) {
				out = append(out, args[i+1])
				i++
			}
		case strings.HasPrefix(a, "-D"):
			out = append(out, a[2:])
		}
	}
	return out
}

func (c *Command) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Directory, p)
}

// SplitCommand splits a shell command line the way a POSIX shell would for
// the quoting found in compilation databases: single quotes, double quotes
// and backslash escapes.
func SplitCommand(cmd string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quote   byte
		escaped bool
	)
	for i := 0; i < len(cmd); i++ {
		ch := cmd[i]
		switch {
		case escaped:
			cur.WriteByte(ch)
			escaped = false
		case quote == '\'':
			if ch == '\'' {
				quote = 0
			} else {
				cur.WriteByte(ch)
			}
		case ch == '\\':
			if quote == '"' && i+1 < len(cmd) && !strings.ContainsRune(`"\$`+"`", rune(cmd[i+1])) {
				cur.WriteByte(ch)
				continue
			}
			escaped = true
			inArg = true
		case quote == '"':
			if ch == '"' {
				quote = 0
			} else {
				cur.WriteByte(ch)
			}
		case ch == '\'' || ch == '"':
			quote = ch
			inArg = true
		case ch == ' ' || ch == '\t' || ch == '\n':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteByte(ch)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
