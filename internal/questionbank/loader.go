package questionbank

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"
)

// DefaultRole is used when no role keyword matches a job title
const DefaultRole = "general"

//go:embed bank.yaml
var defaultBank []byte

// Role is a role-keyed set of technical questions
type Role struct {
	Key       string   `yaml:"key"`
	Keywords  []string `yaml:"keywords"`
	Technical []string `yaml:"technical"`
}

// bankFile is the on-disk YAML layout. Every section is optional so a
// directory can hold one file per role.
type bankFile struct {
	Roles      []Role   `yaml:"roles"`
	Coding     []string `yaml:"coding"`
	Behavioral []string `yaml:"behavioral"`
	Padding    []string `yaml:"padding"`
}

// Loader holds the question bank. Later files override roles with the same
// key and replace non-empty shared sections.
type Loader struct {
	mu         sync.RWMutex
	roles      map[string]*Role
	coding     []string
	behavioral []string
	padding    []string
}

// NewLoader creates a loader seeded with the built-in bank
func NewLoader() *Loader {
	l := &Loader{roles: make(map[string]*Role)}
	if err := l.Load(defaultBank); err != nil {
		panic(fmt.Sprintf("questionbank: invalid built-in bank: %v", err))
	}
	return l
}

// LoadFromDir merges all YAML files from a directory over the current bank
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading question bank from directory", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load question bank file", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("question bank loaded", "files", loaded, "total_files", len(files), "roles", len(l.RoleKeys()))
	return nil
}

// LoadFromFile merges a single YAML file over the current bank
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return l.Load(data)
}

// Load merges YAML content over the current bank
func (l *Loader) Load(data []byte) error {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, role := range f.Roles {
		if strings.TrimSpace(role.Key) == "" {
			return fmt.Errorf("role %d: key is required", i)
		}
		if len(nonEmpty(role.Technical)) == 0 {
			return fmt.Errorf("role %q: at least one technical question is required", role.Key)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, role := range f.Roles {
		r := role
		r.Key = strings.ToLower(strings.TrimSpace(r.Key))
		r.Technical = nonEmpty(r.Technical)
		for i, kw := range r.Keywords {
			r.Keywords[i] = strings.ToLower(strings.TrimSpace(kw))
		}
		l.roles[r.Key] = &r
	}
	if qs := nonEmpty(f.Coding); len(qs) > 0 {
		l.coding = qs
	}
	if qs := nonEmpty(f.Behavioral); len(qs) > 0 {
		l.behavioral = qs
	}
	if qs := nonEmpty(f.Padding); len(qs) > 0 {
		l.padding = qs
	}

	return nil
}

// Match returns the role whose keyword best fits jobRole. The longest
// matching keyword wins, ties go to the lexically smaller key.
func (l *Loader) Match(jobRole string) *Role {
	l.mu.RLock()
	defer l.mu.RUnlock()

	title := " " + normalizeTitle(jobRole) + " "
	var best *Role
	bestLen := 0
	for _, key := range l.sortedKeysLocked() {
		role := l.roles[key]
		for _, kw := range role.Keywords {
			if kw == "" || !strings.Contains(title, " "+kw+" ") {
				continue
			}
			if len(kw) > bestLen {
				best, bestLen = role, len(kw)
			}
		}
	}

	if best == nil {
		best = l.roles[DefaultRole]
	}
	if best == nil {
		return nil
	}
	cp := *best
	cp.Technical = append([]string(nil), best.Technical...)
	return &cp
}

// Coding returns the coding prompts
func (l *Loader) Coding() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.coding...)
}

// Behavioral returns the behavioral prompts
func (l *Loader) Behavioral() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.behavioral...)
}

// Padding returns the filler questions
func (l *Loader) Padding() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.padding...)
}

// RoleKeys returns all role keys in sorted order
func (l *Loader) RoleKeys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sortedKeysLocked()
}

func (l *Loader) sortedKeysLocked() []string {
	keys := make([]string, 0, len(l.roles))
	for k := range l.roles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalizeTitle lowercases and turns punctuation other than '-' into
// single spaces so keywords only match whole words
func normalizeTitle(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
