package params

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// EnvPrefix marks environment variables that are read as parameters.
const EnvPrefix = "BUILDGRID_"

// Source records where a parameter value came from.
type Source int

const (
	SourceDefault Source = iota
	SourceEnv
	SourceFile
	SourceFlag
)

func (s Source) String() string {
	switch s {
	case SourceEnv:
		return "env"
	case SourceFile:
		return "file"
	case SourceFlag:
		return "flag"
	default:
		return "default"
	}
}

// Declaration describes a parameter a build file knows about.
type Declaration struct {
	Name        string
	Description string
	Default     *string
	// Env names an extra environment variable to read, besides the
	// BUILDGRID_ prefixed form.
	Env string
}

type value struct {
	raw    string
	source Source
}

// Bag is an immutable-after-load set of parameters. It is safe for concurrent
// reads.
type Bag struct {
	values map[string]value
	decls  map[string]Declaration
}

// Sources holds the raw inputs Load merges.
type Sources struct {
	Declarations []Declaration
	// Environ is in os.Environ() form.
	Environ   []string
	File      map[string]string
	Overrides map[string]string
}

// New returns an empty bag.
func New() *Bag {
	return &Bag{
		values: make(map[string]value),
		decls:  make(map[string]Declaration),
	}
}

// Load merges all sources into a bag, honoring precedence.
func Load(src Sources) *Bag {
	b := New()
	env := environMap(src.Environ)

	for _, d := range src.Declarations {
		b.decls[Normalize(d.Name)] = d
		if d.Default != nil {
			b.set(d.Name, *d.Default, SourceDefault)
		}
	}
	for k, v := range env {
		if strings.HasPrefix(k, EnvPrefix) && len(k) > len(EnvPrefix) {
			b.set(strings.TrimPrefix(k, EnvPrefix), v, SourceEnv)
		}
	}
	for _, d := range src.Declarations {
		if d.Env == "" {
			continue
		}
		if v, ok := env[d.Env]; ok {
			b.set(d.Name, v, SourceEnv)
		}
	}
	for k, v := range src.File {
		b.set(k, v, SourceFile)
	}
	for k, v := range src.Overrides {
		b.set(k, v, SourceFlag)
	}
	return b
}

func (b *Bag) set(key, raw string, src Source) {
	b.values[Normalize(key)] = value{raw: raw, source: src}
}

// Normalize returns the canonical form of a parameter key.
func Normalize(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
}

// Lookup returns the raw value for key.
func (b *Bag) Lookup(key string) (string, bool) {
	if b == nil {
		return "", false
	}
	v, ok := b.values[Normalize(key)]
	return v.raw, ok
}

// Source returns where key's value came from.
func (b *Bag) Source(key string) (Source, bool) {
	if b == nil {
		return SourceDefault, false
	}
	v, ok := b.values[Normalize(key)]
	return v.source, ok
}

// String returns the value for key or def.
func (b *Bag) String(key, def string) string {
	if v, ok := b.Lookup(key); ok {
		return v
	}
	return def
}

// Bool parses the value for key as a boolean. A missing key yields def.
func (b *Bag) Bool(key string, def bool) (bool, error) {
	v, ok := b.Lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("parameter '%s': %w", key, err)
	}
	return parsed, nil
}

// Int parses the value for key as an integer. A missing key yields def.
func (b *Bag) Int(key string, def int) (int, error) {
	v, ok := b.Lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("parameter '%s': %w", key, err)
	}
	return parsed, nil
}

// Keys returns all normalized keys in sorted order.
func (b *Bag) Keys() []string {
	if b == nil {
		return nil
	}
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Declarations returns the declared parameters sorted by name.
func (b *Bag) Declarations() []Declaration {
	if b == nil {
		return nil
	}
	out := make([]Declaration, 0, len(b.decls))
	for _, d := range b.decls {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Values returns a copy of every key/value pair.
func (b *Bag) Values() map[string]string {
	if b == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(b.values))
	for k, v := range b.values {
		out[k] = v.raw
	}
	return out
}

// ParseAssignment splits a "key=value" command line argument.
func ParseAssignment(s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return "", "", fmt.Errorf("invalid parameter %q: expected key=value", s)
	}
	return strings.TrimSpace(k), v, nil
}

func environMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			out[k] = v
		}
	}
	return out
}
