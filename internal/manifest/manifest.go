// Package manifest handles the project's dependency manifest
// (requirements.txt format) and the merge of the serving-toolkit
// packages into it.
//
// The merge replaces the older two-step install ("install the manifest,
// then unconditionally install the serving packages") with a single
// resolved manifest: one install step, one source of truth. A manifest
// that already names a serving package keeps its own entry — including
// any version pin — so the merge never silently overrides a
// project-declared version.
//
// The format is line-oriented: one requirement per line, full-line and
// trailing comments introduced by '#', blank lines ignored, and option
// lines (starting with '-') passed through untouched.
package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Entry is a single requirement line from a manifest.
type Entry struct {
	// Name is the normalized package name (lowercase, runs of '-', '_'
	// and '.' collapsed to a single '-'), or "" for option lines such
	// as "-r other.txt" that do not name a package.
	Name string

	// Raw is the original line with surrounding whitespace and any
	// trailing comment trimmed. Rendering writes Raw back verbatim, so
	// version specifiers, extras and environment markers survive the
	// round trip.
	Raw string
}

// Manifest is a parsed dependency manifest. The zero value is an empty
// manifest, which is valid — a project with no dependencies of its own
// still gets the serving packages merged in.
type Manifest struct {
	entries []Entry
}

// normalizeRegex collapses runs of the characters treated as equivalent
// separators in package names.
var normalizeRegex = regexp.MustCompile(`[-_.]+`)

// NormalizeName canonicalizes a package name: lowercase with '-', '_'
// and '.' runs collapsed to a single '-'. "Fast_API", "fast.api" and
// "fast-api" all normalize to "fast-api", so the idempotence check in
// Ensure is spelling-independent.
func NormalizeName(name string) string {
	return normalizeRegex.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// nameEndDelimiters are the characters that terminate the package name
// portion of a requirement line: extras, version specifiers, environment
// markers, and whitespace.
const nameEndDelimiters = "[=<>!~; \t"

// requirementName extracts the normalized package name from a
// requirement line, or "" if the line is an option (starts with '-')
// or otherwise does not name a package.
func requirementName(line string) string {
	if strings.HasPrefix(line, "-") {
		// Option lines: "-r base.txt", "--index-url ...", "-e .".
		return ""
	}

	end := strings.IndexAny(line, nameEndDelimiters)
	if end == -1 {
		end = len(line)
	}
	return NormalizeName(line[:end])
}

// Parse reads manifest content into a Manifest. Blank lines and
// full-line comments are dropped; trailing comments are stripped from
// kept lines. Parse never fails on unrecognized requirement syntax —
// unknown forms are carried through as option-like entries and left to
// the installer, which is the component that actually understands the
// full requirement grammar.
func Parse(data []byte) *Manifest {
	m := &Manifest{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Strip trailing comments. The '#' must be preceded by
		// whitespace to count as a comment, so URL fragments in
		// option lines are not mangled.
		if idx := strings.Index(line, " #"); idx != -1 {
			line = strings.TrimSpace(line[:idx])
		}

		m.entries = append(m.entries, Entry{
			Name: requirementName(line),
			Raw:  line,
		})
	}

	return m
}

// Load reads and parses the manifest file at path. A missing file yields
// an empty manifest rather than an error: a project with no manifest is
// a degenerate but valid deployment whose resolved manifest will contain
// exactly the serving packages.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{}, nil
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return Parse(data), nil
}

// Entries returns the parsed entries in file order.
func (m *Manifest) Entries() []Entry {
	return m.entries
}

// Has reports whether the manifest names the given package, under name
// normalization.
func (m *Manifest) Has(name string) bool {
	want := NormalizeName(name)
	for _, e := range m.entries {
		if e.Name != "" && e.Name == want {
			return true
		}
	}
	return false
}

// Ensure merges the given packages into the manifest and returns the
// entries that were actually appended.
//
// Each package may carry a version specifier ("uvicorn==0.30.1"). If the
// manifest already names the package — in any spelling, with or without
// its own specifier — the existing entry wins and nothing is added. The
// operation is idempotent and order-independent with respect to the
// final package set: ensuring twice, or ensuring packages the manifest
// already lists, changes nothing.
func (m *Manifest) Ensure(packages []string) []Entry {
	var added []Entry

	for _, pkg := range packages {
		pkg = strings.TrimSpace(pkg)
		if pkg == "" {
			continue
		}

		name := requirementName(pkg)
		if name == "" || m.Has(name) {
			continue
		}

		entry := Entry{Name: name, Raw: pkg}
		m.entries = append(m.entries, entry)
		added = append(added, entry)
	}

	return added
}

// Render serializes the manifest back to requirements format: one entry
// per line in order, with a trailing newline. Output is deterministic,
// which keeps image builds reproducible for unchanged inputs.
func (m *Manifest) Render() []byte {
	var b strings.Builder
	for _, e := range m.entries {
		b.WriteString(e.Raw)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Write renders the manifest to a file. Used by the build step to place
// the resolved manifest next to the original inside the build context
// staging area.
func (m *Manifest) Write(path string) error {
	if err := os.WriteFile(path, m.Render(), 0o644); err != nil {
		return fmt.Errorf("failed to write resolved manifest %s: %w", path, err)
	}
	return nil
}
