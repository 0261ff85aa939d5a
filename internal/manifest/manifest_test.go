package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalizeName verifies package name canonicalization.
func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"fastapi", "fastapi"},
		{"FastAPI", "fastapi"},
		{"fast_api", "fast-api"},
		{"fast.api", "fast-api"},
		{"fast--api", "fast-api"},
		{"fast_-.api", "fast-api"},
		{"  uvicorn  ", "uvicorn"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

// TestParse verifies line handling: requirements, comments, blanks,
// option lines, specifiers, extras and environment markers.
func TestParse(t *testing.T) {
	data := []byte(`# project dependencies
fastapi==0.111.0
google-genai  # LLM client

uvicorn[standard]>=0.30
-r extra-requirements.txt
psycopg2-binary; python_version >= "3.8"
`)

	m := Parse(data)
	entries := m.Entries()
	require.Len(t, entries, 5)

	assert.Equal(t, "fastapi", entries[0].Name)
	assert.Equal(t, "fastapi==0.111.0", entries[0].Raw)

	// Trailing comment stripped.
	assert.Equal(t, "google-genai", entries[1].Name)
	assert.Equal(t, "google-genai", entries[1].Raw)

	// Extras terminate the name.
	assert.Equal(t, "uvicorn", entries[2].Name)
	assert.Equal(t, "uvicorn[standard]>=0.30", entries[2].Raw)

	// Option lines carry no package name but survive verbatim.
	assert.Equal(t, "", entries[3].Name)
	assert.Equal(t, "-r extra-requirements.txt", entries[3].Raw)

	// Environment markers terminate the name.
	assert.Equal(t, "psycopg2-binary", entries[4].Name)
}

// TestParse_Empty verifies an empty manifest parses to zero entries.
func TestParse_Empty(t *testing.T) {
	assert.Empty(t, Parse(nil).Entries())
	assert.Empty(t, Parse([]byte("\n# only a comment\n\n")).Entries())
}

// TestLoad_Missing verifies that a missing manifest file is treated as
// an empty manifest, not an error. A project with no requirements of
// its own still gets the serving packages.
func TestLoad_Missing(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "requirements.txt"))
	require.NoError(t, err)
	assert.Empty(t, m.Entries())
}

// TestLoad reads a manifest from disk.
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("fastapi\nnumpy==1.26.4\n"), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Entries(), 2)
	assert.True(t, m.Has("fastapi"))
	assert.True(t, m.Has("numpy"))
	assert.False(t, m.Has("uvicorn"))
}

// TestHas_Normalized verifies spelling-independent membership checks.
func TestHas_Normalized(t *testing.T) {
	m := Parse([]byte("Fast_API==0.111.0\n"))
	assert.True(t, m.Has("fastapi"))
	assert.True(t, m.Has("FAST.API"))
	assert.False(t, m.Has("fastapi-extras"))
}

// TestEnsure_AppendsMissing verifies the serving packages are appended
// when the manifest does not name them.
func TestEnsure_AppendsMissing(t *testing.T) {
	m := Parse([]byte("numpy==1.26.4\n"))

	added := m.Ensure([]string{"fastapi", "uvicorn"})
	require.Len(t, added, 2)

	entries := m.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "numpy==1.26.4", entries[0].Raw)
	assert.Equal(t, "fastapi", entries[1].Raw)
	assert.Equal(t, "uvicorn", entries[2].Raw)
}

// TestEnsure_ManifestEntryWins verifies that a manifest-declared version
// of a serving package is never overridden: the existing pinned entry
// stays, and no duplicate is appended.
func TestEnsure_ManifestEntryWins(t *testing.T) {
	m := Parse([]byte("uvicorn==0.29.0\n"))

	added := m.Ensure([]string{"fastapi", "uvicorn==0.30.1"})
	require.Len(t, added, 1)
	assert.Equal(t, "fastapi", added[0].Raw)

	entries := m.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "uvicorn==0.29.0", entries[0].Raw, "manifest pin must survive the merge")
}

// TestEnsure_Idempotent verifies ensuring twice changes nothing.
func TestEnsure_Idempotent(t *testing.T) {
	m := Parse([]byte("fastapi\n"))

	m.Ensure([]string{"fastapi", "uvicorn"})
	first := string(m.Render())

	added := m.Ensure([]string{"fastapi", "uvicorn"})
	assert.Empty(t, added)
	assert.Equal(t, first, string(m.Render()))
}

// TestEnsure_SpellingIndependent verifies that a differently spelled
// manifest entry still suppresses the merge for the same package.
func TestEnsure_SpellingIndependent(t *testing.T) {
	m := Parse([]byte("Fast_API==0.110.0\n"))

	added := m.Ensure([]string{"fastapi"})
	assert.Empty(t, added)
	require.Len(t, m.Entries(), 1)
}

// TestEnsure_EmptyManifest verifies the degenerate project: no manifest
// content at all resolves to exactly the serving packages.
func TestEnsure_EmptyManifest(t *testing.T) {
	m := &Manifest{}
	m.Ensure([]string{"fastapi", "uvicorn"})

	assert.Equal(t, "fastapi\nuvicorn\n", string(m.Render()))
}

// TestRender_RoundTrip verifies that rendering preserves entry order and
// the raw form of each requirement.
func TestRender_RoundTrip(t *testing.T) {
	input := "fastapi==0.111.0\nuvicorn[standard]>=0.30\n-r base.txt\n"
	m := Parse([]byte(input))
	assert.Equal(t, input, string(m.Render()))
}

// TestWrite verifies the resolved manifest lands on disk.
func TestWrite(t *testing.T) {
	m := Parse([]byte("fastapi\n"))
	m.Ensure([]string{"uvicorn"})

	path := filepath.Join(t.TempDir(), "requirements.resolved.txt")
	require.NoError(t, m.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fastapi\nuvicorn\n", string(data))
}
