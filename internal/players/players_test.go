package players

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	m, err := ParseJSON(strings.NewReader(`{"Zen": "epic:abc", " Vatira ": "steam:42", "blank": ""}`))
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	id, ok := m.Lookup("zen")
	assert.True(t, ok)
	assert.Equal(t, "epic:abc", id)
	id, _ = m.Lookup("VATIRA")
	assert.Equal(t, "steam:42", id)
}

func TestParseCSV(t *testing.T) {
	m, err := ParseCSV(strings.NewReader("name,id\nAtomic, steam:765\nDaniel,epic:d\nbroken\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	id, ok := m.Lookup("atomic")
	assert.True(t, ok)
	assert.Equal(t, "steam:765", id)
}

func TestResolve(t *testing.T) {
	m := NewMap(map[string]string{"Zen": "epic:abc"})
	refs := m.Resolve([]string{"Zen", "Unknown"})

	require.Len(t, refs, 2)
	assert.True(t, refs[0].Resolved())
	assert.Equal(t, "epic:abc", refs[0].ID)
	assert.False(t, refs[1].Resolved())
	assert.Equal(t, "Unknown", refs[1].Name)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is empty", func(t *testing.T) {
		m, err := Load(filepath.Join(dir, "nope.json"))
		require.NoError(t, err)
		assert.Equal(t, 0, m.Len())
	})

	t.Run("json by extension", func(t *testing.T) {
		path := filepath.Join(dir, "ids.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"Zen":"epic:abc"}`), 0o644))
		m, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("csv by extension", func(t *testing.T) {
		path := filepath.Join(dir, "ids.CSV")
		require.NoError(t, os.WriteFile(path, []byte("Zen,epic:abc\n"), 0o644))
		m, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("bad json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestNilMap(t *testing.T) {
	var m *Map
	_, ok := m.Lookup("x")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
	assert.Len(t, m.Resolve([]string{"a"}), 1)
}
