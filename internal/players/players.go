// Package players maps roster names to ballchasing player ids.
//
// The map is a static file kept next to the exports, either JSON
// ({"Zen": "epic:abc123"}) or two-column CSV (name,id). Lookups are
// case-insensitive on the trimmed name.
package players

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
)

// Map is a read-only name -> player id table.
type Map struct {
	ids map[string]string
}

// Ref is a roster player with the id it resolved to, if any.
type Ref struct {
	Name string
	ID   string
}

// Resolved reports whether the player has a known id.
func (r Ref) Resolved() bool { return r.ID != "" }

// NewMap builds a map from name/id pairs.
func NewMap(pairs map[string]string) *Map {
	m := &Map{ids: make(map[string]string, len(pairs))}
	for name, id := range pairs {
		m.set(name, id)
	}
	return m
}

func (m *Map) set(name, id string) {
	name, id = key(name), strings.TrimSpace(id)
	if name == "" || id == "" {
		return
	}
	m.ids[name] = id
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Load reads a JSON or CSV map, chosen by extension. A missing file yields an
// empty map so every player falls back to name search.
func Load(path string) (*Map, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "getting home directory")
		}
		path = filepath.Join(home, path[2:])
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewMap(nil), nil
		}
		return nil, errors.Wrap(err, "opening player id map")
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ParseCSV(f)
	}
	return ParseJSON(f)
}

// ParseJSON reads a {"name": "platform:id"} object.
func ParseJSON(r io.Reader) (*Map, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading player id map")
	}
	var pairs map[string]string
	if err := sonic.Unmarshal(data, &pairs); err != nil {
		return nil, errors.Wrap(err, "parsing player id map")
	}
	return NewMap(pairs), nil
}

// ParseCSV reads name,id records. A header row whose second column is "id" is skipped.
func ParseCSV(r io.Reader) (*Map, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parsing player id map")
	}

	m := NewMap(nil)
	for i, rec := range records {
		if len(rec) < 2 {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(rec[1]), "id") {
			continue
		}
		m.set(rec[0], rec[1])
	}
	return m, nil
}

// Lookup returns the id for name.
func (m *Map) Lookup(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	id, ok := m.ids[key(name)]
	return id, ok
}

// Resolve pairs each roster name with its id. Unknown names keep an empty ID.
func (m *Map) Resolve(names []string) []Ref {
	refs := make([]Ref, 0, len(names))
	for _, n := range names {
		id, _ := m.Lookup(n)
		refs = append(refs, Ref{Name: n, ID: id})
	}
	return refs
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}
