package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSeeders(t *testing.T) {
	list := listSeeders()
	require.NotEmpty(t, list)
	assert.Equal(t, "documents", list[0].Name())

	_, ok := getSeeder("missing")
	assert.False(t, ok)
}

func TestEmbeddedDocuments(t *testing.T) {
	data, err := (&DocumentSeeder{}).loadSeedData()
	require.NoError(t, err)
	require.NotEmpty(t, data.Documents)

	for _, d := range data.Documents {
		assert.NotEmpty(t, d.Files, "every seeded document needs a file")
		for _, f := range d.Files {
			assert.NotEmpty(t, f.Name)
		}
	}
}

func TestExternalSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"documents":[{"title":"x","files":[{"name":"a.txt","content":"a"}]}]}`), 0o644))

	s := &DocumentSeeder{}
	s.SetFile(path)
	data, err := s.loadSeedData()
	require.NoError(t, err)
	require.Len(t, data.Documents, 1)
	assert.Equal(t, "x", data.Documents[0].Title)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, err = s.loadSeedData()
	assert.Error(t, err)
}
