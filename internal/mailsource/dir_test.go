package mailsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSource_Items(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("old.eml", plainMessage("old@x", "Sun, 01 Jun 2025 09:00:00 +0000", "old"))
	write("new.EML", plainMessage("new@x", "Tue, 03 Jun 2025 09:00:00 +0000", "new"))
	write("notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.eml"), 0o755))

	it, err := NewDirSource(dir, nil).Items(context.Background())
	require.NoError(t, err)

	var ids []string
	for it.Next() {
		id, err := it.Item().StableID()
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"new@x", "old@x"}, ids)
}

func TestDirSource_MissingDir(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "nope"), nil).Items(context.Background())
	assert.Error(t, err)
}
