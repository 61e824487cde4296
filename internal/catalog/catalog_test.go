package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	crawlerrors "sjsage522/steamcrawler/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	csvData := "name,steam_appid,type\n" +
		"Counter-Strike,10,game\n" +
		"Team Fortress Classic,20,game\n" +
		"Counter-Strike,10,game\n" +
		"Valve Complete Pack,/sub/99,bundle\n"

	entries, err := Read(strings.NewReader(csvData), "steam_appid")
	require.NoError(t, err)
	assert.Equal(t, []Entry{"10", "20", "10", "/sub/99"}, entries)
}

func TestReadSkipsBlankAndShortRows(t *testing.T) {
	csvData := "\ufeffsteam_appid,name\n10,a\n,b\n30\n"

	entries, err := Read(strings.NewReader(csvData), "steam_appid")
	require.NoError(t, err)
	assert.Equal(t, []Entry{"10", "30"}, entries)
}

func TestReadMissingColumn(t *testing.T) {
	_, err := Read(strings.NewReader("appid\n10\n"), "steam_appid")
	assert.Error(t, err)
	assert.True(t, crawlerrors.Is(err, crawlerrors.ErrorTypeCatalog))
	assert.Contains(t, err.Error(), "steam_appid")
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader(""), "steam_appid")
	assert.True(t, crawlerrors.Is(err, crawlerrors.ErrorTypeCatalog))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steam_ids.csv")
	require.NoError(t, os.WriteFile(path, []byte("steam_appid\n570\n730\n"), 0644))

	entries, err := Load(path, "steam_appid")
	require.NoError(t, err)
	assert.Equal(t, []Entry{"570", "730"}, entries)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), "steam_appid")
	assert.Error(t, err)
	assert.True(t, crawlerrors.Is(err, crawlerrors.ErrorTypeCatalog))
}
