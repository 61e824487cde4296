package crawler

import (
	"testing"

	"sjsage522/steamcrawler/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestBuilderBuild(t *testing.T) {
	builder := NewRequestBuilder("https://store.steampowered.com/app/", nil)

	req, ok := builder.Build(catalog.Entry("10"))
	require.True(t, ok)
	assert.Equal(t, "10", req.AppID)
	assert.Equal(t, "https://store.steampowered.com/app/10", req.URL)
	assert.Same(t, builder.Session, req.Session)

	// Deterministic derivation
	again, _ := builder.Build(catalog.Entry("10"))
	assert.Equal(t, req.URL, again.URL)
}

func TestRequestBuilderSkipsBundles(t *testing.T) {
	builder := NewRequestBuilder("https://store.steampowered.com/app/", nil)

	for _, entry := range []catalog.Entry{"/sub/99", "sub/99/", "12/sub/3"} {
		req, ok := builder.Build(entry)
		assert.False(t, ok, "entry %q should be skipped", entry)
		assert.Nil(t, req)
	}

	// "sub" without the surrounding slashes is a normal id
	_, ok := builder.Build(catalog.Entry("sub99"))
	assert.True(t, ok)
}

func TestDefaultSessionContext(t *testing.T) {
	session := DefaultSessionContext()

	value, ok := session.Value("wants_mature_content")
	assert.True(t, ok)
	assert.Equal(t, "1", value)

	value, _ = session.Value("birthtime")
	assert.Equal(t, "189302401", value)

	value, _ = session.Value("lastagecheckage")
	assert.Equal(t, "1-January-1976", value)

	cookies := session.Cookies()
	require.Len(t, cookies, 3)

	// Mutating the returned cookies never changes the shared session
	cookies[0].Value = "tampered"
	assert.NotEqual(t, "tampered", session.Cookies()[0].Value)
}

func TestAssembleDefaults(t *testing.T) {
	record := Assemble("42", PartialFields{})

	assert.Equal(t, "42", record.GameID)
	assert.Nil(t, record.Title)
	assert.NotNil(t, record.TagList)
	assert.Empty(t, record.TagList)
	assert.NotNil(t, record.VRPCInput)
	assert.Equal(t, "", record.Deck)
	assert.False(t, record.EarlyAccess)
	assert.False(t, record.VROnly)
	assert.False(t, record.VRSupported)
}

func TestGameRecordString(t *testing.T) {
	title := "Counter-Strike"
	record := Assemble("10", PartialFields{Title: &title, TagList: []string{"FPS"}, Deck: "3"})

	s := record.String()
	assert.Contains(t, s, "Title = Counter-Strike")
	assert.Contains(t, s, "game_id = 10")
	assert.Contains(t, s, "[FPS]")
	assert.Contains(t, s, `deck = "3"`)
}
