package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanews-extractor/internal/browser/browsertest"
)

var (
	nextLoc    = Locator{CSS: "div.search-results-module-next-page a"}
	articleLoc = Locator{CSS: "ul.search-results-module-results-menu div.promo-wrapper"}
)

func twoPages() [][]byte {
	return [][]byte{
		browsertest.ListingPage(1, 2, []browsertest.Article{
			{Title: "First", Description: "one", Date: "yesterday", ImageSrc: "http://img/1.jpg"},
			{Title: "Second", Description: "two"},
		}, true),
		browsertest.ListingPage(2, 2, []browsertest.Article{
			{Title: "Third", Description: "three"},
		}, false),
	}
}

// TestStaticSession_ClickNextAdvances verifies that the next-page locator switches snapshots
func TestStaticSession_ClickNextAdvances(t *testing.T) {
	ctx := context.Background()
	s, err := NewStaticSession(twoPages(), nextLoc)
	require.NoError(t, err)
	require.NoError(t, s.Open(ctx, "https://example.com"))

	els, err := s.Elements(ctx, articleLoc)
	require.NoError(t, err)
	assert.Len(t, els, 2)

	require.NoError(t, s.WaitVisible(ctx, nextLoc, time.Second))
	require.NoError(t, s.Click(ctx, nextLoc))
	assert.Equal(t, 2, s.Page())

	els, err = s.Elements(ctx, articleLoc)
	require.NoError(t, err)
	assert.Len(t, els, 1)

	err = s.WaitVisible(ctx, nextLoc, time.Second)
	assert.True(t, errors.Is(err, ErrTimeout), "no next link on the last page")
}

// TestStaticSession_ElementAccess verifies child lookup, text and attributes
func TestStaticSession_ElementAccess(t *testing.T) {
	ctx := context.Background()
	s, err := NewStaticSession(twoPages(), nextLoc)
	require.NoError(t, err)

	els, err := s.Elements(ctx, articleLoc)
	require.NoError(t, err)
	require.Len(t, els, 2)

	title, err := els[0].Find(Locator{CSS: "h3.promo-title a.link"})
	require.NoError(t, err)
	text, err := title.Text()
	require.NoError(t, err)
	assert.Equal(t, "First", text)

	img, err := els[0].Find(Locator{CSS: "img.image"})
	require.NoError(t, err)
	src, err := img.Attribute("src")
	require.NoError(t, err)
	assert.Equal(t, "http://img/1.jpg", src)

	_, err = els[1].Find(Locator{CSS: "img.image"})
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = img.Attribute("alt")
	assert.True(t, errors.Is(err, ErrNotFound))
}

// TestStaticSession_TextFilterMatchesOwnText verifies text locators skip ancestors
func TestStaticSession_TextFilterMatchesOwnText(t *testing.T) {
	ctx := context.Background()
	s, err := NewStaticSession(twoPages(), nextLoc)
	require.NoError(t, err)

	els, err := s.Elements(ctx, Locator{CSS: "*", Text: "Story"})
	require.NoError(t, err)
	assert.Len(t, els, 1)

	require.NoError(t, s.SelectOption(ctx, Locator{CSS: "select.select-input"}, "Newest"))
	err = s.SelectOption(ctx, Locator{CSS: "select.select-input"}, "Oldest")
	assert.True(t, errors.Is(err, ErrNotFound))
}

// TestStaticSession_ClickPastLastPage verifies the frame disappears after the last snapshot
func TestStaticSession_ClickPastLastPage(t *testing.T) {
	ctx := context.Background()
	pages := [][]byte{browsertest.ListingPage(1, 1, []browsertest.Article{{Title: "Only"}}, true)}
	s, err := NewStaticSession(pages, nextLoc)
	require.NoError(t, err)

	err = s.Click(ctx, nextLoc)
	assert.True(t, errors.Is(err, ErrNoFrame))
}

// TestLoadStaticDir verifies snapshots are loaded in file name order
func TestLoadStaticDir(t *testing.T) {
	dir := t.TempDir()
	for i, page := range twoPages() {
		name := filepath.Join(dir, fmt.Sprintf("page_%02d.html", i+1))
		require.NoError(t, os.WriteFile(name, page, 0o644))
	}

	s, err := LoadStaticDir(dir, nextLoc)
	require.NoError(t, err)

	text, err := s.Text(context.Background(), Locator{CSS: "div.search-results-module-page-counts"})
	require.NoError(t, err)
	assert.Equal(t, "1 of 2", text)

	_, err = LoadStaticDir(t.TempDir(), nextLoc)
	assert.Error(t, err, "empty directory has no pages")
}

// TestIsTransient verifies the transient error classification
func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(fmt.Errorf("read: %w", ErrStale)))
	assert.True(t, IsTransient(fmt.Errorf("wait: %w", ErrTimeout)))
	assert.False(t, IsTransient(ErrNotFound))
	assert.False(t, IsTransient(ErrNoFrame))
	assert.False(t, IsTransient(nil))
}
