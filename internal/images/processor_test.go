package images

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanews-extractor/internal/observability"
	"lanews-extractor/internal/scraper"
)

type fakeFetcher struct {
	blobs map[string][]byte
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	if body, ok := f.blobs[url]; ok {
		return body, nil
	}
	return nil, errors.New("unexpected status code: 404")
}

func zipEntries(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	out := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = string(body)
	}
	return out
}

// TestProcess verifies downloads, skips and failures by record index
func TestProcess(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	fetcher := &fakeFetcher{blobs: map[string][]byte{
		"http://img/0.jpg": []byte("zero"),
		"http://img/2.jpg": []byte("two"),
	}}
	articles := []*scraper.Article{
		{Title: "a", ImageURL: "http://img/0.jpg"},
		{Title: "b"},
		{Title: "c", ImageURL: "http://img/2.jpg"},
		{Title: "d", ImageURL: "http://img/missing.jpg"},
	}

	summary := NewProcessor(fetcher, dir, observability.NewNopLogger()).Process(context.Background(), articles)

	assert.Equal(t, 2, summary.Downloaded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, fetcher.calls, 3, "records without image are not fetched")

	require.NotNil(t, articles[0].ImagePath)
	assert.Equal(t, filepath.Join(dir, "image_0.jpg"), *articles[0].ImagePath)
	assert.Nil(t, articles[1].ImagePath)
	require.NotNil(t, articles[2].ImagePath)
	assert.Equal(t, filepath.Join(dir, "image_2.jpg"), *articles[2].ImagePath)
	assert.Nil(t, articles[3].ImagePath)

	assert.Equal(t, dir+".zip", summary.Archive)
	assert.NoDirExists(t, dir)

	entries := zipEntries(t, summary.Archive)
	var names []string
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"image_0.jpg", "image_2.jpg"}, names)
	assert.Equal(t, "two", entries["image_2.jpg"])
}

// TestProcess_NoArticles verifies an empty run still produces an archive
func TestProcess_NoArticles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")

	summary := NewProcessor(&fakeFetcher{}, dir, observability.NewNopLogger()).Process(context.Background(), nil)

	assert.Equal(t, Summary{Archive: dir + ".zip"}, summary)
	assert.FileExists(t, summary.Archive)
	assert.NoDirExists(t, dir)
}
