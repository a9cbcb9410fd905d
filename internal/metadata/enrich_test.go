package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productPage = `<!DOCTYPE html>
<html><body>
<div class="badges">
  <span>ab 4 Jahren</span>
  <span>Hörspiel</span>
  <span>Deutsch</span>
</div>
<section class="details">
  <div class="text">
    <p><strong>Inhalt:</strong></p>
    <p>Die Maus geht im Wald spazieren und trifft den <em>Grüffelo</em>.</p>
    <p>Ein Abenteuer für die ganze Familie.</p>
    <h3>Titelliste</h3>
    <ol><li>Der Grüffelo</li></ol>
  </div>
</section>
</body></html>`

func TestParseDetails(t *testing.T) {
	d, err := ParseDetails(strings.NewReader(productPage))
	require.NoError(t, err)

	assert.Equal(t, 4, d.Age)
	assert.Equal(t, "Hörspiel", d.Genre)
	assert.Equal(t, "Deutsch", d.Language)
	assert.Contains(t, d.Description, "Die Maus geht im Wald spazieren")
	assert.Contains(t, d.Description, "*Grüffelo*")
	assert.NotContains(t, d.Description, "Inhalt:")
	assert.NotContains(t, d.Description, "Titelliste")
	assert.NotContains(t, d.Description, "Der Grüffelo")
}

func TestParseDetails_NoDescription(t *testing.T) {
	d, err := ParseDetails(strings.NewReader(`<html><body><p>Englisch</p></body></html>`))
	require.NoError(t, err)

	assert.Empty(t, d.Description)
	assert.Equal(t, "English", d.Language)
	assert.Zero(t, d.Age)
}

func TestScraper_Scrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tonie" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(productPage))
	}))
	defer srv.Close()

	s := NewScraper(nil)
	defer s.Close()

	d, err := s.Scrape(context.Background(), srv.URL+"/tonie")
	require.NoError(t, err)
	assert.Equal(t, 4, d.Age)

	_, err = s.Scrape(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestEntry_Merge(t *testing.T) {
	e := &Entry{Title: "T", Description: "db", Age: 0, Genre: ""}

	merged := e.Merge(&Details{Age: 5, Genre: "Musik"})

	assert.Equal(t, "db", merged.Description)
	assert.Equal(t, 5, merged.Age)
	assert.Equal(t, "Musik", merged.Genre)
	assert.Zero(t, e.Age, "original untouched")

	assert.Equal(t, e, e.Merge(nil))
}

func TestEntry_NeedsScrape(t *testing.T) {
	assert.False(t, (&Entry{}).NeedsScrape())
	assert.True(t, (&Entry{Web: "https://x", Description: "d"}).NeedsScrape())
	assert.False(t, (&Entry{Web: "https://x", Description: "d", Age: 3}).NeedsScrape())
}
