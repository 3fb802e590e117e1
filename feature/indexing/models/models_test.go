package models_test

import (
	"testing"

	"site-indexer/feature/indexing/models"

	"github.com/stretchr/testify/assert"
)

func TestSitemapLocation(t *testing.T) {
	site := models.Site{Domain: "example.com"}
	assert.Equal(t, "https://example.com/sitemap.xml", site.SitemapLocation())

	site.SitemapURL = "https://example.com/custom/map.xml"
	assert.Equal(t, "https://example.com/custom/map.xml", site.SitemapLocation())
}

func TestAddSubmissionMethod(t *testing.T) {
	var u models.IndexedURL

	u.AddSubmissionMethod(models.MethodSearchEngine)
	assert.Equal(t, "search_engine", u.SubmissionMethods)

	// Adding a second channel appends; adding an existing one is a no-op.
	u.AddSubmissionMethod(models.MethodIndexNow)
	assert.Equal(t, "search_engine,indexnow", u.SubmissionMethods)
	u.AddSubmissionMethod(models.MethodSearchEngine)
	assert.Equal(t, "search_engine,indexnow", u.SubmissionMethods)

	assert.True(t, u.HasSubmissionMethod(models.MethodSearchEngine))
	assert.True(t, u.HasSubmissionMethod(models.MethodIndexNow))

	var empty models.IndexedURL
	assert.False(t, empty.HasSubmissionMethod(models.MethodIndexNow))
}
