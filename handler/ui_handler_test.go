package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUIHandlerCarriesTestMarkers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ui, err := NewUIHandler("http://localhost:5000")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/", ui.Index)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)

	for _, marker := range []string{
		"notes-list", "add-note", "note-title", "note-content", "save-note",
		"delete-note", "search-notes", "validation-error", "error",
	} {
		assert.Equal(t, 1, doc.Find(`[data-testid="`+marker+`"]`).Length(), "marker %s", marker)
	}

	errorBox := doc.Find(`[data-testid="error"]`)
	_, hidden := errorBox.Attr("hidden")
	assert.True(t, hidden, "error indicator hidden on first render")

	base, ok := doc.Find(`meta[name="notes-api-base"]`).Attr("content")
	assert.True(t, ok)
	assert.Equal(t, "http://localhost:5000", base)
}

func TestUIHandlerSameOrigin(t *testing.T) {
	ui := MustUIHandler("")

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", ui.Index)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	base, _ := doc.Find(`meta[name="notes-api-base"]`).Attr("content")
	assert.Empty(t, base)
	assert.Contains(t, doc.Find("script").Text(), "'/api/Notes'")
}
