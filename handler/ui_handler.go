package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

//go:embed uiassets/index.html
var uiFS embed.FS

var indexTemplate = template.Must(template.ParseFS(uiFS, "uiassets/index.html"))

// UIHandler serves the single-page front end. APIBase is prefixed to every API
// call the page makes; empty means same origin.
type UIHandler struct {
	page []byte
}

type uiPageData struct {
	APIBase string
}

func NewUIHandler(apiBase string) (*UIHandler, error) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, uiPageData{APIBase: apiBase}); err != nil {
		return nil, err
	}
	return &UIHandler{page: buf.Bytes()}, nil
}

func (h *UIHandler) Index(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/html; charset=utf-8", h.page)
}

// MustUIHandler is NewUIHandler for callers that cannot recover from a bad template.
func MustUIHandler(apiBase string) *UIHandler {
	h, err := NewUIHandler(apiBase)
	if err != nil {
		log.Fatal().Err(err).Msg("render ui page")
	}
	return h
}
