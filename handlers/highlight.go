package handlers

import (
	"bytes"
	"log"
	"net/http"
	"strconv"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightCSSHandler serves the Chroma stylesheet for README code
// blocks. The CSS is generated once at startup from the configured
// style and served as a static byte slice afterwards.
func HighlightCSSHandler(theme string) http.HandlerFunc {
	style := styles.Get(theme)
	if style == nil {
		log.Printf("highlight: unknown style %q, using fallback", theme)
		style = styles.Fallback
	}

	formatter := chromahtml.New(chromahtml.WithClasses(true))
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, style); err != nil {
		log.Printf("highlight: could not generate CSS: %v", err)
	}
	css := buf.Bytes()

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(css)))
		w.Header().Set("Cache-Control", "max-age=86400")
		w.Write(css)
	}
}
