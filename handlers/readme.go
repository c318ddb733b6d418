package handlers

import (
	"bytes"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/niklasfasching/go-org/org"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// maxReadmeSize caps how much of a README is read and rendered; larger
// files are ignored so a directory listing never blocks on a huge read.
const maxReadmeSize = 512 * 1024

// readmeNames are the candidate filenames checked in order when a
// directory listing looks for a README to render below the table.
var readmeNames = []string{"README.md", "readme.md", "README.org", "readme.org"}

// markdown is the shared goldmark instance. Chroma highlighting uses
// CSS classes so code blocks pick up their colours from /highlight.css.
var markdown goldmark.Markdown

// docPolicy is the bluemonday sanitization policy applied to all
// rendered README output. Nil until InitRenderOptions runs; renderers
// fall back to a strict policy if called before initialisation.
var docPolicy *bluemonday.Policy

// InitRenderOptions configures the README renderer with the Chroma
// style used for code block highlighting. It must be called once at
// startup, before the server begins accepting requests.
func InitRenderOptions(theme string) {
	markdown = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(theme),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
	)
	docPolicy = buildDocPolicy()
}

// buildDocPolicy constructs the bluemonday allowlist used to sanitize
// rendered Markdown and Org-mode output. It starts from the UGC policy
// and additionally permits the class attributes Chroma emits on
// highlighted code spans.
func buildDocPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9\s_-]+$`)).
		OnElements("span", "code", "pre", "div")
	p.AllowAttrs("id").Matching(regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)).
		OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return p
}

// renderReadme looks for a README file directly inside dirPath and
// returns its sanitized HTML, or empty when none exists or rendering
// fails. Rendering is best-effort: a broken README never fails the
// listing that contains it.
func renderReadme(dirPath string) template.HTML {
	for _, name := range readmeNames {
		fsPath := filepath.Join(dirPath, name)
		fi, err := os.Stat(fsPath)
		if err != nil || fi.IsDir() || fi.Size() > maxReadmeSize {
			continue
		}
		src, err := os.ReadFile(fsPath)
		if err != nil {
			log.Printf("readme: could not read %s: %v", fsPath, err)
			continue
		}

		var html string
		if strings.HasSuffix(strings.ToLower(name), ".org") {
			html, err = renderOrg(src)
		} else {
			html, err = renderMarkdown(src)
		}
		if err != nil {
			log.Printf("readme: could not render %s: %v", fsPath, err)
			continue
		}
		return template.HTML(sanitizeHTML(html))
	}
	return ""
}

// renderMarkdown converts Markdown source to unsanitized HTML.
func renderMarkdown(src []byte) (string, error) {
	if markdown == nil {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	}
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderOrg converts Org-mode source to unsanitized HTML.
func renderOrg(src []byte) (string, error) {
	doc := org.New().Parse(bytes.NewReader(src), "")
	return doc.Write(org.NewHTMLWriter())
}

// sanitizeHTML applies the document policy, falling back to the strict
// UGC default when InitRenderOptions has not run yet.
func sanitizeHTML(html string) string {
	p := docPolicy
	if p == nil {
		p = bluemonday.UGCPolicy()
	}
	return p.Sanitize(html)
}
