// Package extract turns uploaded files into raw text. The indexing core's
// obligation begins at "raw text in hand"; this is the boundary that gets
// it there for plain-text and HTML uploads.
package extract

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FromFile extracts raw text from an uploaded file, dispatching on the
// filename extension. Unknown extensions are treated as plain text.
func FromFile(filename string, r io.Reader) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".html", ".htm":
		return FromHTML(r)
	default:
		return FromText(r)
	}
}

// FromText reads the whole input and collapses whitespace.
func FromText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	return cleanContent(string(data)), nil
}

// FromHTML extracts the visible text of an HTML document.
func FromHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	content := doc.Find("body").Text()
	if strings.TrimSpace(content) == "" {
		content = doc.Text()
	}
	return cleanContent(content), nil
}

func cleanContent(content string) string {
	// Collapse all runs of whitespace to single spaces
	return strings.Join(strings.Fields(content), " ")
}
