// Package source extracts narration text from a web article, a PDF or a
// plain text file.
package source

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Kind is the detected type of an input.
type Kind string

const (
	KindURL  Kind = "url"
	KindPDF  Kind = "pdf"
	KindText Kind = "text"

	// maxInputSize caps how much of an input is read (25 MB).
	maxInputSize = 25 * 1024 * 1024
)

// Document is text ready to be narrated.
type Document struct {
	Text      string
	Title     string
	Origin    string
	WordCount int
}

// Detect classifies input by scheme or extension.
func Detect(input string) Kind {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return KindURL
	}
	if strings.HasSuffix(strings.ToLower(input), ".pdf") {
		return KindPDF
	}
	return KindText
}

// Loader reads documents. The zero value uses a 30s HTTP client.
type Loader struct {
	fetcher *fetcher
}

// Load extracts the text of input.
func (l *Loader) Load(ctx context.Context, input string) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch Detect(input) {
	case KindURL:
		doc, err = l.fetch().article(ctx, input)
	case KindPDF:
		doc, err = readPDF(input)
	default:
		doc, err = readText(input)
	}
	if err != nil {
		return nil, err
	}
	doc.Text = strings.TrimSpace(doc.Text)
	doc.WordCount = len(strings.FieldsFunc(doc.Text, unicode.IsSpace))
	if doc.Title == "" {
		doc.Title = firstLine(doc.Text, 80)
	}
	return doc, nil
}

func (l *Loader) fetch() *fetcher {
	if l.fetcher == nil {
		l.fetcher = newFetcher(nil)
	}
	return l.fetcher
}

func firstLine(text string, maxRunes int) string {
	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimSpace(line)
	if r := []rune(line); len(r) > maxRunes {
		line = string(r[:maxRunes]) + "..."
	}
	if line == "" {
		return "Untitled"
	}
	return line
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if info.Size() > maxInputSize {
		return fmt.Errorf("%s is too large (%d MB, max %d MB)", path, info.Size()/(1024*1024), maxInputSize/(1024*1024))
	}
	return nil
}

func readText(path string) (*Document, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("file %s is empty", path)
	}
	return &Document{Text: string(data), Origin: path}, nil
}
