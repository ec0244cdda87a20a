package source

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

func readPDF(path string) (*Document, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF %s: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	if strings.TrimSpace(sb.String()) == "" {
		return nil, fmt.Errorf("no text in PDF %s; it may be scanned", path)
	}
	return &Document{Text: sb.String(), Origin: path}, nil
}
