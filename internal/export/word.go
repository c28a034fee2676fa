package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/fumiama/go-docx"
)

const separator = "---------------------------"

// WordBuilder renders entries as a document with one block per report:
// a bold "No: n" heading, the thumbnail when present, one "Label: value"
// line per field and a separator line.
type WordBuilder struct {
	Location *time.Location
}

var _ Builder = WordBuilder{}

func (b WordBuilder) Build(entries []Entry) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()

	for i, e := range entries {
		doc.AddParagraph().AddText(fmt.Sprintf("No: %d", i+1)).Bold().Size("28")

		if e.Image != nil {
			if _, err := doc.AddParagraph().AddInlineDrawing(e.Image); err != nil {
				return nil, fmt.Errorf("entry %d picture: %w", i+1, err)
			}
		}

		vals := values(i+1, e.Report, b.Location)
		for c := 1; c < len(fields); c++ {
			doc.AddParagraph().AddText(fields[c].label + ": " + vals[c])
		}
		doc.AddParagraph().AddText(separator)
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
