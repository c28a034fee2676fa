package export

import (
	"errors"
	"strings"
)

// Format is an export document type.
type Format string

const (
	FormatExcel Format = "excel"
	FormatWord  Format = "word"
)

// ErrUnknownFormat is returned for any format other than excel or word.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat validates a raw format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatExcel, FormatWord:
		return f, nil
	}
	return "", ErrUnknownFormat
}

// ContentType is the MIME type of the produced document.
func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatWord:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// Filename is the attachment name of the produced document.
func (f Format) Filename() string {
	switch f {
	case FormatExcel:
		return "laporan.xlsx"
	case FormatWord:
		return "laporan.docx"
	}
	return "laporan"
}
