package export

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName = "Laporan"
	// Excel rows cannot be taller than 409 points.
	maxRowHeight = 409
	rowPadding   = 6
)

// ExcelBuilder renders entries as a spreadsheet with one row per report.
// Thumbnails are embedded in the Foto cell; without one the cell holds the photo URL.
type ExcelBuilder struct {
	Location *time.Location
}

var _ Builder = ExcelBuilder{}

func (b ExcelBuilder) Build(entries []Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}
	dataStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return nil, err
	}

	for i, fl := range fields {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetCellValue(sheetName, cell, fl.label); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, col, col, fl.width); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(fields), 1)
	if err := f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}

	for i, e := range entries {
		row := i + 2
		for c, v := range values(i+1, e.Report, b.Location) {
			if c == photoColumn && e.Image != nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			var value any = v
			if c == 0 {
				value = i + 1
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
		}

		if e.Image != nil {
			cell, _ := excelize.CoordinatesToCellName(photoColumn+1, row)
			err := f.AddPictureFromBytes(sheetName, cell, &excelize.Picture{
				Extension: ".jpg",
				File:      e.Image,
				Format: &excelize.GraphicOptions{
					OffsetX:     4,
					OffsetY:     4,
					Positioning: "oneCell",
					AltText:     e.Report.OriginalName,
				},
			})
			if err != nil {
				return nil, fmt.Errorf("row %d picture: %w", row, err)
			}
			if err := f.SetRowHeight(sheetName, row, rowHeight(e.Image)); err != nil {
				return nil, err
			}
		}
	}

	if len(entries) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, 2)
		last, _ := excelize.CoordinatesToCellName(len(fields), len(entries)+1)
		if err := f.SetCellStyle(sheetName, first, last, dataStyle); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rowHeight converts the image pixel height into points plus padding.
func rowHeight(img []byte) float64 {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return maxRowHeight / 2
	}
	h := float64(cfg.Height)*0.75 + rowPadding
	if h > maxRowHeight {
		h = maxRowHeight
	}
	return h
}
