package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Format selects a table serialization.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
)

// SheetName is the single worksheet of the xlsx export.
const SheetName = "법인카드사용내역"

// ColumnWidths are character-width hints for the seven columns.
var ColumnWidths = [7]float64{25, 10, 15, 10, 30, 25, 30}

const bom = "\uFEFF"

var ErrUnknownFormat = errors.New("unknown export format")

// Encoder serializes a rendered report into file bytes.
type Encoder interface {
	Encode(r Report) ([]byte, error)
	Extension() string
	ContentType() string
}

// EncoderFor returns the encoder for format.
func EncoderFor(format Format) (Encoder, error) {
	switch format {
	case FormatXLSX:
		return XLSXEncoder{}, nil
	case FormatCSV:
		return DelimitedEncoder{Comma: ',', ext: "csv", contentType: "text/csv; charset=utf-8"}, nil
	case FormatTSV:
		return DelimitedEncoder{Comma: '\t', ext: "tsv", contentType: "text/tab-separated-values; charset=utf-8"}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// XLSXEncoder writes a workbook with one sheet.
type XLSXEncoder struct{}

func (XLSXEncoder) Extension() string { return "xlsx" }

func (XLSXEncoder) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXEncoder) Encode(r Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, row := range r.Table() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	for i, width := range ColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("set width of column %s: %w", col, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "G1", style); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// DelimitedEncoder writes UTF-8 delimited text with a byte order mark.
// Fields holding the delimiter, a quote or a line break are quoted.
type DelimitedEncoder struct {
	Comma       rune
	ext         string
	contentType string
}

func (e DelimitedEncoder) Extension() string   { return e.ext }
func (e DelimitedEncoder) ContentType() string { return e.contentType }

func (e DelimitedEncoder) Encode(r Report) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(bom)

	w := csv.NewWriter(&buf)
	w.Comma = e.Comma
	if err := w.WriteAll(r.Table()); err != nil {
		return nil, fmt.Errorf("write %s: %w", e.ext, err)
	}
	return buf.Bytes(), nil
}
