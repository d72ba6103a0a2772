package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func sampleReport() Report {
	return Report{
		Title:  "2025년12월_내역",
		Header: Columns,
		Rows: [][]string{
			{"2025. 12. 29 오후 12:56:00", "중식", "12,000원", "감리", "A, B 현장", `그는 "좋다"`, "첫줄\n둘째줄"},
			{"2025. 12. 1 오전 9:00:00", "택시", "8,300원", "내근", "", "", ""},
		},
		Count: 2,
		Total: 20300,
	}
}

func TestCSVEscaping(t *testing.T) {
	enc, err := EncoderFor(FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	data, err := enc.Encode(sampleReport())
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.HasPrefix(data, []byte("\xEF\xBB\xBF")) {
		t.Fatal("csv must start with a UTF-8 byte order mark")
	}
	text := string(data[3:])
	for _, want := range []string{
		`"A, B 현장"`,
		`"그는 ""좋다"""`,
		"\"첫줄\n둘째줄\"",
		`2025. 12. 1 오전 9:00:00,택시,"8,300원",내근,,,`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("csv missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "\r\n") {
		t.Error("csv must use LF line endings")
	}

	records, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	if err != nil {
		t.Fatalf("csv does not parse back: %v", err)
	}
	if len(records) != 3 || records[1][5] != `그는 "좋다"` || records[1][6] != "첫줄\n둘째줄" {
		t.Errorf("unexpected records %q", records)
	}
}

func TestTSVEncoding(t *testing.T) {
	enc, err := EncoderFor(FormatTSV)
	if err != nil {
		t.Fatal(err)
	}
	if enc.Extension() != "tsv" {
		t.Errorf("Extension() = %q", enc.Extension())
	}
	data, err := enc.Encode(sampleReport())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimPrefix(string(data), bom), "\n")
	if lines[0] != strings.Join(Columns[:], "\t") {
		t.Errorf("header line = %q", lines[0])
	}
	if !strings.Contains(string(data), "\t8,300원\t") {
		t.Error("commas must not be quoted in tsv")
	}
}

func TestXLSXEncoding(t *testing.T) {
	enc, err := EncoderFor(FormatXLSX)
	if err != nil {
		t.Fatal(err)
	}
	data, err := enc.Encode(sampleReport())
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("sheets = %v, want [%s]", sheets, SheetName)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "결제일자" || rows[1][2] != "12,000원" {
		t.Errorf("unexpected cells %q", rows[:2])
	}

	for i, col := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		w, err := f.GetColWidth(SheetName, col)
		if err != nil {
			t.Fatal(err)
		}
		if w != ColumnWidths[i] {
			t.Errorf("width of %s = %v, want %v", col, w, ColumnWidths[i])
		}
	}
}

func TestEncoderForUnknown(t *testing.T) {
	_, err := EncoderFor("pdf")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("EncoderFor(pdf) error = %v", err)
	}
}
