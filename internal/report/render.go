package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ggonsajang/comcard/internal/core"
)

// Columns is the fixed report header.
var Columns = [7]string{
	"결제일자",
	"사용 구분",
	"사용 금액",
	"근무 구분",
	"감리사업명 or 제안명",
	"결제 포함 직원(본인 포함)",
	"비고",
}

// Report is a rendered, serializer-independent table.
type Report struct {
	Period Period
	Title  string
	Header [7]string
	Rows   [][]string
	Count  int
	Total  int64
}

// Empty reports whether the report has no data rows.
func (r Report) Empty() bool {
	return r.Count == 0
}

// Table returns the header followed by the data rows.
func (r Report) Table() [][]string {
	table := make([][]string, 0, len(r.Rows)+1)
	table = append(table, r.Header[:])
	return append(table, r.Rows...)
}

// Render filters items to period p and renders the result. A period
// without records yields an empty report, not an error.
func Render(items []core.Expense, p Period, now time.Time) Report {
	return RenderRecords(Filter(items, p, now), p, Title(p, now))
}

// RenderRecords renders already filtered records under the given title.
func RenderRecords(items []core.Expense, p Period, title string) Report {
	r := Report{
		Period: p,
		Title:  title,
		Header: Columns,
		Rows:   make([][]string, 0, len(items)),
		Count:  len(items),
		Total:  core.Total(items),
	}
	for _, e := range items {
		r.Rows = append(r.Rows, Row(e))
	}
	return r
}

// Row renders a single record in column order.
func Row(e core.Expense) []string {
	return []string{
		FormatDate(e.Date),
		string(e.Category),
		FormatAmount(e.Amount),
		string(e.WorkType),
		e.ProjectName,
		e.Participants,
		e.Remarks,
	}
}

// Summary is the one-line count and total, e.g. "총 3건 | 총액 45,000원".
func (r Report) Summary() string {
	return fmt.Sprintf("총 %d건 | 총액 %s", r.Count, FormatAmount(r.Total))
}

// PlainText renders the report for a mail body: title, summary and one
// line per record.
func (r Report) PlainText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n%s\n", r.Title, r.Summary())
	for i, row := range r.Rows {
		fmt.Fprintf(&b, "\n%d. %s | %s | %s | %s", i+1, row[0], row[1], row[2], row[3])
		for _, extra := range row[4:] {
			if extra != "" {
				fmt.Fprintf(&b, " | %s", extra)
			}
		}
	}
	return b.String()
}
