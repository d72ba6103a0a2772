package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/ggonsajang/comcard/internal/report"
)

type fakeSheetsAPI struct {
	mu       sync.Mutex
	existing []string
	calls    []string
	added    []string
	written  [][]any
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-1"):
		f.calls = append(f.calls, "get")
		var sheets []map[string]any
		for _, title := range f.existing {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": title}})
		}
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1", "sheets": sheets})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		f.calls = append(f.calls, "add")
		var req gsheet.BatchUpdateSpreadsheetRequest
		json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			f.added = append(f.added, rq.AddSheet.Properties.Title)
		}
		w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.calls = append(f.calls, "clear")
		w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		f.calls = append(f.calls, "update")
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		f.written = vr.Values
		w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func newTestPublisher(t *testing.T, api http.Handler) *Publisher {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewWithService(svc, "sheet-1", nil)
}

func sampleReport() report.Report {
	return report.Report{
		Title:  "2025년12월_내역",
		Header: report.Columns,
		Rows: [][]string{
			{"2025. 12. 29 오후 12:56:00", "중식", "12,000원", "감리", "서울역", "김철수", ""},
		},
		Count: 1,
		Total: 12000,
	}
}

func TestPublishCreatesMissingSheet(t *testing.T) {
	api := &fakeSheetsAPI{existing: []string{"전체내역"}}
	p := newTestPublisher(t, api)

	if err := p.Publish(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if got := strings.Join(api.calls, ","); got != "get,add,clear,update" {
		t.Errorf("calls = %s", got)
	}
	if len(api.added) != 1 || api.added[0] != "2025년12월_내역" {
		t.Errorf("added = %v", api.added)
	}
	if len(api.written) != 2 {
		t.Fatalf("written %d rows, want header plus one", len(api.written))
	}
	if api.written[0][0] != "결제일자" || api.written[1][2] != "12,000원" {
		t.Errorf("unexpected values %v", api.written)
	}
}

func TestPublishReusesExistingSheet(t *testing.T) {
	api := &fakeSheetsAPI{existing: []string{"2025년12월_내역"}}
	p := newTestPublisher(t, api)

	if err := p.Publish(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := strings.Join(api.calls, ","); got != "get,clear,update" {
		t.Errorf("calls = %s", got)
	}
}

func TestPublishReportsAPIErrors(t *testing.T) {
	p := newTestPublisher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	}))

	err := p.Publish(context.Background(), sampleReport())
	if err == nil || !strings.Contains(err.Error(), "read spreadsheet") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestPublishWithoutService(t *testing.T) {
	p := &Publisher{}
	if err := p.Publish(context.Background(), sampleReport()); err == nil {
		t.Fatal("expected an error without a service")
	}
}

func TestCredentials(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(file, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr error
	}{
		{"inline json wins", Config{ServiceAccountJSON: `{"inline":true}`, ServiceAccountFile: file}, `{"inline":true}`, nil},
		{"file", Config{ServiceAccountFile: file}, `{"type":"service_account"}`, nil},
		{"missing", Config{}, "", ErrMissingCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := credentials(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || string(got) != tt.want {
				t.Fatalf("credentials() = %q, %v", got, err)
			}
		})
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Config{ServiceAccountJSON: "{}"}, nil); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}

func TestSheetRangeQuotes(t *testing.T) {
	if got := sheetRange("it's"); got != "'it''s'" {
		t.Errorf("sheetRange = %q", got)
	}
}
