package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ggonsajang/comcard/internal/core"
	"github.com/ggonsajang/comcard/internal/receipt"
)

// maxBodyBytes leaves room for an inline receipt image.
const maxBodyBytes = receipt.MaxUploadBytes + 1<<20

var errBadJSON = errors.New("malformed JSON body")

// amountField accepts a JSON number or string and reads it like the
// amount input: "12,000원" is 12000, "15.7" is 15, garbage or negative is 0.
type amountField int64

func (a *amountField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	*a = amountField(core.ParseAmount(s))
	return nil
}

type expenseRequest struct {
	Date         string      `json:"date" validate:"required"`
	Category     string      `json:"category" validate:"required,category"`
	Amount       amountField `json:"amount"`
	WorkType     string      `json:"workType" validate:"required,worktype"`
	ProjectName  string      `json:"projectName" validate:"max=200"`
	Participants string      `json:"participants" validate:"max=500"`
	Remarks      string      `json:"remarks" validate:"max=1000"`
	ReceiptImage *string     `json:"receiptImage" validate:"omitempty,datauri"`
}

func (req expenseRequest) input() (core.ExpenseInput, error) {
	date, err := core.ParseLocalTime(req.Date)
	if err != nil {
		return core.ExpenseInput{}, err
	}
	return core.ExpenseInput{
		Date:         date,
		Category:     core.Category(req.Category),
		Amount:       int64(req.Amount),
		WorkType:     core.WorkType(req.WorkType),
		ProjectName:  req.ProjectName,
		Participants: req.Participants,
		Remarks:      req.Remarks,
		ReceiptImage: req.ReceiptImage,
	}.Normalize(), nil
}

type loginRequest struct {
	Password string `json:"password"`
}

type exportRequest struct {
	Period string `json:"period" validate:"omitempty,period"`
	Email  bool   `json:"email"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return nil
}

// bearerToken reads the session token from the Authorization header or,
// for plain browser downloads, from the session cookie.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}
