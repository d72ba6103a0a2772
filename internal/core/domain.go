package core

import (
	"errors"
	"strings"
)

const (
	CategoryLunch     Category = "중식"
	CategoryDinner    Category = "석식"
	CategoryLodging   Category = "숙박비"
	CategoryKTX       Category = "KTX"
	CategoryTaxi      Category = "택시"
	CategoryOwnCar    Category = "자차"
	CategoryTeamMeal  Category = "회식비"
	CategoryOther     Category = "기타"
	WorkTypeSupervise WorkType = "감리"
	WorkTypeOffice    WorkType = "내근"
	WorkTypeOther     WorkType = "기타"
)

type (
	// Category is the usage class of a card payment.
	Category string

	// WorkType tells whether the payment happened on a supervision site,
	// in the office or elsewhere.
	WorkType string

	// ExpenseInput holds every user-editable field of an expense.
	ExpenseInput struct {
		Date         LocalTime `json:"date"`
		Category     Category  `json:"category"`
		Amount       int64     `json:"amount"`
		WorkType     WorkType  `json:"workType"`
		ProjectName  string    `json:"projectName"`
		Participants string    `json:"participants"`
		Remarks      string    `json:"remarks"`
		ReceiptImage *string   `json:"receiptImage"`
	}

	// Expense is one corporate-card transaction. ID and CreatedAt are set
	// once on creation and never change afterwards.
	Expense struct {
		ID string `json:"id"`
		ExpenseInput
		CreatedAt int64 `json:"createdAt"`
	}
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidWorkType = errors.New("invalid work type")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrEmptyID         = errors.New("empty expense id")
)

// Categories returns the selectable categories in display order.
func Categories() []Category {
	return []Category{
		CategoryLunch, CategoryDinner, CategoryLodging, CategoryKTX,
		CategoryTaxi, CategoryOwnCar, CategoryTeamMeal, CategoryOther,
	}
}

// WorkTypes returns the selectable work types in display order.
func WorkTypes() []WorkType {
	return []WorkType{WorkTypeSupervise, WorkTypeOffice, WorkTypeOther}
}

func (c Category) IsValid() bool {
	for _, v := range Categories() {
		if c == v {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

func (w WorkType) IsValid() bool {
	for _, v := range WorkTypes() {
		if w == v {
			return true
		}
	}
	return false
}

func (w WorkType) String() string { return string(w) }

func (in ExpenseInput) Validate() error {
	if in.Date.IsZero() {
		return ErrZeroDate
	}
	if !in.Category.IsValid() {
		return ErrInvalidCategory
	}
	if !in.WorkType.IsValid() {
		return ErrInvalidWorkType
	}
	if in.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Normalize maps a blank receipt to "no receipt". Text fields are kept
// verbatim.
func (in ExpenseInput) Normalize() ExpenseInput {
	if in.ReceiptImage != nil && strings.TrimSpace(*in.ReceiptImage) == "" {
		in.ReceiptImage = nil
	}
	return in
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	return e.ExpenseInput.Validate()
}

// HasReceipt reports whether a receipt photo is attached.
func (e Expense) HasReceipt() bool {
	return e.ReceiptImage != nil && *e.ReceiptImage != ""
}

// Total sums the amounts of the given expenses.
func Total(items []Expense) int64 {
	var total int64
	for _, e := range items {
		total += e.Amount
	}
	return total
}
