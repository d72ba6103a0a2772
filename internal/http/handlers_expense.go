package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ggonsajang/comcard/internal/core"
	"github.com/ggonsajang/comcard/internal/log"
	"github.com/ggonsajang/comcard/internal/receipt"
	"github.com/ggonsajang/comcard/internal/session"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Store.List(r.Context())
	if err != nil {
		writeInternal(w, r, "Failed to list expenses", err)
		return
	}
	if items == nil {
		items = []core.Expense{}
	}
	log.FromContext(r.Context()).Debug("Expenses listed", log.FieldOperation, log.OpList, log.FieldCount, len(items))
	writeJSON(w, http.StatusOK, items)
}

// readExpense decodes and validates an expense body. It writes the error
// response itself and reports whether the handler may continue.
func (s *Server) readExpense(w http.ResponseWriter, r *http.Request) (core.ExpenseInput, bool) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return core.ExpenseInput{}, false
	}
	if err := s.validate.Struct(req); err != nil {
		writeErrorBody(w, r, http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation",
			Message: "입력값을 확인해주세요.",
			Details: validationDetails(err),
		})
		return core.ExpenseInput{}, false
	}
	in, err := req.input()
	if err != nil {
		writeErrorBody(w, r, http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation",
			Message: "입력값을 확인해주세요.",
			Details: []validationDetail{{Field: "date", Message: "날짜 형식이 올바르지 않습니다."}},
		})
		return core.ExpenseInput{}, false
	}
	return in, true
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, ok := s.readExpense(w, r)
	if !ok {
		return
	}
	e, err := s.deps.Store.Create(r.Context(), in)
	if err != nil {
		writeInternal(w, r, "Failed to create expense", err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		log.NewFields().WithOperation(log.OpCreate).WithExpense(e.ID, e.Category.String(), e.Amount).ToSlice()...)

	s.afterWrite(r.Context(), in)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	in, ok := s.readExpense(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.deps.Store.Update(r.Context(), core.Expense{ID: id, ExpenseInput: in}); err != nil {
		writeInternal(w, r, "Failed to update expense", err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense updated",
		log.NewFields().WithOperation(log.OpUpdate).WithExpense(id, in.Category.String(), in.Amount).ToSlice()...)

	s.afterWrite(r.Context(), in)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Store.Delete(r.Context(), id); err != nil {
		writeInternal(w, r, "Failed to delete expense", err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		log.FieldOperation, log.OpDelete, log.FieldExpenseID, id)
	w.WriteHeader(http.StatusNoContent)
}

// afterWrite remembers the form values and schedules a backup. Neither
// can fail the request.
func (s *Server) afterWrite(ctx context.Context, in core.ExpenseInput) {
	if err := s.deps.State.SaveDefaults(ctx, session.DefaultsFrom(in)); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Failed to save form defaults", log.FieldError, err)
	}
	if s.deps.Backup != nil {
		s.deps.Backup.Trigger(ctx)
	}
}

func (s *Server) handleFormDefaults(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.State.Defaults(r.Context())
	if err != nil {
		writeInternal(w, r, "Failed to read form defaults", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type receiptResponse struct {
	ReceiptImage string `json:"receiptImage"`
}

// handleUploadReceipt shrinks a multipart "file" upload into the data URI
// stored with the expense.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "too_large", "파일이 너무 큽니다.")
			return
		}
		writeError(w, r, http.StatusBadRequest, "bad_request", "file 필드가 필요합니다.")
		return
	}
	defer file.Close()

	uri, err := receipt.Resize(file)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Receipt rejected", log.FieldError, err)
		msg := "이미지 파일만 업로드할 수 있습니다."
		if errors.Is(err, receipt.ErrTooManyPixels) {
			msg = "이미지 해상도가 너무 큽니다."
		}
		writeError(w, r, http.StatusUnprocessableEntity, "validation", msg)
		return
	}
	writeJSON(w, http.StatusOK, receiptResponse{ReceiptImage: uri})
}
