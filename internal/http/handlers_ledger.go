package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"centsible/internal/core"
	"centsible/internal/services"
)

// Amounts cross the wire as decimal strings ("12.34") and are converted to
// cents at the boundary; everything past this file is integer cents.

type splitParticipantRequest struct {
	UserID  int64  `json:"user_id" validate:"required,gt=0"`
	Percent string `json:"percent,omitempty"`
	Amount  string `json:"amount,omitempty"`
	Weight  int64  `json:"weight,omitempty"`
	Tag     string `json:"tag,omitempty" validate:"omitempty,oneof=amount percent none"`
}

type createExpenseRequest struct {
	GroupID      int64                     `json:"group_id" validate:"required,gt=0"`
	Description  string                    `json:"description" validate:"required,max=200"`
	Amount       string                    `json:"amount" validate:"required"`
	Currency     string                    `json:"currency" validate:"omitempty,len=3"`
	Method       string                    `json:"method" validate:"omitempty,oneof=equal percentage exact shares custom"`
	Participants []splitParticipantRequest `json:"participants" validate:"omitempty,dive"`
}

type createPaymentRequest struct {
	GroupID     int64  `json:"group_id" validate:"required,gt=0"`
	PayeeID     int64  `json:"payee_id" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=200"`
	Amount      string `json:"amount" validate:"required"`
}

type shareResponse struct {
	UserID int64  `json:"user_id"`
	Amount string `json:"amount"`
	Cents  int64  `json:"amount_cents"`
}

type expenseResponse struct {
	ID          int64           `json:"id"`
	GroupID     int64           `json:"group_id"`
	PayerID     int64           `json:"payer_id"`
	Description string          `json:"description"`
	Amount      string          `json:"amount"`
	Cents       int64           `json:"amount_cents"`
	Currency    string          `json:"currency"`
	Method      string          `json:"method"`
	CreatedAt   string          `json:"created_at"`
	Shares      []shareResponse `json:"shares,omitempty"`
}

type paymentResponse struct {
	ID          int64  `json:"id"`
	GroupID     int64  `json:"group_id"`
	PayerID     int64  `json:"payer_id"`
	PayeeID     int64  `json:"payee_id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Cents       int64  `json:"amount_cents"`
	CreatedAt   string `json:"created_at"`
}

func toExpenseResponse(e core.Expense, shares []core.Share) expenseResponse {
	out := expenseResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		PayerID:     e.PayerID,
		Description: e.Description,
		Amount:      core.FormatCents(e.Amount.Cents),
		Cents:       e.Amount.Cents,
		Currency:    e.Currency,
		Method:      string(e.Method),
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, sh := range shares {
		out.Shares = append(out.Shares, shareResponse{
			UserID: sh.UserID,
			Amount: core.FormatCents(sh.Amount.Cents),
			Cents:  sh.Amount.Cents,
		})
	}
	return out
}

func toPaymentResponse(p core.Payment) paymentResponse {
	return paymentResponse{
		ID:          p.ID,
		GroupID:     p.GroupID,
		PayerID:     p.PayerID,
		PayeeID:     p.PayeeID,
		Description: p.Description,
		Amount:      core.FormatCents(p.Amount.Cents),
		Cents:       p.Amount.Cents,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func parseParticipants(reqs []splitParticipantRequest) ([]core.SplitParticipant, error) {
	out := make([]core.SplitParticipant, 0, len(reqs))
	for _, pr := range reqs {
		p := core.SplitParticipant{
			UserID: pr.UserID,
			Weight: pr.Weight,
			Tag:    core.CustomTag(pr.Tag),
		}
		if pr.Percent != "" {
			pct, err := decimal.NewFromString(pr.Percent)
			if err != nil {
				return nil, core.ErrInvalidAmount
			}
			p.Percent = pct
		}
		if pr.Amount != "" {
			cents, err := core.ParseDecimalToCents(pr.Amount)
			if err != nil {
				return nil, err
			}
			p.Amount = core.Money{Cents: cents}
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	participants, err := parseParticipants(req.Participants)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	expense, shares, err := s.expenses.CreateExpense(r.Context(), services.ExpenseInput{
		GroupID:      req.GroupID,
		PayerID:      userID(r.Context()),
		Description:  req.Description,
		AmountCents:  cents,
		Currency:     req.Currency,
		Method:       core.SplitMethod(req.Method),
		Participants: participants,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.structured.LogExpenseRecorded(r.Context(), expense.ID, expense.GroupID,
		expense.Amount.Cents, string(expense.Method), len(shares))
	respondJSON(w, http.StatusCreated, toExpenseResponse(expense, shares))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expenseID := pathID(w, r)
	if expenseID == 0 {
		return
	}

	expense, splits, err := s.expenses.GetExpense(r.Context(), userID(r.Context()), expenseID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	shares := make([]core.Share, 0, len(splits))
	for _, sp := range splits {
		shares = append(shares, core.Share{UserID: sp.UserID, Amount: sp.Amount})
	}
	respondJSON(w, http.StatusOK, toExpenseResponse(expense, shares))
}

func (s *Server) handleListGroupExpenses(w http.ResponseWriter, r *http.Request) {
	groupID := pathID(w, r)
	if groupID == 0 {
		return
	}

	limit := queryLimit(r, 50, 200)
	expenses, err := s.expenses.ListGroupExpenses(r.Context(), userID(r.Context()), groupID, limit)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e, nil))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	payment, err := s.payments.RecordPayment(r.Context(), services.PaymentInput{
		GroupID:     req.GroupID,
		PayerID:     userID(r.Context()),
		PayeeID:     req.PayeeID,
		Description: req.Description,
		AmountCents: cents,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.structured.LogPaymentRecorded(r.Context(), payment.ID, payment.GroupID,
		payment.PayerID, payment.PayeeID, payment.Amount.Cents)
	respondJSON(w, http.StatusCreated, toPaymentResponse(payment))
}
