package http

import (
	"net/http"
	"time"

	"centsible/internal/core"
	"centsible/internal/receipt"
)

type groupNetResponse struct {
	GroupID  int64  `json:"group_id"`
	Net      string `json:"net"`
	NetCents int64  `json:"net_cents"`
}

type balanceResponse struct {
	Net           string             `json:"net"`
	NetCents      int64              `json:"net_cents"`
	OwedToMe      string             `json:"owed_to_me"`
	OwedToMeCents int64              `json:"owed_to_me_cents"`
	OwedByMe      string             `json:"owed_by_me"`
	OwedByMeCents int64              `json:"owed_by_me_cents"`
	Groups        []groupNetResponse `json:"groups"`
}

type counterpartyResponse struct {
	UserID int64  `json:"user_id"`
	Amount string `json:"amount"`
	Cents  int64  `json:"amount_cents"`
}

type breakdownResponse struct {
	GroupID  int64                  `json:"group_id"`
	Net      string                 `json:"net"`
	NetCents int64                  `json:"net_cents"`
	OwedToMe []counterpartyResponse `json:"owed_to_me"`
	OwedByMe []counterpartyResponse `json:"owed_by_me"`
}

type activityEntryResponse struct {
	Kind        string `json:"kind"`
	ID          int64  `json:"id"`
	GroupID     int64  `json:"group_id"`
	ActorID     int64  `json:"actor_id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Cents       int64  `json:"amount_cents"`
	CreatedAt   string `json:"created_at"`
	Mine        bool   `json:"mine"`
	Involved    bool   `json:"involved"`
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	dash, err := s.reporting.Dashboard(r.Context(), userID(r.Context()))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	out := balanceResponse{
		Net:           core.FormatCents(dash.NetCents),
		NetCents:      dash.NetCents,
		OwedToMe:      core.FormatCents(dash.OwedToMeCents),
		OwedToMeCents: dash.OwedToMeCents,
		OwedByMe:      core.FormatCents(dash.OwedByMeCents),
		OwedByMeCents: dash.OwedByMeCents,
		Groups:        make([]groupNetResponse, 0, len(dash.Groups)),
	}
	for _, g := range dash.Groups {
		out.Groups = append(out.Groups, groupNetResponse{
			GroupID:  g.GroupID,
			Net:      core.FormatCents(g.NetCents),
			NetCents: g.NetCents,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGroupBreakdown(w http.ResponseWriter, r *http.Request) {
	groupID := pathID(w, r)
	if groupID == 0 {
		return
	}

	breakdown, err := s.reporting.GroupBreakdown(r.Context(), userID(r.Context()), groupID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	out := breakdownResponse{
		GroupID:  breakdown.GroupID,
		Net:      core.FormatCents(breakdown.NetCents),
		NetCents: breakdown.NetCents,
		OwedToMe: make([]counterpartyResponse, 0, len(breakdown.OwedToMe)),
		OwedByMe: make([]counterpartyResponse, 0, len(breakdown.OwedByMe)),
	}
	for _, c := range breakdown.OwedToMe {
		out.OwedToMe = append(out.OwedToMe, counterpartyResponse{
			UserID: c.UserID, Amount: core.FormatCents(c.Cents), Cents: c.Cents,
		})
	}
	for _, c := range breakdown.OwedByMe {
		out.OwedByMe = append(out.OwedByMe, counterpartyResponse{
			UserID: c.UserID, Amount: core.FormatCents(c.Cents), Cents: c.Cents,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := s.reporting.Activity(r.Context(), userID(r.Context()))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	out := make([]activityEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityEntryResponse{
			Kind:        string(e.Kind),
			ID:          e.ID,
			GroupID:     e.GroupID,
			ActorID:     e.ActorID,
			Description: e.Description,
			Amount:      core.FormatCents(e.AmountCents),
			Cents:       e.AmountCents,
			CreatedAt:   time.Unix(e.CreatedAt, 0).UTC().Format(time.RFC3339),
			Mine:        e.Mine,
			Involved:    e.Involved,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

type receiptSuggestRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

type receiptSuggestResponse struct {
	Found  bool   `json:"found"`
	Amount string `json:"amount,omitempty"`
	Cents  int64  `json:"amount_cents,omitempty"`
}

// handleReceiptSuggest runs the receipt heuristics over OCR text and
// suggests a total. It never records anything.
func (s *Server) handleReceiptSuggest(w http.ResponseWriter, r *http.Request) {
	var req receiptSuggestRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	cents, ok := receipt.FindTotalInText(req.Text)
	if !ok {
		respondJSON(w, http.StatusOK, receiptSuggestResponse{Found: false})
		return
	}
	respondJSON(w, http.StatusOK, receiptSuggestResponse{
		Found:  true,
		Amount: core.FormatCents(cents),
		Cents:  cents,
	})
}
