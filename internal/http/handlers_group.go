package http

import (
	"net/http"
	"time"

	"centsible/internal/core"
)

type createGroupRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=200"`
}

type joinGroupRequest struct {
	Code string `json:"code" validate:"required,len=4"`
}

type groupResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	JoinCode    string `json:"join_code"`
	CreatedBy   int64  `json:"created_by"`
	CreatedAt   string `json:"created_at"`
}

func toGroupResponse(g core.Group) groupResponse {
	return groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		JoinCode:    g.JoinCode,
		CreatedBy:   g.CreatedBy,
		CreatedAt:   g.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	group, err := s.groups.CreateGroup(r.Context(), userID(r.Context()), req.Name, req.Description)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toGroupResponse(group))
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.ListGroups(r.Context(), userID(r.Context()))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	var req joinGroupRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	group, err := s.groups.JoinGroup(r.Context(), userID(r.Context()), req.Code)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toGroupResponse(group))
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	groupID := pathID(w, r)
	if groupID == 0 {
		return
	}

	group, err := s.groups.GetGroup(r.Context(), userID(r.Context()), groupID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toGroupResponse(group))
}

func (s *Server) handleGroupMembers(w http.ResponseWriter, r *http.Request) {
	groupID := pathID(w, r)
	if groupID == 0 {
		return
	}

	ids, err := s.groups.Members(r.Context(), userID(r.Context()), groupID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]int64{"member_ids": ids})
}
