package server

import (
	"net/http"
	"strconv"

	"github.com/jonathan/internship-matcher/internal/ranking"
	"github.com/jonathan/internship-matcher/internal/service"
	"github.com/jonathan/internship-matcher/internal/types"
)

// RecommendRequest represents the request body for /recommend
type RecommendRequest struct {
	Candidate     *types.CandidateProfile `json:"candidate"`
	Opportunities []types.Opportunity     `json:"opportunities"`
	ExcludeIDs    []string                `json:"exclude_ids,omitempty"`
	Limit         int                     `json:"limit,omitempty"`
}

// ApplyRequest represents the request body for /candidates/{id}/applications
type ApplyRequest struct {
	OpportunityID string `json:"opportunity_id"`
}

// SaveOpportunityResponse represents the response for PUT /opportunities/{id}
type SaveOpportunityResponse struct {
	Opportunity *types.Opportunity `json:"opportunity"`
	Created     bool               `json:"created"`
}

// handleRecommend ranks the supplied opportunities without touching the store
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Candidate == nil {
		s.errorResponse(w, http.StatusBadRequest, "candidate is required")
		return
	}
	if req.Limit == 0 {
		req.Limit = ranking.DefaultLimit
	}

	recs, err := s.ranker.Recommend(r.Context(), req.Candidate, req.Opportunities, req.ExcludeIDs, req.Limit)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.Recommendations{
		CandidateID:     req.Candidate.ID,
		Source:          service.SourceGenerated,
		Recommendations: recs,
	})
}

// handleGenerate generates recommendations for a stored candidate
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Generate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleListRecommendations returns stored recommendations, best first
func (s *Server) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid limit: "+raw)
			return
		}
		limit = n
	}

	result, err := s.svc.List(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleApply records an application to an opportunity
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.svc.Apply(r.Context(), r.PathValue("id"), req.OpportunityID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	s.jsonResponse(w, status, result)
}

// handleGetApplication returns a single application
func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.svc.GetApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

// handleUpdateApplication applies an employer's review decision
func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	var update types.ApplicationUpdate
	if !s.decodeBody(w, r, &update) {
		return
	}

	app, err := s.svc.UpdateApplicationStatus(r.Context(), r.PathValue("id"), &update)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

// handlePutCandidate creates or replaces a candidate profile
func (s *Server) handlePutCandidate(w http.ResponseWriter, r *http.Request) {
	var profile types.CandidateProfile
	if !s.decodeBody(w, r, &profile) {
		return
	}
	if err := matchPathID(r.PathValue("id"), &profile.ID); err != nil {
		s.serviceError(w, r, err)
		return
	}

	if err := s.svc.SaveCandidate(r.Context(), &profile); err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handlePutOpportunity creates or replaces an opportunity listing
func (s *Server) handlePutOpportunity(w http.ResponseWriter, r *http.Request) {
	var opp types.Opportunity
	if !s.decodeBody(w, r, &opp) {
		return
	}
	if err := matchPathID(r.PathValue("id"), &opp.ID); err != nil {
		s.serviceError(w, r, err)
		return
	}

	created, err := s.svc.SaveOpportunity(r.Context(), &opp)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.jsonResponse(w, status, SaveOpportunityResponse{Opportunity: &opp, Created: created})
}

// matchPathID fills an empty body id from the path and rejects a mismatch.
func matchPathID(pathID string, bodyID *string) error {
	if *bodyID == "" {
		*bodyID = pathID
		return nil
	}
	if *bodyID != pathID {
		return &types.ValidationError{Subject: "request", Errors: []types.FieldError{{Field: "id", Message: "must match the path"}}}
	}
	return nil
}
