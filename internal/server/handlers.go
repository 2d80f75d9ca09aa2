package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"fundfaq/internal/domain"
)

const maxBodyBytes = 64 << 10

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Query string `json:"query" validate:"required,min=3,max=500"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /meta", s.handleMeta)
	return mux
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON body"})
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := s.validate.Struct(req); err != nil {
		WriteJSON(w, http.StatusBadRequest, errorResponse{Detail: validationDetail(err)})
		return
	}

	result, err := s.asker.Handle(r.Context(), req.Query)
	if errors.Is(err, domain.ErrMissingURL) {
		s.logger.Warn().Err(err).Str("request_id", RequestID(r.Context())).Msg("Retrieved chunk has no source URL")
		WriteJSON(w, http.StatusBadRequest, errorResponse{Detail: "Chunk metadata missing URL"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", RequestID(r.Context())).Msg("Answering question failed")
		WriteJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal error"})
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMeta(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"disclaimer":   s.cfg.Disclaimer,
		"refusal_link": s.cfg.RefusalLink,
	})
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
