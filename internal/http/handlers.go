package http

import (
	"errors"
	"net/http"
	"strconv"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/log"
	"budgetbook/internal/storage"
)

type mutationResponse struct {
	Status  string `json:"status"`
	Count   int    `json:"count"`
	Warning string `json:"warning,omitempty"`
}

// mutationResult maps a mutator's error to a response. A persistence error
// still reports success, carrying the failure as a warning.
func (s *Server) mutationResult(r *http.Request, op string, okStatus int, err error) *JSONResponseBuilder {
	switch {
	case err == nil:
		return NewJSONResponse().Status(okStatus).Data(mutationResponse{Status: "ok", Count: len(s.ledger.GetAllTransactions())})
	case errors.Is(err, ledger.ErrPersistence):
		return NewJSONResponse().Status(okStatus).Data(mutationResponse{
			Status:  "ok",
			Count:   len(s.ledger.GetAllTransactions()),
			Warning: "change applied but not saved: " + err.Error(),
		})
	case errors.Is(err, core.ErrInvalidTransaction):
		return UnprocessableEntityError(err.Error())
	case errors.Is(err, ledger.ErrIndexOutOfRange):
		return NotFoundError(err.Error())
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Ledger mutation failed", log.FieldOperation, op, log.FieldError, err)
		return InternalServerError("ledger mutation failed")
	}
}

func badInput(err error) *JSONResponseBuilder {
	if errors.Is(err, errMissingField) || errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrInvalidType) {
		return UnprocessableEntityError(err.Error())
	}
	return BadRequestError(err.Error())
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.ledger.GetAllTransactions()).Write(w)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	f, err := parseTransactionFields(NewRequestBodyParser(r))
	if err != nil {
		badInput(err).Write(w)
		return
	}
	err = s.ledger.AddTransaction(r.Context(), f.Date, f.Description, f.Amount, f.Type)
	s.mutationResult(r, log.OpAdd, http.StatusCreated, err).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		BadRequestError("index must be an integer").Write(w)
		return
	}
	f, err := parseTransactionFields(NewRequestBodyParser(r))
	if err != nil {
		badInput(err).Write(w)
		return
	}
	err = s.ledger.UpdateTransaction(r.Context(), index, f.Date, f.Description, f.Amount, f.Type)
	s.mutationResult(r, log.OpUpdate, http.StatusOK, err).Write(w)
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	f, err := parseTransactionFields(NewRequestBodyParser(r))
	if err != nil {
		badInput(err).Write(w)
		return
	}
	removed, err := s.ledger.RemoveTransaction(r.Context(), f.Date, f.Description, f.Amount, f.Type)
	if err == nil && !removed {
		NotFoundError("no matching transaction").Write(w)
		return
	}
	s.mutationResult(r, log.OpRemove, http.StatusOK, err).Write(w)
}

// handleSummary returns the summary as JSON, or with ?format=prompt the
// report prompt text.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary := s.ledger.Summary()
	if r.URL.Query().Get("format") == "prompt" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(ledger.ReportPrompt(summary)))
		return
	}
	NewJSONResponse().Data(summary).Write(w)
}

func (s *Server) handleWeeklySpending(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(core.SortedWeeks(s.ledger.GetWeeklySpending())).Write(w)
}

func (s *Server) handleExpenseCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(core.SortedCategories(s.ledger.GetExpenseCategories())).Write(w)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	c, err := parseCredentialFields(NewRequestBodyParser(r))
	if err != nil {
		badInput(err).Write(w)
		return
	}
	if err := s.auth.Register(r.Context(), c.Username, c.Password); err != nil {
		if errors.Is(err, storage.ErrInvalidCredential) {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Registration failed", log.FieldOperation, log.OpRegister, log.FieldError, err)
		InternalServerError("registration failed").Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(map[string]string{"status": "registered"}).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	c, err := parseCredentialFields(NewRequestBodyParser(r))
	if err != nil {
		badInput(err).Write(w)
		return
	}
	ok, err := s.auth.Authenticate(r.Context(), c.Username, c.Password)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Authentication failed", log.FieldOperation, log.OpLogin, log.FieldError, err)
		InternalServerError("authentication failed").Write(w)
		return
	}
	if !ok {
		ErrorResponse(http.StatusUnauthorized, "invalid username or password").Write(w)
		return
	}
	NewJSONResponse().Data(map[string]bool{"authenticated": true}).Write(w)
}
