package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/STop211650/HyphynessTracker/services/reconcileService"
	"github.com/STop211650/HyphynessTracker/services/stakeService"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Authentication lives in front of this service; the gateway passes the
// caller's id along in this header.
const userHeader = "X-User-ID"

type ctxKey struct{}

type slipRequest struct {
	Screenshot   string                `json:"screenshot" validate:"required_without=BetData"`
	BetData      *models.RawExtraction `json:"bet_data" validate:"required_without=Screenshot"`
	TicketNumber string                `json:"ticket_number" validate:"max=128"`
}

type addBetRequest struct {
	Screenshot   string                `json:"screenshot" validate:"required_without=BetData"`
	BetData      *models.RawExtraction `json:"bet_data" validate:"required_without=Screenshot"`
	Participants string                `json:"participants" validate:"required,max=1000"`
	WhoPaid      string                `json:"who_paid" validate:"max=128"`
}

type settleRequest struct {
	Status string `json:"status" validate:"required,oneof=won lost push void"`
}

type screenshotRequest struct {
	Screenshot string `json:"screenshot" validate:"required"`
}

type stakesRequest struct {
	Text      string           `json:"text" validate:"required,max=1000"`
	TotalRisk *decimal.Decimal `json:"total_risk"`
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userHeader)
		if userID == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"error": "missing " + userHeader + " header"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func (s *Server) handleParseBet(w http.ResponseWriter, r *http.Request) {
	var req screenshotRequest
	if !s.decode(w, r, &req) {
		return
	}
	bet, _, err := s.slip(r.Context(), req.Screenshot, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bet_data": bet})
}

func (s *Server) handleAddBet(w http.ResponseWriter, r *http.Request) {
	var req addBetRequest
	if !s.decode(w, r, &req) {
		return
	}
	bet, raw, err := s.slip(r.Context(), req.Screenshot, req.BetData)
	if err != nil {
		s.writeError(w, err)
		return
	}

	record, err := s.deps.Reconciler.Create(r.Context(), reconcileService.CreateRequest{
		OwnerID: userID(r),
		Bet:     bet,
		Stakes:  req.Participants,
		WhoPaid: req.WhoPaid,
		Raw:     &raw,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"bet_id": record.ID, "bet": record})
}

func (s *Server) handleActiveBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.deps.Bets.ActiveBets(r.Context(), userID(r), r.URL.Query().Get("participant"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bets": bets, "count": len(bets)})
}

func (s *Server) handleFindMatches(w http.ResponseWriter, r *http.Request) {
	var req slipRequest
	if !s.decode(w, r, &req) {
		return
	}
	bet, _, err := s.slip(r.Context(), req.Screenshot, req.BetData)
	if err != nil {
		s.writeError(w, err)
		return
	}

	matches, err := s.deps.Matcher.FindMatches(r.Context(), bet, userID(r), req.TicketNumber)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": matches, "bet_data": bet})
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if !s.decode(w, r, &req) {
		return
	}
	summary, err := s.deps.Settler.Settle(r.Context(), mux.Vars(r)["id"], userID(r), models.BetStatus(req.Status))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"settlement": summary})
}

func (s *Server) handleSettleWithScreenshot(w http.ResponseWriter, r *http.Request) {
	var req screenshotRequest
	if !s.decode(w, r, &req) {
		return
	}
	bet, _, err := s.slip(r.Context(), req.Screenshot, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !bet.Status.IsTerminal() {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "screenshot does not show a settled bet", "bet_data": bet})
		return
	}

	summary, err := s.deps.Settler.SettleVerified(r.Context(), mux.Vars(r)["id"], userID(r), bet.Status, bet.TicketNumber)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"settlement": summary, "bet_data": bet})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req slipRequest
	if !s.decode(w, r, &req) {
		return
	}
	bet, _, err := s.slip(r.Context(), req.Screenshot, req.BetData)
	if err != nil {
		s.writeError(w, err)
		return
	}

	outcome, err := s.deps.Reconciler.ReconcileTicket(r.Context(), userID(r), bet, req.TicketNumber)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleParseStakes(w http.ResponseWriter, r *http.Request) {
	var req stakesRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, stakeService.Parse(req.Text, req.TotalRisk))
}

// slip turns either a base64 screenshot or caller-supplied bet data into a
// normalized bet.
func (s *Server) slip(ctx context.Context, screenshot string, betData *models.RawExtraction) (models.ParsedBet, models.RawExtraction, error) {
	var raw models.RawExtraction
	switch {
	case betData != nil:
		raw = *betData
	case s.deps.Extractor == nil:
		return models.ParsedBet{}, raw, fmt.Errorf("%w: extraction service not configured", common.ErrExtraction)
	default:
		image, err := base64.StdEncoding.DecodeString(screenshot)
		if err != nil {
			return models.ParsedBet{}, raw, &common.ValidationError{Errors: []string{"screenshot must be base64 encoded"}}
		}
		raw, err = s.deps.Extractor.Extract(ctx, image)
		if err != nil {
			return models.ParsedBet{}, raw, err
		}
	}

	bet, err := s.deps.Normalizer.Normalize(raw)
	return bet, raw, err
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<20)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request body"})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request", "errors": msgs})
			return false
		}
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var validation *common.ValidationError
	var settled *common.AlreadySettledError

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"error": "validation failed", "errors": validation.Errors})
	case errors.As(err, &settled):
		writeJSON(w, http.StatusConflict, map[string]interface{}{"error": settled.Error(), "status": settled.Status})
	case errors.Is(err, common.ErrDuplicateTicket):
		writeJSON(w, http.StatusConflict, map[string]interface{}{"error": err.Error()})
	case errors.Is(err, common.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": err.Error()})
	case errors.Is(err, common.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]interface{}{"error": err.Error()})
	case errors.Is(err, common.ErrInvalidStatus), errors.Is(err, common.ErrInvalidRecord), errors.Is(err, common.ErrTicketMismatch):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
	case errors.Is(err, common.ErrExtraction):
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{"error": err.Error()})
	default:
		s.log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
