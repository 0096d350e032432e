package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/STop211650/HyphynessTracker/services/ingestService"
	"github.com/STop211650/HyphynessTracker/services/matchService"
	"github.com/STop211650/HyphynessTracker/services/reconcileService"
	"github.com/shopspring/decimal"
)

func assertEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

type fakeSettler struct {
	err       error
	gotTicket string
}

func (f *fakeSettler) Settle(_ context.Context, id, _ string, status models.BetStatus) (models.SettlementSummary, error) {
	if f.err != nil {
		return models.SettlementSummary{}, f.err
	}
	return models.SettlementSummary{BetID: id, Status: status, TotalPayout: decimal.NewFromInt(150)}, nil
}

func (f *fakeSettler) SettleVerified(ctx context.Context, id, actor string, status models.BetStatus, ticket string) (models.SettlementSummary, error) {
	f.gotTicket = ticket
	return f.Settle(ctx, id, actor, status)
}

type fakeMatcher struct {
	owner string
}

func (f *fakeMatcher) FindMatches(_ context.Context, _ models.ParsedBet, owner, _ string) ([]matchService.Match, error) {
	f.owner = owner
	return []matchService.Match{{RecordID: "bet-1", Confidence: 80}}, nil
}

type fakeReconciler struct {
	err    error
	ticket string
}

func (f *fakeReconciler) ReconcileTicket(_ context.Context, _ string, bet models.ParsedBet, ticketNumber string) (reconcileService.Outcome, error) {
	f.ticket = ticketNumber
	return reconcileService.Outcome{Kind: reconcileService.NeedsStakes, Bet: bet}, nil
}

func (f *fakeReconciler) Create(_ context.Context, req reconcileService.CreateRequest) (*models.BetRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.BetRecord{ID: "new-bet", OwnerID: req.OwnerID, Status: req.Bet.Status}, nil
}

type fakeBets struct{}

func (fakeBets) ActiveBets(_ context.Context, owner, _ string) ([]models.BetRecord, error) {
	return []models.BetRecord{{ID: "bet-1", OwnerID: owner}}, nil
}

func newTestServer(settler *fakeSettler, reconciler *fakeReconciler) (*Server, *fakeMatcher) {
	matcher := &fakeMatcher{}
	return NewServer(Deps{
		Normalizer: ingestService.NewNormalizer(nil, nil),
		Matcher:    matcher,
		Settler:    settler,
		Reconciler: reconciler,
		Bets:       fakeBets{},
	}, []string{"*"}, nil), matcher
}

func do(t *testing.T, s *Server, method, path, user string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	decoded := map[string]interface{}{}
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

var betData = map[string]interface{}{
	"ticket_number": "T-1",
	"type":          "Straight",
	"odds":          "$110/$100",
	"risk":          110,
	"to_win":        100,
	"status":        "won",
}

func TestRequiresUser(t *testing.T) {
	s, _ := newTestServer(&fakeSettler{}, &fakeReconciler{})
	rec, _ := do(t, s, http.MethodGet, "/api/bets/active", "", nil)
	assertEqual(t, http.StatusUnauthorized, rec.Code, "status")
}

func TestActiveBets(t *testing.T) {
	s, _ := newTestServer(&fakeSettler{}, &fakeReconciler{})
	rec, body := do(t, s, http.MethodGet, "/api/bets/active", "owner", nil)
	assertEqual(t, http.StatusOK, rec.Code, "status")
	assertEqual(t, float64(1), body["count"], "count")
}

func TestParseStakes(t *testing.T) {
	s, _ := newTestServer(&fakeSettler{}, &fakeReconciler{})
	rec, body := do(t, s, http.MethodPost, "/api/stakes/parse", "owner", map[string]interface{}{
		"text":       "Sam: 50, Alex: 30",
		"total_risk": "80",
	})
	assertEqual(t, http.StatusOK, rec.Code, "status")
	participants, _ := body["participants"].([]interface{})
	assertEqual(t, 2, len(participants), "participants")
	errs, _ := body["errors"].([]interface{})
	assertEqual(t, 0, len(errs), "errors")
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   map[string]interface{}
		status int
	}{
		{name: "ok", body: map[string]interface{}{"status": "won"}, status: http.StatusOK},
		{name: "bad status", body: map[string]interface{}{"status": "pending"}, status: http.StatusBadRequest},
		{name: "not found", err: common.ErrNotFound, body: map[string]interface{}{"status": "won"}, status: http.StatusNotFound},
		{name: "forbidden", err: common.ErrForbidden, body: map[string]interface{}{"status": "won"}, status: http.StatusForbidden},
		{
			name:   "already settled",
			err:    &common.AlreadySettledError{BetID: "bet-1", Status: models.StatusLost},
			body:   map[string]interface{}{"status": "won"},
			status: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(&fakeSettler{err: tt.err}, &fakeReconciler{})
			rec, body := do(t, s, http.MethodPost, "/api/bets/bet-1/settle", "owner", tt.body)
			assertEqual(t, tt.status, rec.Code, "status")
			if tt.status == http.StatusConflict {
				assertEqual(t, "lost", body["status"], "current status")
			}
		})
	}
}

func TestAddBet(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		s, _ := newTestServer(&fakeSettler{}, &fakeReconciler{})
		rec, body := do(t, s, http.MethodPost, "/api/bets", "owner", map[string]interface{}{
			"bet_data":     betData,
			"participants": "Sam: 110",
		})
		assertEqual(t, http.StatusCreated, rec.Code, "status")
		assertEqual(t, "new-bet", body["bet_id"], "bet id")
	})

	t.Run("Stake errors", func(t *testing.T) {
		s, _ := newTestServer(&fakeSettler{}, &fakeReconciler{err: &common.ValidationError{Errors: []string{"Duplicate participant names found"}}})
		rec, body := do(t, s, http.MethodPost, "/api/bets", "owner", map[string]interface{}{
			"bet_data":     betData,
			"participants": "Sam: 55, Sam: 55",
		})
		assertEqual(t, http.StatusUnprocessableEntity, rec.Code, "status")
		errs, _ := body["errors"].([]interface{})
		assertEqual(t, 1, len(errs), "errors")
	})

	t.Run("Duplicate ticket", func(t *testing.T) {
		s, _ := newTestServer(&fakeSettler{}, &fakeReconciler{err: common.ErrDuplicateTicket})
		rec, _ := do(t, s, http.MethodPost, "/api/bets", "owner", map[string]interface{}{
			"bet_data":     betData,
			"participants": "Sam: 110",
		})
		assertEqual(t, http.StatusConflict, rec.Code, "status")
	})

	t.Run("Needs screenshot or bet data", func(t *testing.T) {
		s, _ := newTestServer(&fakeSettler{}, &fakeReconciler{})
		rec, _ := do(t, s, http.MethodPost, "/api/bets", "owner", map[string]interface{}{"participants": "Sam: 110"})
		assertEqual(t, http.StatusBadRequest, rec.Code, "status")
	})

	t.Run("Screenshot without extractor", func(t *testing.T) {
		s, _ := newTestServer(&fakeSettler{}, &fakeReconciler{})
		rec, _ := do(t, s, http.MethodPost, "/api/bets", "owner", map[string]interface{}{
			"screenshot":   "aGVsbG8=",
			"participants": "Sam: 110",
		})
		assertEqual(t, http.StatusBadGateway, rec.Code, "status")
	})
}

func TestFindMatchesNormalizesOdds(t *testing.T) {
	s, matcher := newTestServer(&fakeSettler{}, &fakeReconciler{})
	rec, body := do(t, s, http.MethodPost, "/api/bets/match", "owner", map[string]interface{}{"bet_data": betData})
	assertEqual(t, http.StatusOK, rec.Code, "status")
	assertEqual(t, "owner", matcher.owner, "owner passed through")

	bet, _ := body["bet_data"].(map[string]interface{})
	assertEqual(t, "-110", bet["odds"], "normalized odds")
	matches, _ := body["matches"].([]interface{})
	assertEqual(t, 1, len(matches), "matches")
}

func TestReconcile(t *testing.T) {
	s, _ := newTestServer(&fakeSettler{}, &fakeReconciler{})
	rec, body := do(t, s, http.MethodPost, "/api/settlements", "owner", map[string]interface{}{"bet_data": betData})
	assertEqual(t, http.StatusOK, rec.Code, "status")
	assertEqual(t, "needs_stakes", body["kind"], "kind")
}

func TestReconcilePassesTicketNumber(t *testing.T) {
	reconciler := &fakeReconciler{}
	s, _ := newTestServer(&fakeSettler{}, reconciler)
	rec, _ := do(t, s, http.MethodPost, "/api/settlements", "owner", map[string]interface{}{
		"bet_data":      betData,
		"ticket_number": "T-OVERRIDE",
	})
	assertEqual(t, http.StatusOK, rec.Code, "status")
	assertEqual(t, "T-OVERRIDE", reconciler.ticket, "ticket passed through")
}
