package web

import (
	"context"
	"net/http"
	"time"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/STop211650/HyphynessTracker/services/matchService"
	"github.com/STop211650/HyphynessTracker/services/reconcileService"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Extractor interface {
	Extract(ctx context.Context, screenshot []byte) (models.RawExtraction, error)
}

type Normalizer interface {
	Normalize(raw models.RawExtraction) (models.ParsedBet, error)
}

type Matcher interface {
	FindMatches(ctx context.Context, settlement models.ParsedBet, ownerID, ticketNumber string) ([]matchService.Match, error)
}

type Settler interface {
	Settle(ctx context.Context, recordID, actorID string, status models.BetStatus) (models.SettlementSummary, error)
	SettleVerified(ctx context.Context, recordID, actorID string, status models.BetStatus, ticketNumber string) (models.SettlementSummary, error)
}

type Reconciler interface {
	ReconcileTicket(ctx context.Context, ownerID string, bet models.ParsedBet, ticketNumber string) (reconcileService.Outcome, error)
	Create(ctx context.Context, req reconcileService.CreateRequest) (*models.BetRecord, error)
}

type BetLister interface {
	ActiveBets(ctx context.Context, ownerID, participant string) ([]models.BetRecord, error)
}

// Deps are the services behind the API. Extractor may be nil, in which case
// only requests that carry bet_data instead of a screenshot succeed.
type Deps struct {
	Extractor  Extractor
	Normalizer Normalizer
	Matcher    Matcher
	Settler    Settler
	Reconciler Reconciler
	Bets       BetLister
}

type Server struct {
	deps           Deps
	log            *zap.Logger
	validate       *validator.Validate
	allowedOrigins []string
	httpServer     *http.Server
}

func NewServer(deps Deps, allowedOrigins []string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		deps:           deps,
		log:            log,
		validate:       validator.New(),
		allowedOrigins: allowedOrigins,
	}
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.requireUser)
	api.HandleFunc("/bets/parse", s.handleParseBet).Methods(http.MethodPost)
	api.HandleFunc("/bets", s.handleAddBet).Methods(http.MethodPost)
	api.HandleFunc("/bets/active", s.handleActiveBets).Methods(http.MethodGet)
	api.HandleFunc("/bets/match", s.handleFindMatches).Methods(http.MethodPost)
	api.HandleFunc("/bets/{id}/settle", s.handleSettle).Methods(http.MethodPost)
	api.HandleFunc("/bets/{id}/settle-with-screenshot", s.handleSettleWithScreenshot).Methods(http.MethodPost)
	api.HandleFunc("/settlements", s.handleReconcile).Methods(http.MethodPost)
	api.HandleFunc("/stakes/parse", s.handleParseStakes).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", userHeader},
	})

	return c.Handler(router)
}

func (s *Server) Start(port string) error {
	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("http api listening", zap.String("port", port))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
