// Package httpapi exposes sessions over JSON/HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/xtding233/gachamon/internal/battle"
	"github.com/xtding233/gachamon/internal/config"
	"github.com/xtding233/gachamon/internal/gacha"
	"github.com/xtding233/gachamon/internal/session"
	"github.com/xtding233/gachamon/internal/store"
)

const (
	defaultTrials = 10_000
	maxTrials     = 100_000
	maxPulls      = 100
)

// Server routes requests to per-address sessions.
type Server struct {
	sessions *session.Manager
	settings func() config.Settings
	rng      gacha.RandomSource
}

func New(sessions *session.Manager, settings func() config.Settings, rng gacha.RandomSource) *Server {
	if rng == nil {
		rng = gacha.DefaultRNG()
	}
	return &Server{sessions: sessions, settings: settings, rng: rng}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}) })
	mux.HandleFunc("GET /rates", s.handleRates)
	mux.HandleFunc("GET /quote", s.handleQuote)

	mux.HandleFunc("GET /wallets/{addr}", s.handleWallet)
	mux.HandleFunc("POST /wallets/{addr}/pull", s.handlePull)
	mux.HandleFunc("GET /wallets/{addr}/creatures", s.handleCollection)
	mux.HandleFunc("GET /wallets/{addr}/creatures/{uid}", s.handleCreature)
	mux.HandleFunc("PUT /wallets/{addr}/creatures/{uid}", s.handleUpdate)
	mux.HandleFunc("POST /wallets/{addr}/creatures/{uid}/sell", s.handleSell)

	mux.HandleFunc("POST /wallets/{addr}/creatures/{uid}/battle", s.handleStartBattle)
	mux.HandleFunc("GET /wallets/{addr}/battles/{id}", s.handleBattle)
	mux.HandleFunc("POST /wallets/{addr}/battles/{id}/turn", s.handleTurn)
	mux.HandleFunc("DELETE /wallets/{addr}/battles/{id}", s.handleEndBattle)

	mux.HandleFunc("GET /wallets/{addr}/creatures/{uid}/shuffle", s.handleShuffleCards)
	mux.HandleFunc("POST /wallets/{addr}/creatures/{uid}/shuffle", s.handleShufflePick)
	mux.HandleFunc("POST /wallets/{addr}/creatures/{uid}/shuffle/reset", s.handleShuffleReset)
	mux.HandleFunc("POST /wallets/{addr}/creatures/{uid}/toss", s.handleToss)

	mux.HandleFunc("POST /wallets/{addr}/creatures/{uid}/trade", s.handleOffer)
	mux.HandleFunc("POST /wallets/{addr}/creatures/{uid}/trade/accept", s.handleAccept)
	mux.HandleFunc("POST /wallets/{addr}/creatures/{uid}/trade/decline", s.handleDecline)
	return mux
}

type errResp struct {
	Err string `json:"err"`
}

// playResp wraps results of actions that may be silently ignored.
type playResp struct {
	Applied bool `json:"applied"`
	Result  any  `json:"result,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, code, errResp{Err: err.Error()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrBattleNotFound),
		errors.Is(err, session.ErrNoOffer):
		return http.StatusNotFound
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrImmutable):
		return http.StatusConflict
	case errors.Is(err, battle.ErrNoMoves):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gacha.ErrDataFetch), errors.Is(err, battle.ErrDataFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseInt(r *http.Request, key string) (int, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), r.PathValue("addr"))
	if err != nil {
		writeErr(w, r, err)
		return nil, false
	}
	return sess, true
}
