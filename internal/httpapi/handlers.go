package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/xtding233/gachamon/internal/creature"
	"github.com/xtding233/gachamon/internal/gacha"
)

// GET /rates?trials=N
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	trials, ok, msg := parseInt(r, "trials")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if !ok {
		trials = defaultTrials
	}
	if trials <= 0 || trials > maxTrials {
		http.Error(w, "trials must be in 1..100000", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, gacha.Simulate(s.settings().Table, trials, s.rng))
}

// GET /quote?pulls=N
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	n, ok, msg := parseInt(r, "pulls")
	if !ok || msg != "" || n <= 0 {
		http.Error(w, "missing/invalid param pulls", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.settings().Token.Quote(n))
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":    sess.Address,
		"wallet":     sess.Wallet(),
		"affordable": sess.Affordable(),
	})
}

// POST /wallets/{addr}/pull?count=N
func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	n, ok, msg := parseInt(r, "count")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if !ok {
		n = 1
	}
	if n <= 0 || n > maxPulls {
		http.Error(w, "count must be in 1..100", http.StatusBadRequest)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	recs, err := sess.PullMany(r.Context(), n)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"creatures": recs, "wallet": sess.Wallet()})
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Collection())
}

type creatureResp struct {
	creature.Record
	Appraisal int `json:"appraisal"`
}

func (s *Server) handleCreature(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rec, err := sess.Creature(r.PathValue("uid"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, creatureResp{Record: rec, Appraisal: creature.Worth(rec.Stats, rec.Rarity)})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var rec creature.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if rec.UID != r.PathValue("uid") {
		http.Error(w, "uid mismatch", http.StatusBadRequest)
		return
	}
	out, err := sess.Update(r.Context(), rec)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	price, err := sess.Sell(r.Context(), r.PathValue("uid"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"price": price, "wallet": sess.Wallet()})
}

func (s *Server) handleStartBattle(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	view, err := sess.StartBattle(r.Context(), r.PathValue("uid"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleBattle(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	view, err := sess.Battle(r.PathValue("id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// POST /wallets/{addr}/battles/{id}/turn?move=i
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	move, ok, msg := parseInt(r, "move")
	if !ok || msg != "" {
		http.Error(w, "missing/invalid param move", http.StatusBadRequest)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	turn, applied, err := sess.Turn(r.PathValue("id"), move)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	resp := playResp{Applied: applied}
	if applied {
		resp.Result = turn
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEndBattle(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.EndBattle(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShuffleCards(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	cards, err := sess.ShuffleCards(r.PathValue("uid"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// POST /wallets/{addr}/creatures/{uid}/shuffle?card=i
func (s *Server) handleShufflePick(w http.ResponseWriter, r *http.Request) {
	card, ok, msg := parseInt(r, "card")
	if !ok || msg != "" {
		http.Error(w, "missing/invalid param card", http.StatusBadRequest)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	res, applied, err := sess.Shuffle(r.Context(), r.PathValue("uid"), card)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	resp := playResp{Applied: applied}
	if applied {
		resp.Result = res
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShuffleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.ResetShuffle(r.PathValue("uid")); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToss(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	res, applied, err := sess.Toss(r.Context(), r.PathValue("uid"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	resp := playResp{Applied: applied}
	if applied {
		resp.Result = res
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	offer, err := sess.OfferTrade(r.Context(), r.PathValue("uid"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rec, err := sess.AcceptTrade(r.Context(), r.PathValue("uid"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDecline(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.DeclineTrade(r.PathValue("uid")); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
