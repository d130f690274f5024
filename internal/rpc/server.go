package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/gachamon/internal/battle"
	"github.com/xtding233/gachamon/internal/config"
	"github.com/xtding233/gachamon/internal/creature"
	"github.com/xtding233/gachamon/internal/gacha"
	"github.com/xtding233/gachamon/internal/session"
	"github.com/xtding233/gachamon/internal/store"
)

const (
	defaultTrials = 10_000
	maxTrials     = 100_000
	maxPulls      = 100
)

// Server implements GameServer on top of the session manager.
type Server struct {
	sessions *session.Manager
	settings func() config.Settings
	rng      gacha.RandomSource
}

func NewServer(sessions *session.Manager, settings func() config.Settings, rng gacha.RandomSource) *Server {
	if rng == nil {
		rng = gacha.DefaultRNG()
	}
	return &Server{sessions: sessions, settings: settings, rng: rng}
}

// NewGRPCServer builds a grpc.Server with GameService and health checks.
func NewGRPCServer(srv GameServer, opts ...grpc.ServerOption) *grpc.Server {
	gs := grpc.NewServer(opts...)
	RegisterGameServer(gs, srv)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return gs
}

var _ GameServer = (*Server)(nil)

// toStatus maps domain errors onto gRPC codes.
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, store.ErrInvalidAddress):
		code = codes.InvalidArgument
	case errors.Is(err, session.ErrInsufficientFunds):
		code = codes.FailedPrecondition
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrBattleNotFound),
		errors.Is(err, session.ErrNoOffer):
		code = codes.NotFound
	case errors.Is(err, session.ErrBusy):
		code = codes.Aborted
	case errors.Is(err, session.ErrImmutable), errors.Is(err, battle.ErrNoMoves):
		code = codes.FailedPrecondition
	case errors.Is(err, gacha.ErrDataFetch), errors.Is(err, battle.ErrDataFetch):
		code = codes.Unavailable
	default:
		log.Printf("rpc: %v", err)
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

// toStruct converts a JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return structpb.NewStruct(payload)
}

func stringField(in *structpb.Struct, key string) (string, error) {
	v, ok := in.GetFields()[key]
	if !ok || v.GetStringValue() == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return v.GetStringValue(), nil
}

func intField(in *structpb.Struct, key string, def int) (int, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return def, nil
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
	}
	return int(n.NumberValue), nil
}

func requireInt(in *structpb.Struct, key string) (int, error) {
	if _, ok := in.GetFields()[key]; !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return intField(in, key, 0)
}

func (s *Server) session(ctx context.Context, in *structpb.Struct) (*session.Session, error) {
	addr, err := stringField(in, "address")
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(ctx, addr)
	if err != nil {
		return nil, toStatus(err)
	}
	return sess, nil
}

// sessionAndUID resolves the common {address, uid} request.
func (s *Server) sessionAndUID(ctx context.Context, in *structpb.Struct) (*session.Session, string, error) {
	uid, err := stringField(in, "uid")
	if err != nil {
		return nil, "", err
	}
	sess, err := s.session(ctx, in)
	if err != nil {
		return nil, "", err
	}
	return sess, uid, nil
}

func played(applied bool, result any) (*structpb.Struct, error) {
	out := map[string]any{"applied": applied}
	if applied {
		out["result"] = result
	}
	return toStruct(out)
}

func (s *Server) Wallet(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(ctx, in)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"address": sess.Address, "wallet": sess.Wallet(), "affordable": sess.Affordable()})
}

func (s *Server) Quote(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	n, err := requireInt(in, "pulls")
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, status.Error(codes.InvalidArgument, "pulls must be positive")
	}
	return toStruct(s.settings().Token.Quote(n))
}

func (s *Server) Rates(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	trials, err := intField(in, "trials", defaultTrials)
	if err != nil {
		return nil, err
	}
	if trials <= 0 || trials > maxTrials {
		return nil, status.Error(codes.InvalidArgument, "trials must be in 1..100000")
	}
	return toStruct(gacha.Simulate(s.settings().Table, trials, s.rng))
}

func (s *Server) Pull(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	n, err := intField(in, "count", 1)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > maxPulls {
		return nil, status.Error(codes.InvalidArgument, "count must be in 1..100")
	}
	sess, err := s.session(ctx, in)
	if err != nil {
		return nil, err
	}
	recs, err := sess.PullMany(ctx, n)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"creatures": recs, "wallet": sess.Wallet()})
}

func (s *Server) Collection(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(ctx, in)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"creatures": sess.Collection()})
}

func (s *Server) Creature(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, uid, err := s.sessionAndUID(ctx, in)
	if err != nil {
		return nil, err
	}
	rec, err := sess.Creature(uid)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"creature": rec, "appraisal": creature.Worth(rec.Stats, rec.Rarity)})
}

func (s *Server) Appraise(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, uid, err := s.sessionAndUID(ctx, in)
	if err != nil {
		return nil, err
	}
	worth, err := sess.Appraise(uid)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"uid": uid, "appraisal": worth})
}

func (s *Server) Sell(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, uid, err := s.sessionAndUID(ctx, in)
	if err != nil {
		return nil, err
	}
	price, err := sess.Sell(ctx, uid)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"price": price, "wallet": sess.Wallet()})
}

func (s *Server) StartBattle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, uid, err := s.sessionAndUID(ctx, in)
	if err != nil {
		return nil, err
	}
	view, err := sess.StartBattle(ctx, uid)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(view)
}

func (s *Server) Battle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := stringField(in, "battle_id")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, in)
	if err != nil {
		return nil, err
	}
	view, err := sess.Battle(id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(view)
}

func (s *Server) Turn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := stringField(in, "battle_id")
	if err != nil {
		return nil, err
	}
	move, err := requireInt(in, "move")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, in)
	if err != nil {
		return nil, err
	}
	turn, ok, err := sess.Turn(id, move)
	if err != nil {
		return nil, toStatus(err)
	}
	return played(ok, turn)
}

func (s *Server) Shuffle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	card, err := requireInt(in, "card")
	if err != nil {
		return nil, err
	}
	sess, uid, err := s.sessionAndUID(ctx, in)
	if err != nil {
		return nil, err
	}
	res, ok, err := sess.Shuffle(ctx, uid, card)
	if err != nil {
		return nil, toStatus(err)
	}
	return played(ok, res)
}

func (s *Server) ResetShuffle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, uid, err := s.sessionAndUID(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := sess.ResetShuffle(uid); err != nil {
		return nil, toStatus(err)
	}
	cards, err := sess.ShuffleCards(uid)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"cards": cards})
}

func (s *Server) Toss(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, uid, err := s.sessionAndUID(ctx, in)
	if err != nil {
		return nil, err
	}
	res, ok, err := sess.Toss(ctx, uid)
	if err != nil {
		return nil, toStatus(err)
	}
	return played(ok, res)
}

func (s *Server) OfferTrade(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, uid, err := s.sessionAndUID(ctx, in)
	if err != nil {
		return nil, err
	}
	offer, err := sess.OfferTrade(ctx, uid)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(offer)
}

func (s *Server) AcceptTrade(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, uid, err := s.sessionAndUID(ctx, in)
	if err != nil {
		return nil, err
	}
	rec, err := sess.AcceptTrade(ctx, uid)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"creature": rec})
}

func (s *Server) DeclineTrade(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, uid, err := s.sessionAndUID(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := sess.DeclineTrade(uid); err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"declined": true})
}
