// Package rpc exposes agent sessions to a protocol runner over gRPC.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/agent"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidspace"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/clock"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/logging"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// profileCacheSize bounds how many distinct profiles keep a built bid index.
const profileCacheSize = 32

// #region options
// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithServerLogger sets the logger used by the server and its sessions.
func WithServerLogger(l *logrus.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithSessionRecorder persists every session the server opens.
func WithSessionRecorder(r agent.Recorder) ServerOption {
	return func(s *Server) { s.recorder = r }
}

// WithNow overrides the wall clock used for deadline sessions.
func WithNow(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

// #endregion options

// #region server
type live struct {
	session  *agent.Session
	rounds   *clock.Rounds
	manual   *clock.Manual
	deadline *clock.Deadline
}

type compiled struct {
	space *profile.LinearAdditive
	index *bidspace.Index
}

// Server implements AgentServer. Open sessions live in a bounded LRU; the
// least recently used one is aborted when a new session needs its slot.
type Server struct {
	config   agent.Config
	sessions *lru.Cache[string, *live]
	profiles *lru.Cache[string, *compiled]
	recorder agent.Recorder
	logger   *logrus.Logger
	now      func() time.Time

	openMu sync.Mutex
}

// NewServer builds a server holding at most capacity open sessions.
func NewServer(cfg agent.Config, capacity int, opts ...ServerOption) (*Server, error) {
	s := &Server{config: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}

	sessions, err := lru.NewWithEvict(capacity, s.evicted)
	if err != nil {
		return nil, fmt.Errorf("session registry: %w", err)
	}
	profiles, err := lru.New[string, *compiled](profileCacheSize)
	if err != nil {
		return nil, fmt.Errorf("profile cache: %w", err)
	}
	s.sessions = sessions
	s.profiles = profiles
	return s, nil
}

// Len returns the number of open sessions.
func (s *Server) Len() int { return s.sessions.Len() }

// evicted closes sessions dropped from the registry. Sessions that ended on
// their own are already closed and ignore it.
func (s *Server) evicted(id string, l *live) {
	if err := l.session.Finish(agent.OutcomeAborted, domain.Bid{}); err == nil {
		s.logger.WithField("session_id", id).Warn("session evicted")
	}
}

// #endregion server

// #region open
// Open starts a session for the given profile.
func (s *Server) Open(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req OpenRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	c, err := s.compile(req.Profile)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	l := &live{}
	var clk clock.Clock
	switch {
	case req.DeadlineMS > 0:
		l.deadline = clock.NewDeadlineAt(s.now(), time.Duration(req.DeadlineMS)*time.Millisecond, s.now)
		clk = l.deadline
	case req.Rounds > 0:
		l.rounds = clock.NewRounds(req.Rounds)
		clk = l.rounds
	default:
		l.manual = clock.NewManual()
		clk = l.manual
	}

	cfg := s.config
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	opts := []agent.Option{agent.WithLogger(s.logger)}
	if s.recorder != nil {
		opts = append(opts, agent.WithRecorder(s.recorder))
	}
	if req.SessionID != "" {
		opts = append(opts, agent.WithID(req.SessionID))
	}
	sess, err := s.register(req.SessionID, l, func() (*agent.Session, error) {
		return agent.NewSession(c.space, c.index, clk, cfg, opts...)
	})
	if err != nil {
		return nil, err
	}

	res := OpenResult{SessionID: sess.ID()}
	if req.FirstMove {
		d, err := sess.Open(ctx)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		l.tick()
		tr := l.turnResult(d)
		res.First = &tr
	}
	return toStruct(res)
}

// register builds the session and adds it to the registry. The ID check, the
// recorder's session row and the registry insert happen under one lock.
func (s *Server) register(id string, l *live, build func() (*agent.Session, error)) (*agent.Session, error) {
	s.openMu.Lock()
	defer s.openMu.Unlock()
	if id != "" && s.sessions.Contains(id) {
		return nil, status.Errorf(codes.AlreadyExists, "session %s already open", id)
	}
	sess, err := build()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	l.session = sess
	s.sessions.Add(sess.ID(), l)
	return sess, nil
}

// compile builds or reuses the utility space and bid index for a profile.
func (s *Server) compile(f profile.File) (*compiled, error) {
	key, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	if c, ok := s.profiles.Get(string(key)); ok {
		return c, nil
	}
	space, err := f.Build()
	if err != nil {
		return nil, err
	}
	c := &compiled{space: space, index: bidspace.Build(space)}
	s.profiles.Add(string(key), c)
	return c, nil
}

// #endregion open

// #region receive
// Receive answers one opponent offer.
func (s *Server) Receive(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ReceiveRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	l, ok := s.sessions.Get(req.SessionID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "session %s not found", req.SessionID)
	}
	if req.Time != nil && l.manual != nil {
		l.manual.Set(*req.Time)
	}

	var offer domain.Bid
	if len(req.Bid) > 0 {
		b, err := l.session.Domain().NewBid(req.Bid)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		offer = b
	}

	d, err := l.session.Receive(ctx, offer)
	if errors.Is(err, agent.ErrSessionClosed) {
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	l.tick()
	if d.Accept {
		s.sessions.Remove(req.SessionID)
	}
	return toStruct(l.turnResult(d))
}

// #endregion receive

// #region close
// Close ends a session on the runner's word.
func (s *Server) Close(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req CloseRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	outcome := agent.Outcome(req.Outcome)
	switch outcome {
	case agent.OutcomeAcceptedByOpponent, agent.OutcomeDeadline, agent.OutcomeAborted:
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unknown outcome %q", req.Outcome)
	}
	l, ok := s.sessions.Peek(req.SessionID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "session %s not found", req.SessionID)
	}

	var agreement domain.Bid
	if len(req.Agreement) > 0 {
		b, err := l.session.Domain().NewBid(req.Agreement)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		agreement = b
	}
	if err := l.session.Finish(outcome, agreement); err != nil {
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	s.sessions.Remove(req.SessionID)
	return toStruct(CloseResult{SessionID: req.SessionID, Outcome: req.Outcome})
}

// #endregion close

// #region helpers
func (l *live) tick() {
	if l.rounds != nil {
		l.rounds.Tick()
	}
}

// turnResult carries the counter-offer, or the accepted offer on accept.
func (l *live) turnResult(d agent.Decision) TurnResult {
	tr := TurnResult{
		SessionID: d.SessionID,
		Turn:      d.Turn,
		Action:    d.Action(),
		Bid:       d.Counter.Values(),
		Time:      d.Time,
		Target:    d.Proposal.Target,
		Utility:   d.Proposal.Utility,
		Reason:    d.Acceptance.Reason,
	}
	if d.Accept {
		tr.Bid = d.Received.Values()
		tr.Utility = d.Acceptance.ReceivedUtility
	}
	if l.deadline != nil {
		tr.RemainingMS = l.deadline.Remaining().Milliseconds()
	}
	return tr
}

// LoggingInterceptor logs each call with its status code and latency.
func LoggingInterceptor(l *logrus.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := l.WithFields(logrus.Fields{
			"method":  info.FullMethod,
			"code":    status.Code(err).String(),
			"latency": time.Since(start),
		})
		if err != nil {
			entry.WithError(err).Warn("rpc failed")
		} else {
			entry.Debug("rpc")
		}
		return resp, err
	}
}

// #endregion helpers
