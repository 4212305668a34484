package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region requests
// OpenRequest starts a session. The clock is a wall deadline when
// DeadlineMS is set, a rounds counter when Rounds is set, and otherwise
// follows the Time field of each ReceiveRequest.
type OpenRequest struct {
	SessionID  string       `json:"session_id,omitempty"`
	Profile    profile.File `json:"profile"`
	FirstMove  bool         `json:"first_move,omitempty"`
	DeadlineMS int64        `json:"deadline_ms,omitempty"`
	Rounds     int          `json:"rounds,omitempty"`
	Seed       uint64       `json:"seed,omitempty"` // exact up to 2^53
}

// ReceiveRequest carries the opponent's offer; an empty Bid is no offer.
type ReceiveRequest struct {
	SessionID string            `json:"session_id"`
	Bid       map[string]string `json:"bid,omitempty"`
	Time      *float64          `json:"time,omitempty"`
}

// CloseRequest ends a session the agent did not end itself.
type CloseRequest struct {
	SessionID string            `json:"session_id"`
	Outcome   string            `json:"outcome"`
	Agreement map[string]string `json:"agreement,omitempty"`
}

// #endregion requests

// #region responses
// TurnResult is the agent's move.
type TurnResult struct {
	SessionID string            `json:"session_id"`
	Turn      int               `json:"turn"`
	Action    string            `json:"action"` // "accept" | "counter"
	Bid       map[string]string `json:"bid,omitempty"`
	Time      float64           `json:"time"`
	Target    float64           `json:"target"`
	Utility   float64           `json:"utility"`
	Reason    string            `json:"reason,omitempty"`

	// RemainingMS is the wall time left on a deadline session.
	RemainingMS int64 `json:"remaining_ms,omitempty"`
}

// OpenResult names the session and, for FirstMove, holds the opening bid.
type OpenResult struct {
	SessionID string      `json:"session_id"`
	First     *TurnResult `json:"first,omitempty"`
}

// CloseResult confirms how the session ended.
type CloseResult struct {
	SessionID string `json:"session_id"`
	Outcome   string `json:"outcome"`
}

// #endregion responses

// #region struct-codec
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return structpb.NewStruct(m)
}

func fromStruct(s *structpb.Struct, v any) error {
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// #endregion struct-codec
