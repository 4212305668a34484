package logging

import "time"

// #region decision-entry
// DecisionEntry is a single row in the decision_log table.
type DecisionEntry struct {
	SessionID   string
	Turn        int
	TriggerType string // "open" | "opponent_offer"
	SignalsJSON string
	Decision    string // "accept" | "counter"
	Reason      string
	CreatedAt   time.Time
}

// #endregion decision-entry

// #region turn-record
// TurnSignals captures every input and intermediate value of one turn.
// Serialized as JSON into decision_log.signals_json for replay and inspection.
type TurnSignals struct {
	Time     float64           `json:"time"`
	Received map[string]string `json:"received,omitempty"`

	// Bidding stage
	Target            float64           `json:"target"`
	SearchTarget      float64           `json:"search_target"`
	Generated         map[string]string `json:"generated"`
	GeneratedUtility  float64           `json:"generated_utility"`
	OpponentEstimate  float64           `json:"opponent_estimate"`
	SearchMode        string            `json:"search_mode"`
	Override          string            `json:"override,omitempty"`
	ReciprocityTarget float64           `json:"reciprocity_target,omitempty"`
	TimesProposed     int               `json:"times_proposed"`

	// Acceptance stage
	ReceivedUtility float64 `json:"received_utility"`
	AcceptRule      string  `json:"accept_rule"`

	// Opponent model after the update
	OpponentWeights map[string]float64 `json:"opponent_weights"`
}

// #endregion turn-record
