package store

import "time"

// #region session-record
// SessionRecord is one negotiation and how it ended.
type SessionRecord struct {
	SessionID        string
	Domain           string
	ProfileJSON      string
	ConfigJSON       string
	StartedAt        time.Time
	EndedAt          time.Time // zero while open
	Outcome          string    // "" | "agreement" | "accepted_by_opponent" | "deadline" | "aborted"
	AgreementJSON    string
	AgreementUtility float64
}

// Open reports whether the session has not ended.
func (r SessionRecord) Open() bool { return r.EndedAt.IsZero() }

// #endregion session-record

// #region turn-record
// TurnRecord is one decision of the agent.
type TurnRecord struct {
	SessionID       string
	Turn            int
	Time            float64
	ReceivedJSON    string // empty when the agent moved without an offer
	ReceivedUtility float64
	CounterJSON     string
	CounterUtility  float64
	Target          float64
	Accepted        bool
	Reason          string
	SignalsJSON     string
	CreatedAt       time.Time
}

// #endregion turn-record

// #region session-end
// SessionEnd closes a session.
type SessionEnd struct {
	Outcome          string
	AgreementJSON    string
	AgreementUtility float64
	EndedAt          time.Time
}

// #endregion session-end
