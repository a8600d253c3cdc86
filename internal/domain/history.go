package domain

// HistoryEntry is one accepted input line. Index is its zero-based insertion
// position in the persisted history.
type HistoryEntry struct {
	Line  string `json:"line"`
	Index int    `json:"index"`
}

// CandidateKind classifies a completion candidate.
type CandidateKind string

const (
	CandidateCommand CandidateKind = "command"
	CandidateOption  CandidateKind = "option"
	CandidateValue   CandidateKind = "dynamic_value"
)

// Candidate is one completion suggestion.
type Candidate struct {
	Text string
	Kind CandidateKind
}
