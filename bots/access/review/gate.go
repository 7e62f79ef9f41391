// Package review covers the reviewer side of the access flow: who may decide,
// how decision buttons encode their payload, and what the reviewer sees.
package review

// Gate authorizes reviewer-only actions.
type Gate struct {
	ReviewerID int64
}

// NewGate returns a gate for the configured reviewer.
func NewGate(reviewerID int64) Gate {
	return Gate{ReviewerID: reviewerID}
}

// IsReviewer reports whether senderID is the configured reviewer.
func (g Gate) IsReviewer(senderID int64) bool {
	return g.ReviewerID != 0 && senderID == g.ReviewerID
}
