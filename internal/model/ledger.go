package model

// LedgerEntry holds the point accumulators for one assignee.
type LedgerEntry struct {
	Assignee     string `json:"assignee"`
	TotalPoints  int64  `json:"total_points"`
	PointsEarned int64  `json:"points_earned"`
	PointsMissed int64  `json:"points_missed"`
}

// PointsPossible is always derived, never stored.
func (e LedgerEntry) PointsPossible() int64 {
	return e.PointsEarned + e.PointsMissed
}
