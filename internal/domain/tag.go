package domain

// Tag labels a track with free-form community text.
// The pair (TrackID, TagName) is unique across live tags: at most one
// live tag document per track per distinct label.
type Tag struct {
	Audit
	TrackID   string        `json:"track_id"`
	TagName   string        `json:"tag_name"`
	CreatedBy string        `json:"created_by"`
	AccessCtl AccessControl `json:"access_control,omitempty"`
}

// Owner returns the id of the user who created the tag. Ownership is
// fixed at creation; later audit touches do not transfer it.
func (t *Tag) Owner() string { return t.CreatedBy }

// ACL returns the tag's access-control list.
func (t *Tag) ACL() AccessControl { return t.AccessCtl }

// Vote values. A vote is either an upvote or a downvote, weighted.
const (
	VoteUp   = 1
	VoteDown = -1
)

// Vote is one user's weighted sentiment on one tag of one track.
// The triple (CastBy, TrackID, TagName) is unique across live votes:
// re-voting updates the existing row in place, never inserts a second one.
type Vote struct {
	Audit
	CastBy  string  `json:"cast_by"`
	TrackID string  `json:"track_id"`
	TagName string  `json:"tag_name"`
	Value   int     `json:"value"`  // +1 or -1
	Weight  float64 `json:"weight"` // positive multiplier, defaults to 1
}

// Score is the vote's contribution to its tag's total: value × weight.
func (v *Vote) Score() float64 {
	return float64(v.Value) * v.Weight
}

// TagScore is one row of the per-track tag ranking: the tag's label,
// its weighted score over live votes, and the count of distinct voters.
type TagScore struct {
	TagName   string  `json:"tag_name"`
	Score     float64 `json:"score"`
	UserCount int     `json:"user_count"`
}
