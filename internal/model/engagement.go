package model

// EngagementCounts default to zero when no source reports a value.
type EngagementCounts struct {
	Likes    uint64 `json:"likes"`
	Comments uint64 `json:"comments"`
	Shares   uint64 `json:"shares"`
}

// PartialEngagement tracks which counts a source actually reported.
type PartialEngagement struct {
	Likes    *uint64 `json:"likes,omitempty"`
	Comments *uint64 `json:"comments,omitempty"`
	Shares   *uint64 `json:"shares,omitempty"`
}

func Count(v uint64) *uint64 { return &v }

func (p PartialEngagement) IsEmpty() bool {
	return p.Likes == nil && p.Comments == nil && p.Shares == nil
}

// Overlay returns p updated with every count fresher reports. Counts fresher
// lacks keep their current value.
func (p PartialEngagement) Overlay(fresher PartialEngagement) PartialEngagement {
	out := p
	if fresher.Likes != nil {
		out.Likes = Count(*fresher.Likes)
	}
	if fresher.Comments != nil {
		out.Comments = Count(*fresher.Comments)
	}
	if fresher.Shares != nil {
		out.Shares = Count(*fresher.Shares)
	}
	return out
}

func (p PartialEngagement) Counts() EngagementCounts {
	var out EngagementCounts
	if p.Likes != nil {
		out.Likes = *p.Likes
	}
	if p.Comments != nil {
		out.Comments = *p.Comments
	}
	if p.Shares != nil {
		out.Shares = *p.Shares
	}
	return out
}

// ApplyTo overlays the reported counts on stored counts.
func (p PartialEngagement) ApplyTo(c EngagementCounts) EngagementCounts {
	if p.Likes != nil {
		c.Likes = *p.Likes
	}
	if p.Comments != nil {
		c.Comments = *p.Comments
	}
	if p.Shares != nil {
		c.Shares = *p.Shares
	}
	return c
}
