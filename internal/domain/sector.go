package domain

// Sector is a configured service queue with its own prefix and visual identity.
type Sector struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Prefix           string   `json:"prefix"`
	Color            string   `json:"color"`
	IsVisible        bool     `json:"isVisible"`
	Tags             []string `json:"tags,omitempty"`
	AllowedForwardTo []string `json:"allowedForwardTo,omitempty"`
	IsReception      bool     `json:"isReception,omitempty"`
	Counters         int      `json:"counters,omitempty"`
}

// CanForwardTo reports whether tickets in s may be forwarded to target.
// An empty allow-list permits every other sector.
func (s *Sector) CanForwardTo(target string) bool {
	if target == s.ID {
		return false
	}
	if len(s.AllowedForwardTo) == 0 {
		return true
	}
	for _, id := range s.AllowedForwardTo {
		if id == target {
			return true
		}
	}
	return false
}

// HasCounter reports whether n is a valid window number for a reception sector.
func (s *Sector) HasCounter(n int) bool {
	return s.IsReception && n >= 1 && n <= s.Counters
}
