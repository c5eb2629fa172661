package filter

// MatchAll is a filter that matches every sensor.
type MatchAll struct{}

// Matches always returns true.
func (MatchAll) Matches(_ string) bool {
	return true
}
