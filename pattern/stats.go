package pattern

// Stats accumulates observation statistics for one transition, resource type,
// or combat ability. JSON field names match the persisted pattern document.
type Stats struct {
	Count       int     `json:"count"`
	SuccessRate float64 `json:"success_rate"`
	TotalTime   float64 `json:"total_time"`
}

// Update folds one observation into the running statistics. SuccessRate is a
// proper incremental mean: the count is bumped first and the previous mean is
// reweighted by count-1, never renormalized retroactively.
func (s *Stats) Update(successRate, elapsed float64) {
	s.Count++
	s.TotalTime += elapsed
	s.SuccessRate = (s.SuccessRate*float64(s.Count-1) + successRate) / float64(s.Count)
}

// MeanTime is the average elapsed seconds per observation.
func (s *Stats) MeanTime() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.TotalTime / float64(s.Count)
}
