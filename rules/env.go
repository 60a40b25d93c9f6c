package rules

import "understudy/model"

// SnapshotEnv wraps a live snapshot and exposes helper methods callable
// from expr expressions.
type SnapshotEnv struct {
	State model.Snapshot
}

func (e SnapshotEnv) InCombat() bool { return e.State.InCombat }

func (e SnapshotEnv) Mounted() bool { return e.State.Mounted }

func (e SnapshotEnv) Health() float64 { return e.State.Health }

func (e SnapshotEnv) ResourceCount() int { return len(e.State.DetectedResources) }

func (e SnapshotEnv) ObstacleCount() int { return len(e.State.DetectedObstacles) }

// HasResource reports whether a resource of the given type is in view.
func (e SnapshotEnv) HasResource(t string) bool {
	for _, r := range e.State.DetectedResources {
		if r.Type == t {
			return true
		}
	}
	return false
}
