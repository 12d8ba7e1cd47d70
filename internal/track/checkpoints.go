package track

import (
	"math"

	"topdown-racer/internal/common"
	"topdown-racer/internal/config"
)

// Checkpoint is one breadcrumb on the centerline: a world position plus its
// arc-length station from centerline point 0.
type Checkpoint struct {
	Pos common.Vec2
	Arc float64
}

// TightSectionIndices flags centerline segments whose leading vertex turns
// harder than the threshold. Segment i connects centerline point i to i+1.
func TightSectionIndices(t *Track, curvatureThreshold float64) []int {
	var tight []int
	for i := 0; i < len(t.centerline); i++ {
		if math.Abs(t.turnAngle(i)) >= curvatureThreshold {
			tight = append(tight, i)
		}
	}
	return tight
}

// GenerateCheckpoints walks the closed centerline and drops a checkpoint
// every spacing units of arc length, or spacing*zigzagMultiplier within
// tight segments. The first centerline point always carries a checkpoint.
// Generation is deterministic and one-shot; the result is never regenerated
// mid-episode.
func GenerateCheckpoints(t *Track, spacing float64, tightIndices []int, zigzagMultiplier float64) []Checkpoint {
	tight := make(map[int]bool, len(tightIndices))
	for _, i := range tightIndices {
		tight[i] = true
	}

	checkpoints := []Checkpoint{{Pos: t.centerline[0], Arc: 0}}

	n := len(t.centerline)
	accumulated := 0.0

	for segIdx := 0; segIdx < n; segIdx++ {
		a := t.centerline[segIdx]
		segLen := t.segLengths[segIdx]
		segDir := t.centerline[(segIdx+1)%n].Sub(a).Scale(1 / segLen)

		effectiveSpacing := spacing
		if tight[segIdx] {
			effectiveSpacing = spacing * zigzagMultiplier
		}

		walked := 0.0
		for {
			remainingToNext := effectiveSpacing - accumulated
			remainingInSeg := segLen - walked
			if remainingToNext > remainingInSeg {
				accumulated += remainingInSeg
				break
			}
			walked += remainingToNext
			checkpoints = append(checkpoints, Checkpoint{
				Pos: a.Add(segDir.Scale(walked)),
				Arc: t.cumLengths[segIdx] + walked,
			})
			accumulated = 0
		}
	}

	return checkpoints
}

// Reached is the collection test: a plain radius check, reliable at any
// speed.
func Reached(carPos, checkpointPos common.Vec2, radius float64) bool {
	return carPos.Sub(checkpointPos).LenSq() <= radius*radius
}

// TrackerState is the collection state machine phase.
type TrackerState int

const (
	// StateIdle: just reset, collections do not count yet.
	StateIdle TrackerState = iota
	// StateArmed: grace period elapsed, waiting for the first collection.
	StateArmed
	// StateCollecting: at least one checkpoint collected this episode.
	StateCollecting
)

// Event reports what the tracker observed during one tick.
type Event struct {
	CheckpointReached bool
	LapCompleted      bool
	Skipped           int // checkpoints auto-advanced past without collection
}

// Tracker owns the per-episode checkpoint cursor. The cursor advances
// monotonically modulo the checkpoint count; wrap-around from the last index
// to 0 on a genuine collection signals a completed lap. Transitions are
// driven solely by Update, never by external mutation.
type Tracker struct {
	track       *Track
	checkpoints []Checkpoint
	avgSpacing  float64
	cfg         config.AI

	state   TrackerState
	cursor  int
	elapsed float64
	laps    int
}

// NewTracker builds a tracker over a generated checkpoint list.
func NewTracker(t *Track, checkpoints []Checkpoint, cfg config.AI) *Tracker {
	return &Tracker{
		track:       t,
		checkpoints: checkpoints,
		avgSpacing:  t.perimeter / float64(len(checkpoints)),
		cfg:         cfg,
	}
}

// Checkpoints returns the cyclic checkpoint list.
func (tr *Tracker) Checkpoints() []Checkpoint {
	return tr.checkpoints
}

// Cursor returns the next checkpoint index.
func (tr *Tracker) Cursor() int {
	return tr.cursor
}

// Next returns the checkpoint the cursor points at.
func (tr *Tracker) Next() Checkpoint {
	return tr.checkpoints[tr.cursor]
}

// Laps returns the number of completed laps this episode.
func (tr *Tracker) Laps() int {
	return tr.laps
}

// State returns the current phase of the collection state machine.
func (tr *Tracker) State() TrackerState {
	return tr.state
}

// Reset re-arms the tracker for a new episode and points the cursor at the
// first checkpoint ahead of the spawn heading.
func (tr *Tracker) Reset(spawnPos common.Vec2, spawnHeading float64) {
	tr.state = StateIdle
	tr.elapsed = 0
	tr.laps = 0

	spawnArc := tr.track.ArcLength(tr.track.Progress(spawnPos))

	// Closest checkpoint strictly ahead along the loop.
	best := 0
	bestDist := math.MaxFloat64
	for i, cp := range tr.checkpoints {
		d := forwardArcDist(spawnArc, cp.Arc, tr.track.perimeter)
		if d > zeroSegmentEps && d < bestDist {
			bestDist = d
			best = i
		}
	}
	tr.cursor = best

	// If the candidate sits behind the spawn heading, start one further on.
	dir := common.FromAngle(spawnHeading)
	if tr.checkpoints[tr.cursor].Pos.Sub(spawnPos).Dot(dir) <= 0 {
		tr.cursor = (tr.cursor + 1) % len(tr.checkpoints)
	}
}

// Update advances the state machine by one tick. forwardSpeed is the car's
// signed scalar speed; progress is the car's fractional centerline index.
func (tr *Tracker) Update(dt float64, carPos common.Vec2, forwardSpeed, progress float64) Event {
	var ev Event

	tr.elapsed += dt
	if tr.state == StateIdle {
		if tr.elapsed < tr.cfg.CollectionGracePeriod {
			return ev
		}
		tr.state = StateArmed
	}

	n := len(tr.checkpoints)

	// Collection requires proximity plus minimum forward speed: a car shoved
	// backward through a checkpoint by a wall bounce earns nothing.
	if forwardSpeed >= tr.cfg.MinCollectionSpeed &&
		Reached(carPos, tr.checkpoints[tr.cursor].Pos, tr.cfg.CheckpointRadius) {
		wasAtLast := tr.cursor == n-1
		tr.cursor = (tr.cursor + 1) % n
		tr.state = StateCollecting
		ev.CheckpointReached = true
		if wasAtLast {
			ev.LapCompleted = true
			tr.laps++
		}
		return ev
	}

	// Auto-advance: once the car's progress is well past the cursor's
	// checkpoint, skip it rather than stranding the reward signal. May skip
	// more than one checkpoint in a single tick at extreme speed.
	carArc := tr.track.ArcLength(progress)
	limit := tr.cfg.AutoAdvanceMultiplier * tr.avgSpacing
	for i := 0; i < n; i++ {
		ahead := forwardArcDist(tr.checkpoints[tr.cursor].Arc, carArc, tr.track.perimeter)
		if ahead <= limit || ahead >= tr.track.perimeter/2 {
			break
		}
		tr.cursor = (tr.cursor + 1) % n
		ev.Skipped++
	}

	return ev
}

// forwardArcDist is the arc length from station a forward (in loop
// direction) to station b.
func forwardArcDist(a, b, perimeter float64) float64 {
	d := math.Mod(b-a, perimeter)
	if d < 0 {
		d += perimeter
	}
	return d
}
