package scanning

// Stage identifies a step of the extraction pipeline
type Stage string

const (
	StageIdle       Stage = "idle"
	StageUploading  Stage = "uploading"
	StageAnalyzing  Stage = "analyzing"
	StageExtracting Stage = "extracting"
	StageComplete   Stage = "complete"
	StageError      Stage = "error"
)

// StageUpdate is one progress event emitted by a scanner. Progress is a 0-100
// percentage supplied by the driver; Message is only set for StageError.
type StageUpdate struct {
	Stage    Stage  `json:"stage"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
}

// ProgressFunc receives stage updates as a scan advances
type ProgressFunc func(StageUpdate)

// Anchor is the canonical progress percentage for a named stage
type Anchor struct {
	Stage    Stage `json:"stage"`
	Progress int   `json:"progress"`
}

// Anchors returns the stage anchor table in pipeline order. Idle and error have
// no anchor; they are not part of the visible progression.
func Anchors() []Anchor {
	return []Anchor{
		{StageUploading, 20},
		{StageAnalyzing, 60},
		{StageExtracting, 90},
		{StageComplete, 100},
	}
}

// Status is the derived display state of one anchored stage
type Status string

const (
	StatusPast    Status = "past"
	StatusCurrent Status = "current"
	StatusPending Status = "pending"
)

// StageStatus pairs an anchored stage with its derived status
type StageStatus struct {
	Stage  Stage  `json:"stage"`
	Status Status `json:"status"`
}

// DeriveStatuses computes the display status of every anchored stage from the
// tracker's current stage and progress. A stage is current if it is the active
// stage and the pipeline has not completed; past if its anchor is below the
// current progress, or unconditionally once the pipeline completes; otherwise
// pending. In the error stage nothing is current.
func DeriveStatuses(anchors []Anchor, current Stage, progress int) []StageStatus {
	statuses := make([]StageStatus, 0, len(anchors))
	for _, a := range anchors {
		var status Status
		switch {
		case a.Stage == current && current != StageComplete:
			status = StatusCurrent
		case a.Progress < progress || current == StageComplete:
			status = StatusPast
		default:
			status = StatusPending
		}
		statuses = append(statuses, StageStatus{Stage: a.Stage, Status: status})
	}
	return statuses
}

// Tracker holds the progress state of one upload attempt. It accepts externally
// supplied (stage, progress, message) updates and never computes progress on
// its own; progress may run ahead of the stage anchors but never decreases
// within an attempt. Complete and error are terminal until a reset to idle.
//
// Tracker is not safe for concurrent use; the owning session serializes access.
type Tracker struct {
	stage    Stage
	progress int
	message  string
}

// NewTracker returns a tracker in the idle stage
func NewTracker() *Tracker {
	return &Tracker{stage: StageIdle}
}

// Apply records a stage update. An idle update resets the attempt. An error
// update is accepted from any stage, clears the progress display and records
// the message. Updates after a terminal stage are dropped.
func (t *Tracker) Apply(u StageUpdate) {
	if u.Stage == StageIdle {
		t.stage = StageIdle
		t.progress = 0
		t.message = ""
		return
	}

	if t.stage == StageComplete || t.stage == StageError {
		return
	}

	if u.Stage == StageError {
		t.stage = StageError
		t.progress = 0
		t.message = u.Message
		return
	}

	t.stage = u.Stage
	if u.Progress > t.progress {
		t.progress = u.Progress
	}
	t.message = ""
}

// Stage returns the active stage
func (t *Tracker) Stage() Stage {
	return t.stage
}

// Progress returns the recorded progress percentage
func (t *Tracker) Progress() int {
	return t.progress
}

// Message returns the error message, if the tracker is in the error stage
func (t *Tracker) Message() string {
	return t.message
}

// Statuses derives the display status of every anchored stage
func (t *Tracker) Statuses() []StageStatus {
	return DeriveStatuses(Anchors(), t.stage, t.progress)
}
