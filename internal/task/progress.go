package task

// Pipeline stage identifiers. Order matters: overall progress is the
// accrued weight of every stage before the active one plus the active
// stage's weight scaled by its local progress.
const (
	StageDownloading  = "downloading"
	StageExtracting   = "extracting"
	StageTranscribing = "transcribing"
	StageFinalizing   = "finalizing"
	StageCompleted    = "completed"
	StageFailed       = "failed"
)

type stageWeight struct {
	ID     string
	Name   string
	Weight float64
}

// Weights are fixed configuration, summing to 1.0. Finalizing carries
// no weight of its own; the figure is held at 0.95 until the task is
// explicitly marked completed.
var stageWeights = []stageWeight{
	{StageDownloading, "Downloading video", 0.3},
	{StageExtracting, "Extracting audio", 0.1},
	{StageTranscribing, "Transcribing audio", 0.6},
	{StageFinalizing, "Saving results", 0.0},
}

const finalizingCap = 0.95

// StageName maps a stage id to its display name. Unknown ids pass
// through unchanged.
func StageName(stage string) string {
	for _, s := range stageWeights {
		if s.ID == stage {
			return s.Name
		}
	}
	return stage
}

// Overall computes aggregated progress for the active stage at the
// given stage-local progress. Stage-local values outside [0,1] are
// clamped. An unknown stage contributes nothing; the registry's
// monotonicity guard keeps whatever was already accrued.
func Overall(stage string, stageProgress float64) float64 {
	if stageProgress < 0 {
		stageProgress = 0
	} else if stageProgress > 1 {
		stageProgress = 1
	}

	accrued := 0.0
	for _, s := range stageWeights {
		if s.ID == stage {
			v := accrued + s.Weight*stageProgress
			if stage == StageFinalizing && v > finalizingCap {
				v = finalizingCap
			}
			if v > 1 {
				v = 1
			}
			return v
		}
		accrued += s.Weight
	}

	switch stage {
	case StageCompleted:
		return 1
	default:
		return 0
	}
}
