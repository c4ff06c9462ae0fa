package metadata

// TrainingRun.State
const (
	RunStateInit         = "INIT"
	RunStateTransforming = "TRANSFORMING"
	RunStateTraining     = "TRAINING"
	RunStateDone         = "DONE"
	RunStateFailed       = "FAILED"
)

// InferenceJob.Status
const (
	JobStatusRunning = "RUNNING"
	JobStatusDone    = "DONE"
	JobStatusFailed  = "FAILED"
)

// Extra.ExtraType
const (
	ExtraTypeScores      = "scores"
	ExtraTypeGraphExport = "graph"
)
