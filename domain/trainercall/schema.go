package trainercall

const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// TrainTaskSchema is published to the train queue; paths are as seen by the worker.
type TrainTaskSchema struct {
	RunID      string `json:"run_id"`
	ConfigPath string `json:"config_path"`
	TrainPath  string `json:"train_path"`
	DevPath    string `json:"dev_path"`
	OutputDir  string `json:"output_dir"`
}

type TrainResultSchema struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
