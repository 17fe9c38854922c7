package calculation

type Status string

const (
	StatusOK      Status = "OK"
	StatusInfo    Status = "INFO"
	StatusWarning Status = "WARNING"
	StatusError   Status = "ERROR"
	StatusCrash   Status = "CRASH"
)

const (
	StageInit       = "INIT"
	StageWorkflow   = "WORKFLOW"
	StageMaterial   = "MATERIAAL"
	StageImposition = "IMPOSITIE"
	StageStep       = "STAP"
	StagePricing    = "PRIJSOPBOUW"
	StageFatal      = "FATALE FOUT"
)

// DebugEntry is one line of the diagnostic trace returned with every calculation.
type DebugEntry struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Status  Status `json:"status,omitempty"`
}

type report struct {
	entries []DebugEntry
}

func (r *report) add(stage string, status Status, message string, data any) {
	r.entries = append(r.entries, DebugEntry{
		Stage:   stage,
		Message: message,
		Data:    data,
		Status:  status,
	})
}

func (r *report) addAll(entries []DebugEntry) {
	r.entries = append(r.entries, entries...)
}
