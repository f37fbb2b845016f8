package job

// Job is the status of one crawl task, kept in Redis under job:<id>.
type Job struct {
	JobID      string `json:"job_id"`
	Type       Type   `json:"type"`
	Status     Status `json:"status"`
	URL        string `json:"url"`
	RetryCount int    `json:"retry_count"`
	// Items is the number of records written on completion.
	Items int    `json:"items"`
	Error string `json:"error,omitempty"`
}

type Type string

const TypeRankings Type = "rankings"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)
