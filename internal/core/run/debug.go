package run

import "qsrankings/internal/platform/tasks"

// DebugKey is the single key of a debug record.
const DebugKey = "#debug"

// DebugInfo describes a task that failed every attempt.
type DebugInfo struct {
	RequestID     string   `json:"requestId"`
	URL           string   `json:"url"`
	LoadedURL     string   `json:"loadedUrl,omitempty"`
	Method        string   `json:"method"`
	RetryCount    int      `json:"retryCount"`
	ErrorMessages []string `json:"errorMessages"`
}

func debugInfo(t *tasks.Task) DebugInfo {
	msgs := t.ErrorMessages
	if msgs == nil {
		msgs = []string{}
	}
	return DebugInfo{
		RequestID:     t.ID,
		URL:           t.URL,
		LoadedURL:     t.LoadedURL,
		Method:        t.Method,
		RetryCount:    t.RetryCount,
		ErrorMessages: msgs,
	}
}

// DebugRecord wraps info under DebugKey, the shape written to the dataset.
func DebugRecord(t *tasks.Task) map[string]DebugInfo {
	return map[string]DebugInfo{DebugKey: debugInfo(t)}
}
