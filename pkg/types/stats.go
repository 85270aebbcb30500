package types

import "time"

// Stats summarizes one compression run.
type Stats struct {
	LogCount         int           `json:"log_count"`
	TemplateCount    int           `json:"template_count"`
	OriginalSize     int64         `json:"original_size"`
	CompressedSize   int64         `json:"compressed_size"`
	CompressionRatio float64       `json:"compression_ratio"`
	Elapsed          time.Duration `json:"elapsed"`
}

// QueryResult is the outcome of a query against a loaded container.
// Logs holds the reconstructed original lines for matching rows, in
// input order.
type QueryResult struct {
	MatchedCount  int           `json:"matched_count"`
	ScannedCount  int           `json:"scanned_count"`
	ExecutionTime time.Duration `json:"execution_time"`
	Logs          []string      `json:"logs,omitempty"`
}
