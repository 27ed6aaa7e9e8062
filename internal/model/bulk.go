package model

import "time"

// Bulk insert request bounds.
const (
	MinBulkCount     = 1
	MaxBulkCount     = 100000
	DefaultBatchSize = 1000
	MaxBatchSize     = 10000
)

// BulkCreateRequest describes a synthetic bulk product generation run.
type BulkCreateRequest struct {
	Count      int     `json:"count"`
	CategoryID int     `json:"category_id"`
	NamePrefix string  `json:"name_prefix"`
	MinPrice   float64 `json:"min_price"`
	MaxPrice   float64 `json:"max_price"`
	BatchSize  int     `json:"batch_size"`
}

// BulkCreateResult reports the outcome of a bulk insert run. CreatedCount may
// be lower than the requested count when a window failed mid-pipeline; the
// windows committed before the failure remain visible.
type BulkCreateResult struct {
	CreatedCount int           `json:"created_count"`
	CategoryName string        `json:"category_name"`
	Windows      int           `json:"windows"`
	Elapsed      time.Duration `json:"-"`
	ElapsedMS    int64         `json:"elapsed_ms"`
	Message      string        `json:"message"`
}

// BulkRunLog is the audit record persisted for each bulk insert run.
type BulkRunLog struct {
	RequestedCount int       `json:"requested_count" bson:"requested_count"`
	CreatedCount   int       `json:"created_count" bson:"created_count"`
	CategoryID     int       `json:"category_id" bson:"category_id"`
	CategoryName   string    `json:"category_name" bson:"category_name"`
	BatchSize      int       `json:"batch_size" bson:"batch_size"`
	Windows        int       `json:"windows" bson:"windows"`
	ElapsedMS      int64     `json:"elapsed_ms" bson:"elapsed_ms"`
	Error          string    `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt      time.Time `json:"started_at" bson:"started_at"`
}
