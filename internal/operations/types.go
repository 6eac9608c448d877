package operations

// operation Step identifiers
const (
	StageIDLoad       = "load"
	StageIDPreprocess = "preprocess"
	StageIDSplit      = "split"
	StageIDVerify     = "verify"
)

// operation Step names
const (
	StageNameLoad       = "Dataset Loading"
	StageNamePreprocess = "Preprocessing"
	StageNameSplit      = "Train/Test Split"
	StageNameVerify     = "Split Verification"
)

// Context keys for operation state
const (
	ContextKeyRawTable      = "raw_table"
	ContextKeyCleanTable    = "clean_table"
	ContextKeyCleanReport   = "clean_report"
	ContextKeyTrainTable    = "train_table"
	ContextKeyTestTable     = "test_table"
	ContextKeyProcessedPath = "processed_path"
)

// OperationStatus represents the overall status of a run
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
)

// OperationRequest describes one run of the registered steps
type OperationRequest struct {
	ID string
	// Steps restricts the run to these step IDs, in registration order.
	// Empty runs every registered step.
	Steps []string
}
