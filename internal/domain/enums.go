package domain

// ProcessingState represents the lifecycle state of a canonical document.
type ProcessingState string

const (
	StatePending       ProcessingState = "PENDING"
	StateProcessing    ProcessingState = "PROCESSING"
	StateExtracted     ProcessingState = "EXTRACTED"
	StateValidated     ProcessingState = "VALIDATED"
	StateSec34Approved ProcessingState = "SEC34_APPROVED"
	StateSec33Approved ProcessingState = "SEC33_APPROVED"
	StateStaged        ProcessingState = "STAGED"
	StateError         ProcessingState = "ERROR"
)

// IsTerminal reports whether no further transitions are possible from s.
func (s ProcessingState) IsTerminal() bool {
	return s == StateStaged || s == StateError
}

// Event identifies a requested state transition.
type Event string

const (
	EventStart        Event = "start"
	EventExtractOK    Event = "extract_ok"
	EventValidateOK   Event = "validate_ok"
	EventApproveSec34 Event = "approve_sec34"
	EventApproveSec33 Event = "approve_sec33"
	EventStage        Event = "stage"
	EventReviewEdit   Event = "review_edit"
	EventReset        Event = "reset"
	EventFail         Event = "fail"
)

// FieldSource records which extraction source supplied a resolved value.
type FieldSource string

const (
	SourcePrimary  FieldSource = "PRIMARY"
	SourceFallback FieldSource = "FALLBACK"
	SourceManual   FieldSource = "MANUAL"
)

// ConfidenceTier buckets a numeric confidence score.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
	TierNone   ConfidenceTier = "none"
)

// ExtractStep identifies a phase of a single extraction attempt.
type ExtractStep string

const (
	StepUpload   ExtractStep = "upload"
	StepPrimary  ExtractStep = "primary_extract"
	StepFallback ExtractStep = "fallback_extract"
	StepMerge    ExtractStep = "merge"
	StepValidate ExtractStep = "validate"
	StepComplete ExtractStep = "COMPLETE"
)
