package domain

type UploadedImage struct {
	Filename    string
	ContentType string
	Data        []byte
}

type StagedFile struct {
	Path      string
	RequestID string
	Seq       int
	Filename  string
}

// Outcome is the validation and staging verdict for one uploaded image.
// Exactly one of Staged (accepted) or Reason (rejected) is meaningful.
type Outcome struct {
	Accepted bool
	Staged   StagedFile
	Reason   RejectReason
}

func Accepted(staged StagedFile) Outcome {
	return Outcome{Accepted: true, Staged: staged}
}

func Rejected(reason RejectReason) Outcome {
	return Outcome{Reason: reason}
}

type RejectReason string

const (
	ReasonEmpty          RejectReason = "Empty file"
	ReasonTooLarge       RejectReason = "File too large"
	ReasonBadExtension   RejectReason = "Bad extension"
	ReasonBadContentType RejectReason = "Bad content-type"
	ReasonBadSignature   RejectReason = "Not an image (signature check failed)"
	ReasonOpenFailed     RejectReason = "Failed to open temp file"
	ReasonWriteFailed    RejectReason = "Failed to write temp file"
	ReasonFlushFailed    RejectReason = "Failed to flush temp file"
	ReasonSizeMismatch   RejectReason = "Temp file size mismatch"
)

type BatchRequest struct {
	RequestID    string
	Paths        []string
	RateLimitKey string
}

type ImageResult struct {
	Filename    string
	OK          bool
	DamageTypes []string
	CostMin     int
	CostMax     int
	Error       string
}

type BatchResponse struct {
	OK        bool
	RequestID string
	Results   []ImageResult
}

const (
	MaxImageBytes          = 10 << 20
	DefaultMaxFiles        = 20
	MaxFilesHardCap        = 100
	DefaultPayloadMaxBytes = 64 << 20
)

// The cost estimate is a fixed placeholder range until pricing lands in the engine.
const (
	CostRangeMin = 500
	CostRangeMax = 1500
)

const (
	MsgMissingEngineResult = "Missing engine result for image"
	MsgEngineFailedImage   = "Engine failed to analyze image"
	MsgEngineNoResults     = "Engine returned no results"
)

var AllowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}
