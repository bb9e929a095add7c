package llm

// Partition names reserved by the dispatcher.
const (
	// PartitionDefault receives exchanges whose request has no log title.
	PartitionDefault = "default"

	// PartitionError receives parse and validation failures.
	PartitionError = "error"

	// PartitionNone disables lookup and success logging for a request.
	PartitionNone = "none"
)

// Validation statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ValidateFunc inspects a parsed response and accepts or rejects it.
type ValidateFunc func(map[string]any) ValidationResult

// ValidationResult is the outcome of inspecting a parsed response.
type ValidationResult struct {
	Status  string
	Message string
}

// Valid returns a passing validation result.
func Valid() ValidationResult {
	return ValidationResult{Status: StatusSuccess}
}

// Invalid returns a failing validation result with a reason.
func Invalid(message string) ValidationResult {
	return ValidationResult{Status: StatusError, Message: message}
}

// Request describes one completion request.
type Request struct {
	// Prompt is the user prompt text. Required.
	Prompt string

	// SystemPrompt is optional system context, passed through verbatim.
	SystemPrompt string

	// ResponseJSON requests a structured response: the raw text is
	// parsed as a JSON object before being returned.
	ResponseJSON bool

	// Validate, when set together with ResponseJSON, accepts or rejects
	// the parsed response. Rejection fails the dispatch without retry.
	Validate ValidateFunc

	// LogTitle selects the log partition. Empty means PartitionDefault;
	// PartitionNone disables lookup and success logging.
	LogTitle string

	// MaxTokens caps the response length when positive.
	MaxTokens int

	// Temperature sets the sampling temperature when positive.
	Temperature float64

	// Origin tags the calling component for usage metering.
	Origin string
}

// Result is a completed dispatch. Data is set for structured
// responses, Text for free text.
type Result struct {
	Text string
	Data map[string]any
}
