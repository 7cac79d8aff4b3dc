package generation

// ErrorKind classifies why a generation did not produce an image.
type ErrorKind string

const (
	ErrInvalidInput      ErrorKind = "invalid_input"
	ErrNoCredits         ErrorKind = "no_credits"
	ErrDailyLimitReached ErrorKind = "daily_limit_reached"
	ErrProviderRejected  ErrorKind = "provider_rejected"
	ErrProviderFailed    ErrorKind = "provider_failed"
	ErrTimedOut          ErrorKind = "timed_out"
)

// Outcome is the uniform result of a generation request. Every failure path
// resolves to one of these; the workflow never panics outward.
type Outcome struct {
	OK           bool      `json:"ok"`
	UUID         string    `json:"uuid,omitempty"`
	ResultURL    string    `json:"result_url,omitempty"`
	ErrorKind    ErrorKind `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

func success(uuid, resultURL string) Outcome {
	return Outcome{OK: true, UUID: uuid, ResultURL: resultURL}
}

func failure(uuid string, kind ErrorKind, message string) Outcome {
	return Outcome{OK: false, UUID: uuid, ErrorKind: kind, ErrorMessage: message}
}
