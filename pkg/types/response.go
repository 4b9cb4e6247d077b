package types

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// MessageEnvelope is the `{message}` body used by delete and logout.
type MessageEnvelope struct {
	Message string `json:"message"`
}
