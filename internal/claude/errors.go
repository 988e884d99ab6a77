package claude

import (
	"encoding/json"
	"fmt"
)

// StatusError is a non-2xx upstream response with its body captured.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
}

// ExtractMessage resolves the human-readable message and error type from
// the captured body. See ExtractAPIError.
func (e *StatusError) ExtractMessage() (string, string) {
	return ExtractAPIError(e.StatusCode, e.Body)
}

// errorBody covers the nesting shapes the gateway is known to produce.
// "error" and "detail" are raw because each can be an object or a plain
// string depending on which layer generated the failure.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  json.RawMessage `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ExtractAPIError pulls a message and type tag out of an upstream error
// body. Shapes are tried in priority order: detail.error.{message,type},
// error.message (+type), error as a bare string, detail as a bare
// string. Anything else falls back to a generic message keyed on the
// status code.
func ExtractAPIError(statusCode int, body []byte) (message, errType string) {
	message = fmt.Sprintf("API error (HTTP %d)", statusCode)
	errType = "api_error"

	var root errorBody
	if err := json.Unmarshal(body, &root); err != nil {
		return message, errType
	}

	// detail.error.{message,type}
	if len(root.Detail) > 0 {
		var detail struct {
			Error *errorDetail `json:"error"`
		}
		if err := json.Unmarshal(root.Detail, &detail); err == nil && detail.Error != nil {
			if detail.Error.Message != "" {
				message = detail.Error.Message
			}
			if detail.Error.Type != "" {
				errType = detail.Error.Type
			}
			return message, errType
		}
	}

	// error.{message,type} or error as a plain string
	if len(root.Error) > 0 {
		var obj errorDetail
		if err := json.Unmarshal(root.Error, &obj); err == nil && obj.Message != "" {
			message = obj.Message
			if obj.Type != "" {
				errType = obj.Type
			}
			return message, errType
		}
		var s string
		if err := json.Unmarshal(root.Error, &s); err == nil && s != "" {
			return s, errType
		}
	}

	// detail as a plain string
	if len(root.Detail) > 0 {
		var s string
		if err := json.Unmarshal(root.Detail, &s); err == nil && s != "" {
			return s, errType
		}
	}

	return message, errType
}
