package wire

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrBadUpstreamResponse is returned whenever a Lambda reply cannot be turned
// into a valid HTTP response: invalid JSON, an out-of-range status code, or a
// body that claims to be base64 but isn't.
var ErrBadUpstreamResponse = errors.New("bad upstream response")

// LambdaResponse is the buffered JSON reply shape Lambda returns for a
// single-shot Invoke call.
type LambdaResponse struct {
	StatusCode        int               `json:"statusCode"`
	StatusDescription string            `json:"statusDescription,omitempty"`
	IsBase64Encoded   bool              `json:"isBase64Encoded,omitempty"`
	Headers           map[string]string `json:"headers,omitempty"`
	Body              string            `json:"body"`
}

// BufferedResponse is the already-decoded result of one buffered Lambda
// invocation, ready to be copied onto an http.ResponseWriter.
type BufferedResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// DecodeBufferedResponse parses payload as a LambdaResponse and produces the
// HTTP status/headers/body to send back to the client.
func DecodeBufferedResponse(payload []byte) (BufferedResponse, error) {
	var lr LambdaResponse
	if err := json.Unmarshal(payload, &lr); err != nil {
		return BufferedResponse{}, fmt.Errorf("%w: invalid JSON: %v", ErrBadUpstreamResponse, err)
	}

	if !isValidHTTPStatus(lr.StatusCode) {
		return BufferedResponse{}, fmt.Errorf("%w: invalid status code %d", ErrBadUpstreamResponse, lr.StatusCode)
	}

	var body []byte
	if lr.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(lr.Body)
		if err != nil {
			return BufferedResponse{}, fmt.Errorf("%w: invalid base64 body: %v", ErrBadUpstreamResponse, err)
		}
		body = decoded
	} else {
		body = []byte(lr.Body)
	}

	return BufferedResponse{
		StatusCode: lr.StatusCode,
		Headers:    lr.Headers,
		Body:       body,
	}, nil
}

// isValidHTTPStatus reports whether code falls in the range HTTP status
// codes are defined over.
func isValidHTTPStatus(code int) bool {
	return code >= 100 && code <= 599
}
