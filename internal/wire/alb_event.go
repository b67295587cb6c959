// Package wire implements the gateway's wire formats: the outbound ALB event
// JSON sent to Lambda, the buffered JSON reply read back from it, and the
// byte-level streaming-prelude scanner used by the response-streaming path.
package wire

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

// AlbEvent is the JSON payload shape ALB uses to invoke a Lambda target,
// reproduced here field-for-field so a Lambda can be written once for both
// ALB fronting and this gateway.
type AlbEvent struct {
	HTTPMethod            string            `json:"httpMethod"`
	Headers               map[string]string `json:"headers"`
	Path                  string            `json:"path"`
	QueryStringParameters map[string]string `json:"queryStringParameters"`
	IsBase64Encoded       bool              `json:"isBase64Encoded"`
	Body                  string            `json:"body"`
	RequestContext        albRequestContext `json:"requestContext"`
}

type albRequestContext struct {
	Elb albElb `json:"elb"`
}

type albElb struct {
	TargetGroupArn string `json:"targetGroupArn"`
}

// textualContentTypes are the exact Content-Type values that are always sent
// as UTF-8 text rather than base64. A leading "text/" is handled separately.
var textualContentTypes = map[string]bool{
	"application/json":       true,
	"application/xml":        true,
	"application/javascript": true,
}

// isTextualContentType reports whether body bytes under this content type
// should travel as lossy UTF-8 text instead of base64.
func isTextualContentType(contentType string) bool {
	if textualContentTypes[contentType] {
		return true
	}
	return strings.HasPrefix(contentType, "text/")
}

// EncodeRequest builds the ALB event JSON for one inbound HTTP request.
// headers keys need not be lowercased by the caller; EncodeRequest lowercases
// them and keeps a single value per name, matching ALB's non-multi-value
// headers field. query is flattened the same way.
func EncodeRequest(method, path string, query map[string][]string, headers http.Header, body []byte) ([]byte, error) {
	flatHeaders := make(map[string]string, len(headers))
	contentType := ""
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		lower := strings.ToLower(name)
		value := toUTF8Lossy([]byte(values[0]))
		flatHeaders[lower] = value
		if lower == "content-type" {
			contentType = values[0]
		}
	}

	flatQuery := make(map[string]string, len(query))
	for name, values := range query {
		if len(values) == 0 {
			continue
		}
		flatQuery[name] = values[0]
	}

	var encodedBody string
	isBase64 := !isTextualContentType(contentType)
	if isBase64 {
		encodedBody = base64.StdEncoding.EncodeToString(body)
	} else {
		encodedBody = toUTF8Lossy(body)
	}

	event := AlbEvent{
		HTTPMethod:            method,
		Headers:               flatHeaders,
		Path:                  path,
		QueryStringParameters: flatQuery,
		IsBase64Encoded:       isBase64,
		Body:                  encodedBody,
		RequestContext: albRequestContext{
			Elb: albElb{TargetGroupArn: ""},
		},
	}

	return json.Marshal(event)
}

// toUTF8Lossy decodes b as UTF-8, substituting the Unicode replacement
// character for any invalid byte sequences.
func toUTF8Lossy(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
