package wire

import (
	"encoding/json"
	"net/http"
)

// terminatorLen is the number of consecutive NUL bytes that end the
// streaming prelude.
const terminatorLen = 8

// MetadataPrelude carries the response status, headers, and cookies that
// precede the body in Lambda's response-streaming wire format.
type MetadataPrelude struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Cookies    []string          `json:"cookies"`
}

// DefaultPrelude is substituted whenever no prelude is present or the
// prelude JSON fails to parse.
func DefaultPrelude() MetadataPrelude {
	return MetadataPrelude{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{},
		Cookies:    []string{},
	}
}

// ParsePrelude deserializes data as a MetadataPrelude. A malformed prelude is
// non-fatal: the caller substitutes DefaultPrelude() on error and is
// responsible for logging it.
func ParsePrelude(data []byte) (MetadataPrelude, error) {
	var p MetadataPrelude
	if err := json.Unmarshal(data, &p); err != nil {
		return MetadataPrelude{}, err
	}
	if p.Headers == nil {
		p.Headers = map[string]string{}
	}
	if p.Cookies == nil {
		p.Cookies = []string{}
	}
	return p, nil
}

// PreludeScanner incrementally scans chunks of the streaming response body
// for the eight-NUL terminator that separates the JSON prelude from the
// opaque body. It tolerates the terminator - or the prelude JSON itself -
// straddling chunk boundaries.
//
// Feed must not be called again once it has returned found=true.
type PreludeScanner struct {
	buf      []byte
	runStart int
	runLen   int
}

// NewPreludeScanner returns a scanner ready to receive the first chunk.
func NewPreludeScanner() *PreludeScanner {
	return &PreludeScanner{runStart: -1}
}

// Feed appends chunk to the buffer collected so far and scans it byte by
// byte. A non-zero byte resets the NUL run counter; once the counter first
// reaches eight, the prelude is everything collected before that run and
// remainder is every byte of chunk strictly after the run's last NUL.
func (s *PreludeScanner) Feed(chunk []byte) (prelude, remainder []byte, found bool) {
	for i, b := range chunk {
		s.buf = append(s.buf, b)
		if b == 0x00 {
			if s.runLen == 0 {
				s.runStart = len(s.buf) - 1
			}
			s.runLen++
			if s.runLen == terminatorLen {
				prelude = cloneBytes(s.buf[:s.runStart])
				remainder = cloneBytes(chunk[i+1:])
				return prelude, remainder, true
			}
		} else {
			s.runLen = 0
		}
	}
	return nil, nil, false
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
