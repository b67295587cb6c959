// Package streaming implements the response-streaming engine: it detects and
// parses the Lambda wire prelude out of an asynchronous event stream, then
// forwards the remaining bytes to the HTTP transport through a bounded
// channel owned by a dedicated forwarder goroutine.
package streaming

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws-samples/aws-lambda-web-gateway/internal/lambdaclient"
	"github.com/aws-samples/aws-lambda-web-gateway/internal/logger"
	"github.com/aws-samples/aws-lambda-web-gateway/internal/wire"
)

// ErrUpstreamStreamError is returned through a BodyChunk when Lambda reports
// a function error mid-stream, or the event stream itself fails after the
// head has already been committed.
var ErrUpstreamStreamError = errors.New("lambda stream error")

// chunkChannelCapacity bounds how many body chunks the forwarder may have
// in flight ahead of the HTTP transport. It only bounds memory; correctness
// does not depend on its value.
const chunkChannelCapacity = 16

// Head is the HTTP response head - status, headers, and cookies - derived
// from the prelude (or its defaults) and ready to write exactly once, before
// any body byte.
type Head struct {
	StatusCode int
	Headers    map[string]string
	Cookies    []string
}

// BodyChunk is one unit handed from the forwarder goroutine to the HTTP
// transport. Err is set, and Data nil, exactly once, as the final value
// before the channel closes, if the stream ended in error.
type BodyChunk struct {
	Data []byte
	Err  error
}

// Run executes the three-phase streaming algorithm against stream: it reads
// and classifies the first event (phase A), collects and parses the prelude
// if one is present (phase B), then spawns a forwarder goroutine and returns
// the resulting head immediately (phase C). The caller must drain the
// returned channel to completion (or let ctx cancellation stop it) and is
// responsible for closing stream only through it; Run's forwarder owns that.
func Run(ctx context.Context, stream lambdaclient.EventStream) (Head, <-chan BodyChunk, error) {
	first, ok := stream.Recv(ctx)
	if !ok {
		err := stream.Err()
		stream.Close()
		if err != nil {
			return Head{}, nil, fmt.Errorf("%w: %v", ErrUpstreamStreamError, err)
		}
		// Edge case (iv): zero PayloadChunk events at all.
		return noPreludeHead(), closedChannel(), nil
	}

	if first.Done {
		stream.Close()
		if first.FunctionError != "" {
			return Head{}, nil, fmt.Errorf("%w: %s", ErrUpstreamStreamError, first.FunctionError)
		}
		return noPreludeHead(), closedChannel(), nil
	}

	if len(first.Payload) == 0 || first.Payload[0] != '{' {
		// Edge case (v): no prelude. Whatever bytes arrived (possibly none)
		// are body from the first byte.
		body := first.Payload
		head := noPreludeHead()
		ch := make(chan BodyChunk, chunkChannelCapacity)
		go forward(ctx, stream, body, true, ch)
		return head, ch, nil
	}

	scanner := wire.NewPreludeScanner()
	preludeBytes, remainder, found := scanner.Feed(first.Payload)
	for !found {
		next, ok := stream.Recv(ctx)
		if !ok {
			// Stream ended before the terminator was ever seen. Fall back to
			// the default head and drop whatever partial bytes were collected.
			head := headFromPrelude(wire.DefaultPrelude())
			ch := make(chan BodyChunk, chunkChannelCapacity)
			close(ch)
			stream.Close()
			return head, ch, nil
		}
		if next.Done {
			stream.Close()
			if next.FunctionError != "" {
				return Head{}, nil, fmt.Errorf("%w: %s", ErrUpstreamStreamError, next.FunctionError)
			}
			head := headFromPrelude(wire.DefaultPrelude())
			return head, closedChannel(), nil
		}
		preludeBytes, remainder, found = scanner.Feed(next.Payload)
	}

	prelude, err := wire.ParsePrelude(preludeBytes)
	if err != nil {
		logger.Warn("malformed streaming prelude, substituting defaults: %v", err)
		prelude = wire.DefaultPrelude()
	}

	head := headFromPrelude(prelude)
	ch := make(chan BodyChunk, chunkChannelCapacity)
	go forward(ctx, stream, remainder, true, ch)
	return head, ch, nil
}

// forward owns stream for the remainder of the request. It sends the
// post-prelude remainder first, then every subsequent payload chunk
// unchanged, then a zero-byte terminator on a clean InvokeComplete. It exits
// (closing ch and the stream) on context cancellation, stream exhaustion, or
// a mid-stream error.
func forward(ctx context.Context, stream lambdaclient.EventStream, remainder []byte, keepReading bool, ch chan<- BodyChunk) {
	defer close(ch)
	defer stream.Close()

	if len(remainder) > 0 {
		if !send(ctx, ch, BodyChunk{Data: remainder}) {
			return
		}
	}
	if !keepReading {
		return
	}

	for {
		chunk, ok := stream.Recv(ctx)
		if !ok {
			if err := stream.Err(); err != nil {
				send(ctx, ch, BodyChunk{Err: fmt.Errorf("%w: %v", ErrUpstreamStreamError, err)})
			}
			return
		}
		if chunk.Done {
			if chunk.FunctionError != "" {
				send(ctx, ch, BodyChunk{Err: fmt.Errorf("%w: %s", ErrUpstreamStreamError, chunk.FunctionError)})
				return
			}
			send(ctx, ch, BodyChunk{Data: []byte{}})
			return
		}
		if len(chunk.Payload) == 0 {
			continue
		}
		if !send(ctx, ch, BodyChunk{Data: chunk.Payload}) {
			return
		}
	}
}

// send delivers chunk to ch, honoring backpressure from the bounded channel
// and ctx cancellation (client disconnect). It reports whether the send
// succeeded.
func send(ctx context.Context, ch chan<- BodyChunk, chunk BodyChunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

func closedChannel() <-chan BodyChunk {
	ch := make(chan BodyChunk)
	close(ch)
	return ch
}

// noPreludeHead is used when phase A concludes there is no prelude at all.
func noPreludeHead() Head {
	return Head{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"content-type": "application/octet-stream"},
		Cookies:    nil,
	}
}

// headFromPrelude applies the header policy: every prelude header is copied
// except content-length, which is always dropped because the body length is
// unknown under streaming.
func headFromPrelude(prelude wire.MetadataPrelude) Head {
	headers := make(map[string]string, len(prelude.Headers))
	for name, value := range prelude.Headers {
		if strings.EqualFold(name, "content-length") {
			continue
		}
		headers[name] = value
	}
	return Head{
		StatusCode: prelude.StatusCode,
		Headers:    headers,
		Cookies:    prelude.Cookies,
	}
}
