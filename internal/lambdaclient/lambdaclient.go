// Package lambdaclient invokes a Lambda function either as a single buffered
// call or as a response-streaming call, hiding the AWS SDK's event-stream
// reader behind a small interface the streaming engine can fake in tests.
package lambdaclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/smithy-go"
)

// ErrUpstreamUnavailable wraps any failure to reach or invoke the Lambda
// function at all (network error, throttling, missing function, IAM denial).
var ErrUpstreamUnavailable = errors.New("lambda upstream unavailable")

// Chunk is one event read off a response-streaming invocation: either a
// slice of payload bytes, or the terminal InvokeComplete notice carrying the
// function error code/details, if any.
type Chunk struct {
	Payload       []byte
	Done          bool
	FunctionError string
	ErrorDetails  string
}

// EventStream abstracts the AWS SDK's InvokeWithResponseStream reader so the
// streaming engine can be tested against a fake.
type EventStream interface {
	// Recv blocks until the next chunk is available, the stream ends, or ctx
	// is cancelled. ok is false once the stream is exhausted.
	Recv(ctx context.Context) (chunk Chunk, ok bool)
	// Err returns any transport-level error observed once the stream ends.
	Err() error
	Close() error
}

// Invoker is the capability the gateway depends on: invoke buffered, or
// invoke with a streamed response.
type Invoker interface {
	InvokeBuffered(ctx context.Context, functionName string, payload []byte) ([]byte, error)
	InvokeStreaming(ctx context.Context, functionName string, payload []byte) (EventStream, error)
}

// Client is the real, AWS SDK-backed Invoker.
type Client struct {
	lambda *lambda.Client
}

// New loads the default AWS configuration (environment, shared config file,
// container/instance credentials) and returns a ready-to-use Client.
func New(ctx context.Context) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Client{lambda: lambda.NewFromConfig(cfg)}, nil
}

// InvokeBuffered performs a single synchronous RequestResponse invocation and
// returns the raw response payload.
func (c *Client) InvokeBuffered(ctx context.Context, functionName string, payload []byte) ([]byte, error) {
	out, err := c.lambda.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(functionName),
		Payload:      payload,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if out.FunctionError != nil && *out.FunctionError != "" {
		return out.Payload, fmt.Errorf("%w: function error %q", ErrUpstreamUnavailable, *out.FunctionError)
	}
	return out.Payload, nil
}

// InvokeStreaming performs a synchronous invocation whose response is
// delivered as a series of payload chunks.
func (c *Client) InvokeStreaming(ctx context.Context, functionName string, payload []byte) (EventStream, error) {
	out, err := c.lambda.InvokeWithResponseStream(ctx, &lambda.InvokeWithResponseStreamInput{
		FunctionName:   aws.String(functionName),
		Payload:        payload,
		InvocationType: types.ResponseStreamingInvocationTypeRequestResponse,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return &sdkEventStream{reader: out.GetStream()}, nil
}

// sdkEventStream adapts *lambda.InvokeWithResponseStreamEventStreamReader to
// the EventStream interface.
type sdkEventStream struct {
	reader *lambda.InvokeWithResponseStreamEventStreamReader
}

func (s *sdkEventStream) Recv(ctx context.Context) (Chunk, bool) {
	select {
	case event, open := <-s.reader.Events():
		if !open {
			return Chunk{}, false
		}
		return eventToChunk(event), true
	case <-ctx.Done():
		return Chunk{}, false
	}
}

func (s *sdkEventStream) Err() error {
	err := s.reader.Err()
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %s", ErrUpstreamUnavailable, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}

func (s *sdkEventStream) Close() error {
	return s.reader.Close()
}

func eventToChunk(event types.InvokeWithResponseStreamResponseEvent) Chunk {
	switch e := event.(type) {
	case *types.InvokeWithResponseStreamResponseEventMemberPayloadChunk:
		return Chunk{Payload: e.Value.Payload}
	case *types.InvokeWithResponseStreamResponseEventMemberInvokeComplete:
		c := Chunk{Done: true}
		if e.Value.ErrorCode != nil {
			c.FunctionError = *e.Value.ErrorCode
		}
		if e.Value.ErrorDetails != nil {
			c.ErrorDetails = *e.Value.ErrorDetails
		}
		return c
	default:
		return Chunk{}
	}
}
