// Package gateway wires the auth gate, wire codec, Lambda client, and
// streaming engine into the HTTP entry point described by the request
// handler state machine: encode, authenticate, invoke, respond.
package gateway

import (
	"context"
	"io"
	"net/http"

	"github.com/aws-samples/aws-lambda-web-gateway/internal/auth"
	"github.com/aws-samples/aws-lambda-web-gateway/internal/config"
	"github.com/aws-samples/aws-lambda-web-gateway/internal/lambdaclient"
	"github.com/aws-samples/aws-lambda-web-gateway/internal/logger"
	"github.com/aws-samples/aws-lambda-web-gateway/internal/streaming"
	"github.com/aws-samples/aws-lambda-web-gateway/internal/wire"
	"github.com/go-chi/chi/v5"
)

// Handler serves every request that reaches the gateway's catch-all route.
type Handler struct {
	cfg     config.GatewayConfig
	gate    *auth.Gate
	invoker lambdaclient.Invoker
}

// New builds a Handler from its collaborators. cfg, gate, and invoker are
// shared, immutable, and safe for concurrent use across requests.
func New(cfg config.GatewayConfig, gate *auth.Gate, invoker lambdaclient.Invoker) *Handler {
	return &Handler{cfg: cfg, gate: gate, invoker: invoker}
}

// NewRouter builds the full chi router: an unauthenticated health check and
// a catch-all that delegates to h for every method and path.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", healthz)
	r.HandleFunc("/", h.ServeHTTP)
	r.HandleFunc("/*", h.ServeHTTP)
	return r
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ServeHTTP implements the state machine in full: encode the ALB event,
// run the auth gate, then dispatch to the buffered or streaming path
// depending on configured invoke mode.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, kindBadUpstreamResponse, "failed to read request body")
		return
	}

	path := r.URL.Path
	if path == "" {
		path = "/"
	}

	event, err := wire.EncodeRequest(r.Method, path, r.URL.Query(), r.Header, body)
	if err != nil {
		logger.Error("failed to encode ALB event: %v", err)
		writeError(w, kindBadUpstreamResponse, "failed to encode request")
		return
	}

	if err := h.gate.Check(r); err != nil {
		writeError(w, kindAuthDenied, "")
		return
	}

	switch h.cfg.LambdaInvokeMode {
	case config.InvokeModeStreaming:
		h.serveStreaming(w, r.Context(), event)
	default:
		h.serveBuffered(w, r.Context(), event)
	}
}

func (h *Handler) serveBuffered(w http.ResponseWriter, ctx context.Context, event []byte) {
	payload, err := h.invoker.InvokeBuffered(ctx, h.cfg.LambdaFunctionName, event)
	if err != nil {
		logger.Error("lambda invoke failed: %v", err)
		writeError(w, kindUpstreamUnavailable, "")
		return
	}

	resp, err := wire.DecodeBufferedResponse(payload)
	if err != nil {
		logger.Error("bad upstream response: %v", err)
		writeError(w, kindBadUpstreamResponse, "")
		return
	}

	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

func (h *Handler) serveStreaming(w http.ResponseWriter, ctx context.Context, event []byte) {
	stream, err := h.invoker.InvokeStreaming(ctx, h.cfg.LambdaFunctionName, event)
	if err != nil {
		logger.Error("lambda invoke (streaming) failed: %v", err)
		writeError(w, kindUpstreamUnavailable, "")
		return
	}

	head, body, err := streaming.Run(ctx, stream)
	if err != nil {
		logger.Error("streaming engine failed: %v", err)
		writeError(w, kindUpstreamUnavailable, "")
		return
	}

	for name, value := range head.Headers {
		w.Header().Set(name, value)
	}
	for _, cookie := range head.Cookies {
		w.Header().Add("Set-Cookie", cookie)
	}
	w.WriteHeader(head.StatusCode)

	flusher, canFlush := w.(http.Flusher)
	for chunk := range body {
		if chunk.Err != nil {
			logger.Warn("streaming response truncated: %v", chunk.Err)
			return
		}
		if len(chunk.Data) == 0 {
			continue
		}
		if _, err := w.Write(chunk.Data); err != nil {
			logger.Warn("client write failed, stopping stream: %v", err)
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

func writeError(w http.ResponseWriter, k kind, message string) {
	w.WriteHeader(k.httpStatus())
	if message != "" {
		_, _ = w.Write([]byte(message))
	}
}
