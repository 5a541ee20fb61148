package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	textnormalization "github.com/baditaflorin/go_text_normalization"
	"github.com/baditaflorin/go_text_normalization/internal/adapters/cache"
	"github.com/baditaflorin/go_text_normalization/internal/ports"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Request is a single-text request.
type Request struct {
	Language string `json:"language"`
	Casing   string `json:"casing,omitempty"`
	Text     string `json:"text"`
}

// BatchRequest normalizes several texts with one normalizer.
type BatchRequest struct {
	Language string   `json:"language"`
	Casing   string   `json:"casing,omitempty"`
	Texts    []string `json:"texts"`
}

// NormalizeResponse is the result of /v1/normalize.
type NormalizeResponse struct {
	Normalized string                         `json:"normalized"`
	Spans      []textnormalization.TaggedSpan `json:"spans"`
}

// BatchResponse is the result of /v1/normalize/batch.
type BatchResponse struct {
	Normalized []string `json:"normalized"`
}

// ClassifyResponse is the result of /v1/classify.
type ClassifyResponse struct {
	Spans []textnormalization.TaggedSpan `json:"spans"`
}

// LanguageInfo describes one loaded normalizer.
type LanguageInfo struct {
	Code    string   `json:"code"`
	Casing  []string `json:"casing"`
	Classes []string `json:"classes"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Service serves normalization over HTTP. Normalizers are loaded before the
// service is created and never change afterwards.
type Service struct {
	normalizers    map[string]*textnormalization.Normalizer
	cache          ports.Cache
	cors           *cors.Cors
	logger         ports.Logger
	requestTimeout time.Duration
	maxBatch       int
	started        time.Time
}

// NewService creates a service over normalizers, keyed by normalizerKey.
// c may be nil to disable caching.
func NewService(normalizers map[string]*textnormalization.Normalizer, c ports.Cache, corsCfg CORSConfig, logger ports.Logger, requestTimeout time.Duration, maxBatch int) *Service {
	return &Service{
		normalizers: normalizers,
		cache:       c,
		cors: cors.New(cors.Options{
			AllowedOrigins: splitList(corsCfg.AllowedOrigins),
			AllowedMethods: splitList(corsCfg.AllowedMethods),
			AllowedHeaders: splitList(corsCfg.AllowedHeaders),
			ExposedHeaders: []string{RequestIDHeader},
			MaxAge:         corsCfg.MaxAge,
		}),
		logger:         logger,
		requestTimeout: requestTimeout,
		maxBatch:       maxBatch,
		started:        time.Now(),
	}
}

func normalizerKey(lang string, casing textnormalization.Casing) string {
	if casing == "" {
		casing = textnormalization.Cased
	}
	return lang + "/" + string(casing)
}

// Handler returns the fasthttp request handler with CORS applied.
func (s *Service) Handler() fasthttp.RequestHandler {
	return s.withCORS(s.route)
}

// withCORS runs the rs/cors middleware through fasthttpadaptor. Preflight
// requests are answered by the middleware alone.
func (s *Service) withCORS(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		passed := false
		fasthttpadaptor.NewFastHTTPHandler(s.cors.Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			passed = true
		})))(ctx)
		if passed {
			ctx.Response.ResetBody()
			next(ctx)
		}
	}
}

func (s *Service) route(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	requestID := string(ctx.Request.Header.Peek(RequestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx.SetUserValue(RequestIDHeader, requestID)
	ctx.Response.Header.Set(RequestIDHeader, requestID)
	ctx.Response.Header.Set("Content-Type", "application/json")
	ctx.Response.Header.Set("Server", "TextNormalizationServer")

	switch string(ctx.Path()) {
	case "/health":
		s.handleHealth(ctx)
	case "/v1/languages":
		s.handleLanguages(ctx)
	case "/v1/normalize":
		s.handleNormalize(ctx)
	case "/v1/normalize/batch":
		s.handleBatch(ctx)
	case "/v1/classify":
		s.handleClassify(ctx)
	default:
		s.writeError(ctx, fasthttp.StatusNotFound, "Not found")
	}

	s.logger.Info("Request processed",
		"request_id", requestID,
		"method", string(ctx.Method()),
		"path", string(ctx.Path()),
		"status", ctx.Response.StatusCode(),
		"ip", ctx.RemoteIP().String(),
		"duration", time.Since(startTime),
	)
}

func (s *Service) handleHealth(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		s.writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"status":      "ok",
		"normalizers": len(s.normalizers),
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"time":        time.Now().Format(time.RFC3339),
	})
}

func (s *Service) handleLanguages(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		s.writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	byCode := map[string]*LanguageInfo{}
	for _, n := range s.normalizers {
		code := string(n.Language())
		info, ok := byCode[code]
		if !ok {
			info = &LanguageInfo{Code: code, Classes: n.Classes()}
			byCode[code] = info
		}
		info.Casing = append(info.Casing, string(n.Casing()))
	}
	out := make([]LanguageInfo, 0, len(byCode))
	for _, info := range byCode {
		sort.Strings(info.Casing)
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	s.writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"languages": out})
}

func (s *Service) handleNormalize(ctx *fasthttp.RequestCtx) {
	var req Request
	n, ok := s.decode(ctx, &req, &req.Language, &req.Casing)
	if !ok {
		return
	}
	key := cache.Key("normalize", req.Language, string(n.Casing()), req.Text)
	if s.cached(ctx, key) {
		return
	}
	res := n.NormalizeDetailed(req.Text)
	s.writeCachedJSON(ctx, key, NormalizeResponse{Normalized: res.Text, Spans: res.Spans})
}

func (s *Service) handleClassify(ctx *fasthttp.RequestCtx) {
	var req Request
	n, ok := s.decode(ctx, &req, &req.Language, &req.Casing)
	if !ok {
		return
	}
	key := cache.Key("classify", req.Language, string(n.Casing()), req.Text)
	if s.cached(ctx, key) {
		return
	}
	spans, err := n.Classify(req.Text)
	if err != nil {
		s.logger.Error("Classification failed", "request_id", s.requestID(ctx), "error", err.Error())
		s.writeError(ctx, fasthttp.StatusInternalServerError, "Classification failed")
		return
	}
	s.writeCachedJSON(ctx, key, ClassifyResponse{Spans: spans})
}

func (s *Service) handleBatch(ctx *fasthttp.RequestCtx) {
	var req BatchRequest
	n, ok := s.decode(ctx, &req, &req.Language, &req.Casing)
	if !ok {
		return
	}
	if len(req.Texts) > s.maxBatch {
		s.writeError(ctx, fasthttp.StatusRequestEntityTooLarge, "Too many texts in batch")
		return
	}

	c, cancel := context.WithTimeout(context.Background(), s.requestTimeout)
	defer cancel()
	out, err := n.NormalizeList(c, req.Texts)
	if err != nil {
		s.logger.Warn("Batch normalization aborted", "request_id", s.requestID(ctx), "error", err.Error())
		s.writeError(ctx, fasthttp.StatusServiceUnavailable, "Batch normalization timed out")
		return
	}
	if out == nil {
		out = []string{}
	}
	s.writeJSON(ctx, fasthttp.StatusOK, BatchResponse{Normalized: out})
}

// decode parses a POST body into req and selects the normalizer named by
// the language and casing fields.
func (s *Service) decode(ctx *fasthttp.RequestCtx, req interface{}, lang, casing *string) (*textnormalization.Normalizer, bool) {
	if !ctx.IsPost() {
		s.writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
		return nil, false
	}
	if err := json.Unmarshal(ctx.PostBody(), req); err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, "Invalid request: "+err.Error())
		return nil, false
	}
	if *lang == "" {
		s.writeError(ctx, fasthttp.StatusBadRequest, "language is required")
		return nil, false
	}
	n, ok := s.normalizers[normalizerKey(*lang, textnormalization.Casing(*casing))]
	if !ok {
		s.writeError(ctx, fasthttp.StatusBadRequest, "Unsupported language or casing")
		return nil, false
	}
	return n, true
}

func (s *Service) cached(ctx *fasthttp.RequestCtx, key string) bool {
	if s.cache == nil {
		return false
	}
	body, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Cache read failed", "request_id", s.requestID(ctx), "error", err.Error())
		return false
	}
	if !ok {
		return false
	}
	ctx.Response.Header.Set("X-Cache", "hit")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBodyString(body)
	return true
}

func (s *Service) writeCachedJSON(ctx *fasthttp.RequestCtx, key string, data interface{}) {
	body, ok := s.writeJSON(ctx, fasthttp.StatusOK, data)
	if !ok || s.cache == nil {
		return
	}
	ctx.Response.Header.Set("X-Cache", "miss")
	if err := s.cache.Set(ctx, key, string(body)); err != nil {
		s.logger.Warn("Cache write failed", "request_id", s.requestID(ctx), "error", err.Error())
	}
}

func (s *Service) requestID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(RequestIDHeader).(string)
	return id
}

// writeJSON writes a JSON response to the context
func (s *Service) writeJSON(ctx *fasthttp.RequestCtx, status int, data interface{}) ([]byte, bool) {
	response, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("Error marshaling JSON response", "request_id", s.requestID(ctx), "error", err.Error())
		s.writeError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	ctx.SetStatusCode(status)
	ctx.SetBody(response)
	return response, true
}

// writeError writes a JSON error response to the context
func (s *Service) writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	response, err := json.Marshal(ErrorResponse{Error: message, RequestID: s.requestID(ctx)})
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"error":"Internal server error"}`)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetBody(response)
}
