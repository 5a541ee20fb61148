package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	textnormalization "github.com/baditaflorin/go_text_normalization"
	"github.com/baditaflorin/go_text_normalization/internal/adapters/cache"
	"github.com/baditaflorin/go_text_normalization/internal/adapters/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	normalizers := map[string]*textnormalization.Normalizer{}
	for _, lang := range []string{"hi", "en"} {
		for _, casing := range []textnormalization.Casing{textnormalization.Cased, textnormalization.LowerCased} {
			n, err := textnormalization.New(lang, casing, textnormalization.WithLogger(logger.Nop()))
			require.NoError(t, err)
			normalizers[normalizerKey(lang, casing)] = n
		}
	}
	lru, err := cache.NewLRU(128)
	require.NoError(t, err)
	corsCfg := CORSConfig{
		AllowedOrigins: "*",
		AllowedMethods: "GET,POST,OPTIONS",
		AllowedHeaders: "Content-Type,X-Request-ID",
		MaxAge:         60,
	}
	return NewService(normalizers, lru, corsCfg, logger.Nop(), time.Second, 3)
}

func do(h fasthttp.RequestHandler, method, path, body string, headers ...string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != "" {
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBodyString(body)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		ctx.Request.Header.Set(headers[i], headers[i+1])
	}
	h(&ctx)
	return &ctx
}

func TestHandleNormalize(t *testing.T) {
	h := newTestService(t).Handler()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"hindi money", `{"language":"hi","text":"₹100"}`, "एक सौ रुपये"},
		{"hindi time", `{"language":"hi","text":"12:30"}`, "बारह बजकर तीस मिनट"},
		{"english lower", `{"language":"en","casing":"lower_cased","text":"Dr. Smith"}`, "doctor smith"},
		{"plain", `{"language":"hi","text":"नमस्ते"}`, "नमस्ते"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := do(h, fasthttp.MethodPost, "/v1/normalize", tc.body)
			require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

			var resp NormalizeResponse
			require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
			assert.Equal(t, tc.want, resp.Normalized)
			assert.NotEmpty(t, resp.Spans)
			assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))
		})
	}
}

func TestHandleNormalizeCache(t *testing.T) {
	h := newTestService(t).Handler()
	body := `{"language":"hi","text":"123"}`

	first := do(h, fasthttp.MethodPost, "/v1/normalize", body)
	require.Equal(t, fasthttp.StatusOK, first.Response.StatusCode())
	assert.Equal(t, "miss", string(first.Response.Header.Peek("X-Cache")))

	second := do(h, fasthttp.MethodPost, "/v1/normalize", body)
	require.Equal(t, fasthttp.StatusOK, second.Response.StatusCode())
	assert.Equal(t, "hit", string(second.Response.Header.Peek("X-Cache")))
	assert.Equal(t, string(first.Response.Body()), string(second.Response.Body()))

	// Casing is part of the key.
	other := do(h, fasthttp.MethodPost, "/v1/normalize", `{"language":"hi","casing":"lower_cased","text":"123"}`)
	assert.Equal(t, "miss", string(other.Response.Header.Peek("X-Cache")))
}

func TestHandleClassify(t *testing.T) {
	h := newTestService(t).Handler()
	ctx := do(h, fasthttp.MethodPost, "/v1/classify", `{"language":"hi","text":"₹100 दो"}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	require.NotEmpty(t, resp.Spans)
	assert.Equal(t, "money", resp.Spans[0].Class)
	assert.Equal(t, "money", textnormalization.PrimaryClass(resp.Spans))
}

func TestHandleBatch(t *testing.T) {
	h := newTestService(t).Handler()

	ctx := do(h, fasthttp.MethodPost, "/v1/normalize/batch", `{"language":"hi","texts":["123","/",""]}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var resp BatchResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, []string{"एक सौ तेईस", "/", ""}, resp.Normalized)

	ctx = do(h, fasthttp.MethodPost, "/v1/normalize/batch", `{"language":"hi","texts":[]}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"normalized":[]}`, string(ctx.Response.Body()))

	ctx = do(h, fasthttp.MethodPost, "/v1/normalize/batch", `{"language":"hi","texts":["1","2","3","4"]}`)
	assert.Equal(t, fasthttp.StatusRequestEntityTooLarge, ctx.Response.StatusCode())
}

func TestHandleLanguages(t *testing.T) {
	h := newTestService(t).Handler()
	ctx := do(h, fasthttp.MethodGet, "/v1/languages", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var resp struct {
		Languages []LanguageInfo `json:"languages"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	require.Len(t, resp.Languages, 2)
	assert.Equal(t, "en", resp.Languages[0].Code)
	assert.Equal(t, "hi", resp.Languages[1].Code)
	assert.Equal(t, []string{"cased", "lower_cased"}, resp.Languages[1].Casing)
	assert.Contains(t, resp.Languages[1].Classes, "cardinal")
}

func TestHandleHealth(t *testing.T) {
	h := newTestService(t).Handler()
	ctx := do(h, fasthttp.MethodGet, "/health", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, float64(4), resp["normalizers"])
}

func TestHandlerErrors(t *testing.T) {
	h := newTestService(t).Handler()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown path", fasthttp.MethodGet, "/v2/normalize", "", fasthttp.StatusNotFound},
		{"get normalize", fasthttp.MethodGet, "/v1/normalize", "", fasthttp.StatusMethodNotAllowed},
		{"post health", fasthttp.MethodPost, "/health", "{}", fasthttp.StatusMethodNotAllowed},
		{"bad json", fasthttp.MethodPost, "/v1/normalize", "{", fasthttp.StatusBadRequest},
		{"no language", fasthttp.MethodPost, "/v1/normalize", `{"text":"1"}`, fasthttp.StatusBadRequest},
		{"unloaded language", fasthttp.MethodPost, "/v1/classify", `{"language":"bn","text":"1"}`, fasthttp.StatusBadRequest},
		{"bad casing", fasthttp.MethodPost, "/v1/normalize", `{"language":"hi","casing":"upper","text":"1"}`, fasthttp.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := do(h, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, ctx.Response.StatusCode())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestRequestID(t *testing.T) {
	h := newTestService(t).Handler()

	ctx := do(h, fasthttp.MethodGet, "/health", "", RequestIDHeader, "req-42")
	assert.Equal(t, "req-42", string(ctx.Response.Header.Peek(RequestIDHeader)))

	ctx = do(h, fasthttp.MethodGet, "/health", "")
	assert.Len(t, string(ctx.Response.Header.Peek(RequestIDHeader)), 36)
}

func TestCORS(t *testing.T) {
	h := newTestService(t).Handler()

	ctx := do(h, fasthttp.MethodOptions, "/v1/normalize", "",
		"Origin", "https://example.com",
		"Access-Control-Request-Method", "POST",
	)
	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
	assert.Equal(t, "*", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
	assert.Empty(t, ctx.Response.Body())

	ctx = do(h, fasthttp.MethodPost, "/v1/normalize", `{"language":"hi","text":"5"}`, "Origin", "https://example.com")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "*", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
	assert.Contains(t, string(ctx.Response.Body()), `"normalized":"पाँच"`)
}
