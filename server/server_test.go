package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/engine"
	"github.com/rushteam/hybridrec/pkg/utils"
)

type stubRecommender struct {
	opts    int
	visitor int64
}

func (s *stubRecommender) Recommend(_ context.Context, visitorID int64, opts ...engine.RequestOption) core.Result {
	s.visitor = visitorID
	s.opts = len(opts)
	c := core.NewCandidate(500)
	c.Score = 2.1
	c.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
	return core.NewResult(core.SegmentNew, []*core.Candidate{c, core.NewCandidate(600)})
}

func (s *stubRecommender) Segment(_ context.Context, visitorID int64) core.Segment {
	if visitorID == 1 {
		return core.SegmentActive
	}
	return core.SegmentNew
}

func (s *stubRecommender) SimilarItems(_ context.Context, itemID int64, topN int) []int64 {
	if itemID != 500 {
		return nil
	}
	out := []int64{600, 900, 800, 700}
	if topN < len(out) {
		out = out[:topN]
	}
	return out
}

func do(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func newTestServer() (*Server, *stubRecommender) {
	stub := &stubRecommender{}
	return New(stub, config.Default().Server), stub
}

func TestRecommend(t *testing.T) {
	s, stub := newTestServer()

	rec, body := do(t, s.Handler(), "/recommendations/42?top_n=2&alpha=0.5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new", body["status"])
	assert.Equal(t, []any{float64(500), float64(600)}, body["recommendations"])
	assert.NotContains(t, body, "items")
	assert.Equal(t, int64(42), stub.visitor)
	assert.Equal(t, 2, stub.opts)
}

func TestRecommend_Explain(t *testing.T) {
	s, _ := newTestServer()

	rec, body := do(t, s.Handler(), "/recommendations/42?explain=true")
	require.Equal(t, http.StatusOK, rec.Code)
	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, float64(500), first["item_id"])
	assert.Equal(t, 2.1, first["score"])
	assert.Equal(t, map[string]any{"recall_source": "popular"}, first["labels"])
}

func TestRecommend_BadParams(t *testing.T) {
	s, _ := newTestServer()
	for _, target := range []string{
		"/recommendations/abc",
		"/recommendations/1?top_n=0",
		"/recommendations/1?top_n=x",
		"/recommendations/1?alpha=1.5",
		"/recommendations/1?explain=maybe",
		"/items/x/similar",
		"/items/500/similar?top_n=-2",
		"/visitors/x/segment",
	} {
		rec, body := do(t, s.Handler(), target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.NotEmpty(t, body["error"], target)
	}
}

func TestSegment(t *testing.T) {
	s, _ := newTestServer()

	rec, body := do(t, s.Handler(), "/visitors/1/segment")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["visitor_id"])
	assert.Equal(t, "active", body["segment"])
}

func TestSimilar(t *testing.T) {
	s, _ := newTestServer()

	_, body := do(t, s.Handler(), "/items/500/similar?top_n=2")
	assert.Equal(t, []any{float64(600), float64(900)}, body["similar"])

	_, body = do(t, s.Handler(), "/items/500/similar")
	assert.Len(t, body["similar"], 4)

	// 未知商品返回空数组而不是 null
	_, body = do(t, s.Handler(), "/items/1/similar")
	assert.Equal(t, []any{}, body["similar"])
}

func TestHealthzAndMetrics(t *testing.T) {
	s, _ := newTestServer()

	rec, body := do(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	do(t, s.Handler(), "/recommendations/7")
	rec, _ = do(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `app_requests_total{endpoint="/recommendations/{visitorID}",method="GET"}`)
}
