package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/logging"
)

// RPCModel 是通过 HTTP 调用外部模型服务的 RankModel 实现，
// 外层包一个熔断器：连续失败后短时间内直接拒绝，由引擎走降级路径。
type RPCModel struct {
	name     string
	Endpoint string // 例如 "http://localhost:8080/predict"
	Timeout  time.Duration
	Client   *http.Client

	cb *gobreaker.CircuitBreaker[[]float64]
}

func NewRPCModel(name, endpoint string, timeout time.Duration) *RPCModel {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	log := logging.Component("model")
	cb := gobreaker.NewCircuitBreaker[[]float64](gobreaker.Settings{
		Name:        "ranker-" + name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("ranker circuit breaker state change")
		},
	})
	return &RPCModel{
		name:     name,
		Endpoint: endpoint,
		Timeout:  timeout,
		Client:   &http.Client{Timeout: timeout},
		cb:       cb,
	}
}

func (m *RPCModel) Name() string {
	return m.name
}

// State 返回熔断器状态。
func (m *RPCModel) State() gobreaker.State {
	return m.cb.State()
}

// Predict 调用远程模型服务进行预测（单条，内部调用批量接口）。
func (m *RPCModel) Predict(features map[string]float64) (float64, error) {
	scores, err := m.PredictBatch([]map[string]float64{features})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// PredictBatch 调用远程模型服务进行批量预测。
// 请求格式（JSON）：
//
//	{"features_list": [{"ctr": 0.15, "cvr": 0.08, ...}, ...]}
//
// 响应格式（JSON）：
//
//	{"scores": [0.85, 0.72, ...]}
func (m *RPCModel) PredictBatch(featuresList []map[string]float64) ([]float64, error) {
	if len(featuresList) == 0 {
		return []float64{}, nil
	}
	scores, err := m.cb.Execute(func() ([]float64, error) {
		return m.call(featuresList)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, core.Errorf(core.ModuleModel, core.ErrorCodeUnavailable, "model: %s: %v", m.name, err)
	}
	return scores, err
}

func (m *RPCModel) call(featuresList []map[string]float64) ([]float64, error) {
	jsonData, err := json.Marshal(map[string]any{"features_list": featuresList})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("rpc error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var result struct {
		Scores []float64 `json:"scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Scores) != len(featuresList) {
		return nil, fmt.Errorf("response scores count mismatch: expected %d, got %d", len(featuresList), len(result.Scores))
	}
	return result.Scores, nil
}

var _ BatchRankModel = (*RPCModel)(nil)
