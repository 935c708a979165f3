package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func sphere(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return sum
}

func postEvaluate(t *testing.T, handler http.Handler, req EvaluateRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestWorkerEvaluate(t *testing.T) {
	worker := NewWorker(":0", sphere)
	w := postEvaluate(t, worker.Handler(), EvaluateRequest{
		Positions: [][]float64{{1, 2}, {0, 0}, {-3, 4}},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp EvaluateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	want := []float64{5, 0, 25}
	if len(resp.Fitness) != len(want) {
		t.Fatalf("got %d fitness values, want %d", len(resp.Fitness), len(want))
	}
	for i, v := range want {
		if resp.Fitness[i] != v {
			t.Errorf("fitness[%d] = %v, want %v", i, resp.Fitness[i], v)
		}
	}
}

func TestWorkerEvaluateNonFinite(t *testing.T) {
	// NaN and Inf cannot travel as JSON numbers; the wire format must still
	// round-trip them.
	alwaysNaN := func(v []float64) float64 {
		if v[0] > 0 {
			return math.Inf(1)
		}
		return math.NaN()
	}
	worker := NewWorker(":0", alwaysNaN)
	w := postEvaluate(t, worker.Handler(), EvaluateRequest{
		Positions: [][]float64{{1}, {-1}},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp EvaluateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !math.IsInf(resp.Fitness[0], 1) {
		t.Errorf("fitness[0] = %v, want +Inf", resp.Fitness[0])
	}
	if !math.IsNaN(resp.Fitness[1]) {
		t.Errorf("fitness[1] = %v, want NaN", resp.Fitness[1])
	}
}

func TestWorkerRejectsBadRequests(t *testing.T) {
	worker := NewWorker(":0", sphere)
	handler := worker.Handler()

	t.Run("wrong method", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/evaluate", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", w.Code)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		w := postEvaluate(t, handler, EvaluateRequest{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestWorkerHealth(t *testing.T) {
	worker := NewWorker(":0", sphere)
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	worker.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
