package server

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/runway/internal/export"
	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/source"
)

func newTestServer() *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(Config{}, logger)
}

func sampleBody(t *testing.T, extra map[string]any) *bytes.Reader {
	t.Helper()
	body := map[string]any{"dataset": source.Sample()}
	for k, v := range extra {
		body[k] = v
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(data)
}

func do(s *Server, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newTestServer(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("missing request ID header")
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("request ID = %q, want abc-123", got)
	}
}

func TestCompute(t *testing.T) {
	rec := do(newTestServer(), http.MethodPost, "/v1/compute", sampleBody(t, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var out model.Outputs
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if math.Abs(out.MonthlyCashGenerated-900) > 1e-9 {
		t.Errorf("MonthlyCashGenerated = %v, want 900", out.MonthlyCashGenerated)
	}
	if len(out.Trend.Rows) != 3 {
		t.Errorf("trend rows = %d, want 3", len(out.Trend.Rows))
	}
	if out.Sensitivity.Status != model.StatusGrowing {
		t.Errorf("status = %v, want growing", out.Sensitivity.Status)
	}
}

func TestComputePolicyOverride(t *testing.T) {
	body := sampleBody(t, map[string]any{"policy": "per-product-averaged"})
	rec := do(newTestServer(), http.MethodPost, "/v1/compute", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var out model.Outputs
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Productivity.Policy != model.PolicyPerProductAveraged {
		t.Errorf("policy = %v", out.Productivity.Policy)
	}
	if math.Abs(out.MonthlyCashGenerated-500) > 1e-6 {
		t.Errorf("MonthlyCashGenerated = %v, want 500", out.MonthlyCashGenerated)
	}
}

func TestComputeRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"dataset":`},
		{"unknown field", `{"datasets":{}}`},
		{"bad policy", `{"dataset":{},"policy":"median"}`},
		{"negative injection", `{"dataset":{},"params":{"cashInjection":-1}}`},
		{"negative days", `{"dataset":{},"daysPerMonth":-30}`},
	}
	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodPost, "/v1/compute", strings.NewReader(tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var er errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&er); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if er.Error == "" || er.RequestID == "" {
				t.Errorf("error response = %+v", er)
			}
		})
	}
}

func TestComputeMethodNotAllowed(t *testing.T) {
	rec := do(newTestServer(), http.MethodGet, "/v1/compute", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestSweepDefaults(t *testing.T) {
	rec := do(newTestServer(), http.MethodPost, "/v1/sweep", sampleBody(t, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp sweepResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// -50..100 and -50..50 in steps of 25.
	if len(resp.TPRates) != 7 || len(resp.LTRates) != 5 {
		t.Fatalf("axes = %v x %v", resp.TPRates, resp.LTRates)
	}
	if len(resp.Cells) != 35 {
		t.Fatalf("cells = %d, want 35", len(resp.Cells))
	}
}

func TestSweepExplicitRates(t *testing.T) {
	body := sampleBody(t, map[string]any{
		"tpRates": []float64{0, 10},
		"ltRates": []float64{0},
	})
	rec := do(newTestServer(), http.MethodPost, "/v1/sweep", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp sweepResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Cells) != 2 {
		t.Fatalf("cells = %d, want 2", len(resp.Cells))
	}
	if resp.Cells[0].TPRate != 0 || resp.Cells[1].TPRate != 10 {
		t.Errorf("cell order = %+v", resp.Cells)
	}
	if resp.Cells[1].NetMonthlyChange <= resp.Cells[0].NetMonthlyChange {
		t.Errorf("higher TP should raise net change: %+v", resp.Cells)
	}
}

func TestExport(t *testing.T) {
	rec := do(newTestServer(), http.MethodPost, "/v1/export", sampleBody(t, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}

	tables, err := export.Read(rec.Body)
	if err != nil {
		t.Fatalf("export.Read: %v", err)
	}
	if len(tables.History) != 3 {
		t.Errorf("history rows = %d, want 3", len(tables.History))
	}
	if len(tables.Products) != 2 {
		t.Errorf("product rows = %d, want 2", len(tables.Products))
	}
}

func TestSweepRejectsOversizedGrid(t *testing.T) {
	rates := make([]float64, 1500)
	for i := range rates {
		rates[i] = float64(i) / 10
	}
	body := sampleBody(t, map[string]any{"tpRates": rates, "ltRates": rates})
	rec := do(newTestServer(), http.MethodPost, "/v1/sweep", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if rec.Body.Len() > 1024 {
		t.Errorf("body = %d bytes, want a short error", rec.Body.Len())
	}
}

func TestSweepBadConfiguredStepFallsBack(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := New(Config{RateStep: math.NaN()}, logger)

	rec := do(s, http.MethodPost, "/v1/sweep", sampleBody(t, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp sweepResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Cells) != 35 {
		t.Fatalf("cells = %d, want 35", len(resp.Cells))
	}
}

func TestExportFailureIsJSONError(t *testing.T) {
	ds := source.Sample()
	ds.Products[0].Name = strings.Repeat("x", 40000)
	data, err := json.Marshal(map[string]any{"dataset": ds})
	if err != nil {
		t.Fatal(err)
	}

	rec := do(newTestServer(), http.MethodPost, "/v1/export", bytes.NewReader(data))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var er errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&er); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(er.Error, "32767") {
		t.Errorf("error = %q", er.Error)
	}
}
