package main

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/flourprice/internal/pricing"
	"github.com/Simplici0/flourprice/internal/yieldtable"
)

const exampleJSON = `{
	"extraction_rate_pct": 75,
	"secondary_byproduct_share_pct": "10",
	"electricity_kwh_per_batch": 5,
	"electricity_price_per_kwh": "2,0",
	"wheat_price_per_kg": 8,
	"bran_price_per_kg": 3,
	"secondary_byproduct_price_per_kg": 4,
	"labor_cost_per_batch": 20,
	"bag_cost_per_batch": 15,
	"target_profit_per_batch": 30
}`

func newTestServer() *server {
	return &server{
		engine:        pricing.NewEngine(zap.NewNop()),
		lookupTimeout: time.Second,
		logger:        zap.NewNop(),
	}
}

func newTableServer() *server {
	source := yieldtable.FileSource{}
	return &server{
		engine: pricing.NewEngine(zap.NewNop(),
			pricing.WithSplitTable(yieldtable.Resolver{Source: source, Mode: yieldtable.ModeLinear}),
		),
		yieldSource:   source,
		lookupTimeout: time.Second,
		logger:        zap.NewNop(),
	}
}

func exampleForm() url.Values {
	form := url.Values{}
	form.Set("extraction_rate_pct", "75")
	form.Set("secondary_byproduct_share_pct", "10")
	form.Set("electricity_kwh_per_batch", "5")
	form.Set("electricity_price_per_kwh", "2")
	form.Set("wheat_price_per_kg", "8,00")
	form.Set("bran_price_per_kg", "3")
	form.Set("secondary_byproduct_price_per_kg", "4")
	form.Set("labor_cost_per_batch", "20")
	form.Set("bag_cost_per_batch", "15")
	form.Set("target_profit_per_batch", "30")
	return form
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandlePricing_JSON(t *testing.T) {
	h := newTestServer().routes()

	req := httptest.NewRequest(http.MethodPost, "/api/pricing", strings.NewReader(exampleJSON))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var got pricing.CostBreakdown
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if math.Abs(got.FinalPrice-1670.0/3) > 1e-9 {
		t.Fatalf("final price = %v, want %v", got.FinalPrice, 1670.0/3)
	}
	if math.Abs(got.BranKg-15) > 1e-9 || got.SplitSource != pricing.SplitSourceShare {
		t.Fatalf("unexpected breakdown: %+v", got)
	}
}

func TestHandlePricing_Form(t *testing.T) {
	rr := postForm(t, newTestServer().routes(), "/api/pricing", exampleForm())

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var got pricing.CostBreakdown
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if math.Abs(got.TotalCost-1580.0/3) > 1e-9 {
		t.Fatalf("total cost = %v, want %v", got.TotalCost, 1580.0/3)
	}
}

func TestHandlePricing_ValidationErrors(t *testing.T) {
	form := exampleForm()
	form.Set("extraction_rate_pct", "0")
	form.Set("bag_cost_per_batch", "abc")
	form.Del("labor_cost_per_batch")

	rr := postForm(t, newTestServer().routes(), "/api/pricing", form)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}

	var view errorView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	kinds := make(map[string]string)
	for _, f := range view.Fields {
		kinds[f.Field] = f.Kind
	}
	want := map[string]string{
		"extraction_rate_pct":  "degenerate_computation",
		"bag_cost_per_batch":   "invalid_input",
		"labor_cost_per_batch": "invalid_input",
	}
	for field, kind := range want {
		if kinds[field] != kind {
			t.Fatalf("field %s kind = %q, want %q (all: %+v)", field, kinds[field], kind, view.Fields)
		}
	}
}

func TestHandlePricing_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/pricing", strings.NewReader(`{"extraction_rate_pct":`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	newTestServer().routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandlePricingText_ReturnsPlainText(t *testing.T) {
	rr := postForm(t, newTestServer().routes(), "/pricing/text", exampleForm())

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text/plain content type, got %q", rr.Header().Get("Content-Type"))
	}

	body := rr.Body.String()
	for _, expected := range []string{
		"Buğday ihtiyacı: 66.67 kg",
		"Kepek: 15.00 kg",
		"Buğday: 533.33 ₺",
		"Kepek geliri: -45.00 ₺",
		"Toplam maliyet: 526.67 ₺",
		"Satış fiyatı: 556.67 ₺",
		"Ayrım: share",
	} {
		if !strings.Contains(body, expected) {
			t.Fatalf("expected body to contain %q, got: %s", expected, body)
		}
	}
}

func TestHandlePricingText_ValidationError(t *testing.T) {
	form := exampleForm()
	form.Set("secondary_byproduct_share_pct", "150")

	rr := postForm(t, newTestServer().routes(), "/pricing/text", form)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "- secondary_byproduct_share_pct: must be between 0 and 100") {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestHandlePricing_TableSplit(t *testing.T) {
	form := exampleForm()
	form.Set("extraction_rate_pct", "76")

	rr := postForm(t, newTableServer().routes(), "/api/pricing", form)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var got pricing.CostBreakdown
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.SplitSource != pricing.SplitSourceTable {
		t.Fatalf("split source = %q, want %q", got.SplitSource, pricing.SplitSourceTable)
	}
	wheat := 50 / 0.76
	if math.Abs(got.BranKg-wheat*0.18) > 1e-9 || math.Abs(got.SecondaryByproductKg-wheat*0.056) > 1e-9 {
		t.Fatalf("unexpected table split: %+v", got)
	}
}

func TestHandleYieldRates(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/yield-rates", nil)
	rr := httptest.NewRecorder()
	newTestServer().routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 under share policy, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	newTableServer().routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var table map[string]yieldtable.Entry
	if err := json.Unmarshal(rr.Body.Bytes(), &table); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if e, ok := table["76"]; !ok || e.BranPct != 18 {
		t.Fatalf("unexpected table: %+v", table)
	}
}

type failingSource struct{}

func (failingSource) Load(context.Context) (*yieldtable.Table, error) {
	return nil, yieldtable.ErrNoEntry
}

func TestHandleYieldRates_SourceFailure(t *testing.T) {
	srv := newTestServer()
	srv.yieldSource = failingSource{}

	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/yield-rates", nil))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rr.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestServer().routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response: %d %s", rr.Code, rr.Body.String())
	}
}
