package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Simplici0/flourprice/internal/pricing"
)

const maxBodyBytes = 1 << 16

type fieldErrorView struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorView struct {
	Error  string           `json:"error"`
	Fields []fieldErrorView `json:"fields,omitempty"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handlePricing(w http.ResponseWriter, r *http.Request) {
	breakdown, err := s.computeFromRequest(w, r)
	if err != nil {
		status, view := s.errorResponse(r.Context(), err)
		writeJSON(w, status, view)
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}

func (s *server) handlePricingText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	breakdown, err := s.computeFromRequest(w, r)
	if err != nil {
		status, view := s.errorResponse(r.Context(), err)
		w.WriteHeader(status)
		fmt.Fprintln(w, view.Error)
		for _, f := range view.Fields {
			fmt.Fprintf(w, "- %s: %s\n", f.Field, f.Message)
		}
		return
	}

	writeBreakdownText(w, breakdown)
}

func (s *server) handleYieldRates(w http.ResponseWriter, r *http.Request) {
	if s.yieldSource == nil {
		writeJSON(w, http.StatusNotFound, errorView{Error: "yield table is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.lookupTimeout)
	defer cancel()

	table, err := s.yieldSource.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to load yield table", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorView{Error: "failed to load yield table"})
		return
	}

	writeJSON(w, http.StatusOK, table)
}

var errMalformedBody = errors.New("malformed request body")

func (s *server) computeFromRequest(w http.ResponseWriter, r *http.Request) (pricing.CostBreakdown, error) {
	fields, err := parsePricingFields(w, r)
	if err != nil {
		return pricing.CostBreakdown{}, err
	}

	inputs, err := pricing.ParseInputs(fields)
	if err != nil {
		return pricing.CostBreakdown{}, err
	}

	return s.engine.ComputePricing(r.Context(), inputs)
}

// parsePricingFields reads a flat JSON object or form-encoded fields.
func parsePricingFields(w http.ResponseWriter, r *http.Request) (pricing.Fields, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()

		var fields pricing.Fields
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		return fields, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	fields := make(pricing.Fields, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			fields[key] = strings.TrimSpace(values[0])
		}
	}
	return fields, nil
}

func (s *server) errorResponse(ctx context.Context, err error) (int, errorView) {
	var ve *pricing.ValidationError
	switch {
	case errors.As(err, &ve):
		view := errorView{Error: "validation failed"}
		for _, f := range ve.Fields {
			view.Fields = append(view.Fields, fieldErrorView{
				Field:   f.Field,
				Kind:    errorKind(f.Kind),
				Message: f.Message,
			})
		}
		return http.StatusUnprocessableEntity, view

	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, errorView{Error: err.Error()}

	case ctx.Err() != nil:
		return http.StatusServiceUnavailable, errorView{Error: "request cancelled"}

	default:
		s.logger.Error("pricing failed", zap.Error(err))
		return http.StatusInternalServerError, errorView{Error: "pricing failed"}
	}
}

func errorKind(kind error) string {
	if errors.Is(kind, pricing.ErrDegenerateComputation) {
		return "degenerate_computation"
	}
	return "invalid_input"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBreakdownText(w http.ResponseWriter, b pricing.CostBreakdown) {
	kg := func(v float64) string { return decimal.NewFromFloat(v).StringFixed(2) + " kg" }
	tl := func(v float64) string { return decimal.NewFromFloat(v).StringFixed(2) + " ₺" }

	lines := []struct{ label, value string }{
		{"Buğday ihtiyacı", kg(b.WheatRequiredKg)},
		{"Kepek", kg(b.BranKg)},
		{"Bonkalit", kg(b.SecondaryByproductKg)},
		{"", ""},
		{"Elektrik", tl(b.ElectricityCost)},
		{"Su", tl(b.WaterCost)},
		{"Buğday", tl(b.WheatCost)},
		{"İşçilik", tl(b.LaborCost)},
		{"Çuval", tl(b.BagCost)},
		{"İdari gider", tl(b.AdministrativeCostPerBatch)},
		{"Kepek geliri", tl(-b.BranRevenue)},
		{"Bonkalit geliri", tl(-b.SecondaryByproductRevenue)},
		{"", ""},
		{"Toplam maliyet", tl(b.TotalCost)},
		{"Hedef kâr", tl(b.TargetProfit)},
		{"Satış fiyatı", tl(b.FinalPrice)},
		{"Ayrım", b.SplitSource},
	}

	for _, l := range lines {
		if l.label == "" {
			fmt.Fprintln(w)
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", l.label, l.value)
	}
}
