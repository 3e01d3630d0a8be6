package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrpay/internal/domain/payroll"
	"hrpay/internal/transport/http/api"
)

// DecodeJSON decodes a single JSON object into dst, answering 400 or 413
// itself on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, requestID string) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err == nil && dec.Decode(&struct{}{}) != io.EOF {
		err = errors.New("trailing data")
	}
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
		return false
	}
	api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
	return false
}

// PeriodParam reads the {period} URL parameter ("YYYY-MM").
func PeriodParam(r *http.Request) (payroll.Period, bool) {
	period, err := payroll.ParsePeriod(strings.TrimSpace(chi.URLParam(r, "period")))
	if err != nil || !period.Valid() {
		return payroll.Period{}, false
	}
	return period, true
}
