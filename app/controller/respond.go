package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"sku-generator/catalog"
	"sku-generator/service"
	"sku-generator/shopify"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var validation *catalog.ValidationError
	var dup *service.DuplicateSuffixError
	var api *shopify.APIError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &dup):
		return http.StatusConflict
	case errors.Is(err, service.ErrTrackerDisabled):
		return http.StatusServiceUnavailable
	case shopify.IsQuota(err):
		return http.StatusTooManyRequests
	case errors.As(err, &api):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, action string, err error) {
	http.Error(w, fmt.Sprintf("Failed to %s: %v", action, err), statusFor(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeCSV(w http.ResponseWriter, file *service.CSVFile) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}

// progressStream writes progress lines to a chunked plain-text response,
// flushing after each line.
type progressStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func newProgressStream(w http.ResponseWriter) *progressStream {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	return &progressStream{w: w, flusher: flusher}
}

func (s *progressStream) Line(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.w, msg+"\n")
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// Finish writes the closing line of a run.
func (s *progressStream) Finish(err error) {
	if err != nil {
		s.Line("❌ Error: " + err.Error())
		return
	}
	s.Line("✅ Done")
}
