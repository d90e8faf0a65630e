package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"sku-generator/catalog"
	"sku-generator/logger"
	"sku-generator/service"
)

// UploadController handles store uploads. Responses stream progress lines
// as plain text while the upload runs.
type UploadController struct {
	publish service.PublishServiceInterface
	logger  *zap.Logger
}

// NewUploadController creates a new UploadController
func NewUploadController(publish service.PublishServiceInterface, log *zap.Logger) *UploadController {
	return &UploadController{publish: publish, logger: logger.OrNop(log)}
}

type batchUploadRequest struct {
	Folders []string `json:"folders"`
	service.PublishOptions
}

// UploadDesign handles POST /admin/uploads/{folder}
// Body: optional PublishOptions JSON
func (c *UploadController) UploadDesign(w http.ResponseWriter, r *http.Request) {
	var opts service.PublishOptions
	if err := decodeBody(r, &opts); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	folder := mux.Vars(r)["folder"]
	stream := newProgressStream(w)
	summary, err := c.publish.PublishDesign(r.Context(), folder, opts, stream.Line)
	for _, p := range summary.Products {
		stream.Line(fmt.Sprintf("🔗 %s: %s", p.HandleOrTitle, p.AdminURL))
	}
	stream.Finish(err)
}

// UploadBatch handles POST /admin/uploads
// Body: {"folders": [...], ...PublishOptions}; no folders means every ready folder
func (c *UploadController) UploadBatch(w http.ResponseWriter, r *http.Request) {
	var req batchUploadRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	stream := newProgressStream(w)
	summaries, err := c.publish.PublishBatch(r.Context(), req.Folders, req.PublishOptions, stream.Line)
	if data, jerr := json.Marshal(summaries); jerr == nil && len(summaries) > 0 {
		stream.Line(string(data))
	}
	stream.Finish(err)
}

// UploadCSV handles POST /admin/uploads/csv
// Body: a product CSV. Query: store, budget, skip (comma separated handles)
func (c *UploadController) UploadCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := catalog.ReadCSV(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid CSV: %v", err), http.StatusBadRequest)
		return
	}
	if len(rows) == 0 {
		http.Error(w, "CSV has no rows", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	opts := service.PublishOptions{Store: q.Get("store")}
	if raw := q.Get("budget"); raw != "" {
		budget, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "budget must be an integer", http.StatusBadRequest)
			return
		}
		opts.VariantBudget = budget
	}
	for _, h := range strings.Split(q.Get("skip"), ",") {
		if h = strings.TrimSpace(h); h != "" {
			opts.SkipHandles = append(opts.SkipHandles, h)
		}
	}

	c.logger.Info("📤 CSV upload", zap.Int("rows", len(rows)), zap.String("store", opts.Store))
	stream := newProgressStream(w)
	results, err := c.publish.PublishRows(r.Context(), rows, opts, stream.Line)
	for _, p := range results {
		stream.Line(fmt.Sprintf("🔗 %s: %s", p.HandleOrTitle, p.AdminURL))
	}
	stream.Finish(err)
}
