package controller

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"sku-generator/logger"
	"sku-generator/models"
	"sku-generator/service"
)

// CatalogController handles CSV generation requests
type CatalogController struct {
	publish service.PublishServiceInterface
	logger  *zap.Logger
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(publish service.PublishServiceInterface, log *zap.Logger) *CatalogController {
	return &CatalogController{publish: publish, logger: logger.OrNop(log)}
}

type batchRequest struct {
	Folders []string `json:"folders"`
}

type manualRequest struct {
	Metadata models.DesignMetadata `json:"metadata"`
	Excluded []string              `json:"excluded"`
	Lister   string                `json:"lister"`
}

// GetCSV handles GET /admin/catalog/{folder}.csv?guard=true&lister=NAME
func (c *CatalogController) GetCSV(w http.ResponseWriter, r *http.Request) {
	folder := mux.Vars(r)["folder"]
	guard, _ := strconv.ParseBool(r.URL.Query().Get("guard"))

	file, err := c.publish.BuildCSV(r.Context(), folder, guard, r.URL.Query().Get("lister"))
	if err != nil {
		c.logger.Warn("⚠️ CSV build failed", zap.String("folder", folder), zap.Error(err))
		writeError(w, "build CSV", err)
		return
	}
	writeCSV(w, file)
}

// BuildBatch handles POST /admin/catalog/batch
// An empty folder list builds every ready folder
func (c *CatalogController) BuildBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	batch, err := c.publish.BuildBatch(r.Context(), req.Folders)
	if err != nil {
		if batch != nil {
			writeJSON(w, http.StatusUnprocessableEntity, batch)
			return
		}
		writeError(w, "build batch", err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

// BuildManual handles POST /admin/catalog/manual
func (c *CatalogController) BuildManual(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	file, err := c.publish.BuildManualCSV(r.Context(), req.Metadata, req.Excluded, req.Lister)
	if err != nil {
		writeError(w, "build CSV", err)
		return
	}
	writeCSV(w, file)
}
