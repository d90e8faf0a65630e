package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"sku-generator/logger"
	"sku-generator/service"
)

// DesignController handles HTTP requests for design folders
type DesignController struct {
	designs service.DesignServiceInterface
	review  service.ReviewServiceInterface
	logger  *zap.Logger
}

// NewDesignController creates a new DesignController
func NewDesignController(designs service.DesignServiceInterface, review service.ReviewServiceInterface, log *zap.Logger) *DesignController {
	return &DesignController{designs: designs, review: review, logger: logger.OrNop(log)}
}

// ListFolders handles GET /admin/designs
// Returns the ready folders and, for the others, what is missing
func (c *DesignController) ListFolders(w http.ResponseWriter, r *http.Request) {
	analysis, err := c.designs.AnalyzeFolders(r.Context())
	if err != nil {
		c.logger.Error("❌ Folder analysis failed", zap.Error(err))
		writeError(w, "analyze design folders", err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// GetMetadata handles GET /admin/designs/{folder}/metadata
func (c *DesignController) GetMetadata(w http.ResponseWriter, r *http.Request) {
	meta, err := c.designs.LoadMetadata(r.Context(), mux.Vars(r)["folder"])
	if err != nil {
		writeError(w, "load metadata", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// GetArtwork handles GET /admin/designs/{folder}/artwork?size=thumb|medium|info
func (c *DesignController) GetArtwork(w http.ResponseWriter, r *http.Request) {
	folder := mux.Vars(r)["folder"]
	size := r.URL.Query().Get("size")
	if size == "" {
		size = service.PreviewThumb
	}

	if size == "info" {
		info, err := c.designs.ArtworkInfo(r.Context(), folder)
		if err != nil {
			writeError(w, "read artwork", err)
			return
		}
		writeJSON(w, http.StatusOK, info)
		return
	}
	if size != service.PreviewThumb && size != service.PreviewMedium {
		http.Error(w, "size must be thumb, medium or info", http.StatusBadRequest)
		return
	}

	data, err := c.designs.ArtworkPreview(r.Context(), folder, size)
	if err != nil {
		writeError(w, "render artwork preview", err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GetReview handles GET /admin/designs/{folder}/review
func (c *DesignController) GetReview(w http.ResponseWriter, r *http.Request) {
	build, err := c.designs.BuildDesign(r.Context(), mux.Vars(r)["folder"])
	if err != nil {
		writeError(w, "build design", err)
		return
	}
	page, err := c.review.RenderReviewHTML(build.Rows, build.Metadata)
	if err != nil {
		writeError(w, "render review", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(page))
}

// GetReviewPDF handles GET /admin/designs/{folder}/review.pdf
func (c *DesignController) GetReviewPDF(w http.ResponseWriter, r *http.Request) {
	folder := mux.Vars(r)["folder"]
	pdf, err := c.review.GenerateReviewPDF(r.Context(), folder)
	if err != nil {
		c.logger.Error("❌ Review PDF failed", zap.String("folder", folder), zap.Error(err))
		writeError(w, "generate review PDF", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="review.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// Finish handles POST /admin/designs/{folder}/finish
func (c *DesignController) Finish(w http.ResponseWriter, r *http.Request) {
	dest, err := c.designs.MoveToFinished(r.Context(), mux.Vars(r)["folder"])
	if err != nil {
		writeError(w, "move to finished", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"destination": dest,
	})
}

// Archive handles POST /admin/designs/{folder}/archive
// Deletes the numbered mockups of a finished design and moves it to the completed root
func (c *DesignController) Archive(w http.ResponseWriter, r *http.Request) {
	deleted, dest, err := c.designs.CleanAndArchive(r.Context(), mux.Vars(r)["folder"])
	if err != nil {
		writeError(w, "archive design", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"deleted":     deleted,
		"destination": dest,
	})
}
