package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"sku-generator/app/controller"
	"sku-generator/logger"
)

type Controllers struct {
	Design  *controller.DesignController
	Catalog *controller.CatalogController
	Upload  *controller.UploadController
	Shopify *controller.ShopifyController
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// logRequests logs every request except /ping.
func logRequests(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/ping" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("elapsed", time.Since(start)))
		})
	}
}

// SetupRoutes builds the admin router.
func SetupRoutes(controllers *Controllers, log *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests(logger.OrNop(log)))

	// Ping endpoint
	r.HandleFunc("/ping", pingHandler).Methods(http.MethodGet)

	// Design folders
	r.HandleFunc("/admin/designs", controllers.Design.ListFolders).Methods(http.MethodGet)
	r.HandleFunc("/admin/designs/{folder}/metadata", controllers.Design.GetMetadata).Methods(http.MethodGet)
	r.HandleFunc("/admin/designs/{folder}/artwork", controllers.Design.GetArtwork).Methods(http.MethodGet)
	r.HandleFunc("/admin/designs/{folder}/review", controllers.Design.GetReview).Methods(http.MethodGet)
	r.HandleFunc("/admin/designs/{folder}/review.pdf", controllers.Design.GetReviewPDF).Methods(http.MethodGet)
	r.HandleFunc("/admin/designs/{folder}/finish", controllers.Design.Finish).Methods(http.MethodPost)
	r.HandleFunc("/admin/designs/{folder}/archive", controllers.Design.Archive).Methods(http.MethodPost)

	// CSV generation
	r.HandleFunc("/admin/catalog/batch", controllers.Catalog.BuildBatch).Methods(http.MethodPost)
	r.HandleFunc("/admin/catalog/manual", controllers.Catalog.BuildManual).Methods(http.MethodPost)
	r.HandleFunc("/admin/catalog/{folder}.csv", controllers.Catalog.GetCSV).Methods(http.MethodGet)

	// Uploads (csv must be registered before the {folder} route)
	r.HandleFunc("/admin/uploads", controllers.Upload.UploadBatch).Methods(http.MethodPost)
	r.HandleFunc("/admin/uploads/csv", controllers.Upload.UploadCSV).Methods(http.MethodPost)
	r.HandleFunc("/admin/uploads/{folder}", controllers.Upload.UploadDesign).Methods(http.MethodPost)

	// Store
	r.HandleFunc("/admin/shopify/check", controllers.Shopify.CheckConnection).Methods(http.MethodGet)
	r.HandleFunc("/admin/sku-suffixes/{suffix}", controllers.Shopify.GetSuffix).Methods(http.MethodGet)

	return r
}
