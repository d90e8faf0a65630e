package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	"sku-generator/service"
)

// ShopifyController handles store connectivity and suffix lookups
type ShopifyController struct {
	publish service.PublishServiceInterface
}

// NewShopifyController creates a new ShopifyController
func NewShopifyController(publish service.PublishServiceInterface) *ShopifyController {
	return &ShopifyController{publish: publish}
}

// CheckConnection handles GET /admin/shopify/check?store=LABEL
func (c *ShopifyController) CheckConnection(w http.ResponseWriter, r *http.Request) {
	status, err := c.publish.CheckConnection(r.Context(), r.URL.Query().Get("store"))
	if err != nil {
		writeError(w, "reach Shopify", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// GetSuffix handles GET /admin/sku-suffixes/{suffix}
func (c *ShopifyController) GetSuffix(w http.ResponseWriter, r *http.Request) {
	rec, err := c.publish.LookupSuffix(r.Context(), mux.Vars(r)["suffix"])
	if err != nil {
		writeError(w, "look up suffix", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
