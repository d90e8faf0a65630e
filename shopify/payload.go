package shopify

// Request and response bodies of the Admin REST endpoints in use.

type productEnvelope struct {
	Product productPayload `json:"product"`
}

type productPayload struct {
	Title           string           `json:"title"`
	Handle          string           `json:"handle,omitempty"`
	BodyHTML        string           `json:"body_html"`
	Vendor          string           `json:"vendor"`
	ProductType     string           `json:"product_type"`
	Tags            string           `json:"tags"`
	Options         []optionPayload  `json:"options"`
	Variants        []variantPayload `json:"variants"`
	Images          []imagePayload   `json:"images,omitempty"`
	MetaTitle       string           `json:"metafields_global_title_tag"`
	MetaDescription string           `json:"metafields_global_description_tag"`
}

type optionPayload struct {
	Name string `json:"name"`
}

type variantPayload struct {
	Option1             string `json:"option1"`
	Option2             string `json:"option2"`
	Price               string `json:"price"`
	SKU                 string `json:"sku"`
	InventoryQuantity   int    `json:"inventory_quantity"`
	InventoryManagement string `json:"inventory_management,omitempty"`
	InventoryPolicy     string `json:"inventory_policy,omitempty"`
	FulfillmentService  string `json:"fulfillment_service,omitempty"`
	Grams               int    `json:"grams"`
	RequiresShipping    bool   `json:"requires_shipping"`
	Taxable             bool   `json:"taxable"`
}

type imageEnvelope struct {
	Image imagePayload `json:"image"`
}

type imagePayload struct {
	Src        string `json:"src,omitempty"`
	Attachment string `json:"attachment,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Position   int    `json:"position,omitempty"`
	Alt        string `json:"alt,omitempty"`
}

type variantLinkEnvelope struct {
	Variant variantLink `json:"variant"`
}

type variantLink struct {
	ID      int64 `json:"id"`
	ImageID int64 `json:"image_id"`
}

type createdProductResponse struct {
	Product createdProduct `json:"product"`
}

type createdProduct struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Handle   string           `json:"handle"`
	Variants []createdVariant `json:"variants"`
	Images   []createdImage   `json:"images"`
}

type createdVariant struct {
	ID      int64  `json:"id"`
	Option1 string `json:"option1"`
	Option2 string `json:"option2"`
}

type createdImageResponse struct {
	Image createdImage `json:"image"`
}

type createdImage struct {
	ID       int64  `json:"id"`
	Src      string `json:"src"`
	Position int    `json:"position"`
}
