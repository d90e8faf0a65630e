package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"sku-generator/logger"
	"sku-generator/models"
	"sku-generator/utils"
)

const (
	currencySymbol = "£"
	pdfTimeout     = 45 * time.Second
)

//go:embed templates/review.html
var templateFS embed.FS

var reviewTemplate = template.Must(template.ParseFS(templateFS, "templates/review.html"))

// ReviewServiceInterface defines the review sheet operations.
type ReviewServiceInterface interface {
	RenderReviewHTML(rows []models.VariantRow, meta models.DesignMetadata) (string, error)
	GenerateReviewPDF(ctx context.Context, folder string) ([]byte, error)
}

// ReviewService renders the pre-publish review sheet of a design.
type ReviewService struct {
	baseURL string
	logger  *zap.Logger
}

var _ ReviewServiceInterface = (*ReviewService)(nil)

// NewReviewService creates a ReviewService. baseURL is where this server is
// reachable by the headless browser.
func NewReviewService(baseURL string, log *zap.Logger) *ReviewService {
	return &ReviewService{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger.OrNop(log),
	}
}

type reviewSize struct {
	Size  string
	Price string
}

type reviewImage struct {
	Color string
	URL   string
}

type reviewCard struct {
	Type      string
	Handle    string
	Title     string
	SEOTitle  string
	Body      template.HTML
	MainColor string
	Colors    []string
	Sizes     []reviewSize
	Images    []reviewImage
}

type reviewPage struct {
	ProductName string
	Suffix      string
	Collection  string
	Tags        string
	Rows        int
	Cards       []reviewCard
}

// RenderReviewHTML renders one card per garment type, in row order.
func (s *ReviewService) RenderReviewHTML(rows []models.VariantRow, meta models.DesignMetadata) (string, error) {
	meta = meta.Normalize()
	data := reviewPage{
		ProductName: meta.ProductName,
		Suffix:      meta.SKUSuffix,
		Collection:  meta.Collection,
		Tags:        meta.TagsCSV(),
		Rows:        len(rows),
		Cards:       reviewCards(rows),
	}

	var buf bytes.Buffer
	if err := reviewTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func reviewCards(rows []models.VariantRow) []reviewCard {
	var cards []reviewCard
	index := make(map[string]int)
	seenColor := make(map[string]map[string]bool)
	seenSize := make(map[string]map[string]bool)

	for _, r := range rows {
		i, ok := index[r.BaseType]
		if !ok {
			i = len(cards)
			index[r.BaseType] = i
			seenColor[r.BaseType] = make(map[string]bool)
			seenSize[r.BaseType] = make(map[string]bool)
			cards = append(cards, reviewCard{
				Type:     r.Type,
				Handle:   r.Handle,
				Title:    r.Title,
				SEOTitle: r.SEOTitle,
				Body:     template.HTML(r.BodyHTML),
			})
		}
		card := &cards[i]

		if r.ImagePosition == 1 {
			card.MainColor = r.Color
		}
		if !seenSize[r.BaseType][r.Size] {
			seenSize[r.BaseType][r.Size] = true
			card.Sizes = append(card.Sizes, reviewSize{Size: r.Size, Price: utils.FormatPrice(r.Price, currencySymbol)})
		}
		if !seenColor[r.BaseType][r.Color] {
			seenColor[r.BaseType][r.Color] = true
			card.Colors = append(card.Colors, r.Color)
			if src := r.ImageSource(); src != "" {
				card.Images = append(card.Images, reviewImage{Color: r.Color, URL: src})
			}
		}
	}

	for i := range cards {
		if cards[i].MainColor == "" && len(cards[i].Colors) > 0 {
			cards[i].MainColor = cards[i].Colors[0]
		}
	}
	return cards
}

// detectChromePath checks CHROME_PATH first, then common installation paths.
func detectChromePath() string {
	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		if _, err := os.Stat(chromePath); err == nil {
			return chromePath
		}
	}

	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ReviewURL is the review page of folder on this server.
func (s *ReviewService) ReviewURL(folder string) string {
	return fmt.Sprintf("%s/admin/designs/%s/review", s.baseURL, url.PathEscape(folder))
}

// GenerateReviewPDF prints the review page of folder with headless Chrome.
func (s *ReviewService) GenerateReviewPDF(ctx context.Context, folder string) ([]byte, error) {
	if err := validateFolder(folder); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, pdfTimeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.NoSandbox)
	if chromePath := detectChromePath(); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	renderURL := s.ReviewURL(folder)
	s.logger.Info("🖨️ Rendering review PDF", zap.String("folder", folder), zap.String("url", renderURL))

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(renderURL),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(`
			Promise.all(Array.from(document.images).map(img => img.complete ? null :
				new Promise(resolve => {
					const t = setTimeout(resolve, 5000);
					img.onload = img.onerror = () => { clearTimeout(t); resolve(); };
				})))
		`, nil, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return pdf, nil
}
