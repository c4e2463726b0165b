// Package inventorytest provides an in-process fake of the inventory backend
// for tests.
package inventorytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/five82/tally/internal/inventory"
)

// Backend is a gin-powered fake of the inventory REST API. Responses for
// /api/sales pages can be scripted with SetSalesPage or FailSales; otherwise
// recorded sales are paginated in insertion order.
type Backend struct {
	mu         sync.Mutex
	products   []inventory.Product
	sales      []json.RawMessage
	pages      map[int]json.RawMessage
	salesFail  int
	salesCalls []PageCall
	recorded   []RecordedSale

	server *httptest.Server
}

// PageCall captures the query of one GET /api/sales request.
type PageCall struct {
	Page  int
	Limit int
}

// RecordedSale captures one POST /api/sales request.
type RecordedSale struct {
	Input          inventory.SaleInput
	IdempotencyKey string
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &Backend{pages: make(map[int]json.RawMessage)}
	b.server = httptest.NewServer(b.router())
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the API root (including the /api prefix).
func (b *Backend) URL() string {
	return b.server.URL + "/api"
}

// AddProduct seeds a product and returns it with a generated id when empty.
func (b *Backend) AddProduct(p inventory.Product) inventory.Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	b.products = append(b.products, p)
	return p
}

// Products returns a copy of the stored products.
func (b *Backend) Products() []inventory.Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]inventory.Product(nil), b.products...)
}

// AddSaleJSON seeds a raw sale object, allowing malformed entries.
func (b *Backend) AddSaleJSON(raw string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sales = append(b.sales, json.RawMessage(raw))
}

// SetSalesPage pins the body returned for a given page number.
func (b *Backend) SetSalesPage(page int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages[page] = json.RawMessage(body)
}

// FailSales makes the next n sales page requests answer 500.
func (b *Backend) FailSales(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.salesFail = n
}

// SalesCalls returns the sales page requests seen so far.
func (b *Backend) SalesCalls() []PageCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]PageCall(nil), b.salesCalls...)
}

// RecordedSales returns the sales posted so far.
func (b *Backend) RecordedSales() []RecordedSale {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedSale(nil), b.recorded...)
}

func (b *Backend) router() *gin.Engine {
	r := gin.New()
	api := r.Group("/api")
	api.GET("/inventory", b.listProducts)
	api.POST("/inventory", b.createProduct)
	api.GET("/inventory/:id", b.getProduct)
	api.PUT("/inventory/:id", b.updateStock)
	api.DELETE("/inventory/:id", b.deleteProduct)
	api.GET("/sales", b.listSales)
	api.POST("/sales", b.recordSale)
	return r
}

func (b *Backend) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, b.Products())
}

func (b *Backend) getProduct(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx := b.indexOf(c.Param("id")); idx >= 0 {
		c.JSON(http.StatusOK, b.products[idx])
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
}

func (b *Backend) createProduct(c *gin.Context) {
	var req inventory.NewProduct
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	p := b.AddProduct(inventory.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	})
	c.JSON(http.StatusCreated, p)
}

func (b *Backend) updateStock(c *gin.Context) {
	var req struct {
		Stock *int `json:"stock"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Stock == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stock is required"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.indexOf(c.Param("id"))
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	b.products[idx].Stock = *req.Stock
	c.JSON(http.StatusOK, b.products[idx])
}

func (b *Backend) deleteProduct(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.indexOf(c.Param("id"))
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	b.products = append(b.products[:idx], b.products[idx+1:]...)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (b *Backend) listSales(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	b.mu.Lock()
	defer b.mu.Unlock()
	b.salesCalls = append(b.salesCalls, PageCall{Page: page, Limit: limit})

	if b.salesFail > 0 {
		b.salesFail--
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sales unavailable"})
		return
	}
	if body, ok := b.pages[page]; ok {
		c.Data(http.StatusOK, "application/json", body)
		return
	}
	if page < 1 || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	start := (page - 1) * limit
	out := []json.RawMessage{}
	for i := start; i < len(b.sales) && i < start+limit; i++ {
		out = append(out, b.sales[i])
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) recordSale(c *gin.Context) {
	var req inventory.SaleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if req.Quantity <= 0 || !req.SellingPrice.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity and sellingPrice must be positive"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.recorded = append(b.recorded, RecordedSale{Input: req, IdempotencyKey: c.GetHeader("Idempotency-Key")})

	var product *inventory.ProductSummary
	if idx := b.indexOf(req.ProductID); idx >= 0 {
		p := b.products[idx]
		price := p.Price
		product = &inventory.ProductSummary{ID: p.ID, Name: p.Name, Price: &price}
	}
	record := inventory.SaleRecord{
		ID:           uuid.NewString(),
		Product:      product,
		Quantity:     req.Quantity,
		SellingPrice: req.SellingPrice,
		SaleDate:     req.SaleDate,
	}
	raw, err := json.Marshal(record)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	b.sales = append(b.sales, raw)
	c.Data(http.StatusCreated, "application/json", raw)
}

func (b *Backend) indexOf(id string) int {
	for i, p := range b.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Sale builds a quantity-one sale record JSON object for seeding. An empty
// productName yields a sale whose productId is null.
func Sale(id, productName string, price float64, when time.Time) string {
	record := map[string]any{
		"_id":          id,
		"quantity":     1,
		"sellingPrice": decimal.NewFromFloat(price),
		"saleDate":     when.UTC().Format(time.RFC3339),
	}
	if productName != "" {
		record["productId"] = map[string]any{
			"_id":   "p-" + id,
			"name":  productName,
			"price": decimal.NewFromFloat(price),
		}
	} else {
		record["productId"] = nil
	}
	raw, _ := json.Marshal(record)
	return string(raw)
}
