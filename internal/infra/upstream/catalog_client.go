package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ecorder/internal/domain/model"
	"ecorder/internal/usecase"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const productService = "product service"

type CatalogClient struct {
	http *resty.Client
}

func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{http: newRestClient(baseURL, timeout)}
}

type productResponse struct {
	Data struct {
		ID    string `json:"_id"`
		Title string `json:"title"`
		Price struct {
			Amount   decimal.Decimal `json:"amount"`
			Currency string          `json:"currency"`
		} `json:"price"`
		Stock int64 `json:"stock"`
	} `json:"data"`
}

func (c *CatalogClient) GetProduct(ctx context.Context, token string, productID string) (usecase.Product, error) {
	var out productResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("id", productID).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/api/products/{id}")
	if err := checkResponse(productService, resp, err); err != nil {
		return usecase.Product{}, err
	}

	//空の data は商品なし扱い
	if out.Data.ID == "" {
		return usecase.Product{}, &StatusError{Service: productService, Status: http.StatusNotFound, Message: fmt.Sprintf("Product not found: %s", productID)}
	}

	//通貨なしはINR
	currency, ok := model.CurrencyINR, true
	if strings.TrimSpace(out.Data.Price.Currency) != "" {
		currency, ok = model.ParseCurrency(out.Data.Price.Currency)
	}
	if !ok {
		return usecase.Product{}, fmt.Errorf("product %s: unsupported currency %q", productID, out.Data.Price.Currency)
	}

	//価格・在庫は0以上
	if out.Data.Price.Amount.IsNegative() || out.Data.Stock < 0 {
		return usecase.Product{}, fmt.Errorf("product %s: negative price or stock (price=%s stock=%d)",
			productID, out.Data.Price.Amount, out.Data.Stock)
	}

	return usecase.Product{
		ID:        out.Data.ID,
		Title:     out.Data.Title,
		UnitPrice: model.Money{Amount: out.Data.Price.Amount, Currency: currency},
		Stock:     out.Data.Stock,
	}, nil
}
