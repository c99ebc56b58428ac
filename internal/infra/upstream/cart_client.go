package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ecorder/internal/usecase"

	"github.com/go-resty/resty/v2"
)

const cartService = "cart service"

type CartClient struct {
	http *resty.Client
}

func NewCartClient(baseURL string, timeout time.Duration) *CartClient {
	return &CartClient{http: newRestClient(baseURL, timeout)}
}

// productId は文字列か {_id: ...} のどちらかで来る
type productRef string

func (r *productRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*r = productRef(obj.ID)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("productId: %w", err)
	}
	*r = productRef(s)
	return nil
}

type cartResponse struct {
	Cart struct {
		Items []struct {
			ProductID productRef `json:"productId"`
			Quantity  int64      `json:"quantity"`
		} `json:"items"`
	} `json:"cart"`
}

func (c *CartClient) GetCart(ctx context.Context, token string) ([]usecase.CartLine, error) {
	var out cartResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/api/cart")
	if err := checkResponse(cartService, resp, err); err != nil {
		return nil, err
	}

	lines := make([]usecase.CartLine, 0, len(out.Cart.Items))
	for _, it := range out.Cart.Items {
		lines = append(lines, usecase.CartLine{ProductID: string(it.ProductID), Quantity: it.Quantity})
	}
	return lines, nil
}

// qty 0 でカートから行を消す
func (c *CartClient) RemoveLine(ctx context.Context, token string, productID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("productId", productID).
		SetBody(map[string]any{"qty": 0}).
		SetError(&errorBody{}).
		Patch("/api/cart/items/{productId}")
	return checkResponse(cartService, resp, err)
}

func (c *CartClient) AddLine(ctx context.Context, token string, productID string, qty int64) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]any{"productId": productID, "qty": qty}).
		SetError(&errorBody{}).
		Post("/api/cart/items")
	return checkResponse(cartService, resp, err)
}
