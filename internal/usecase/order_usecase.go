package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ecorder/internal/domain/model"
	repo "ecorder/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// 一覧のページング
const (
	DefaultPage  = 1
	DefaultLimit = 10
	maxLimit     = 100
	MaxPage      = 100000
)

// 補償処理の上限時間。リクエストが切れていても走らせる。
const compensationTimeout = 10 * time.Second

type OrderSettings struct {
	// 商品取得の同時実行数（0以下は無制限）
	FanoutLimit int
	Currency    CurrencyPolicy
}

type OrderUsecase struct {
	orders    repo.OrderRepository
	cart      CartReader
	catalog   CatalogReader
	addresses AddressValidator
	publisher EventPublisher
	ids       IDGenerator
	clock     Clock
	settings  OrderSettings
	logger    *slog.Logger

	// nilならサガ無効（カートは消さない）
	cartWriter CartWriter
}

func NewOrderUsecase(
	orders repo.OrderRepository,
	cart CartReader,
	catalog CatalogReader,
	addresses AddressValidator,
	publisher EventPublisher,
	ids IDGenerator,
	clock Clock,
	settings OrderSettings,
	logger *slog.Logger,
) *OrderUsecase {
	if settings.Currency.Settlement == "" {
		settings.Currency = DefaultCurrencyPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderUsecase{
		orders:    orders,
		cart:      cart,
		catalog:   catalog,
		addresses: addresses,
		publisher: publisher,
		ids:       ids,
		clock:     clock,
		settings:  settings,
		logger:    logger,
	}
}

// WithCheckoutSaga は注文保存後にカートを空にするサガを有効にする。
func (u *OrderUsecase) WithCheckoutSaga(w CartWriter) *OrderUsecase {
	u.cartWriter = w
	return u
}

type CreateOrderInput struct {
	// 上流サービスへそのまま渡す
	Token           string
	ShippingAddress AddressInput
}

type ListOrdersMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type ListOrdersOutput struct {
	Orders []model.Order  `json:"orders"`
	Meta   ListOrdersMeta `json:"meta"`
}

func (u *OrderUsecase) CreateOrder(ctx context.Context, who model.Identity, in CreateOrderInput) (model.Order, error) {
	if who.ID == "" || strings.TrimSpace(in.Token) == "" {
		return model.Order{}, errUnauthorized()
	}

	addr, err := u.addresses.ValidateShippingAddress(in.ShippingAddress)
	if err != nil {
		return model.Order{}, errValidation(err.Error())
	}

	//カート取得
	lines, err := u.cart.GetCart(ctx, in.Token)
	if err != nil {
		return model.Order{}, fromUpstream(err, "Failed to fetch cart")
	}
	if len(lines) == 0 {
		return model.Order{}, newError(KindEmptyCart, http.StatusBadRequest, "Cart is empty or invalid")
	}
	for _, l := range lines {
		if strings.TrimSpace(l.ProductID) == "" || l.Quantity < 1 {
			return model.Order{}, errValidation("Cart is empty or invalid")
		}
	}

	//商品は並列で取得、1件でも失敗したら全体を失敗にする
	products, err := u.resolveProducts(ctx, in.Token, lines)
	if err != nil {
		return model.Order{}, err
	}

	items := make([]model.OrderItem, 0, len(lines))
	total := decimal.Zero
	for i, l := range lines {
		p := products[i]
		if p.ID != l.ProductID {
			return model.Order{}, newError(KindNotFound, http.StatusNotFound,
				fmt.Sprintf("Product %s not found", l.ProductID))
		}

		//在庫チェック（減算はしない）
		if p.Stock < l.Quantity {
			return model.Order{}, newError(KindInsufficientStock, http.StatusConflict,
				fmt.Sprintf("Product %s is out of stock or insufficient", l.ProductID))
		}

		lineTotal := p.UnitPrice.Amount.Mul(decimal.NewFromInt(l.Quantity))
		items = append(items, model.OrderItem{
			Position:      i,
			ProductID:     l.ProductID,
			TitleSnapshot: p.Title,
			Quantity:      l.Quantity,
			UnitPrice:     p.UnitPrice,
			LineTotal:     model.Money{Amount: lineTotal, Currency: p.UnitPrice.Currency},
		})
		total = total.Add(lineTotal)
	}

	currency, err := u.settings.Currency.Settle(items)
	if err != nil {
		return model.Order{}, err
	}

	now := u.clock.Now()
	order := model.Order{
		ID:              u.ids.NewID(),
		UserID:          who.ID,
		Items:           items,
		TotalPrice:      model.Money{Amount: total, Currency: currency},
		Status:          model.OrderStatusPending,
		ShippingAddress: addr,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	if err := u.orders.Create(ctx, &order); err != nil {
		return model.Order{}, errInternal(err)
	}

	if u.cartWriter != nil {
		if err := u.checkoutSaga(ctx, in.Token, &order); err != nil {
			return model.Order{}, err
		}
	}

	//保存済みの注文は通知の失敗で巻き戻さない
	u.publish(ctx, model.EventOrderCreated, order)

	return order, nil
}

func (u *OrderUsecase) resolveProducts(ctx context.Context, token string, lines []CartLine) ([]Product, error) {
	products := make([]Product, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	if u.settings.FanoutLimit > 0 {
		g.SetLimit(u.settings.FanoutLimit)
	}

	for i := range lines {
		i := i
		g.Go(func() error {
			id := lines[i].ProductID
			p, err := u.catalog.GetProduct(gctx, token, id)
			if err != nil {
				return fromUpstream(err, "Failed to fetch product data")
			}
			products[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return products, nil
}

// カートから注文済みの行を消す。途中で失敗したら消した行を戻して注文を取り消す。
func (u *OrderUsecase) checkoutSaga(ctx context.Context, token string, order *model.Order) error {
	removed := make([]model.OrderItem, 0, len(order.Items))

	for _, it := range order.Items {
		if err := u.cartWriter.RemoveLine(ctx, token, it.ProductID); err != nil {
			u.logger.WarnContext(ctx, "checkout saga: clearing cart failed, compensating",
				"order_id", order.ID, "product_id", it.ProductID, "error", err)
			cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
			u.compensateCheckout(cctx, token, order, removed)
			cancel()
			return fromUpstream(err, "Failed to clear cart")
		}
		removed = append(removed, it)
	}
	return nil
}

func (u *OrderUsecase) compensateCheckout(ctx context.Context, token string, order *model.Order, removed []model.OrderItem) {
	for _, it := range removed {
		if err := u.cartWriter.AddLine(ctx, token, it.ProductID, it.Quantity); err != nil {
			u.logger.ErrorContext(ctx, "checkout saga: restoring cart line failed",
				"order_id", order.ID, "product_id", it.ProductID, "error", err)
		}
	}

	now := u.clock.Now()
	if err := u.orders.UpdateStatus(ctx, order.ID, model.OrderStatusPending, model.OrderStatusCancelled, now); err != nil {
		u.logger.ErrorContext(ctx, "checkout saga: cancelling order failed", "order_id", order.ID, "error", err)
		return
	}
	_ = order.TransitionTo(model.OrderStatusCancelled, now)
	u.publish(ctx, model.EventOrderCancelled, *order)
}

func (u *OrderUsecase) GetOrder(ctx context.Context, who model.Identity, orderID string) (model.Order, error) {
	if who.ID == "" {
		return model.Order{}, errUnauthorized()
	}
	return u.findOwned(ctx, who.ID, orderID)
}

func (u *OrderUsecase) ListOrders(ctx context.Context, who model.Identity, page int, limit int) (ListOrdersOutput, error) {
	if who.ID == "" {
		return ListOrdersOutput{}, errUnauthorized()
	}
	if page < 1 || page > MaxPage {
		return ListOrdersOutput{}, errValidation(fmt.Sprintf("page must be between 1 and %d", MaxPage))
	}
	if limit < 1 || limit > maxLimit {
		return ListOrdersOutput{}, errValidation(fmt.Sprintf("limit must be between 1 and %d", maxLimit))
	}

	orders, total, err := u.orders.ListByUserID(ctx, who.ID, page, limit)
	if err != nil {
		return ListOrdersOutput{}, errInternal(err)
	}
	if orders == nil {
		orders = []model.Order{}
	}

	return ListOrdersOutput{
		Orders: orders,
		Meta:   ListOrdersMeta{Total: total, Page: page, Limit: limit},
	}, nil
}

func (u *OrderUsecase) CancelOrder(ctx context.Context, who model.Identity, orderID string) (model.Order, error) {
	if who.ID == "" {
		return model.Order{}, errUnauthorized()
	}

	o, err := u.findOwned(ctx, who.ID, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if !o.IsPending() {
		return model.Order{}, newError(KindInvalidState, http.StatusConflict, "Order cannot be cancelled at this stage")
	}

	now := u.clock.Now()
	if err := u.orders.UpdateStatus(ctx, o.ID, model.OrderStatusPending, model.OrderStatusCancelled, now); err != nil {
		return model.Order{}, u.mapUpdateError(err, "Order cannot be cancelled at this stage")
	}
	_ = o.TransitionTo(model.OrderStatusCancelled, now)

	u.publish(ctx, model.EventOrderCancelled, o)
	return o, nil
}

func (u *OrderUsecase) UpdateShippingAddress(ctx context.Context, who model.Identity, orderID string, in AddressInput) (model.Order, error) {
	if who.ID == "" {
		return model.Order{}, errUnauthorized()
	}

	addr, err := u.addresses.ValidateShippingAddress(in)
	if err != nil {
		return model.Order{}, errValidation(err.Error())
	}

	o, err := u.findOwned(ctx, who.ID, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if !o.IsPending() {
		return model.Order{}, newError(KindInvalidState, http.StatusConflict, "Order address cannot be updated at this stage")
	}

	now := u.clock.Now()
	if err := u.orders.UpdateShippingAddress(ctx, o.ID, model.OrderStatusPending, addr, now); err != nil {
		return model.Order{}, u.mapUpdateError(err, "Order address cannot be updated at this stage")
	}
	o.ShippingAddress = addr
	o.UpdatedAt = now
	return o, nil
}

// MarkCompleted は決済完了イベントで PENDING -> COMPLETED にする。
func (u *OrderUsecase) MarkCompleted(ctx context.Context, orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return errValidation("orderId required")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return newError(KindNotFound, http.StatusNotFound, "Order not found")
	}
	if err != nil {
		return errInternal(err)
	}
	if !o.IsPending() {
		return newError(KindInvalidState, http.StatusConflict, fmt.Sprintf("Order is %s, cannot complete", o.Status))
	}

	if err := u.orders.UpdateStatus(ctx, o.ID, model.OrderStatusPending, model.OrderStatusCompleted, u.clock.Now()); err != nil {
		return u.mapUpdateError(err, "Order cannot be completed at this stage")
	}
	return nil
}

func (u *OrderUsecase) findOwned(ctx context.Context, userID string, orderID string) (model.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return model.Order{}, errValidation("invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, newError(KindNotFound, http.StatusNotFound, "Order not found")
	}
	if err != nil {
		return model.Order{}, errInternal(err)
	}
	//所有チェック（他人の注文なら403）
	if o.UserID != userID {
		return model.Order{}, newError(KindForbidden, http.StatusForbidden, "Forbidden: You do not have access to this order")
	}
	return o, nil
}

// 条件付き更新の失敗を分類する
func (u *OrderUsecase) mapUpdateError(err error, conflictMsg string) error {
	switch {
	case errors.Is(err, repo.ErrStatusConflict):
		return newError(KindInvalidState, http.StatusConflict, conflictMsg)
	case errors.Is(err, repo.ErrNotFound):
		return newError(KindNotFound, http.StatusNotFound, "Order not found")
	default:
		return errInternal(err)
	}
}

func (u *OrderUsecase) publish(ctx context.Context, eventType model.EventType, order model.Order) {
	if u.publisher == nil {
		return
	}
	if err := u.publisher.Publish(ctx, eventType, order.ID, order); err != nil {
		u.logger.WarnContext(ctx, "event publish failed", "event", eventType, "order_id", order.ID, "error", err)
	}
}
