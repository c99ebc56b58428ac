package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecorder/internal/domain/model"
	repo "ecorder/internal/repository"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ordersCollection = "orders"

type moneyDoc struct {
	Amount   primitive.Decimal128 `bson:"amount"`
	Currency string               `bson:"currency"`
}

type itemDoc struct {
	Product   string   `bson:"product"`
	Title     string   `bson:"title"`
	Quantity  int64    `bson:"quantity"`
	UnitPrice moneyDoc `bson:"unitPrice"`
	Price     moneyDoc `bson:"price"`
}

type addressDoc struct {
	Street  string `bson:"street"`
	City    string `bson:"city"`
	State   string `bson:"state"`
	Zip     string `bson:"zip"`
	Country string `bson:"country"`
}

type orderDoc struct {
	ID              string     `bson:"_id"`
	User            string     `bson:"user"`
	Items           []itemDoc  `bson:"items"`
	TotalPrice      moneyDoc   `bson:"totalPrice"`
	Status          string     `bson:"status"`
	ShippingAddress addressDoc `bson:"shippingAddress"`
	CreatedAt       time.Time  `bson:"createdAt"`
	UpdatedAt       time.Time  `bson:"updatedAt"`
}

type OrderStore struct {
	coll *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{coll: db.Collection(ordersCollection)}
}

// EnsureIndexes は一覧用のインデックスを作る。
func (s *OrderStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create orders index: %w", err)
	}
	return nil
}

func (s *OrderStore) Create(ctx context.Context, order *model.Order) error {
	doc, err := toOrderDoc(*order)
	if err != nil {
		return err
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *OrderStore) FindByID(ctx context.Context, id string) (model.Order, error) {
	var doc orderDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("find order: %w", err)
	}
	return fromOrderDoc(doc)
}

func (s *OrderStore) ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error) {
	offset, err := repo.PageOffset(page, limit)
	if err != nil {
		return []model.Order{}, 0, err
	}

	filter := bson.M{"user": userID}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return []model.Order{}, 0, fmt.Errorf("count orders: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return []model.Order{}, 0, fmt.Errorf("find orders: %w", err)
	}
	defer cur.Close(ctx)

	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return []model.Order{}, 0, fmt.Errorf("decode orders: %w", err)
	}

	out := make([]model.Order, 0, len(docs))
	for _, d := range docs {
		o, err := fromOrderDoc(d)
		if err != nil {
			return []model.Order{}, 0, err
		}
		out = append(out, o)
	}
	return out, total, nil
}

func (s *OrderStore) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus, at time.Time) error {
	return s.updateIf(ctx, id, from, bson.M{
		"status":    string(to),
		"updatedAt": at,
	})
}

func (s *OrderStore) UpdateShippingAddress(ctx context.Context, id string, expect model.OrderStatus, addr model.ShippingAddress, at time.Time) error {
	return s.updateIf(ctx, id, expect, bson.M{
		"shippingAddress": toAddressDoc(addr),
		"updatedAt":       at,
	})
}

// status が一致するときだけ $set する
func (s *OrderStore) updateIf(ctx context.Context, id string, status model.OrderStatus, set bson.M) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(status)},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count order: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return repo.ErrStatusConflict
}

func toMoneyDoc(m model.Money) (moneyDoc, error) {
	d, err := primitive.ParseDecimal128(m.Amount.String())
	if err != nil {
		return moneyDoc{}, fmt.Errorf("amount %s: %w", m.Amount, err)
	}
	return moneyDoc{Amount: d, Currency: string(m.Currency)}, nil
}

func fromMoneyDoc(d moneyDoc) (model.Money, error) {
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return model.Money{}, fmt.Errorf("amount %s: %w", d.Amount, err)
	}
	return model.Money{Amount: amount, Currency: model.Currency(d.Currency)}, nil
}

func toAddressDoc(a model.ShippingAddress) addressDoc {
	return addressDoc{Street: a.Street, City: a.City, State: a.State, Zip: a.Zip, Country: a.Country}
}

func toOrderDoc(o model.Order) (orderDoc, error) {
	total, err := toMoneyDoc(o.TotalPrice)
	if err != nil {
		return orderDoc{}, err
	}

	items := make([]itemDoc, 0, len(o.Items))
	for _, it := range o.Items {
		unit, err := toMoneyDoc(it.UnitPrice)
		if err != nil {
			return orderDoc{}, err
		}
		line, err := toMoneyDoc(it.LineTotal)
		if err != nil {
			return orderDoc{}, err
		}
		items = append(items, itemDoc{
			Product:   it.ProductID,
			Title:     it.TitleSnapshot,
			Quantity:  it.Quantity,
			UnitPrice: unit,
			Price:     line,
		})
	}

	return orderDoc{
		ID:              o.ID,
		User:            o.UserID,
		Items:           items,
		TotalPrice:      total,
		Status:          string(o.Status),
		ShippingAddress: toAddressDoc(o.ShippingAddress),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}, nil
}

func fromOrderDoc(d orderDoc) (model.Order, error) {
	total, err := fromMoneyDoc(d.TotalPrice)
	if err != nil {
		return model.Order{}, err
	}

	//配列の並びがそのまま Position
	items := make([]model.OrderItem, 0, len(d.Items))
	for i, it := range d.Items {
		unit, err := fromMoneyDoc(it.UnitPrice)
		if err != nil {
			return model.Order{}, err
		}
		line, err := fromMoneyDoc(it.Price)
		if err != nil {
			return model.Order{}, err
		}
		items = append(items, model.OrderItem{
			OrderID:       d.ID,
			Position:      i,
			ProductID:     it.Product,
			TitleSnapshot: it.Title,
			Quantity:      it.Quantity,
			UnitPrice:     unit,
			LineTotal:     line,
		})
	}

	return model.Order{
		ID:         d.ID,
		UserID:     d.User,
		Items:      items,
		TotalPrice: total,
		Status:     model.OrderStatus(d.Status),
		ShippingAddress: model.ShippingAddress{
			Street:  d.ShippingAddress.Street,
			City:    d.ShippingAddress.City,
			State:   d.ShippingAddress.State,
			Zip:     d.ShippingAddress.Zip,
			Country: d.ShippingAddress.Country,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}
