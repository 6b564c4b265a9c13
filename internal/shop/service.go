package shop

import (
	"context"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
)

// Storage is everything the service needs from the database layer.
// *Repo is the production implementation.
type Storage interface {
	CreateOrder(ctx context.Context, userID string, items []ItemInput, claimedTotal float64) (*Order, error)
	TransitionOrder(ctx context.Context, id string, target Status) (*Order, error)
	CancelOwnedOrder(ctx context.Context, userID, id string) (*Order, error)
	DeleteOrder(ctx context.Context, id string) (*Order, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	GetOwnedOrder(ctx context.Context, userID, id string) (*Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]Order, error)

	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	UpdateProduct(ctx context.Context, id string, upd ProductUpdate) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]Product, error)
	CreateCategory(ctx context.Context, name string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)

	CreateUser(ctx context.Context, u *User) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]User, error)
}

var _ Storage = (*Repo)(nil)

// Publisher matches the kafka producer. A nil publisher disables events.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Store  Storage
	Events Publisher
	Log    *logrus.Logger
	Name   string // producer tag stamped into event envelopes
}

// ---- Orders ----

func (s *Service) PlaceOrder(ctx context.Context, actor Actor, items []ItemInput, claimedTotal float64) (*Order, error) {
	if actor.Role != RoleCustomer {
		return nil, E(KindUnauthorized, "only customers can place orders")
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	if claimedTotal < 0 {
		return nil, Invalid(FieldError{Field: "total", Message: "must not be negative"})
	}

	o, err := s.Store.CreateOrder(ctx, actor.UserID, items, claimedTotal)
	if err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{"order_id": o.ID, "user_id": o.UserID, "total": o.Total}).
		Info("order placed")

	s.publish(ctx, EventOrderPlaced, o.ID, OrderPlacedPayload{
		OrderID: o.ID,
		UserID:  o.UserID,
		Items:   itemQtys(o.Items),
		Total:   o.Total,
	})
	return o, nil
}

func (s *Service) UpdateOrderStatus(ctx context.Context, actor Actor, id string, target Status) (*Order, error) {
	if !actor.IsAdmin() {
		return nil, E(KindUnauthorized, "admin role required")
	}
	if !validID(id) {
		return nil, Invalid(FieldError{Field: "id", Message: "must be a valid id"})
	}
	if !target.Valid() {
		return nil, Invalid(FieldError{Field: "status", Message: "is not a known order status"})
	}

	o, err := s.Store.TransitionOrder(ctx, id, target)
	if err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{"order_id": o.ID, "status": o.Status}).
		Info("order status updated")

	s.publish(ctx, EventOrderStatusChanged, o.ID, OrderStatusChangedPayload{OrderID: o.ID, Status: o.Status})
	return o, nil
}

// CancelOrder is the customer-initiated path: own orders only, and only while
// the order is still PENDING or CONFIRMED.
func (s *Service) CancelOrder(ctx context.Context, actor Actor, id string) (*Order, error) {
	if actor.Role != RoleCustomer {
		return nil, E(KindUnauthorized, "customer role required")
	}
	if !validID(id) {
		return nil, Invalid(FieldError{Field: "id", Message: "must be a valid id"})
	}

	o, err := s.Store.CancelOwnedOrder(ctx, actor.UserID, id)
	if err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{"order_id": o.ID, "user_id": o.UserID}).
		Info("order cancelled by customer")

	s.publish(ctx, EventOrderStatusChanged, o.ID, OrderStatusChangedPayload{OrderID: o.ID, Status: o.Status})
	return o, nil
}

func (s *Service) DeleteOrder(ctx context.Context, actor Actor, id string) (*Order, error) {
	if !actor.IsAdmin() {
		return nil, E(KindUnauthorized, "admin role required")
	}
	if !validID(id) {
		return nil, Invalid(FieldError{Field: "id", Message: "must be a valid id"})
	}

	o, err := s.Store.DeleteOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Log.WithField("order_id", o.ID).Info("order deleted")

	s.publish(ctx, EventOrderDeleted, o.ID, OrderDeletedPayload{OrderID: o.ID})
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, actor Actor, id string) (*Order, error) {
	if !validID(id) {
		return nil, Invalid(FieldError{Field: "id", Message: "must be a valid id"})
	}
	if actor.IsAdmin() {
		return s.Store.GetOrder(ctx, id)
	}
	return s.Store.GetOwnedOrder(ctx, actor.UserID, id)
}

func (s *Service) ListOrders(ctx context.Context, actor Actor, f OrderFilter) ([]Order, error) {
	if !actor.IsAdmin() {
		// customers only ever see their own orders
		f.UserID = actor.UserID
	} else if f.UserID != "" && !validID(f.UserID) {
		return nil, Invalid(FieldError{Field: "user_id", Message: "must be a valid id"})
	}
	return s.Store.ListOrders(ctx, f)
}

// ---- Catalog ----

type CreateProductInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	CategoryID  string  `json:"category_id" validate:"omitempty,uuid4"`
}

func (s *Service) CreateProduct(ctx context.Context, actor Actor, in CreateProductInput) (*Product, error) {
	if !actor.IsAdmin() {
		return nil, E(KindUnauthorized, "admin role required")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	return s.Store.CreateProduct(ctx, &Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
	})
}

type UpdateProductInput struct {
	Name        *string  `json:"name" validate:"omitempty,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	CategoryID  *string  `json:"category_id" validate:"omitempty,uuid4"`
}

func (s *Service) UpdateProduct(ctx context.Context, actor Actor, id string, in UpdateProductInput) (*Product, error) {
	if !actor.IsAdmin() {
		return nil, E(KindUnauthorized, "admin role required")
	}
	if !validID(id) {
		return nil, Invalid(FieldError{Field: "id", Message: "must be a valid id"})
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	return s.Store.UpdateProduct(ctx, id, ProductUpdate{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
	})
}

func (s *Service) DeleteProduct(ctx context.Context, actor Actor, id string) error {
	if !actor.IsAdmin() {
		return E(KindUnauthorized, "admin role required")
	}
	if !validID(id) {
		return Invalid(FieldError{Field: "id", Message: "must be a valid id"})
	}
	return s.Store.DeleteProduct(ctx, id)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	if !validID(id) {
		return nil, Invalid(FieldError{Field: "id", Message: "must be a valid id"})
	}
	return s.Store.GetProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	if f.CategoryID != "" && !validID(f.CategoryID) {
		return nil, Invalid(FieldError{Field: "category_id", Message: "must be a valid id"})
	}
	return s.Store.ListProducts(ctx, f)
}

type CreateCategoryInput struct {
	Name string `json:"name" validate:"required,max=120"`
}

func (s *Service) CreateCategory(ctx context.Context, actor Actor, in CreateCategoryInput) (*Category, error) {
	if !actor.IsAdmin() {
		return nil, E(KindUnauthorized, "admin role required")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	return s.Store.CreateCategory(ctx, in.Name)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.Store.ListCategories(ctx)
}

// ---- Users ----

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, E(KindStorageFailed, "could not process password")
	}
	u, err := s.Store.CreateUser(ctx, &User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         RoleCustomer,
	})
	if err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{"user_id": u.ID}).Info("user registered")
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, actor Actor, id string) (*User, error) {
	if !validID(id) {
		return nil, Invalid(FieldError{Field: "id", Message: "must be a valid id"})
	}
	if !actor.IsAdmin() && actor.UserID != id {
		return nil, E(KindUnauthorized, "not allowed to view this user")
	}
	return s.Store.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, actor Actor, f UserFilter) ([]User, error) {
	if !actor.IsAdmin() {
		return nil, E(KindUnauthorized, "admin role required")
	}
	return s.Store.ListUsers(ctx, f)
}

// ---- events ----

func (s *Service) publish(ctx context.Context, eventType, orderID string, payload any) {
	if s.Events == nil {
		return
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.Name,
		TraceID:       chimw.GetReqID(ctx),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	s.Events.Publish(PartitionKey(orderID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func itemQtys(items []OrderItem) []ItemQty {
	out := make([]ItemQty, 0, len(items))
	for _, it := range items {
		out = append(out, ItemQty{ProductID: it.ProductID, Qty: it.Qty})
	}
	return out
}
