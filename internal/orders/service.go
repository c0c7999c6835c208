package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// productInvalidator drops cached product payloads after stock changes.
type productInvalidator interface {
	Invalidate(ctx context.Context, ids ...uuid.UUID)
}

// Service places orders and moves them through their lifecycle.
type Service interface {
	CreateOrder(ctx context.Context, actor auth.Actor, input CreateOrderInput) (*OrderDTO, error)
	UpdateOrderStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*OrderDTO, error)
	ListUserOrders(ctx context.Context, actor auth.Actor, page pagination.Params) (types.PageEnvelope[OrderDTO], error)
	ListAllOrders(ctx context.Context, page pagination.Params, status *enums.OrderStatus) (types.PageEnvelope[OrderDTO], error)
}

// ServiceParams wires the order service. Everything but Repo and Tx is optional.
type ServiceParams struct {
	Repo     *Repository
	Tx       txRunner
	Metrics  *metrics.OrderMetrics
	Products productInvalidator
	Logger   *logger.Logger
	Clock    func() time.Time
	Intn     func(int) int
}

type service struct {
	repo     *Repository
	tx       txRunner
	metrics  *metrics.OrderMetrics
	products productInvalidator
	logg     *logger.Logger
	clock    func() time.Time
	intn     func(int) int
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		metrics:  params.Metrics,
		products: params.Products,
		logg:     logg,
		clock:    clock,
		intn:     params.Intn,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, actor auth.Actor, input CreateOrderInput) (*OrderDTO, error) {
	order, err := s.placeOrder(ctx, actor, input)
	if err != nil {
		s.metrics.IncFailed(failureReason(err))
		return nil, err
	}
	s.metrics.IncCreated()

	touched := make([]uuid.UUID, 0, len(order.Items))
	for _, it := range order.Items {
		touched = append(touched, it.ProductID)
	}
	if s.products != nil {
		s.products.Invalidate(ctx, touched...)
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"order_number": order.OrderNumber,
		"final_amount": order.FinalAmount.StringFixed(2),
		"items":        len(order.Items),
	})
	s.logg.Info(logCtx, "order created")

	return s.GetOrder(ctx, actor, order.ID)
}

func (s *service) placeOrder(ctx context.Context, actor auth.Actor, input CreateOrderInput) (*models.Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	lines, err := validateCreate(input)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		address, err := repo.FindAddress(ctx, input.AddressID)
		if err != nil {
			return mapStoreErr(err, "address not found", "db: load address")
		}
		if address.UserID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}

		priced := make([]pricedLine, 0, len(lines))
		total := decimal.Zero
		for i, line := range lines {
			p, err := resolveLine(ctx, repo, line)
			if err != nil {
				return withItemIndex(err, i)
			}
			if p.Available < line.Quantity {
				return insufficientStock(i, line, p.Available)
			}
			priced = append(priced, p)
			total = total.Add(p.subtotal())
		}

		discount := decimal.Zero
		if input.CouponID != nil {
			coupon, err := repo.FindCoupon(ctx, *input.CouponID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load coupon")
			}
			discount = Discount(coupon, total)
		}

		order = s.buildOrder(actor, input, priced, total, discount)
		if err := repo.CreateOrder(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "order number collision; retry the request")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create order")
		}

		for i, p := range priced {
			if err := decrementStock(ctx, repo, p.Line); err != nil {
				return withItemIndex(err, i)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) buildOrder(actor auth.Actor, input CreateOrderInput, priced []pricedLine, total, discount decimal.Decimal) *models.Order {
	paymentStatus := enums.PaymentStatusPending
	var paymentID *string
	if input.PaymentID != nil && strings.TrimSpace(*input.PaymentID) != "" {
		id := strings.TrimSpace(*input.PaymentID)
		paymentID = &id
		paymentStatus = enums.PaymentStatusCompleted
	}

	items := make([]models.OrderItem, 0, len(priced))
	for i, p := range priced {
		item := models.OrderItem{
			ProductID: p.ProductID,
			Quantity:  p.Quantity,
			Price:     p.UnitPrice,
			Size:      p.Size,
			Color:     p.Color,
			Position:  i,
		}
		if p.Kind == VariantLine {
			variantID := p.VariantID
			item.VariantID = &variantID
		}
		items = append(items, item)
	}

	comment := "Order created"
	return &models.Order{
		OrderNumber:    OrderNumber(s.clock(), s.intn),
		UserID:         actor.UserID,
		AddressID:      input.AddressID,
		TotalAmount:    total,
		DiscountAmount: discount,
		FinalAmount:    FinalAmount(total, discount),
		PaymentMethod:  strings.TrimSpace(input.PaymentMethod),
		PaymentID:      paymentID,
		PaymentStatus:  paymentStatus,
		Status:         enums.OrderStatusPending,
		CouponID:       input.CouponID,
		Items:          items,
		History: []models.OrderHistory{{
			Status:    enums.OrderStatusPending,
			Comment:   &comment,
			CreatedBy: actor.Ref(),
		}},
	}
}

func validateCreate(input CreateOrderInput) ([]Line, error) {
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "addressId is required")
	}
	if strings.TrimSpace(input.PaymentMethod) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paymentMethod is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	lines := make([]Line, 0, len(input.Items))
	for i, in := range input.Items {
		line, err := NewLine(in)
		if err != nil {
			return nil, withItemIndex(err, i)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// resolveLine prices a line and reports the stock it may draw from.
func resolveLine(ctx context.Context, repo *Repository, line Line) (pricedLine, error) {
	product, err := repo.FindProduct(ctx, line.ProductID)
	if err != nil {
		return pricedLine{}, mapStoreErr(err, "product not found", "db: load product")
	}
	if !product.IsActive {
		return pricedLine{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	switch line.Kind {
	case ProductLine:
		return pricedLine{
			Line:      line,
			UnitPrice: product.UnitPrice(),
			Available: product.Quantity,
			Size:      product.Size,
		}, nil
	case VariantLine:
		variant, err := repo.FindVariant(ctx, line.VariantID)
		if err != nil {
			return pricedLine{}, mapStoreErr(err, "variant not found", "db: load variant")
		}
		if variant.ProductID != product.ID {
			return pricedLine{}, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to this product")
		}
		if !variant.IsActive {
			return pricedLine{}, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return pricedLine{
			Line:      line,
			UnitPrice: variant.UnitPrice(),
			Available: variant.Quantity,
			Size:      variant.Size,
			Color:     variant.Color,
		}, nil
	default:
		return pricedLine{}, pkgerrors.Newf(pkgerrors.CodeInternal, "unknown line kind %d", line.Kind)
	}
}

func decrementStock(ctx context.Context, repo *Repository, line Line) error {
	var (
		affected int64
		err      error
	)
	switch line.Kind {
	case ProductLine:
		affected, err = repo.DecrementProductStock(ctx, line.ProductID, line.Quantity)
	case VariantLine:
		affected, err = repo.DecrementVariantStock(ctx, line.VariantID, line.Quantity)
	default:
		return pkgerrors.Newf(pkgerrors.CodeInternal, "unknown line kind %d", line.Kind)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement "+line.Kind.String()+" stock")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
			WithDetails(map[string]any{"productId": line.ProductID, "kind": line.Kind.String()})
	}
	return nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", input.Status)
	}

	var from enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return mapStoreErr(err, "order not found", "db: load order")
		}
		if err := checkTransition(order.Status, input.Status); err != nil {
			return err
		}
		from = order.Status

		if err := repo.UpdateStatus(ctx, orderID, input.Status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order status")
		}
		entry := &models.OrderHistory{
			OrderID:   orderID,
			Status:    input.Status,
			Comment:   input.Comment,
			CreatedBy: actor.Ref(),
		}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append order history")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(strings.ToLower(input.Status.String()))

	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{"from": from, "to": input.Status})
	s.logg.Info(logCtx, "order status changed")

	return s.GetOrder(ctx, actor, orderID)
}

func (s *service) GetOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, mapStoreErr(err, "order not found", "db: load order")
	}
	if !actor.CanAccess(order.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := fromModel(order)
	return &dto, nil
}

func (s *service) ListUserOrders(ctx context.Context, actor auth.Actor, page pagination.Params) (types.PageEnvelope[OrderDTO], error) {
	page = page.Normalize()
	rows, total, err := s.repo.ListByUser(ctx, actor.UserID, page.Offset(), page.Limit)
	if err != nil {
		return types.PageEnvelope[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list user orders")
	}
	return pagination.NewPage(fromModels(rows), page, total), nil
}

func (s *service) ListAllOrders(ctx context.Context, page pagination.Params, status *enums.OrderStatus) (types.PageEnvelope[OrderDTO], error) {
	if status != nil && !status.IsValid() {
		return types.PageEnvelope[OrderDTO]{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", *status)
	}
	page = page.Normalize()
	rows, total, err := s.repo.ListAll(ctx, status, page.Offset(), page.Limit)
	if err != nil {
		return types.PageEnvelope[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}
	return pagination.NewPage(fromModels(rows), page, total), nil
}

func insufficientStock(index int, line Line, available int) error {
	details := map[string]any{
		"itemIndex": index,
		"productId": line.ProductID,
		"requested": line.Quantity,
		"available": available,
	}
	if line.Kind == VariantLine {
		details["variantId"] = line.VariantID
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").WithDetails(details)
}

// withItemIndex tags a typed error with the offending item position.
func withItemIndex(err error, index int) error {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() == pkgerrors.CodeDependency {
		return err
	}
	details := map[string]any{"itemIndex": index}
	if existing, ok := typed.Details().(map[string]any); ok {
		for k, v := range existing {
			details[k] = v
		}
	}
	return pkgerrors.New(typed.Code(), typed.Message()).WithDetails(details)
}

func failureReason(err error) string {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeValidation:
		return "validation"
	case pkgerrors.CodeNotFound:
		return "not_found"
	case pkgerrors.CodeConflict:
		return "conflict"
	case pkgerrors.CodeUnauthorized:
		return "unauthorized"
	default:
		return "error"
	}
}

func mapStoreErr(err error, notFound, step string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}
