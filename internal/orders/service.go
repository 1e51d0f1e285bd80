package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oneclickretail/oneclick-backend/internal/notifications"
	dbpkg "github.com/oneclickretail/oneclick-backend/pkg/db"
	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	"github.com/oneclickretail/oneclick-backend/pkg/enums"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/ids"
	"github.com/oneclickretail/oneclick-backend/pkg/metrics"
	"github.com/oneclickretail/oneclick-backend/pkg/outbox"
	"github.com/oneclickretail/oneclick-backend/pkg/pagination"
)

const (
	imageCategory    = "orders"
	deliveryLeadDays = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// cartClearer empties the buyer's cart inside the placement transaction.
type cartClearer interface {
	Clear(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type fileStore interface {
	Save(ctx context.Context, category, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, publicPaths ...string) error
}

// OrderDetail is an order header with its items plus the snapshot images
// captured for the products on it, keyed by prod id.
type OrderDetail struct {
	Order  models.Order
	Images map[string][]string
}

// Service exposes order placement and the order query/admin surface.
type Service interface {
	Place(ctx context.Context, input PlaceInput) (*PlaceResult, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, orderNumber string, userID uuid.UUID, isStaff bool) (*OrderDetail, error)
	UpdateDelivery(ctx context.Context, orderNumber string, update DeliveryUpdate) error
	Delete(ctx context.Context, orderNumber string) error
}

type service struct {
	repo          Repository
	tx            txRunner
	outbox        outboxPublisher
	notifications notifications.Service
	cart          cartClearer
	files         fileStore
	metrics       *metrics.StoreMetrics
	now           func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	notificationSvc notifications.Service,
	cartSvc cartClearer,
	files fileStore,
	storeMetrics *metrics.StoreMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("orders tx runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if notificationSvc == nil {
		return nil, fmt.Errorf("notification service required")
	}
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if files == nil {
		return nil, fmt.Errorf("file store required")
	}
	return &service{
		repo:          repo,
		tx:            tx,
		outbox:        outboxSvc,
		notifications: notificationSvc,
		cart:          cartSvc,
		files:         files,
		metrics:       storeMetrics,
		now:           time.Now,
	}, nil
}

// Place runs the whole placement workflow inside one transaction: order
// header, line items, snapshot upserts, snapshot images, notification, and
// the outbox event. Uploaded files are written before the transaction and
// removed best effort if it rolls back.
func (s *service) Place(ctx context.Context, input PlaceInput) (*PlaceResult, error) {
	method, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	saved, uploadedBy, err := s.saveUploads(ctx, input.Uploads)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          input.UserID,
		TotalCents:      input.TotalCents,
		PaymentMethod:   method,
		Status:          enums.OrderStatusPending,
		DeliveryStatus:  enums.DeliveryStatusInitial,
		DeliveryDate:    now.AddDate(0, 0, deliveryLeadDays),
		AddressID:       input.AddressID,
		ShippingAddress: input.ShippingAddress,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := s.insertWithOrderNumber(ctx, repo, order); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(input.Lines))
		for _, line := range input.Lines {
			items = append(items, models.OrderItem{
				ID:             uuid.New(),
				OrderID:        order.ID,
				ProdID:         line.ProdID,
				Name:           line.Name,
				Quantity:       line.Quantity,
				LineTotalCents: line.UnitPriceCents * int64(line.Quantity),
			})
		}
		if err := repo.InsertItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order items")
		}

		if err := s.captureSnapshots(ctx, repo, input.Lines, uploadedBy); err != nil {
			return err
		}

		message := fmt.Sprintf("New order %s placed by user %s for %d items",
			order.OrderNumber, input.UserID, len(items))
		if err := s.notifications.Create(ctx, tx, enums.NotificationTypeOrder, message); err != nil {
			return err
		}

		if err := s.cart.Clear(ctx, tx, input.UserID); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: enums.RoleCustomer.String()},
			Data: outbox.OrderPlacedData{
				OrderNumber:   order.OrderNumber,
				UserID:        input.UserID.String(),
				TotalCents:    order.TotalCents,
				PaymentMethod: method.String(),
				ItemCount:     len(items),
			},
			Version:    1,
			OccurredAt: now,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order event")
		}
		return nil
	})
	if err != nil {
		_ = s.files.Delete(ctx, saved...)
		return nil, err
	}

	s.metrics.IncOrderPlaced(method.String())
	return &PlaceResult{OrderNumber: order.OrderNumber, Order: order}, nil
}

func (s *service) validate(input PlaceInput) (enums.PaymentMethod, error) {
	if input.UserID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(input.Lines) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart items required")
	}
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if input.AddressID == uuid.Nil && (input.ShippingAddress == nil || input.ShippingAddress.Empty()) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}

	var sum int64
	for i, line := range input.Lines {
		if line.ProdID == "" || line.Name == "" {
			return "", pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("cart item %d is missing product id or name", i))
		}
		if line.Quantity <= 0 {
			return "", pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("cart item %d has a non-positive quantity", i))
		}
		if line.UnitPriceCents < 0 {
			return "", pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("cart item %d has a negative price", i))
		}
		sum += line.UnitPriceCents * int64(line.Quantity)
	}
	if input.TotalCents != sum {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order total does not match line totals")
	}
	return method, nil
}

// insertWithOrderNumber retries on order number collisions up to the shared
// attempt budget.
func (s *service) insertWithOrderNumber(ctx context.Context, repo Repository, order *models.Order) error {
	for attempt := 0; attempt < ids.MaxInsertAttempts; attempt++ {
		order.OrderNumber = ids.NewBusinessID(ids.OrderPrefix)
		err := repo.InsertOrder(ctx, order)
		if err == nil {
			return nil
		}
		if dbpkg.IsUniqueViolation(err, "orders_order_number_key") {
			continue
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
	}
	return pkgerrors.New(pkgerrors.CodeDependency, "could not allocate order number")
}

// captureSnapshots upserts one snapshot per distinct product and inserts the
// resolved image rows. An uploaded file whose original filename matches a
// line's image reference wins over the carried reference.
func (s *service) captureSnapshots(ctx context.Context, repo Repository, lines []LineInput, uploadedBy map[string]string) error {
	seen := map[string]struct{}{}
	for _, line := range lines {
		if _, ok := seen[line.ProdID]; ok {
			continue
		}
		seen[line.ProdID] = struct{}{}

		snapshot := &models.ProductSnapshot{
			ProdID:      line.ProdID,
			Name:        line.Name,
			Category:    line.Category,
			PriceCents:  line.UnitPriceCents,
			Description: line.Description,
		}
		if err := repo.UpsertSnapshot(ctx, snapshot); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert product snapshot")
		}

		var images []models.SnapshotImage
		for _, ref := range line.ImageRefs {
			if ref == "" {
				continue
			}
			resolved := ref
			if path, ok := uploadedBy[ref]; ok {
				resolved = path
			}
			images = append(images, models.SnapshotImage{
				ProdID: line.ProdID,
				Image:  resolved,
			})
		}
		if err := repo.InsertSnapshotImages(ctx, images); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert snapshot images")
		}
	}
	return nil
}

func (s *service) saveUploads(ctx context.Context, uploads []ImageUpload) ([]string, map[string]string, error) {
	saved := make([]string, 0, len(uploads))
	uploadedBy := make(map[string]string, len(uploads))
	for _, upload := range uploads {
		path, err := s.files.Save(ctx, imageCategory, upload.Filename, upload.Reader)
		if err != nil {
			_ = s.files.Delete(ctx, saved...)
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "store order image")
		}
		saved = append(saved, path)
		uploadedBy[upload.Filename] = path
	}
	return saved, uploadedBy, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.ListAll(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, orderNumber string, userID uuid.UUID, isStaff bool) (*OrderDetail, error) {
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !isStaff && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	prodIDs := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		prodIDs = append(prodIDs, item.ProdID)
	}
	rows, err := s.repo.SnapshotImagesFor(ctx, prodIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load snapshot images")
	}
	images := map[string][]string{}
	for _, row := range rows {
		images[row.ProdID] = append(images[row.ProdID], row.Image)
	}
	return &OrderDetail{Order: *order, Images: images}, nil
}

func (s *service) UpdateDelivery(ctx context.Context, orderNumber string, update DeliveryUpdate) error {
	if orderNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if update.DeliveryStatus == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery status required")
	}
	date := s.now().UTC()
	if update.DeliveryDate != nil {
		date = update.DeliveryDate.UTC()
	}
	affected, err := s.repo.UpdateDelivery(ctx, orderNumber, update.DeliveryStatus, date)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery status")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, orderNumber string) error {
	if orderNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	affected, err := s.repo.Delete(ctx, orderNumber)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}
