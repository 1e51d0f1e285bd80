package orders

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	"github.com/oneclickretail/oneclick-backend/pkg/types"
)

// ImageUpload is one multipart file forwarded with a place-order request.
// Filename is the client's original name, the key used to match line image
// references to uploaded files.
type ImageUpload struct {
	Filename string
	Reader   io.Reader
}

// LineInput is one cart line submitted for placement. ImageRefs carries the
// line's image reference(s): either stored paths, URLs, or original filenames
// of files uploaded alongside the request.
type LineInput struct {
	ProdID         string
	Name           string
	Category       string
	Description    string
	Quantity       int
	UnitPriceCents int64
	ImageRefs      []string
}

// PlaceInput carries a place-order request after controller decoding.
type PlaceInput struct {
	UserID          uuid.UUID
	TotalCents      int64
	PaymentMethod   string
	AddressID       uuid.UUID
	ShippingAddress *types.AddressSnapshot
	Lines           []LineInput
	Uploads         []ImageUpload
}

// PlaceResult reports the committed order back to the caller.
type PlaceResult struct {
	OrderNumber string
	Order       *models.Order
}

// DeliveryUpdate carries a staff delivery-progress change.
type DeliveryUpdate struct {
	DeliveryStatus string
	DeliveryDate   *time.Time
}
