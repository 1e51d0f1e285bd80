package enums

// ProductStatus tracks whether a listing has passed admin review.
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusApproved ProductStatus = "approved"
)

func (s ProductStatus) String() string {
	return string(s)
}

// ProductAvailability reflects whether a listing can currently be ordered.
type ProductAvailability string

const (
	ProductAvailabilityInStock    ProductAvailability = "in_stock"
	ProductAvailabilityOutOfStock ProductAvailability = "out_of_stock"
)

func (a ProductAvailability) String() string {
	return string(a)
}
