package enums

import "fmt"

// ProductCategory identifies the storefront section a product is listed under.
type ProductCategory string

const (
	ProductCategoryMobiles     ProductCategory = "mobiles"
	ProductCategoryComputers   ProductCategory = "computers"
	ProductCategoryCCTV        ProductCategory = "cctv"
	ProductCategoryTelevisions ProductCategory = "televisions"
	ProductCategoryAccessories ProductCategory = "accessories"
	ProductCategoryHomeAppl    ProductCategory = "home-appliances"
)

var productCategories = map[ProductCategory]struct{}{
	ProductCategoryMobiles:     {},
	ProductCategoryComputers:   {},
	ProductCategoryCCTV:        {},
	ProductCategoryTelevisions: {},
	ProductCategoryAccessories: {},
	ProductCategoryHomeAppl:    {},
}

func (c ProductCategory) String() string {
	return string(c)
}

// Valid reports whether the category is one of the supported sections.
func (c ProductCategory) Valid() bool {
	_, ok := productCategories[c]
	return ok
}

// ParseProductCategory validates a raw category value.
func ParseProductCategory(raw string) (ProductCategory, error) {
	category := ProductCategory(raw)
	if !category.Valid() {
		return "", fmt.Errorf("unknown product category %q", raw)
	}
	return category, nil
}
