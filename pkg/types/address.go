package types

import "strings"

// AddressSnapshot is the shipping address frozen onto an order at placement
// time. It is stored as jsonb so later edits to the user's address book
// never rewrite order history.
type AddressSnapshot struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// Empty reports whether the snapshot carries no usable address.
func (a AddressSnapshot) Empty() bool {
	return strings.TrimSpace(a.Line1) == "" && strings.TrimSpace(a.City) == ""
}
