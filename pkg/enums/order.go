package enums

import "fmt"

// PaymentMethod records how the buyer chose to pay.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodUPI    PaymentMethod = "upi"
	PaymentMethodWallet PaymentMethod = "wallet"
)

var paymentMethods = map[PaymentMethod]struct{}{
	PaymentMethodCOD:    {},
	PaymentMethodCard:   {},
	PaymentMethodUPI:    {},
	PaymentMethodWallet: {},
}

func (m PaymentMethod) String() string {
	return string(m)
}

// ParsePaymentMethod validates a raw payment method value.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	method := PaymentMethod(raw)
	if _, ok := paymentMethods[method]; !ok {
		return "", fmt.Errorf("unknown payment method %q", raw)
	}
	return method, nil
}

// OrderStatus is the payment/order level state, distinct from the
// free-text delivery progression label carried on the order row.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) String() string {
	return string(s)
}

// DeliveryStatusInitial is the label every new order starts with. Later
// transitions ("Shipped", "Delivered", ...) are free text set by staff.
const DeliveryStatusInitial = "Order Confirmed"
