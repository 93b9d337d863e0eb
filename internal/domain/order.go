package domain

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPreparing Status = "PREPARING"
	StatusCompleted Status = "COMPLETED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCancelled
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPreparing, StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status graph allows from -> to,
// independent of which actor is asking.
func CanTransitionTo(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusPreparing || to == StatusRejected || to == StatusCancelled
	case StatusPreparing:
		return to == StatusCompleted || to == StatusCancelled
	}
	return false
}

type PaymentMethod string

const (
	PaymentOnline         PaymentMethod = "ONLINE"
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	return m == PaymentOnline || m == PaymentCashOnDelivery
}

type ActorRole string

const (
	ActorCustomer ActorRole = "customer"
	ActorStore    ActorRole = "store"
	ActorDelivery ActorRole = "delivery"
	ActorAdmin    ActorRole = "admin"
)

// Order is immutable after creation except for Status/UpdatedAt, which only
// move through the transition table above.
type Order struct {
	OrderID       string        `json:"order_id" bson:"order_id"`
	UserID        string        `json:"user_id" bson:"user_id"`
	StoreID       string        `json:"store_id" bson:"store_id"`
	Lines         []OrderLine   `json:"lines" bson:"lines"`
	Amount        int64         `json:"amount" bson:"amount"` // minor currency units
	PaymentMethod PaymentMethod `json:"payment_method" bson:"payment_method"`
	PaymentRef    string        `json:"payment_ref,omitempty" bson:"payment_ref,omitempty"`
	Status        Status        `json:"status" bson:"status"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" bson:"updated_at"`
}

// OrderLine is a snapshot of a cart line taken at checkout. Catalog price
// changes after checkout never touch existing orders.
type OrderLine struct {
	ItemID    string `json:"item_id" bson:"item_id"`
	Name      string `json:"name" bson:"name"`
	Quantity  int    `json:"quantity" bson:"quantity"`
	UnitPrice int64  `json:"unit_price" bson:"unit_price"`
}

// LineTotal returns the sum of quantity*unit_price over all lines.
func (o *Order) LineTotal() int64 {
	var total int64
	for _, l := range o.Lines {
		total += int64(l.Quantity) * l.UnitPrice
	}
	return total
}
