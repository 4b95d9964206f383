package entity

// JSON keys of the inbound order document.
const (
	KeyOrderId    = "order_id"
	KeyDate       = "date"
	KeyCustomerId = "customer_id"
	KeyItems      = "items"
	KeyProductId  = "product_id"
	KeyQuantity   = "quantity"
	KeyPrice      = "price"
)

// Order is one purchase from the inbound document. Any of its header fields may be
// absent, and Items is empty both when the items list is empty and when it is missing.
type Order struct {
	OrderId    Field
	Date       Field
	CustomerId Field
	Items      []Item
}

// Item is a single product line of an Order, with no identity outside of it.
type Item struct {
	ProductId Field
	Quantity  Field
	Price     Field
}
