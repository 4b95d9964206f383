package entity

import (
	"fmt"
	"strings"
)

// Columns lists the flat row columns in output order.
var Columns = []string{
	KeyOrderId,
	KeyDate,
	KeyCustomerId,
	KeyProductId,
	KeyQuantity,
	KeyPrice,
}

// Row is one denormalized (order, item) pair.
type Row struct {
	OrderId    Field
	Date       Field
	CustomerId Field
	ProductId  Field
	Quantity   Field
	Price      Field
}

// NewRow copies the header fields of the order and the fields of the item into a new Row.
func NewRow(order Order, item Item) Row {
	return Row{
		OrderId:    order.OrderId,
		Date:       order.Date,
		CustomerId: order.CustomerId,
		ProductId:  item.ProductId,
		Quantity:   item.Quantity,
		Price:      item.Price,
	}
}

// Fields returns the row values in the same order as Columns.
func (r Row) Fields() []Field {
	return []Field{r.OrderId, r.Date, r.CustomerId, r.ProductId, r.Quantity, r.Price}
}

func (r Row) String() string {
	var b strings.Builder
	b.WriteString("{ ")
	for i, f := range r.Fields() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s (%s)", Columns[i], f, f.Kind())
	}
	b.WriteString(" }")
	return b.String()
}
