package enums

// OrderStatus describes the lifecycle state of an order record. Orders are
// only written after a confirmed payment, so completed is the sole state
// today; refunds would extend this enum.
type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "completed"
)
