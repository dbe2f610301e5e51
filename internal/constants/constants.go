package constants

// 配送模式常量
const (
	FulfillmentModeLocalOnly = "local_only"
	FulfillmentModeShipOnly  = "ship_only"
	FulfillmentModeBoth      = "both"
)

// 订单状态常量
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusCanceled       = "canceled"
)

// 购物车变更结果常量
const (
	CartAddStatusAdded   = "ADDED"
	CartAddStatusPartial = "ADDED_PARTIAL"
	CartAddStatusRemoved = "REMOVED"
)

// 队列常量
const (
	QueueDefault           = "default"
	TaskOrderTimeoutCancel = "order:timeout_cancel"
)

// 匿名购物车会话头
const (
	CartSessionHeader = "X-Cart-Session"
)
