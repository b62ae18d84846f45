// internal/service/checkout/domain/state.go
package domain

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusPending    Status = "PENDING"    // 订单已创建，等待支付确认
	StatusProcessing Status = "PROCESSING" // 已支付（或 COD 确认），进入履约流程
	StatusOnHold     Status = "ON_HOLD"    // 人工挂起
	StatusCompleted  Status = "COMPLETED"  // 履约完成
	StatusCancelled  Status = "CANCELLED"  // 已取消（终态）
	StatusRefunded   Status = "REFUNDED"   // 已退款（终态）
)

// PaymentStatus 是与订单状态平行的支付维度
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// transitions 是订单状态机的唯一事实来源。
// 不在表中的流转一律视为非法，调用方会收到 ErrIllegalTransition。
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusOnHold, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled, StatusRefunded},
	StatusOnHold:     {StatusProcessing, StatusCancelled},
	StatusCompleted:  {StatusRefunded},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

// CanTransitionTo 判断 s -> next 是否是合法流转。
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal 判断状态是否为终态。
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}
