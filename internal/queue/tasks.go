package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/localmart-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderTimeoutCancel 超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
)

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderTimeoutCancelTask 创建超时取消任务。
// 任务 ID 固定为订单维度，同一订单重复入队会被 asynq 去重。
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, []asynq.Option, error) {
	if payload.OrderID == 0 {
		return nil, nil, errors.New("order id required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	options := []asynq.Option{
		asynq.TaskID(fmt.Sprintf("%s:%d", TaskOrderTimeoutCancel, payload.OrderID)),
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), options, nil
}
