package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/localmart-next/internal/logger"
	"github.com/localmart-next/internal/provider"
	"github.com/localmart-next/internal/queue"
	"github.com/localmart-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.handleOrderTimeoutCancel)
}

// handleOrderTimeoutCancel 到期取消待支付订单并回补库存。
// 订单已支付或已取消时为无操作，任务可安全重投。
func (c *Consumer) handleOrderTimeoutCancel(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_timeout_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderService.CancelExpiredOrder(payload.OrderID)
	if errors.Is(err, service.ErrOrderNotFound) {
		logger.Debugw("worker_order_timeout_cancel_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	if err != nil {
		logger.Warnw("worker_order_timeout_cancel_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	logger.Infow("worker_order_timeout_cancel_done",
		"order_id", payload.OrderID,
		"status", order.Status,
	)
	return nil
}
