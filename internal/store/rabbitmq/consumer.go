package rabbitmq

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// HandlerFunc processes one job. A nil error acks the delivery, anything
// else nacks it without requeue so it lands in the dlq.
type HandlerFunc func(ctx context.Context, msg JobMessage) error

// Consumer runs a fixed pool of goroutines over the job queue. The broker
// prefetch equals the pool size.
type Consumer struct {
	conn        *amqp.Connection
	ch          *amqp.Channel
	queue       string
	concurrency int
}

func NewConsumer(url, queue string, concurrency int) (*Consumer, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	conn, ch, err := dial(url, queue)
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(concurrency, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Consumer{conn: conn, ch: ch, queue: queue, concurrency: concurrency}, nil
}

func (c *Consumer) Close() error {
	_ = c.ch.Close()
	return c.conn.Close()
}

// Run blocks until ctx is cancelled or the delivery channel closes, then
// waits for in-flight jobs.
func (c *Consumer) Run(ctx context.Context, handle HandlerFunc) error {
	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	slog.Info("Worker started", "queue", c.queue, "concurrency", c.concurrency)

	deliveries := make(chan amqp.Delivery, c.concurrency*2)
	var wg sync.WaitGroup
	wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range deliveries {
				c.process(ctx, workerID, d, handle)
			}
		}(i)
	}

	defer func() {
		close(deliveries)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Worker shutting down")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("rabbitmq: delivery channel closed")
			}
			deliveries <- d
		}
	}
}

func (c *Consumer) process(ctx context.Context, workerID int, d amqp.Delivery, handle HandlerFunc) {
	m, err := DecodeJobMessage(d.Body)
	if err != nil {
		slog.Warn("Dropping bad message", "worker", workerID, "error", err)
		_ = d.Nack(false, false)
		return
	}

	start := time.Now()
	if err := handle(ctx, m); err != nil {
		slog.Error("Job failed", "worker", workerID, "job_id", m.JobID, "cost", time.Since(start), "error", err)
		_ = d.Nack(false, false)
		return
	}
	if err := d.Ack(false); err != nil {
		slog.Error("Ack failed", "worker", workerID, "job_id", m.JobID, "error", err)
		return
	}
	if cost := time.Since(start); cost > 2*time.Second {
		slog.Info("Slow job", "worker", workerID, "job_id", m.JobID, "cost", cost)
	}
}
