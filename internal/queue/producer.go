package queue

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher 投递库存事件。
type Publisher interface {
	Publish(ctx context.Context, e InventoryEvent) error
}

// NopPublisher 在未配置 Kafka 时丢弃事件。
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, InventoryEvent) error { return nil }

// messageWriter 是 kafka.Writer 的最小子集，便于测试替换。
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer 封装 Kafka 写入器。
type Producer struct {
	w messageWriter
}

// NewProducer 创建生产者并配置可靠性参数：
// - Hash + Key: 同一商品的事件落到同一分区，保持顺序。
// - RequireAll: 等待 ISR 副本确认，降低消息丢失风险。
// - MaxAttempts/Timeout: 控制重试与超时边界。
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Close 释放 writer 资源。
func (p *Producer) Close() error { return p.w.Close() }

// Publish 同步写入一条库存事件，以 sweet_id 作为 Kafka key。
func (p *Producer) Publish(ctx context.Context, e InventoryEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(e.SweetID), 10)),
		Value: b,
	})
}
