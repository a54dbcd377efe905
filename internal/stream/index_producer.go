package stream

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// IndexProducer 把去范式化的帖子文档投进索引 topic，
// 下游搜索流水线消费后写入外部索引；调用方按 best-effort 处理错误
type IndexProducer struct {
	writer *kafka.Writer
}

func NewIndexProducer(brokers []string, topic string) *IndexProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &IndexProducer{writer: w}
}

func (p *IndexProducer) Index(ctx context.Context, id string, doc []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(id), Value: doc})
}

func (p *IndexProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
