package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/newthinker/quorum/internal/config"
)

// KafkaSink publishes evaluations as JSON keyed by symbol.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaSink dials the brokers with a synchronous, fully acknowledged producer.
func NewKafkaSink(cfg config.KafkaConfig) (*KafkaSink, error) {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Version = sarama.V2_8_0_0
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	sc.Producer.Return.Successes = true
	sc.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}
	return NewKafkaSinkWithProducer(producer, cfg.Topic), nil
}

// NewKafkaSinkWithProducer uses an existing producer.
func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (k *KafkaSink) Name() string { return "kafka" }

// Publish sends e. SyncProducer does not take a context, so cancellation is
// only checked before the send.
func (k *KafkaSink) Publish(ctx context.Context, e Evaluation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding evaluation: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.StringEncoder(e.Symbol),
		Value:     sarama.ByteEncoder(value),
		Timestamp: e.GeneratedAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("evaluation_id"), Value: []byte(e.ID.String())},
			{Key: []byte("verdict"), Value: []byte(e.Committee.Verdict)},
		},
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	if _, _, err := k.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("sending to %s: %w", k.topic, err)
	}
	return nil
}

// Close releases the producer.
func (k *KafkaSink) Close() error {
	return k.producer.Close()
}
