package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/jogardn/partsdepot/internal/circuitbreaker"
	"github.com/sirupsen/logrus"
)

type KafkaProducer struct {
	producer sarama.SyncProducer
	breaker  *circuitbreaker.CircuitBreaker
	logger   *logrus.Logger
}

func NewKafkaProducer(brokers string, logger *logrus.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(strings.Split(brokers, ","), config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return newKafkaProducer(producer, logger), nil
}

func newKafkaProducer(producer sarama.SyncProducer, logger *logrus.Logger) *KafkaProducer {
	return &KafkaProducer{
		producer: producer,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:        "kafka-producer",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
			MaxRequests: 1,
		}, logger),
		logger: logger,
	}
}

// Publish sends the event to the topic named by its type, keyed by order id.
// While the broker is unreachable the circuit breaker fails calls fast.
func (p *KafkaProducer) Publish(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: event.Type,
		Key:   sarama.StringEncoder(strconv.FormatInt(event.OrderID, 10)),
		Value: sarama.ByteEncoder(data),
	}

	var partition int32
	var offset int64
	err = p.breaker.Execute(func() error {
		var sendErr error
		partition, offset, sendErr = p.producer.SendMessage(msg)
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("send %s event: %w", event.Type, err)
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     event.Type,
		"partition": partition,
		"offset":    offset,
		"order_id":  event.OrderID,
		"event_id":  event.ID,
	}).Info("Event published to Kafka")

	return nil
}

func (p *KafkaProducer) BreakerMetrics() circuitbreaker.Metrics {
	return p.breaker.Metrics()
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
