package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/jogardn/partsdepot/internal/circuitbreaker"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type recordingHub struct {
	types   []string
	payload []interface{}
}

func (h *recordingHub) Broadcast(messageType string, data interface{}, source string) {
	h.types = append(h.types, messageType)
	h.payload = append(h.payload, data)
}

type failingSink struct{ calls int }

func (f *failingSink) Publish(Event) error {
	f.calls++
	return errors.New("sink down")
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(TopicOrderCreated, 12, map[string]int{"quantity": 2})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, TopicOrderCreated, e.Type)
	assert.Equal(t, int64(12), e.OrderID)
	assert.False(t, e.OccurredAt.IsZero())
}

func TestFanoutDeliversToEverySink(t *testing.T) {
	hub := &recordingHub{}
	broken := &failingSink{}
	fanout := NewFanout(quietLogger(), broken, NewBroadcastSink(hub, "api"))

	err := fanout.Publish(NewEvent(TopicOrderDeleted, 3, nil))

	assert.Error(t, err)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, []string{TopicOrderDeleted}, hub.types)
}

func TestKafkaProducerPublish(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var e Event
		if err := json.Unmarshal(val, &e); err != nil {
			return err
		}
		if e.Type != TopicCheckoutCompleted || e.OrderID != 77 {
			return errors.New("unexpected event payload")
		}
		return nil
	})

	producer := newKafkaProducer(sp, quietLogger())
	require.NoError(t, producer.Publish(NewEvent(TopicCheckoutCompleted, 77, nil)))
	require.NoError(t, producer.Close())
}

func TestKafkaProducerTripsBreaker(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	for i := 0; i < 5; i++ {
		sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	}

	producer := newKafkaProducer(sp, quietLogger())
	for i := 0; i < 5; i++ {
		err := producer.Publish(NewEvent(TopicOrderCreated, int64(i), nil))
		assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	}

	err := producer.Publish(NewEvent(TopicOrderCreated, 99, nil))
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, "open", producer.BreakerMetrics().State)
	require.NoError(t, producer.Close())
}

type collectingHandler struct {
	events []Event
	err    error
}

func (c *collectingHandler) HandleEvent(e Event) error {
	c.events = append(c.events, e)
	return c.err
}

func TestConsumerHandleMessage(t *testing.T) {
	collector := &collectingHandler{}
	h := &consumerGroupHandler{handler: collector, logger: quietLogger()}

	payload, err := json.Marshal(NewEvent(TopicDeliveryUpdated, 5, map[string]bool{"is_cancelled": true}))
	require.NoError(t, err)

	require.NoError(t, h.handleMessage(&sarama.ConsumerMessage{Topic: TopicDeliveryUpdated, Value: payload}))
	require.Len(t, collector.events, 1)
	assert.Equal(t, int64(5), collector.events[0].OrderID)

	require.NoError(t, h.handleMessage(&sarama.ConsumerMessage{Topic: "unrelated", Value: []byte("{}")}))
	assert.Len(t, collector.events, 1)

	err = h.handleMessage(&sarama.ConsumerMessage{Topic: TopicOrderCreated, Value: []byte("not json")})
	assert.Error(t, err)
}

func TestConsumerFillsMissingType(t *testing.T) {
	collector := &collectingHandler{}
	h := &consumerGroupHandler{handler: collector, logger: quietLogger()}

	require.NoError(t, h.handleMessage(&sarama.ConsumerMessage{Topic: TopicOrderDeleted, Value: []byte(`{"order_id": 8}`)}))
	require.Len(t, collector.events, 1)
	assert.Equal(t, TopicOrderDeleted, collector.events[0].Type)
}
