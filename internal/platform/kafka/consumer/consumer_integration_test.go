//go:build integration

package consumer_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustscore/internal/platform/kafka/consumer"
	"trustscore/internal/platform/kafka/producer"
	"trustscore/pkg/testutil/containers"
)

type ConsumerIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestConsumerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ConsumerIntegrationSuite))
}

func (s *ConsumerIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())
	prod, err := producer.New(producer.Config{
		Brokers:         s.kafka.Brokers,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ConsumerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		_ = s.producer.Close()
	}
}

type testHandler struct {
	mu       sync.Mutex
	messages []*consumer.Message
	errFunc  func(*consumer.Message) error
}

func (h *testHandler) Handle(_ context.Context, msg *consumer.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.errFunc != nil {
		if err := h.errFunc(msg); err != nil {
			return err
		}
	}
	h.messages = append(h.messages, msg)
	return nil
}

func (h *testHandler) Messages() []*consumer.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*consumer.Message(nil), h.messages...)
}

func (s *ConsumerIntegrationSuite) start(group, topic string, h consumer.Handler) (*consumer.Consumer, <-chan error) {
	cons, err := consumer.New(consumer.Config{
		Brokers:      s.kafka.Brokers,
		GroupID:      group,
		Topics:       []string{topic},
		RetryBackoff: 50 * time.Millisecond,
	}, h, nil)
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cons.Run(ctx) }()
	s.T().Cleanup(func() {
		cancel()
		cons.Close()
	})
	return cons, done
}

func (s *ConsumerIntegrationSuite) produce(topic string, n int, headers map[string]string) {
	for i := 0; i < n; i++ {
		err := s.producer.Produce(context.Background(), topic, []byte("key"), []byte(fmt.Sprintf("value-%d", i)), headers)
		s.Require().NoError(err)
	}
}

func (s *ConsumerIntegrationSuite) TestDeliversInOrderWithHeaders() {
	topic := "test-consumer-order"
	s.Require().NoError(s.kafka.CreateTopic(context.Background(), topic, 1, 1))
	s.produce(topic, 3, map[string]string{"action": "credential.tracked"})

	h := &testHandler{}
	s.start("order-group", topic, h)

	s.Eventually(func() bool { return len(h.Messages()) == 3 }, 15*time.Second, 100*time.Millisecond)
	msgs := h.Messages()
	for i, m := range msgs {
		s.Equal(fmt.Sprintf("value-%d", i), string(m.Value))
		s.Equal("credential.tracked", m.Headers["action"])
	}
}

func (s *ConsumerIntegrationSuite) TestFailingMessageIsRetriedBeforeCommit() {
	ctx := context.Background()
	topic := "test-consumer-retry"
	group := "retry-group-" + time.Now().Format("150405.000")
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))
	s.produce(topic, 1, nil)

	var attempts atomic.Int32
	h := &testHandler{errFunc: func(*consumer.Message) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	}}
	s.start(group, topic, h)

	s.Eventually(func() bool { return len(h.Messages()) == 1 }, 15*time.Second, 100*time.Millisecond)
	s.GreaterOrEqual(attempts.Load(), int32(3))
	s.Eventually(func() bool {
		off, err := s.kafka.CommittedOffset(ctx, group, topic)
		return err == nil && off == 1
	}, 10*time.Second, 100*time.Millisecond)
}

func (s *ConsumerIntegrationSuite) TestRunStopsOnClose() {
	topic := "test-consumer-close"
	s.Require().NoError(s.kafka.CreateTopic(context.Background(), topic, 1, 1))

	cons, done := s.start("close-group", topic, &testHandler{})
	s.NoError(cons.Health(context.Background()))
	cons.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		s.Fail("Run did not return after Close")
	}
	s.Error(cons.Health(context.Background()))
}
