//go:build integration

package producer_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"trustscore/internal/platform/kafka/producer"
	"trustscore/pkg/platform/audit"
	auditkafka "trustscore/pkg/platform/audit/store/kafka"
	"trustscore/pkg/testutil/containers"
)

type ProducerIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestProducerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerIntegrationSuite))
}

func (s *ProducerIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())
	prod, err := producer.New(producer.Config{
		Brokers:         s.kafka.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ProducerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		_ = s.producer.Close()
	}
}

func (s *ProducerIntegrationSuite) TestProduceDeliversHeaders() {
	ctx := context.Background()
	topic := "test-produce-sync"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	err := s.producer.Produce(ctx, topic, []byte("k"), []byte("v"), map[string]string{"h": "1"})
	s.Require().NoError(err)

	client, err := s.kafka.NewConsumer("produce-sync-verify", topic)
	s.Require().NoError(err)
	defer client.Close()

	rec := s.kafka.WaitForMessage(ctx, client, 10*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == "k"
	})
	s.Require().NotNil(rec)
	s.Equal("v", string(rec.Value))
	s.Require().Len(rec.Headers, 1)
	s.Equal("h", rec.Headers[0].Key)
}

func (s *ProducerIntegrationSuite) TestAuditSinkPublishesEvents() {
	ctx := context.Background()
	topic := "test-audit-sink"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	sink := auditkafka.New(s.producer, topic)
	err := sink.Append(ctx, audit.Event{
		Category:     audit.CategoryCompliance,
		Action:       string(audit.EventCredentialRevoked),
		CredentialID: "vc_1",
		Subject:      "did:web:alice.example",
		Reason:       "fraud",
		Timestamp:    time.Now().UTC(),
	})
	s.Require().NoError(err)

	client, err := s.kafka.NewConsumer("audit-sink-verify", topic)
	s.Require().NoError(err)
	defer client.Close()

	rec := s.kafka.WaitForMessage(ctx, client, 10*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == "did:web:alice.example"
	})
	s.Require().NotNil(rec)
	var got audit.Event
	s.Require().NoError(json.Unmarshal(rec.Value, &got))
	s.Equal("credential_revoked", got.Action)
	s.Equal("fraud", got.Reason)
}

func (s *ProducerIntegrationSuite) TestClosedProducerRejects() {
	prod, err := producer.New(producer.Config{Brokers: s.kafka.Brokers}, nil)
	s.Require().NoError(err)
	s.Require().NoError(prod.Health(context.Background()))
	s.Require().NoError(prod.Close())

	s.Error(prod.Produce(context.Background(), "any", nil, nil, nil))
	s.Error(prod.Health(context.Background()))
}
