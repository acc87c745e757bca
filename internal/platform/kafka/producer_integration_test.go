//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"rentmeroom/internal/platform/config"
	"rentmeroom/internal/platform/kafka"
	id "rentmeroom/pkg/domain"
	audit "rentmeroom/pkg/platform/audit"
	"rentmeroom/pkg/testutil/containers"
)

type ProducerSuite struct {
	suite.Suite
	brokers []string
}

func TestProducerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerSuite))
}

func (s *ProducerSuite) SetupSuite() {
	s.brokers = containers.GetManager().GetRedpanda(s.T()).Brokers
}

func (s *ProducerSuite) TestAppendProducesKeyedRecord() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "events-" + id.NewRoomID().String()
	producer, err := kafka.New(ctx, config.KafkaConfig{Brokers: s.brokers, Topic: topic})
	s.Require().NoError(err)
	defer producer.Close()

	userID := id.NewUserID()
	s.Require().NoError(producer.Append(ctx, audit.Event{
		Action:   string(audit.EventRoomCreated),
		Category: audit.CategoryOperations,
		UserID:   userID,
		Subject:  "room-1",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal(userID.String(), string(records[0].Key))

	var got audit.Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(string(audit.EventRoomCreated), got.Action)
	s.Equal("room-1", got.Subject)
}

func (s *ProducerSuite) TestNewIsNilWithoutBrokers() {
	p, err := kafka.New(context.Background(), config.KafkaConfig{})
	s.NoError(err)
	s.Nil(p)
}
