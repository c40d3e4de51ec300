package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"writingway/internal/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher(zap.NewNop())
	ev := models.NewDomainEvent(models.EventDocumentSaved, uuid.New(), uuid.New())
	assert.NoError(t, p.Publish(context.Background(), ev))
	assert.NoError(t, p.Close())
}

func TestNewRabbitEventPublisher_NilConnection(t *testing.T) {
	_, err := NewRabbitEventPublisher(nil, "q", zap.NewNop())
	assert.Error(t, err)
}

type PublisherIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	conn      *amqp.Connection
}

func (s *PublisherIntegrationSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("Skipping RabbitMQ integration tests in short mode")
	}
	s.ctx = context.Background()

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").WithStartupTimeout(90*time.Second),
		),
	)
	require.NoError(s.T(), err)
	s.container = container

	url, err := container.AmqpURL(s.ctx)
	require.NoError(s.T(), err)

	s.conn, err = Connect(s.ctx, url, 5, time.Second, zap.NewNop())
	require.NoError(s.T(), err)
}

func (s *PublisherIntegrationSuite) TearDownSuite() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PublisherIntegrationSuite) TestPublishDeliversPersistentJSON() {
	queue := "writingway_events_test"
	p, err := NewRabbitEventPublisher(s.conn, queue, zap.NewNop())
	s.Require().NoError(err)
	defer p.Close()

	docID := uuid.New()
	ev := models.NewDomainEvent(models.EventDocumentSaved, uuid.New(), uuid.New())
	ev.DocumentID = &docID
	ev.Source = models.SaveSourceManual
	s.Require().NoError(p.Publish(s.ctx, ev))

	ch, err := s.conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	var msg amqp.Delivery
	s.Require().Eventually(func() bool {
		d, ok, err := ch.Get(queue, true)
		if err != nil || !ok {
			return false
		}
		msg = d
		return true
	}, 5*time.Second, 100*time.Millisecond)

	s.Equal("application/json", msg.ContentType)
	s.Equal(amqp.Persistent, msg.DeliveryMode)
	s.Equal(models.EventDocumentSaved, msg.Type)

	var got models.DomainEvent
	s.Require().NoError(json.Unmarshal(msg.Body, &got))
	s.Equal(ev.EventID, got.EventID)
	s.Require().NotNil(got.DocumentID)
	s.Equal(docID, *got.DocumentID)
	s.Equal(models.SaveSourceManual, got.Source)
}

func TestPublisherIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PublisherIntegrationSuite))
}
