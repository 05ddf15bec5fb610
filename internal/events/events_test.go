package events

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiffin/internal/apperr"
	"tiffin/internal/models"
	"tiffin/internal/repositories"
)

type countingTiffins struct {
	repositories.TiffinRepository
	counts map[string]int
}

func (c *countingTiffins) IncrementOrderCount(_ context.Context, id string, n int) error {
	if id == "gone" {
		return apperr.New(apperr.KindNotFound, "Tiffin not found")
	}
	c.counts[id] += n
	return nil
}

type recordingBroker struct {
	msgType string
	body    []byte
}

func (b *recordingBroker) Publish(msgType string, body []byte) error {
	b.msgType, b.body = msgType, body
	return nil
}

func quietHandler(tiffins repositories.TiffinRepository) *Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewHandler(tiffins, log)
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:     "o1",
		UserID: "u1",
		Items: []models.OrderItem{
			{TiffinID: "t1", Quantity: 2, Price: 100},
			{TiffinID: "gone", Quantity: 1, Price: 50},
		},
		TotalAmount:   250,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
	}
}

func TestHandler_OrderCreatedBumpsCounts(t *testing.T) {
	tiffins := &countingTiffins{counts: map[string]int{}}
	h := quietHandler(tiffins)

	err := NewInlinePublisher(h).Publish(context.Background(), NewOrderEvent(TypeOrderCreated, sampleOrder()))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"t1": 2}, tiffins.counts)

	require.NoError(t, h.Handle(context.Background(), NewOrderEvent(TypeOrderStatusChanged, sampleOrder())))
	assert.Equal(t, map[string]int{"t1": 2}, tiffins.counts)
}

func TestAMQPPublisher_RoundTripsThroughDelivery(t *testing.T) {
	broker := &recordingBroker{}
	require.NoError(t, NewAMQPPublisher(broker).Publish(context.Background(), NewOrderEvent(TypeOrderCreated, sampleOrder())))
	assert.Equal(t, TypeOrderCreated, broker.msgType)

	var decoded OrderEvent
	require.NoError(t, json.Unmarshal(broker.body, &decoded))
	assert.Equal(t, "o1", decoded.OrderID)
	assert.Len(t, decoded.Items, 2)

	tiffins := &countingTiffins{counts: map[string]int{}}
	require.NoError(t, quietHandler(tiffins).Delivery(amqp.Delivery{Body: broker.body}))
	assert.Equal(t, 2, tiffins.counts["t1"])

	assert.Error(t, quietHandler(tiffins).Delivery(amqp.Delivery{Body: []byte("{")}))
}
