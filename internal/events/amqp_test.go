package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChannel is a mock implementation of Channel.
type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return m.Called(name, kind, durable, autoDelete, internal, noWait).Error(0)
}

func (m *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(ctx, exchange, key, msg).Error(0)
}

func (m *MockChannel) Close() error {
	return m.Called().Error(0)
}

func TestNewAMQPPublisher_DeclaresFanoutExchange(t *testing.T) {
	ch := new(MockChannel)
	ch.On("ExchangeDeclare", "menu_events", "fanout", true, false, false, false).Return(nil)

	p, err := newAMQPPublisher(ch, "menu_events", zerolog.Nop())

	require.NoError(t, err)
	require.NotNil(t, p)
	ch.AssertExpectations(t)
}

func TestNewAMQPPublisher_DeclareFailure(t *testing.T) {
	ch := new(MockChannel)
	ch.On("ExchangeDeclare", "menu_events", "fanout", true, false, false, false).
		Return(errors.New("access refused"))
	ch.On("Close").Return(nil)

	p, err := newAMQPPublisher(ch, "menu_events", zerolog.Nop())

	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "failed to declare exchange")
	ch.AssertExpectations(t)
}

func TestAMQPPublisher_PublishMenuChange(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	change := MenuChange{Action: ActionAdded, ItemID: "item-1", Name: "Burnt Toast", UserID: "local-dev-user-001", At: at}

	tests := []struct {
		name        string
		mockErr     error
		expectError bool
	}{
		{name: "Success", mockErr: nil, expectError: false},
		{name: "Broker failure", mockErr: errors.New("channel closed"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := new(MockChannel)
			ch.On("ExchangeDeclare", "menu_events", "fanout", true, false, false, false).Return(nil)
			ch.On("PublishWithContext", ctx, "menu_events", "", mock.MatchedBy(func(msg amqp.Publishing) bool {
				var got MenuChange
				if err := json.Unmarshal(msg.Body, &got); err != nil {
					return false
				}
				return msg.ContentType == "application/json" &&
					msg.Type == "menu.added" &&
					got.ItemID == "item-1" &&
					got.Name == "Burnt Toast" &&
					got.At.Equal(at)
			})).Return(tt.mockErr)

			p, err := newAMQPPublisher(ch, "menu_events", zerolog.Nop())
			require.NoError(t, err)

			err = p.PublishMenuChange(ctx, change)

			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			ch.AssertExpectations(t)
		})
	}
}

func TestAMQPPublisher_Close(t *testing.T) {
	ch := new(MockChannel)
	ch.On("ExchangeDeclare", "menu_events", "fanout", true, false, false, false).Return(nil)
	ch.On("Close").Return(nil)

	p, err := newAMQPPublisher(ch, "menu_events", zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, p.Close())
	ch.AssertExpectations(t)
}

func TestNopPublisher(t *testing.T) {
	p := NewNopPublisher(zerolog.Nop())

	assert.NoError(t, p.PublishMenuChange(context.Background(), MenuChange{Action: ActionRemoved, ItemID: "x"}))
	assert.NoError(t, p.Close())
}
