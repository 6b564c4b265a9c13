package projector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

const dedupScope = "projector"

// Service maintains the order status read cache from the order event stream.
type Service struct {
	Redis *redis.Client
	Log   *logrus.Logger
}

// HandleOrderEvent is installed as the consumer handler for order.events.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env shop.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message, commit and move on
		s.Log.WithError(err).Warn("skipping undecodable event")
		return nil
	}

	// dedup via event_id
	dkey := fmt.Sprintf(redisx.KeyDedup, dedupScope, env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}

	switch env.EventType {
	case shop.EventOrderPlaced:
		p, err := kafkax.UnwrapPayload[shop.OrderPlacedPayload](env.Payload)
		if err != nil {
			return err
		}
		if err := s.setStatus(ctx, p.OrderID, shop.StatusPending); err != nil {
			return err
		}
	case shop.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[shop.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		if err := s.setStatus(ctx, p.OrderID, p.Status); err != nil {
			return err
		}
	case shop.EventOrderDeleted:
		p, err := kafkax.UnwrapPayload[shop.OrderDeletedPayload](env.Payload)
		if err != nil {
			return err
		}
		key := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
		if err := s.Redis.Del(ctx, key).Err(); err != nil {
			return err
		}
	default:
		return nil // unknown types are ignored, not retried
	}

	// mark processed only after the cache write landed
	if err := s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err(); err != nil {
		s.Log.WithError(err).Warn("dedup mark failed")
	}
	return nil
}

func (s *Service) setStatus(ctx context.Context, orderID string, st shop.Status) error {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	val := kafkax.MustMarshal(map[string]string{"status": string(st)})
	return s.Redis.Set(ctx, key, val, redisx.TTLStatusCache).Err()
}
