// Service layer of the internal package subscription.

package subscription

import (
	"Waitingway/internal/entity"
	"Waitingway/internal/metrics"
	"Waitingway/pkg/log"
	"context"

	"golang.org/x/sync/errgroup"
)

// Service layer of internal package subscription which owns the subscriber sets of every endpoint.
type Service interface {
	// Subscribe returns true if subscriber was newly added to endpoint.
	Subscribe(ctx context.Context, endpoint entity.Endpoint, subscriber entity.Subscriber) (bool, error)
	// Unsubscribe returns true if subscriber was removed from endpoint.
	Unsubscribe(ctx context.Context, endpoint entity.Endpoint, subscriber entity.Subscriber) (bool, error)
	// Publish drains every subscriber of data.Endpoint and notifies each of them once.
	Publish(ctx context.Context, data *entity.EndpointPublish) error
}

type service struct {
	repo     Repository
	notifier Notifier
	chunk    int
	metrics  *metrics.Metrics
	logger   log.Logger
}

// Helps to access the service layer interface and call methods. Service object is passed from main.
func NewService(repo Repository, notifier Notifier, chunk int, m *metrics.Metrics, logger log.Logger) Service {
	return service{repo: repo, notifier: notifier, chunk: chunk, metrics: m, logger: logger}
}

func (s service) Subscribe(ctx context.Context, endpoint entity.Endpoint, subscriber entity.Subscriber) (bool, error) {
	added, err := s.repo.Add(ctx, s.logger, endpoint, subscriber.String())
	if err != nil {
		return false, err
	}
	if added {
		s.metrics.SubscriptionsTotal.WithLabelValues("subscribe").Inc()
		s.logger.WithCtx(ctx).Info().
			Str("endpoint", endpoint.String()).
			Str("subscriber", subscriber.String()).
			Msg("Subscribed")
	}
	return added, nil
}

func (s service) Unsubscribe(ctx context.Context, endpoint entity.Endpoint, subscriber entity.Subscriber) (bool, error) {
	removed, err := s.repo.Remove(ctx, s.logger, endpoint, subscriber.String())
	if err != nil {
		return false, err
	}
	if removed {
		s.metrics.SubscriptionsTotal.WithLabelValues("unsubscribe").Inc()
	}
	return removed, nil
}

// Publish pops the set chunk by chunk until a pop comes back short.
// Popping removes membership before any delivery, a failed delivery is logged and never retried.
// A member popped a second time in the same call re-subscribed mid-drain, it is put back afterwards instead of notified twice.
// Returns the first delivery error once the whole set is drained.
func (s service) Publish(ctx context.Context, data *entity.EndpointPublish) error {
	logger := s.logger.With("endpoint", data.Endpoint.String())
	seen := make(map[string]struct{})
	var (
		again    []string
		firstErr error
		popErr   error
	)
	for {
		members, err := s.repo.PopMany(ctx, logger, data.Endpoint, s.chunk)
		if err != nil {
			popErr = err
			break
		}

		var g errgroup.Group
		g.SetLimit(s.chunk)
		for _, member := range members {
			if _, ok := seen[member]; ok {
				again = append(again, member)
				continue
			}
			seen[member] = struct{}{}
			subscriber, err := entity.ParseSubscriber(member)
			if err != nil {
				// Nothing can ever be delivered to it, drop it
				logger.WithCtx(ctx).Error().Err(err).Msg("Dropping malformed subscriber")
				continue
			}
			g.Go(func() error {
				return s.deliver(ctx, logger, subscriber, data)
			})
		}
		if err := g.Wait(); err != nil && firstErr == nil {
			firstErr = err
		}

		if len(members) < s.chunk {
			break
		}
	}

	if err := s.repo.AddMany(ctx, logger, data.Endpoint, again); err != nil && popErr == nil {
		popErr = err
	}
	logger.WithCtx(ctx).Debug().Int("popped", len(seen)).Int("requeued", len(again)).Msg("Publish drained")
	if popErr != nil {
		return popErr
	}
	return firstErr
}

// Helper to notify one popped subscriber and record the outcome.
func (s service) deliver(ctx context.Context, logger log.Logger, subscriber entity.Subscriber, data *entity.EndpointPublish) error {
	if err := s.notifier.Notify(ctx, subscriber, data); err != nil {
		s.metrics.PublishDeliveriesTotal.WithLabelValues(string(data.Endpoint.Kind), metrics.OutcomeFailure).Inc()
		logger.WithCtx(ctx).Error().Err(err).Str("subscriber", subscriber.String()).Msg("Error occured during delivery in subscription.Publish")
		return err
	}
	s.metrics.PublishDeliveriesTotal.WithLabelValues(string(data.Endpoint.Kind), metrics.OutcomeSuccess).Inc()
	return nil
}
