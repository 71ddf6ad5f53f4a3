package classify

import (
	"context"
	"fmt"
	"time"

	"labeleval/internal/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Runner classifies a batch. The first irrecoverable failure stops the
// whole run and no predictions are returned.
type Runner struct {
	Classifier *Classifier
	// Workers > 1 dispatches concurrently; results still keep input order.
	Workers int
	Limiter *rate.Limiter
	Log     logrus.FieldLogger
	// OnResult is called once per successful conversation. It may run
	// concurrently when Workers > 1.
	OnResult func(domain.Prediction, Trace)
}

// NewLimiter returns nil when perSecond <= 0, which disables limiting.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

func (r *Runner) Run(ctx context.Context, convs []domain.Conversation) ([]domain.Prediction, error) {
	log := r.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	started := time.Now()
	log.WithFields(logrus.Fields{"conversations": len(convs), "workers": r.workers(), "model": r.Classifier.Model()}).Info("classify run started")

	var (
		preds []domain.Prediction
		err   error
	)
	if r.workers() <= 1 {
		preds, err = r.runSequential(ctx, convs)
	} else {
		preds, err = r.runPool(ctx, convs)
	}
	if err != nil {
		log.WithError(err).Error("classify run aborted")
		return nil, err
	}
	log.WithFields(logrus.Fields{"classified": len(preds), "duration_ms": time.Since(started).Milliseconds()}).Info("classify run finished")
	return preds, nil
}

func (r *Runner) workers() int {
	if r.Workers < 1 {
		return 1
	}
	return r.Workers
}

func (r *Runner) runSequential(ctx context.Context, convs []domain.Conversation) ([]domain.Prediction, error) {
	preds := make([]domain.Prediction, 0, len(convs))
	for _, conv := range convs {
		pred, err := r.classifyOne(ctx, conv)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

func (r *Runner) runPool(ctx context.Context, convs []domain.Conversation) ([]domain.Prediction, error) {
	slots := make([]domain.Prediction, len(convs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i, conv := range convs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			pred, err := r.classifyOne(gctx, conv)
			if err != nil {
				return err
			}
			slots[i] = pred
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *Runner) classifyOne(ctx context.Context, conv domain.Conversation) (domain.Prediction, error) {
	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return domain.Prediction{}, fmt.Errorf("rate limiter: %w", err)
		}
	}
	pred, trace, err := r.Classifier.Classify(ctx, conv)
	if err != nil {
		return domain.Prediction{}, err
	}
	if r.OnResult != nil {
		r.OnResult(pred, trace)
	}
	return pred, nil
}
