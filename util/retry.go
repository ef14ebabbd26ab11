package util

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"
)

// Retrier is a wrapper around "github.com/cenkalti/backoff".ExponentialBackOff
type Retrier struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
	MaxElapsedTime      time.Duration
	MaxTries            int
	ShouldRetry         func(err error) bool
	Notify              func(err error, d time.Duration)
}

// NewRetrier creates a new Retrier instance using default values.
func NewRetrier() *Retrier {
	return &Retrier{
		InitialInterval:     time.Millisecond * 500,
		MaxInterval:         time.Second * 60,
		Multiplier:          1.5,
		RandomizationFactor: 0.5,
		MaxElapsedTime:      time.Minute * 15,
		MaxTries:            10,
	}
}

// Retry calls f until it returns nil, a permanent error, or the
// backoff gives up. The last error is returned.
func (r *Retrier) Retry(ctx context.Context, f func() error) error {
	if r == nil {
		return f()
	}
	b := backoff.WithContext(r.withTries(), ctx)
	err := backoff.RetryNotify(func() error { return r.checkErr(f()) }, b, r.notify)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

// Permanent marks an error so it is never retried.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &backoff.PermanentError{Err: err}
}

func (r *Retrier) notify(err error, d time.Duration) {
	if r.Notify != nil {
		r.Notify(err, d)
	}
}

func (r *Retrier) checkErr(err error) error {
	var perm *backoff.PermanentError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &perm):
		return perm
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &backoff.PermanentError{Err: err}
	case r.ShouldRetry != nil && !r.ShouldRetry(err):
		return &backoff.PermanentError{Err: err}
	default:
		return err
	}
}

func (r *Retrier) withTries() backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     r.InitialInterval,
		MaxInterval:         r.MaxInterval,
		Multiplier:          r.Multiplier,
		RandomizationFactor: r.RandomizationFactor,
		MaxElapsedTime:      r.MaxElapsedTime,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	max := r.MaxTries - 1
	if max < 0 {
		max = 0
	}
	return backoff.WithMaxRetries(b, uint64(max))
}
