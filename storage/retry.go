package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hepkit/hepkit/config"
	"github.com/hepkit/hepkit/util"
)

// Retrier wraps a storage backend with logic which will retry on error,
// with a configurable backoff strategy.
type Retrier struct {
	*util.Retrier
	Backend Storage
}

// NewRetrier wraps backend with the retry settings of conf.
func NewRetrier(backend Storage, conf config.Retry) *Retrier {
	r := util.NewRetrier()
	if conf.MaxTries > 0 {
		r.MaxTries = conf.MaxTries
	}
	if conf.InitialInterval > 0 {
		r.InitialInterval = time.Duration(conf.InitialInterval)
	}
	if conf.MaxInterval > 0 {
		r.MaxInterval = time.Duration(conf.MaxInterval)
	}
	r.ShouldRetry = func(err error) bool {
		var proto *ErrUnsupportedProtocol
		var invalid *ErrInvalidURL
		return !errors.Is(err, ErrNoChecksum) && !errors.As(err, &proto) && !errors.As(err, &invalid)
	}
	return &Retrier{Retrier: r, Backend: backend}
}

// List lists the objects at the given url.
func (r *Retrier) List(ctx context.Context, url string) (objects []*Object, err error) {
	err = r.Retry(ctx, func() error {
		objects, err = r.Backend.List(ctx, url)
		return err
	})
	return
}

// Checksum returns the checksum of the object at url.
func (r *Retrier) Checksum(ctx context.Context, url string) (sum string, err error) {
	err = r.Retry(ctx, func() error {
		sum, err = r.Backend.Checksum(ctx, url)
		return err
	})
	return
}

// Get copies the object at url to path.
func (r *Retrier) Get(ctx context.Context, url, path string) error {
	return r.Retry(ctx, func() error {
		return r.Backend.Get(ctx, url, path)
	})
}

// UnsupportedOperations describes which operations (Get, List, etc) are not
// supported for the given URL.
func (r *Retrier) UnsupportedOperations(url string) UnsupportedOperations {
	return r.Backend.UnsupportedOperations(url)
}

// Join joins the given URL with the given subpath.
func (r *Retrier) Join(url, path string) (string, error) {
	return r.Backend.Join(url, path)
}
