package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hepkit/hepkit/command"
	"github.com/hepkit/hepkit/config"
	"github.com/hepkit/hepkit/logger"
)

// operation codes help multiplex storage operations across multiple backends.
type operation int

const (
	listOp operation = iota
	checksumOp
	getOp
	joinOp
)

// Mux provides a client for accessing multiple storage systems,
// i.e. for listing and downloading files from EOS, S3, local disk, etc.
//
// For a given storage url, the storage backend is usually determined by the url prefix,
// e.g. "root://cmseos.fnal.gov//store/user/x" will access the XRootD backend.
type Mux struct {
	Backends []Storage
}

// NewMux returns a new Mux instance configured from conf. Remote backends
// retry failed operations.
func NewMux(conf config.Config, r command.Runner) (*Mux, error) {
	mux := &Mux{}
	mux.Backends = append(mux.Backends, NewLocal())

	if conf.XRootD.Xrdfs != "" {
		mux.Backends = append(mux.Backends, NewRetrier(NewXRootD(r, conf.XRootD), conf.Retry))
	}

	if !conf.S3.Disabled && conf.S3.Endpoint != "" {
		s3, err := NewS3(conf.S3)
		if err != nil {
			return mux, fmt.Errorf("failed to configure S3 storage backend: %s", err)
		}
		mux.Backends = append(mux.Backends, NewRetrier(s3, conf.Retry))
	}

	return mux, nil
}

// List lists the objects at the given url.
func (mux *Mux) List(ctx context.Context, url string) ([]*Object, error) {
	backend, err := mux.findBackend(url, listOp)
	if err != nil {
		return nil, err
	}
	return backend.List(ctx, url)
}

// Checksum returns the checksum of the object at url.
func (mux *Mux) Checksum(ctx context.Context, url string) (string, error) {
	backend, err := mux.findBackend(url, checksumOp)
	if err != nil {
		return "", err
	}
	return backend.Checksum(ctx, url)
}

// Get downloads a file from a storage system at the given "url".
// The file is downloaded to the given local "path".
func (mux *Mux) Get(ctx context.Context, url, path string) error {
	backend, err := mux.findBackend(url, getOp)
	if err != nil {
		return err
	}
	return backend.Get(ctx, url, path)
}

// Join joins the given URL with the given subpath.
func (mux *Mux) Join(url, path string) (string, error) {
	backend, err := mux.findBackend(url, joinOp)
	if err != nil {
		return "", err
	}
	return backend.Join(url, path)
}

// UnsupportedOperations describes which operations (Get, List, etc) are not
// supported for the given URL.
func (mux *Mux) UnsupportedOperations(url string) UnsupportedOperations {
	unsupported := UnsupportedOperations{}
	for op, dst := range map[operation]*error{
		listOp:     &unsupported.List,
		checksumOp: &unsupported.Checksum,
		getOp:      &unsupported.Get,
		joinOp:     &unsupported.Join,
	} {
		_, *dst = mux.findBackend(url, op)
	}
	return unsupported
}

// AttachLogger will log information (such as retry warnings)
// to the given logger.
func (mux *Mux) AttachLogger(log *logger.Logger) {
	for _, b := range mux.Backends {
		if r, ok := b.(*Retrier); ok {
			r.Retrier.Notify = func(err error, sleep time.Duration) {
				log.Warn("Retrying", "error", err, "sleep", sleep)
			}
		}
	}
}

func (mux *Mux) findBackend(url string, op operation) (Storage, error) {
	var found = 0
	var useBackend Storage
	var err error
	var errs []string

	for _, backend := range mux.Backends {
		unsupported := backend.UnsupportedOperations(url)
		switch op {
		case listOp:
			err = unsupported.List
		case checksumOp:
			err = unsupported.Checksum
		case getOp:
			err = unsupported.Get
		case joinOp:
			err = unsupported.Join
		}

		if err == nil {
			useBackend = backend
			found++
		} else if _, ok := err.(*ErrUnsupportedProtocol); !ok {
			errs = append(errs, err.Error())
		}
	}

	if found == 0 {
		msg := fmt.Sprintf("could not find matching storage system for: %s", url)
		if len(errs) > 0 {
			msg += "\n" + strings.Join(errs, "\n")
		}
		return nil, fmt.Errorf("%s", msg)
	} else if found > 1 {
		return nil, fmt.Errorf("request supported by multiple backends for: %s", url)
	}

	return useBackend, nil
}
