package storage

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hepkit/hepkit/config"
	"github.com/hepkit/hepkit/util/fsutil"
	"github.com/minio/minio-go"
)

// s3Protocol defines the s3 URL protocol
const s3Protocol = "s3://"

var endpointRE = regexp.MustCompile("^(http[s]?://)?(.[^/]+)(.+)?$")

// S3 provides access to an S3 compatible object store, e.g. CERN's s3.cern.ch.
// Object stores provide no adler32 checksums, transfers fall back to
// comparing sizes.
type S3 struct {
	client   *minio.Client
	endpoint string
}

// NewS3 creates a new S3 instance, given an endpoint URL
// and a set of authentication credentials.
func NewS3(conf config.S3) (*S3, error) {
	ssl := !conf.Insecure && !strings.HasPrefix(conf.Endpoint, "http://")
	endpoint := endpointRE.ReplaceAllString(conf.Endpoint, "$2")
	client, err := minio.New(endpoint, conf.Key, conf.Secret, ssl)
	if err != nil {
		return nil, fmt.Errorf("error creating s3 backend: %v", err)
	}
	return &S3{client: client, endpoint: endpoint}, nil
}

type urlparts struct {
	bucket string
	path   string
}

func (s3 *S3) parse(rawurl string) (*urlparts, error) {
	if !strings.HasPrefix(rawurl, s3Protocol) {
		return nil, &ErrUnsupportedProtocol{"s3"}
	}
	path := strings.TrimPrefix(rawurl, s3Protocol)
	split := strings.SplitN(path, "/", 2)
	if split[0] == "" {
		return nil, &ErrInvalidURL{"s3", rawurl}
	}
	url := &urlparts{bucket: split[0]}
	if len(split) == 2 {
		url.path = split[1]
	}
	return url, nil
}

// List lists the objects under the prefix at url.
func (s3 *S3) List(ctx context.Context, rawurl string) ([]*Object, error) {
	url, err := s3.parse(rawurl)
	if err != nil {
		return nil, err
	}
	prefix := url.path
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	doneCh := make(chan struct{})
	defer close(doneCh)

	var objects []*Object
	for obj := range s3.client.ListObjects(url.bucket, prefix, true, doneCh) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		objects = append(objects, &Object{
			URL:          s3Protocol + url.bucket + "/" + obj.Key,
			Rel:          strings.TrimPrefix(obj.Key, prefix),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return objects, nil
}

// Checksum always returns ErrNoChecksum.
func (s3 *S3) Checksum(ctx context.Context, url string) (string, error) {
	return "", ErrNoChecksum
}

// Get copies an object from S3 to the host path.
func (s3 *S3) Get(ctx context.Context, rawurl, path string) error {
	url, err := s3.parse(rawurl)
	if err != nil {
		return err
	}
	if err := fsutil.EnsurePath(path); err != nil {
		return err
	}
	return s3.client.FGetObjectWithContext(ctx, url.bucket, url.path, path, minio.GetObjectOptions{})
}

// Join joins the given URL with the given subpath.
func (s3 *S3) Join(url, path string) (string, error) {
	return strings.TrimSuffix(url, "/") + "/" + path, nil
}

// UnsupportedOperations describes which operations (Get, List, etc) are not
// supported for the given URL.
func (s3 *S3) UnsupportedOperations(url string) UnsupportedOperations {
	if _, err := s3.parse(url); err != nil {
		return AllUnsupported(err)
	}
	ops := AllSupported()
	ops.Checksum = ErrNoChecksum
	return ops
}
