package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"ontomaint/internal/domain"
)

var _ domain.GraphSource = (*S3)(nil)

// S3 reads graph files from an S3-compatible bucket.
type S3 struct {
	client *s3.Client
	loc    Location
	glob   string
}

// NewS3 creates an S3 source. A custom endpoint switches to path-style
// addressing, which most S3-compatible services require.
func NewS3(loc Location, opts Options) (*S3, error) {
	o := s3.Options{Region: opts.S3.Region}
	if o.Region == "" {
		o.Region = "us-east-1"
	}
	if opts.S3.KeyID != "" {
		o.Credentials = credentials.NewStaticCredentialsProvider(opts.S3.KeyID, opts.S3.Secret, "")
	}
	if opts.S3.Endpoint != "" {
		o.BaseEndpoint = aws.String(endpointURL(opts.S3.Endpoint))
		o.UsePathStyle = true
	}
	return &S3{client: s3.New(o), loc: loc, glob: opts.glob()}, nil
}

func endpointURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "https://" + endpoint
}

// List returns the matching object keys under dir, relative to the prefix.
func (s *S3) List(ctx context.Context, dir string) ([]string, error) {
	root := joinKey(s.loc.Prefix, dir)
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.loc.Bucket),
		Prefix: aws.String(root + "/"),
	})
	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.loc.Bucket, root, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return objectKeys(keys, s.loc.Prefix, dir, s.glob)
}

// Open streams one object.
func (s *S3) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := joinKey(s.loc.Prefix, name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.loc.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.loc.Bucket, key, err)
	}
	return out.Body, nil
}
