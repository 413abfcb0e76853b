package rendering

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jonathan/resume-autoapply/internal/types"
)

// ObjectPutter is the subset of the S3 client used for mirroring.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror persists through another Persister and uploads the resulting file to S3.
// Upload failures are logged; the local artifact is still returned.
type S3Mirror struct {
	next   Persister
	client ObjectPutter
	bucket string
	prefix string
	logger *log.Logger
}

// S3Options configures NewS3Mirror.
type S3Options struct {
	Bucket string
	Prefix string
	// Endpoint overrides the S3 endpoint for S3-compatible stores (R2, MinIO).
	Endpoint string
	Region   string
}

// NewS3Mirror wraps next with an uploader using the default AWS credential chain.
func NewS3Mirror(ctx context.Context, next Persister, opts S3Options, logger *log.Logger) (*S3Mirror, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3MirrorWithClient(next, client, opts.Bucket, opts.Prefix, logger), nil
}

// NewS3MirrorWithClient wraps next with an uploader using client.
func NewS3MirrorWithClient(next Persister, client ObjectPutter, bucket, prefix string, logger *log.Logger) *S3Mirror {
	if logger == nil {
		logger = log.Default()
	}
	return &S3Mirror{
		next:   next,
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// Persist writes the artifact locally, then uploads it.
func (m *S3Mirror) Persist(ctx context.Context, resume types.TailoredResume, artifactPath string) (types.ResumeArtifact, error) {
	artifact, err := m.next.Persist(ctx, resume, artifactPath)
	if err != nil {
		return artifact, err
	}

	key := m.objectKey(artifactPath)
	if err := m.upload(ctx, artifact.Path, key); err != nil {
		m.logger.Printf("[PIPELINE] Warning: failed to mirror %s to s3://%s/%s: %v", artifact.Path, m.bucket, key, err)
		return artifact, nil
	}
	artifact.MirrorURL = fmt.Sprintf("s3://%s/%s", m.bucket, key)
	return artifact, nil
}

func (m *S3Mirror) objectKey(artifactPath string) string {
	name := filepath.Base(artifactPath)
	if m.prefix == "" {
		return name
	}
	return path.Join(m.prefix, name)
}

func (m *S3Mirror) upload(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
	})
	return err
}

func contentType(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".md":
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
