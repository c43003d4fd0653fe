package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/lightwaver/gallerix/config"
	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/ports"
	"github.com/lightwaver/gallerix/internal/util"
	"golang.org/x/sync/errgroup"
)

// headConcurrency bounds the HeadObject calls a listing issues in parallel.
const headConcurrency = 8

// S3Service implements ports.ObjectStore; every container is a bucket.
// timeout bounds metadata calls and a GET until its headers arrive;
// transferTimeout bounds a streamed body or an upload.
type S3Service struct {
	client          *s3.Client
	uploader        *manager.Uploader
	timeout         time.Duration
	transferTimeout time.Duration
}

var _ ports.ObjectStore = (*S3Service)(nil)

func NewS3Service(ctx context.Context, cfg *config.S3Config, containers *config.ContainersConfig, partSize int64) (*S3Service, error) {
	var client *s3.Client

	if cfg.Local {
		accessKey, secretKey := cfg.AccessKey, cfg.SecretKey
		if accessKey == "" {
			accessKey, secretKey = "minioadmin", "minioadmin"
		}
		client = s3.New(s3.Options{
			Region:       cfg.Region,
			Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
			BaseEndpoint: aws.String(cfg.Endpoint),
			UsePathStyle: true,
		})

		for _, bucket := range []string{containers.Config, containers.Data, containers.Thumbs} {
			if err := createBucketIfNotExists(ctx, client, bucket); err != nil {
				return nil, util.LogError("[S3Service] create bucket", err)
			}
		}
	} else {
		opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(cfg.Region)}
		if cfg.AccessKey != "" {
			opts = append(opts, awsConfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
		}
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, util.LogError("[S3Service] load AWS config", err)
		}
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				o.UsePathStyle = true
			}
		})
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = partSize
	})

	return &S3Service{
		client:          client,
		uploader:        uploader,
		timeout:         cfg.Timeout,
		transferTimeout: cfg.TransferTimeout,
	}, nil
}

// createBucketIfNotExists creates bucket when HeadBucket fails
func createBucketIfNotExists(ctx context.Context, client *s3.Client, bucket string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})

	if err == nil {
		return nil
	}

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})

	if err != nil {
		return util.LogError(fmt.Sprintf("[S3Service] create bucket %s", bucket), err)
	}

	log.Printf("[S3Service] bucket %s created", bucket)
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// GetObject : the request timeout covers the call until headers arrive, then
// the body gets the transfer timeout and is released when closed
func (s *S3Service) GetObject(ctx context.Context, container, key string) (*model.StoredObject, error) {
	ctx, cancelCtx := context.WithCancel(ctx)
	deadline := &phasedDeadline{cancel: cancelCtx}
	deadline.arm(s.timeout)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil {
		deadline.release()
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", model.ErrNotFound, container, key)
		}
		return nil, util.LogError(fmt.Sprintf("[S3Service] get %s/%s", container, key), err)
	}

	return &model.StoredObject{
		Key:           key,
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
		Body:          &cancelOnClose{ReadCloser: out.Body, cancel: deadline.rearm(s.transferTimeout)},
	}, nil
}

// PutObject streams body through the multipart uploader; a failed upload is aborted.
func (s *S3Service) PutObject(ctx context.Context, container, key string, body io.Reader, contentType string) error {
	ctx, cancel := withTimeout(ctx, s.transferTimeout)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return util.LogError(fmt.Sprintf("[S3Service] put %s/%s", container, key), err)
	}
	return nil
}

// ListObjects returns the direct children of prefix across all pages, with content types.
func (s *S3Service) ListObjects(ctx context.Context, container, prefix string) ([]model.ObjectInfo, error) {
	objects, err := s.ListKeys(ctx, container, prefix)
	if err != nil {
		return nil, err
	}

	// listings carry no content type
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(headConcurrency)
	for i := range objects {
		g.Go(func() error {
			head, err := s.HeadObject(gctx, container, objects[i].Key)
			if err != nil {
				return err
			}
			objects[i].ContentType = head.ContentType
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return objects, nil
}

// ListKeys drains every page of a delimited listing; nested keys and folder markers are skipped.
func (s *S3Service) ListKeys(ctx context.Context, container, prefix string) ([]model.ObjectInfo, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(container),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var objects []model.ObjectInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, util.LogError(fmt.Sprintf("[S3Service] list %s/%s", container, prefix), err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rest := strings.TrimPrefix(key, prefix)
			if rest == "" || strings.Contains(rest, "/") {
				continue
			}
			objects = append(objects, model.ObjectInfo{
				Key:           key,
				ContentLength: aws.ToInt64(obj.Size),
			})
		}
	}
	return objects, nil
}

func (s *S3Service) HeadObject(ctx context.Context, container, key string) (*model.ObjectInfo, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", model.ErrNotFound, container, key)
		}
		return nil, util.LogError(fmt.Sprintf("[S3Service] head %s/%s", container, key), err)
	}
	return &model.ObjectInfo{
		Key:           key,
		ContentType:   aws.ToString(head.ContentType),
		ContentLength: aws.ToInt64(head.ContentLength),
	}, nil
}

// DeleteObject : deleting a missing key succeeds
func (s *S3Service) DeleteObject(ctx context.Context, container, key string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return util.LogError(fmt.Sprintf("[S3Service] delete %s/%s", container, key), err)
	}
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// phasedDeadline cancels a context when the current phase outlives its timeout.
type phasedDeadline struct {
	timer  *time.Timer
	cancel context.CancelFunc
}

func (d *phasedDeadline) arm(timeout time.Duration) {
	if timeout > 0 {
		d.timer = time.AfterFunc(timeout, d.cancel)
	}
}

// rearm starts the next phase and returns the function that ends it.
func (d *phasedDeadline) rearm(timeout time.Duration) context.CancelFunc {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.arm(timeout)
	return d.release
}

func (d *phasedDeadline) release() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.cancel()
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}
