package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/lightwaver/gallerix/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &types.NotFound{})))
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NotFound"}))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("timeout")))
}

func TestCancelOnClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	body := &cancelOnClose{ReadCloser: io.NopCloser(strings.NewReader("x")), cancel: cancel}

	assert.NoError(t, ctx.Err())
	assert.NoError(t, body.Close())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

// fakeS3 answers the path-style requests S3Service issues against bucket "data".
type fakeS3 struct {
	delay time.Duration
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.TrimSuffix(r.URL.Path, "/") == "/data" && r.URL.Query().Get("list-type") == "2":
		f.list(w, r)
	case r.Method == http.MethodHead:
		contentTypes := map[string]string{"/data/g/a.jpg": "image/jpeg", "/data/g/b.mp4": "video/mp4"}
		contentType, ok := contentTypes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Path == "/data/g/stalled.bin":
		f.wait(r)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Path == "/data/g/slow.bin":
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", "10")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello"))
		w.(http.Flusher).Flush()
		f.wait(r)
		_, _ = w.Write([]byte("world"))
	case r.Method == http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		f.wait(r)
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeS3) wait(r *http.Request) {
	select {
	case <-time.After(f.delay):
	case <-r.Context().Done():
	}
}

func (f *fakeS3) list(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/xml")
	const head = `<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>data</Name><Prefix>g/</Prefix><Delimiter>/</Delimiter><MaxKeys>1000</MaxKeys>`
	if r.URL.Query().Get("continuation-token") == "page-2" {
		fmt.Fprint(w, head+`<KeyCount>1</KeyCount><IsTruncated>false</IsTruncated>`+
			`<Contents><Key>g/b.mp4</Key><Size>5</Size></Contents></ListBucketResult>`)
		return
	}
	fmt.Fprint(w, head+`<KeyCount>2</KeyCount><IsTruncated>true</IsTruncated><NextContinuationToken>page-2</NextContinuationToken>`+
		`<Contents><Key>g/</Key><Size>0</Size></Contents>`+
		`<Contents><Key>g/a.jpg</Key><Size>3</Size></Contents></ListBucketResult>`)
}

func newTestS3Service(t *testing.T, handler http.Handler, timeout, transferTimeout time.Duration) *S3Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:                     "us-east-1",
		Credentials:                credentials.NewStaticCredentialsProvider("key", "secret", ""),
		BaseEndpoint:               aws.String(srv.URL),
		UsePathStyle:               true,
		RetryMaxAttempts:           1,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	})
	return &S3Service{
		client:          client,
		uploader:        manager.NewUploader(client),
		timeout:         timeout,
		transferTimeout: transferTimeout,
	}
}

func TestS3Service_ListObjectsDrainsPages(t *testing.T) {
	svc := newTestS3Service(t, &fakeS3{}, time.Second, time.Second)

	objects, err := svc.ListObjects(context.Background(), "data", "g/")
	require.NoError(t, err)
	assert.Equal(t, []model.ObjectInfo{
		{Key: "g/a.jpg", ContentType: "image/jpeg", ContentLength: 3},
		{Key: "g/b.mp4", ContentType: "video/mp4", ContentLength: 5},
	}, objects)

	keys, err := svc.ListKeys(context.Background(), "data", "g/")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Empty(t, keys[1].ContentType)
}

func TestS3Service_HeadObjectNotFound(t *testing.T) {
	svc := newTestS3Service(t, &fakeS3{}, time.Second, time.Second)

	_, err := svc.HeadObject(context.Background(), "data", "g/missing.jpg")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestS3Service_StreamOutlivesRequestTimeout(t *testing.T) {
	svc := newTestS3Service(t, &fakeS3{delay: 300 * time.Millisecond}, 50*time.Millisecond, 5*time.Second)

	obj, err := svc.GetObject(context.Background(), "data", "g/slow.bin")
	require.NoError(t, err)
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "helloworld", string(data))
}

func TestS3Service_StreamBoundedByTransferTimeout(t *testing.T) {
	svc := newTestS3Service(t, &fakeS3{delay: 2 * time.Second}, time.Second, 50*time.Millisecond)

	obj, err := svc.GetObject(context.Background(), "data", "g/slow.bin")
	require.NoError(t, err)
	defer obj.Body.Close()

	_, err = io.ReadAll(obj.Body)
	assert.Error(t, err)
}

func TestS3Service_RequestTimeoutBeforeHeaders(t *testing.T) {
	svc := newTestS3Service(t, &fakeS3{delay: 2 * time.Second}, 50*time.Millisecond, 5*time.Second)

	start := time.Now()
	_, err := svc.GetObject(context.Background(), "data", "g/stalled.bin")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
	assert.Less(t, time.Since(start), time.Second)
}

func TestS3Service_UploadOutlivesRequestTimeout(t *testing.T) {
	svc := newTestS3Service(t, &fakeS3{delay: 300 * time.Millisecond}, 50*time.Millisecond, 5*time.Second)

	err := svc.PutObject(context.Background(), "data", "g/up.bin", bytes.NewReader([]byte("payload")), "application/octet-stream")
	assert.NoError(t, err)
}
