// Package storetest provides a thread-safe in-memory ports.ObjectStore for tests.
package storetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/ports"
)

// Operation names recorded in Calls.
const (
	OpGet    = "get"
	OpPut    = "put"
	OpList   = "list"
	OpHead   = "head"
	OpDelete = "delete"
)

type Call struct {
	Op        string
	Container string
	Key       string
}

type object struct {
	data        []byte
	contentType string
}

// Store keeps objects per container. Listings behave like a delimited S3
// listing: only direct children of the prefix are returned, in key order.
type Store struct {
	mu       sync.Mutex
	objects  map[string]map[string]object
	calls    []Call
	failures map[string]error

	// BeforeGet, when set, runs before every GetObject outside the lock.
	BeforeGet func(container, key string)
}

var _ ports.ObjectStore = (*Store)(nil)

func New() *Store {
	return &Store{
		objects:  make(map[string]map[string]object),
		failures: make(map[string]error),
	}
}

func failureKey(op, container, key string) string {
	return op + ":" + container + "/" + key
}

// Seed stores an object without recording a call.
func (s *Store) Seed(container, key, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(container, key, contentType, data)
}

func (s *Store) putLocked(container, key, contentType string, data []byte) {
	if _, ok := s.objects[container]; !ok {
		s.objects[container] = make(map[string]object)
	}
	s.objects[container][key] = object{data: append([]byte(nil), data...), contentType: contentType}
}

// Object returns a copy of a stored object.
func (s *Store) Object(container, key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[container][key]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), obj.data...), obj.contentType, true
}

// Fail makes every subsequent op on container/key return err. A nil err clears it.
func (s *Store) Fail(op, container, key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, failureKey(op, container, key))
		return
	}
	s.failures[failureKey(op, container, key)] = err
}

// Calls returns the recorded calls, optionally filtered by op.
func (s *Store) Calls(op string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ContainerCalls counts the calls that touched container.
func (s *Store) ContainerCalls(container string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Container == container {
			n++
		}
	}
	return n
}

func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Store) record(op, container, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: op, Container: container, Key: key})
	return s.failures[failureKey(op, container, key)]
}

func (s *Store) GetObject(ctx context.Context, container, key string) (*model.StoredObject, error) {
	if s.BeforeGet != nil {
		s.BeforeGet(container, key)
	}
	if err := s.record(OpGet, container, key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, contentType, ok := s.Object(container, key)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", model.ErrNotFound, container, key)
	}
	return &model.StoredObject{
		Key:           key,
		ContentType:   contentType,
		ContentLength: int64(len(data)),
		Body:          io.NopCloser(bytes.NewReader(data)),
	}, nil
}

// PutObject stores the object only when body is read to the end without error.
func (s *Store) PutObject(ctx context.Context, container, key string, body io.Reader, contentType string) error {
	if err := s.record(OpPut, container, key); err != nil {
		return err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(container, key, contentType, data)
	return nil
}

func (s *Store) ListObjects(ctx context.Context, container, prefix string) ([]model.ObjectInfo, error) {
	return s.list(ctx, container, prefix, true)
}

// ListKeys leaves ContentType empty, like an S3 listing.
func (s *Store) ListKeys(ctx context.Context, container, prefix string) ([]model.ObjectInfo, error) {
	return s.list(ctx, container, prefix, false)
}

func (s *Store) HeadObject(ctx context.Context, container, key string) (*model.ObjectInfo, error) {
	if err := s.record(OpHead, container, key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, contentType, ok := s.Object(container, key)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", model.ErrNotFound, container, key)
	}
	return &model.ObjectInfo{Key: key, ContentType: contentType, ContentLength: int64(len(data))}, nil
}

func (s *Store) list(ctx context.Context, container, prefix string, withContentType bool) ([]model.ObjectInfo, error) {
	if err := s.record(OpList, container, prefix); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.ObjectInfo
	for key, obj := range s.objects[container] {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok || rest == "" || strings.Contains(rest, "/") {
			continue
		}
		info := model.ObjectInfo{Key: key, ContentLength: int64(len(obj.data))}
		if withContentType {
			info.ContentType = obj.contentType
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// DeleteObject is idempotent, as on S3.
func (s *Store) DeleteObject(ctx context.Context, container, key string) error {
	if err := s.record(OpDelete, container, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects[container], key)
	return nil
}
