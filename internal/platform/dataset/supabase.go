package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"qsrankings/internal/logger"

	"github.com/antoineross/supabase-go"
	storage_go "github.com/supabase-community/storage-go"
)

type uploadFunc func(bucket, objectPath string, body io.Reader, contentType string) error

// Supabase buffers items and uploads them as one JSON array to a storage
// bucket on Close. Nothing is uploaded if Close is never reached.
type Supabase struct {
	log    *logger.Logger
	bucket string
	object string
	upload uploadFunc

	mu     sync.Mutex
	items  []interface{}
	closed bool
}

func NewSupabase(url, serviceKey, bucket, name string) (*Supabase, error) {
	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Supabase client: %w", err)
	}
	upload := func(bucket, objectPath string, body io.Reader, contentType string) error {
		_, err := client.Storage.UploadFile(bucket, objectPath, body, storage_go.FileOptions{ContentType: &contentType})
		return err
	}
	return newSupabase(bucket, ObjectPath(name, time.Now()), upload), nil
}

func newSupabase(bucket, object string, upload uploadFunc) *Supabase {
	return &Supabase{log: logger.New("SupabaseDataset"), bucket: bucket, object: object, upload: upload}
}

// ObjectPath is datasets/<name>/<timestamp>.json.
func ObjectPath(name string, at time.Time) string {
	return path.Join("datasets", name, at.UTC().Format("20060102_150405")+".json")
}

func (s *Supabase) Push(_ context.Context, items ...interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("push to closed dataset %s", s.object)
	}
	s.items = append(s.items, items...)
	return nil
}

func (s *Supabase) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	items := s.items
	if items == nil {
		items = []interface{}{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := s.upload(s.bucket, s.object, bytes.NewReader(b), "application/json"); err != nil {
		return fmt.Errorf("upload dataset to %s/%s: %w", s.bucket, s.object, err)
	}
	s.log.LogInfof("Uploaded %d items to %s/%s", len(items), s.bucket, s.object)
	return nil
}
