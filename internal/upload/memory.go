package upload

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Object is a file held by MemoryUploader.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// MemoryUploader keeps uploads in memory. Used for dry runs and tests.
type MemoryUploader struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object
	order   []string
}

var _ Uploader = (*MemoryUploader)(nil)

// NewMemoryUploader creates an in-memory uploader whose URIs start with baseURL.
func NewMemoryUploader(baseURL string) *MemoryUploader {
	return &MemoryUploader{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

// Upload implements Uploader.
func (u *MemoryUploader) Upload(_ context.Context, f File) (string, error) {
	if len(f.Data) == 0 {
		return "", fmt.Errorf("upload %s: %w", f.Name, ErrEmptyFile)
	}

	key := objectKey("", f.Name)
	data := make([]byte, len(f.Data))
	copy(data, f.Data)

	u.mu.Lock()
	defer u.mu.Unlock()
	uri := u.baseURL + "/" + key
	u.objects[uri] = Object{Key: key, ContentType: contentType(f), Data: data}
	u.order = append(u.order, uri)
	return uri, nil
}

// UploadJSON implements Uploader.
func (u *MemoryUploader) UploadJSON(ctx context.Context, v interface{}) (string, error) {
	f, err := marshalJSON(v)
	if err != nil {
		return "", err
	}
	return u.Upload(ctx, f)
}

// Get returns the object stored under uri.
func (u *MemoryUploader) Get(uri string) (Object, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	obj, ok := u.objects[uri]
	if !ok {
		return Object{}, false
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return obj, true
}

// URIs returns every uploaded URI in upload order.
func (u *MemoryUploader) URIs() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return append([]string(nil), u.order...)
}
