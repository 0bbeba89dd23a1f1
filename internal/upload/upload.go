// Package upload stores NFT images and metadata documents and returns the
// public URIs that on-chain metadata points to.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrEmptyFile is returned when uploading a file with no content.
var ErrEmptyFile = errors.New("empty file")

// File is an in-memory file to upload.
type File struct {
	// Name is the original file name; its extension is kept in the object key.
	Name string
	Data []byte
	// ContentType is sniffed from Data when empty.
	ContentType string
}

// Uploader stores files and returns their public URI.
type Uploader interface {
	// Upload stores the file and returns its URI.
	Upload(ctx context.Context, f File) (string, error)

	// UploadJSON marshals v and stores it as application/json.
	UploadJSON(ctx context.Context, v interface{}) (string, error)
}

// objectKey builds a unique key under prefix keeping the file extension.
func objectKey(prefix, name string) string {
	key := uuid.NewString() + strings.ToLower(path.Ext(name))
	if prefix == "" {
		return key
	}
	return strings.Trim(prefix, "/") + "/" + key
}

// contentType returns f.ContentType or the sniffed type of its data.
func contentType(f File) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	return mimetype.Detect(f.Data).String()
}

func marshalJSON(v interface{}) (File, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return File{}, fmt.Errorf("marshal metadata: %w", err)
	}
	return File{Name: "metadata.json", Data: data, ContentType: "application/json"}, nil
}
