package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	KindPhoto     = "photo"
	KindSignature = "signature"

	// MaxSize bounds a decoded upload.
	MaxSize = 10 << 20
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Object is the metadata of a stored photo or signature.
type Object struct {
	ID          uuid.UUID `json:"id" bson:"_id"`
	OwnerType   string    `json:"owner_type" bson:"owner_type"`
	OwnerID     string    `json:"owner_id" bson:"owner_id"`
	Kind        string    `json:"kind" bson:"kind"`
	ContentType string    `json:"content_type" bson:"content_type"`
	Size        int       `json:"size" bson:"size"`
	Key         string    `json:"-" bson:"key"`
	Caption     string    `json:"caption,omitempty" bson:"caption,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty" bson:"longitude,omitempty"`
	URL         string    `json:"url" bson:"-"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

type UploadRequest struct {
	OwnerType   string   `json:"owner_type"`
	OwnerID     string   `json:"owner_id"`
	Kind        string   `json:"kind"`
	ContentType string   `json:"content_type"`
	Caption     string   `json:"caption"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Data        string   `json:"data"`
}

// DecodeData accepts plain base64 or a data URL and returns the bytes and their
// content type. A declared content type wins over the one of the data URL.
func DecodeData(data, declared string) ([]byte, string, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, "", fmt.Errorf("%w: empty data", ErrInvalidInput)
	}

	contentType := declared
	if strings.HasPrefix(data, "data:") {
		comma := strings.IndexByte(data, ',')
		if comma < 0 {
			return nil, "", fmt.Errorf("%w: malformed data URL", ErrInvalidInput)
		}
		meta := data[len("data:"):comma]
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", fmt.Errorf("%w: data URL must be base64 encoded", ErrInvalidInput)
		}
		if contentType == "" {
			contentType = strings.TrimSuffix(meta, ";base64")
		}
		data = data[comma+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(raw) > MaxSize {
		return nil, "", fmt.Errorf("%w: object exceeds %d bytes", ErrInvalidInput, MaxSize)
	}
	if contentType == "" {
		contentType = http.DetectContentType(raw)
	}
	return raw, contentType, nil
}

func extension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	default:
		return ".bin"
	}
}
