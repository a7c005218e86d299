package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/GoArmGo/foodgram/internal/core/ports"
	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/google/uuid"
)

// Image — декодированная картинка из data URI
type Image struct {
	ContentType string
	Ext         string
	Data        []byte
}

// Reader возвращает содержимое картинки для загрузки в хранилище
func (img *Image) Reader() io.Reader {
	return bytes.NewReader(img.Data)
}

// Key строит ключ объекта вида prefix/<uuid>.<ext>
func (img *Image) Key(prefix string) string {
	return fmt.Sprintf("%s/%s.%s", prefix, uuid.New(), img.Ext)
}

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DecodeImage разбирает строку вида data:image/png;base64,<данные>
func DecodeImage(dataURI string) (*Image, error) {
	header, payload, ok := strings.Cut(dataURI, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, domain.ErrInvalidImage
	}

	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		return nil, domain.ErrInvalidImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, domain.ErrInvalidImage
	}

	return &Image{ContentType: contentType, Ext: ext, Data: data}, nil
}

// objectKeyFromURL выделяет ключ объекта из его публичного URL
func objectKeyFromURL(baseURL, url string) (string, bool) {
	prefix := strings.TrimSuffix(baseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// deleteObjectByURL удаляет объект из хранилища; ошибка только логируется
func deleteObjectByURL(ctx context.Context, fs ports.FileStorage, logger *slog.Logger, url string) {
	key, ok := objectKeyFromURL(fs.ObjectURL(""), url)
	if !ok {
		return
	}
	if err := fs.DeleteFile(ctx, key); err != nil {
		logger.Warn("usecase: не удалось удалить объект из хранилища",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
}
