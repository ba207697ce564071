package storefront

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/pribylovaa/go-storefront/internal/models"
)

// MaxUploadSize — предел размера файла, отправляемого через UploadFile.
const MaxUploadSize = 10 << 20

// UploadFile отправляет файл в хранилище backend'а (multipart, поле "file").
// Тело собирается в память целиком, чтобы запрос можно было повторить после
// обновления пары.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader) (*models.UploadedFile, error) {
	const op = "storefront.files.UploadFile"

	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return nil, invalid(op, "empty file name")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	n, err := io.Copy(fw, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("%s: read file: %w", op, err)
	}
	if n > MaxUploadSize {
		return nil, invalid(op, "file too large")
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out models.UploadedFile
	if err := c.send(ctx, http.MethodPost, "/files/upload", nil, bytes.NewReader(buf.Bytes()), mw.FormDataContentType(), &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}
