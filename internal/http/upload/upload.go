// Package upload сохраняет файлы из multipart-запроса во временный каталог,
// откуда их забирает хранилище изображений.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingFile в запросе нет файла с указанным именем поля.
var ErrMissingFile = errors.New("file is missing")

// ErrNotImage расширение файла не похоже на изображение.
var ErrNotImage = errors.New("file is not an image")

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Files временные файлы одного запроса.
type Files struct {
	dir   string
	Paths []string
}

// ParseForm ограничивает тело запроса maxBytes и разбирает multipart-форму.
func ParseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	const op = "upload.ParseForm"
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Save сохраняет все файлы поля field. required требует хотя бы один файл.
//
// После использования вызывающий обязан вызвать Cleanup.
func Save(r *http.Request, field string, required bool) (*Files, error) {
	const op = "upload.Save"
	files := &Files{}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File[field]
	}
	if len(headers) == 0 {
		if required {
			return nil, fmt.Errorf("%s: %s: %w", op, field, ErrMissingFile)
		}
		return files, nil
	}

	dir, err := os.MkdirTemp("", "upload-*")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	files.dir = dir

	for i, fh := range headers {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !allowedExt[ext] {
			files.Cleanup()
			return nil, fmt.Errorf("%s: %s: %w", op, fh.Filename, ErrNotImage)
		}
		p := filepath.Join(dir, fmt.Sprintf("%d%s", i, ext))
		if err = copyFile(fh, p); err != nil {
			files.Cleanup()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		files.Paths = append(files.Paths, p)
	}
	return files, nil
}

// First путь к первому файлу или пустая строка.
func (f *Files) First() string {
	if len(f.Paths) == 0 {
		return ""
	}
	return f.Paths[0]
}

// Cleanup удаляет временный каталог.
func (f *Files) Cleanup() {
	if f.dir != "" {
		_ = os.RemoveAll(f.dir)
	}
}

func copyFile(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = src.Close()
	}()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
