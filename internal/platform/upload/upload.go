// Package upload reads image parts from multipart requests.
package upload

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"rentmeroom/internal/blob"
	dErrors "rentmeroom/pkg/domain-errors"
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Form holds the parsed files of one request. Close releases them.
type Form struct {
	files []multipart.File
}

func (f *Form) Close() {
	for _, file := range f.files {
		_ = file.Close()
	}
}

// Parse reads a multipart body of at most maxBytes.
func Parse(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return dErrors.New(dErrors.CodeBadRequest, "request body too large")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form")
	}
	return nil
}

// Images opens up to limit JPEG or PNG files under field.
func (f *Form) Images(r *http.Request, field string, limit int) ([]blob.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) > limit {
		return nil, dErrors.Validation(dErrors.FieldError{Field: field, Message: "too many files"})
	}
	uploads := make([]blob.Upload, 0, len(headers))
	for _, h := range headers {
		u, err := f.open(field, h)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

// Image opens the single optional file under field.
func (f *Form) Image(r *http.Request, field string) (*blob.Upload, error) {
	uploads, err := f.Images(r, field, 1)
	if err != nil || len(uploads) == 0 {
		return nil, err
	}
	return &uploads[0], nil
}

func (f *Form) open(field string, h *multipart.FileHeader) (blob.Upload, error) {
	file, err := h.Open()
	if err != nil {
		return blob.Upload{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable upload")
	}
	f.files = append(f.files, file)

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return blob.Upload{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable upload")
	}
	contentType := http.DetectContentType(head[:n])
	if !allowedTypes[contentType] {
		return blob.Upload{}, dErrors.Validation(dErrors.FieldError{Field: field, Message: "only .jpg, .jpeg and .png files are allowed"})
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return blob.Upload{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable upload")
	}
	return blob.Upload{Name: h.Filename, ContentType: contentType, Body: file}, nil
}
