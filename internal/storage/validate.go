package storage

import (
	"bufio"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// MaxUploadSize caps package images and payment proofs.
const MaxUploadSize = 10 << 20

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
}

var allowedMime = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// ValidateBySniff checks the extension of filename and the first bytes of the
// content against a whitelist. Returns the detected mime type.
func ValidateBySniff(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", errors.New("Only JPG, PNG, GIF, WEBP or PDF files are supported")
	}

	detected := http.DetectContentType(head)
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "text/xml") || detected == "image/svg+xml" {
		return "", errors.New("HTML, XML and SVG content is not allowed")
	}
	if allowedMime[detected] {
		return detected, nil
	}
	return "", errors.New("The file type is not supported")
}

// Prepare validates an upload and returns a File whose body still yields the
// sniffed bytes.
func Prepare(filename string, size int64, r io.Reader) (File, error) {
	if size > MaxUploadSize {
		return File{}, errors.New("The file is too large")
	}
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return File{}, err
	}
	if len(head) == 0 {
		return File{}, errors.New("The file is empty")
	}
	contentType, err := ValidateBySniff(filename, head)
	if err != nil {
		return File{}, err
	}
	return File{Filename: filename, ContentType: contentType, Size: size, Body: br}, nil
}
