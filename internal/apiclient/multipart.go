package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
)

// FormFile - файл в составе multipart тела.
type FormFile struct {
	Field       string
	Name        string
	ContentType string
	Content     io.Reader
}

// Multipart - готовое multipart/form-data тело. Клиент отправляет его без изменений.
type Multipart struct {
	body        []byte
	contentType string
}

// NewMultipart собирает multipart тело из полей и файлов.
func NewMultipart(fields map[string]string, files ...FormFile) (*Multipart, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, fmt.Errorf("writing field %q: %w", k, err)
		}
	}

	for _, f := range files {
		if f.Content == nil {
			continue
		}
		part, err := createFilePart(w, f)
		if err != nil {
			return nil, fmt.Errorf("creating part %q: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("copying part %q: %w", f.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	return &Multipart{body: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}

// NewRawMultipart оборачивает уже закодированное тело, например пришедшее от браузера.
func NewRawMultipart(body []byte, contentType string) *Multipart {
	return &Multipart{body: body, contentType: contentType}
}

func createFilePart(w *multipart.Writer, f FormFile) (io.Writer, error) {
	if f.ContentType == "" {
		return w.CreateFormFile(f.Field, f.Name)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(f.Field), escapeQuotes(f.Name)))
	h.Set("Content-Type", f.ContentType)
	return w.CreatePart(h)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// ContentType возвращает multipart/form-data с границей.
func (m *Multipart) ContentType() string {
	return m.contentType
}

// Reader возвращает новый читатель тела.
func (m *Multipart) Reader() io.Reader {
	return bytes.NewReader(m.body)
}

// Len возвращает размер тела в байтах.
func (m *Multipart) Len() int {
	return len(m.body)
}
