package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
)

// Form is a multipart/form-data body: plain fields plus file parts.
type Form struct {
	fields map[string]string
	files  []formFile
}

type formFile struct {
	field    string
	filename string
	content  io.Reader
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{fields: map[string]string{}}
}

// Field sets a plain form field.
func (f *Form) Field(name, value string) *Form {
	f.fields[name] = value
	return f
}

// File adds a file part read from r.
func (f *Form) File(field, filename string, r io.Reader) *Form {
	f.files = append(f.files, formFile{field: field, filename: filename, content: r})
	return f
}

// FileFromPath adds a file part with the contents of the file at path.
func (f *Form) FileFromPath(field, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	f.File(field, filepath.Base(path), bytes.NewReader(data))
	return nil
}

// encode writes the form and returns the body with its Content-Type
// (multipart/form-data plus boundary).
func (f *Form) encode() ([]byte, string, error) {
	if f == nil {
		f = NewForm()
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	// Sorted for stable request bodies.
	names := make([]string, 0, len(f.fields))
	for name := range f.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writer.WriteField(name, f.fields[name]); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	for _, file := range f.files {
		part, err := writer.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file %s: %w", file.filename, err)
		}
		if _, err := io.Copy(part, file.content); err != nil {
			return nil, "", fmt.Errorf("failed to write file content %s: %w", file.filename, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}
