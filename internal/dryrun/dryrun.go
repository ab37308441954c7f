// Package dryrun describes a request that was built but not sent.
package dryrun

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
)

const redacted = "[redacted]"

// credentialHeaders never appear in a preview.
var credentialHeaders = map[string]bool{
	"Authorization": true,
	"Api-Key":       true,
}

// Preview is the request a command would have sent.
type Preview struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    any               `json:"body,omitempty"`
	Form    []string          `json:"form,omitempty"`
}

// New builds a preview with credential headers redacted.
func New(method, url string, headers http.Header) *Preview {
	p := &Preview{Method: method, URL: url, Headers: make(map[string]string, len(headers))}
	for k, v := range headers {
		if len(v) == 0 {
			continue
		}
		key := http.CanonicalHeaderKey(k)
		if credentialHeaders[key] {
			p.Headers[key] = redacted
			continue
		}
		p.Headers[key] = v[0]
	}
	return p
}

// Write renders the preview for a terminal.
func (p *Preview) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "[DRY-RUN] %s %s\n", p.Method, p.URL); err != nil {
		return err
	}
	keys := make([]string, 0, len(p.Headers))
	for k := range p.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", k, p.Headers[k])
	}
	if p.Body != nil {
		data, err := json.MarshalIndent(p.Body, "", "  ")
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		_, _ = fmt.Fprintf(w, "\n%s\n", data)
	}
	if len(p.Form) > 0 {
		_, _ = fmt.Fprintln(w)
		for _, f := range p.Form {
			_, _ = fmt.Fprintf(w, "  form %s\n", f)
		}
	}
	_, err := fmt.Fprintln(w, "\nNo request sent (dry-run mode)")
	return err
}
