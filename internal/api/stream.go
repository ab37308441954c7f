package api

import (
	"bufio"
	"bytes"
	"io"
	"mime"
	"net/http"
)

// StreamFunc receives one data frame of a streamed response. Returning an
// error stops the stream; the error is surfaced wrapped in *StreamError.
type StreamFunc func(chunk []byte) error

const (
	maxStreamLine = 4 * 1024 * 1024
	streamDone    = "[DONE]"
)

// readStream delivers the response to onData and returns how many frames
// were delivered. Event streams are split into data frames; any other
// content type is delivered as a single frame.
func readStream(resp *http.Response, onData StreamFunc) (int, error) {
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get(headerContentType))
	if mediaType != "text/event-stream" {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, err
		}
		if len(body) == 0 {
			return 0, nil
		}
		if err := onData(body); err != nil {
			return 0, &StreamError{Chunks: 0, Err: err}
		}
		return 1, nil
	}
	return readEvents(resp.Body, onData)
}

// readEvents parses server-sent events. Consecutive data lines form one
// frame; a blank line dispatches it. Comments, other fields and frames
// with empty data are skipped.
func readEvents(r io.Reader, onData StreamFunc) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxStreamLine)

	var (
		frame   []byte
		pending bool
		chunks  int
	)
	dispatch := func() (bool, error) {
		if !pending {
			return false, nil
		}
		data := frame
		frame = nil
		pending = false
		if string(data) == streamDone {
			return true, nil
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return false, nil
		}
		if err := onData(data); err != nil {
			return true, &StreamError{Chunks: chunks, Err: err}
		}
		chunks++
		return false, nil
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			done, err := dispatch()
			if err != nil || done {
				return chunks, err
			}
			continue
		}
		if line[0] == ':' {
			continue
		}
		field, value, _ := bytes.Cut(line, []byte(":"))
		if string(field) != "data" {
			continue
		}
		value = bytes.TrimPrefix(value, []byte(" "))
		if pending {
			frame = append(frame, '\n')
		}
		frame = append(frame, value...)
		pending = true
	}
	if err := scanner.Err(); err != nil {
		return chunks, err
	}
	_, err := dispatch()
	return chunks, err
}
