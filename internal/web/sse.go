// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// eventStream writes text/event-stream frames and flushes each one.
type eventStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// startEventStream sends the stream headers with status 200.
func startEventStream(w http.ResponseWriter) *eventStream {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	es := &eventStream{w: w, rc: http.NewResponseController(w)}
	_ = es.flush() //nolint:errcheck // headers reach the client with the first frame anyway
	return es
}

// send writes a frame whose data is the JSON encoding of v. An empty event
// name produces an unnamed (message) event.
func (es *eventStream) send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return oops.Code("SSE_ENCODE_FAILED").Wrap(err)
	}
	return es.data(event, string(data))
}

// data writes a raw frame. Multi-line payloads are split across data lines.
func (es *eventStream) data(event, payload string) error {
	var b strings.Builder
	if event != "" {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	for _, line := range strings.Split(payload, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	if _, err := es.w.Write([]byte(b.String())); err != nil {
		return oops.Code("SSE_WRITE_FAILED").Wrap(err)
	}
	return es.flush()
}

// comment writes a keep-alive comment line.
func (es *eventStream) comment(text string) error {
	if _, err := fmt.Fprintf(es.w, ": %s\n\n", text); err != nil {
		return oops.Code("SSE_WRITE_FAILED").Wrap(err)
	}
	return es.flush()
}

func (es *eventStream) flush() error {
	if err := es.rc.Flush(); err != nil {
		return oops.Code("SSE_FLUSH_FAILED").Wrap(err)
	}
	return nil
}
