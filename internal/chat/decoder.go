// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Decoder turns a server-sent event byte stream into text deltas. Lines are
// only parsed once complete, so chunk boundaries never change the result.
// After the [DONE] sentinel every further byte is ignored.
type Decoder struct {
	buf  []byte
	done bool
}

// Feed consumes chunk and returns the deltas from every line it completes.
func (d *Decoder) Feed(chunk []byte) []string {
	if d.done {
		return nil
	}
	d.buf = append(d.buf, chunk...)

	var deltas []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := d.buf[:i]
		d.buf = d.buf[i+1:]

		delta, done := parseLine(line)
		if done {
			d.done = true
			d.buf = nil
			break
		}
		if delta != "" {
			deltas = append(deltas, delta)
		}
	}
	return deltas
}

// Done reports whether the sentinel has been seen.
func (d *Decoder) Done() bool { return d.done }

func parseLine(line []byte) (delta string, done bool) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if !bytes.HasPrefix(line, []byte(dataPrefix)) {
		return "", false
	}
	payload := bytes.TrimSpace(line[len(dataPrefix):])
	if string(payload) == doneSentinel {
		return "", true
	}
	var chunk streamChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", false
	}
	if len(chunk.Choices) == 0 {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, false
}

// Decode reads r until EOF or the sentinel, calling onDelta for each delta,
// and returns the assembled text.
func Decode(r io.Reader, onDelta func(string)) (string, error) {
	var (
		dec Decoder
		out bytes.Buffer
		buf = make([]byte, 4096)
	)
	for !dec.Done() {
		n, err := r.Read(buf)
		if n > 0 {
			for _, delta := range dec.Feed(buf[:n]) {
				out.WriteString(delta)
				if onDelta != nil {
					onDelta(delta)
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out.String(), err //nolint:wrapcheck // caller wraps
		}
	}
	return out.String(), nil
}
