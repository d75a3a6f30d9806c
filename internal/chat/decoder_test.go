// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package chat

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStream = "data: {\"choices\":[{\"delta\":{\"content\":\"CALL 999 \"}}]}\n" +
	": keep-alive comment\n" +
	"\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"IMMEDIATELY.\"}}]}\r\n" +
	"data: {not json}\n" +
	"data: {\"choices\":[]}\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\" Apply pressure.\"}}]}\n" +
	"data: [DONE]\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"ignored\"}}]}\n"

const sampleText = "CALL 999 IMMEDIATELY. Apply pressure."

func feedAll(chunks ...string) string {
	var (
		dec Decoder
		out strings.Builder
	)
	for _, c := range chunks {
		for _, d := range dec.Feed([]byte(c)) {
			out.WriteString(d)
		}
	}
	return out.String()
}

func TestDecoder_SingleChunk(t *testing.T) {
	assert.Equal(t, sampleText, feedAll(sampleStream))
}

func TestDecoder_ChunkBoundariesDoNotMatter(t *testing.T) {
	for size := 1; size <= len(sampleStream); size++ {
		var chunks []string
		for i := 0; i < len(sampleStream); i += size {
			chunks = append(chunks, sampleStream[i:min(i+size, len(sampleStream))])
		}
		require.Equal(t, sampleText, feedAll(chunks...), "chunk size %d", size)
	}
}

func TestDecoder_SplitInsideMultibyteRune(t *testing.T) {
	stream := "data: {\"choices\":[{\"delta\":{\"content\":\"🩸 press\"}}]}\ndata: [DONE]\n"
	i := strings.Index(stream, "🩸") + 2
	assert.Equal(t, "🩸 press", feedAll(stream[:i], stream[i:]))
}

func TestDecoder_StopsAtDone(t *testing.T) {
	var dec Decoder
	assert.Equal(t, []string{"a"}, dec.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\ndata: [DONE]\n")))
	assert.True(t, dec.Done())
	assert.Nil(t, dec.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n")))
}

func TestDecoder_PartialLineIsHeld(t *testing.T) {
	var dec Decoder
	assert.Empty(t, dec.Feed([]byte(`data: {"choices":[{"delta":{"content":"held"}}]}`)))
	assert.Equal(t, []string{"held"}, dec.Feed([]byte("\n")))
}

func TestDecode_Reader(t *testing.T) {
	var deltas []string
	text, err := Decode(iotest.OneByteReader(strings.NewReader(sampleStream)), func(d string) {
		deltas = append(deltas, d)
	})
	require.NoError(t, err)
	assert.Equal(t, sampleText, text)
	assert.Equal(t, []string{"CALL 999 ", "IMMEDIATELY.", " Apply pressure."}, deltas)
}

func TestDecode_ReaderError(t *testing.T) {
	r := io.MultiReader(
		strings.NewReader("data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n"),
		iotest.ErrReader(errors.New("connection reset")),
	)
	text, err := Decode(r, nil)
	require.Error(t, err)
	assert.Equal(t, "partial", text)
}
