package provider

import (
	"bufio"
	"bytes"
	"io"

	"github.com/bytedance/sonic"
)

var streamDataPrefix = []byte("data:")

// Stream is a lazy, finite, non-restartable sequence of text fragments.
//
// Recv returns io.EOF once the backend signals completion. Close releases
// the underlying transport; it is safe to call at any point, including
// before the stream is drained.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func newStream(body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	return &Stream{body: body, scanner: scanner}
}

// Recv returns the next non-empty text fragment, or io.EOF at end of stream
func (s *Stream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if !bytes.HasPrefix(line, streamDataPrefix) {
			continue
		}
		payload := bytes.TrimSpace(line[len(streamDataPrefix):])
		if len(payload) == 0 {
			continue
		}
		if bytes.Equal(payload, []byte("[DONE]")) {
			s.done = true
			s.body.Close()
			return "", io.EOF
		}

		var chunk streamChunk
		if err := sonic.Unmarshal(payload, &chunk); err != nil {
			s.done = true
			s.body.Close()
			return "", &Error{Kind: KindInvalidResponse, Err: err}
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		return chunk.Choices[0].Delta.Content, nil
	}

	s.done = true
	s.body.Close()
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Close releases the underlying transport without draining remaining chunks
func (s *Stream) Close() error {
	s.done = true
	return s.body.Close()
}

// readExcerpt reads a bounded prefix of an error response body
func readExcerpt(r io.Reader) string {
	buf := make([]byte, 512)
	n, _ := io.ReadFull(r, buf)
	return string(buf[:n])
}
