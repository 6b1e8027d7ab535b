package toolsurface

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// MaxMessageSize bounds a single stdio line; large enough for a
// clone_matches or minimal_slice response over a sizable repository.
const MaxMessageSize = 4 * 1024 * 1024

func (s *Server) readMessage() (*Message, error) {
	if s.scanner == nil {
		s.scanner = bufio.NewScanner(s.stdin)
		s.scanner.Buffer(make([]byte, MaxMessageSize), MaxMessageSize)
	}

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading from stdin: %w", err)
		}
		return nil, io.EOF
	}

	var msg Message
	if err := json.Unmarshal(s.scanner.Bytes(), &msg); err != nil {
		return nil, fmt.Errorf("parsing JSON-RPC message: %w", err)
	}
	return &msg, nil
}

func (s *Server) writeMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling JSON-RPC message: %w", err)
	}
	_, err = fmt.Fprintf(s.stdout, "%s\n", data)
	return err
}

func (s *Server) writeError(id interface{}, code int, message string) error {
	return s.writeMessage(newErrorMessage(id, code, message))
}
