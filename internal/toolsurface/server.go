package toolsurface

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/quintant/lumora/internal/index"
	"github.com/quintant/lumora/internal/logging"
	"github.com/quintant/lumora/internal/query"
	"github.com/quintant/lumora/internal/version"
)

// Server is a single-repository MCP stdio server: one Engine answers
// queries, one Indexer (optional) services the index_repository tool.
type Server struct {
	stdin   io.Reader
	stdout  io.Writer
	scanner *bufio.Scanner
	logger  *logging.Logger

	engine    *query.Engine
	indexer   *index.Indexer
	autoIndex bool

	tools map[string]ToolHandler
}

// NewServer wires a Server against an already-open engine and indexer.
// autoIndex, when true, runs an incremental index before the first
// tools/list response so a freshly-started server is not serving a
// cold store.
func NewServer(engine *query.Engine, indexer *index.Indexer, logger *logging.Logger, autoIndex bool) *Server {
	s := &Server{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		logger:    logger,
		engine:    engine,
		indexer:   indexer,
		autoIndex: autoIndex,
		tools:     make(map[string]ToolHandler),
	}
	s.registerTools()
	return s
}

// SetStdin overrides the input stream, for tests.
func (s *Server) SetStdin(r io.Reader) {
	s.stdin = r
	s.scanner = nil
}

// SetStdout overrides the output stream, for tests.
func (s *Server) SetStdout(w io.Writer) { s.stdout = w }

// Start runs the message loop until EOF or a fatal transport error.
func (s *Server) Start() error {
	s.logger.Info("mcp server starting", map[string]interface{}{"version": version.Version})

	if s.autoIndex && s.indexer != nil {
		if _, err := s.indexer.RunIncremental(context.Background()); err != nil {
			s.logger.Warn("auto-index before serving failed", map[string]interface{}{"error": err.Error()})
		}
	}

	for {
		msg, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				s.logger.Info("mcp server shutting down (EOF)", nil)
				return nil
			}
			s.logger.Error("error reading message", map[string]interface{}{"error": err.Error()})
			continue
		}

		resp := s.handleMessage(msg)
		if resp == nil {
			continue
		}
		if err := s.writeMessage(resp); err != nil {
			s.logger.Error("error writing response", map[string]interface{}{"error": err.Error()})
		}
	}
}
