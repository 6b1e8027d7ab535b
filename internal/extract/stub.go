//go:build !cgo

package extract

import "context"

// StubExtractor is used when cgo is unavailable. It reports no
// capabilities and returns an empty, parse_ok=true extraction for
// every file, matching the "no tree-sitter available" degraded mode.
type StubExtractor struct{}

// NewTreeSitterExtractor returns the no-op stub when building without
// cgo. Call sites are shared between build modes so the rest of the
// engine never branches on build tags itself.
func NewTreeSitterExtractor() *StubExtractor {
	return &StubExtractor{}
}

func (e *StubExtractor) Capabilities() Capability { return 0 }

func (e *StubExtractor) Extract(ctx context.Context, path string, src []byte) (*Extraction, error) {
	return &Extraction{ParseOK: true}, nil
}

// Available reports whether tree-sitter extraction is compiled in.
func Available() bool { return false }
