// Package lspconn connects to a language server over JSON-RPC and exposes the
// small request/response surface the hierarchy builders consume.
package lspconn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"
)

// Version is reported to servers in the initialize handshake.
const Version = "0.3.0"

const defaultRequestTimeout = 10 * time.Second

// Connection is what a hierarchy invocation needs from a language server.
// One Connection is resolved per invocation and reused for every request.
type Connection interface {
	// Capable reports whether the server advertised the named capability,
	// e.g. "callHierarchyProvider".
	Capable(capability string) bool
	// Request performs one blocking round-trip. Server error replies are
	// returned as *RPCError.
	Request(ctx context.Context, method string, params, result any) error
}

// Option configures a Conn.
type Option func(*Conn)

// WithRequestTimeout bounds every request. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Conn) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Conn) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Conn is a JSON-RPC connection to a single language server.
type Conn struct {
	rpc     *jsonrpc2.Conn
	timeout time.Duration
	logger  *zap.Logger

	mu          sync.Mutex
	caps        map[string]json.RawMessage
	openedFiles map[protocol.DocumentURI]bool
}

var _ Connection = (*Conn)(nil)

// NewConn speaks the LSP base protocol (Content-Length framing) over rwc.
// The handshake is not performed; call Initialize before issuing requests.
func NewConn(ctx context.Context, rwc io.ReadWriteCloser, opts ...Option) *Conn {
	c := &Conn{
		timeout:     defaultRequestTimeout,
		logger:      zap.NewNop(),
		caps:        make(map[string]json.RawMessage),
		openedFiles: make(map[protocol.DocumentURI]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	c.rpc = jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(c.handle))
	return c
}

func (c *Conn) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	if !req.Notif {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not handled"}
	}
	switch req.Method {
	case "window/showMessage", "window/logMessage":
		var params struct {
			Message string `json:"message"`
		}
		if req.Params != nil && json.Unmarshal(*req.Params, &params) == nil {
			c.logger.Debug("server message", zap.String("method", req.Method), zap.String("message", params.Message))
		}
	}
	return nil, nil
}

// Initialize performs the initialize/initialized handshake and records the
// server capabilities.
func (c *Conn) Initialize(ctx context.Context, rootDir string) error {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return err
	}
	params := &protocol.InitializeParams{
		ProcessID: int32(os.Getpid()),
		RootURI:   protocol.DocumentURI(uri.File(absRoot)),
		ClientInfo: &protocol.ClientInfo{
			Name:    "lsptree",
			Version: Version,
		},
		Capabilities: protocol.ClientCapabilities{
			TextDocument: &protocol.TextDocumentClientCapabilities{
				Definition:     &protocol.DefinitionTextDocumentClientCapabilities{},
				References:     &protocol.ReferencesTextDocumentClientCapabilities{},
				DocumentSymbol: &protocol.DocumentSymbolClientCapabilities{},
			},
		},
	}
	var result struct {
		Capabilities map[string]json.RawMessage `json:"capabilities"`
	}
	if err := c.Request(ctx, "initialize", params, &result); err != nil {
		return err
	}
	c.mu.Lock()
	if result.Capabilities != nil {
		c.caps = result.Capabilities
	}
	c.mu.Unlock()
	return c.rpc.Notify(ctx, "initialized", &protocol.InitializedParams{})
}

// Capable implements Connection. A capability counts as present unless it is
// missing, null or false.
func (c *Conn) Capable(capability string) bool {
	c.mu.Lock()
	raw, ok := c.caps[capability]
	c.mu.Unlock()
	if !ok {
		return false
	}
	value := bytes.TrimSpace(raw)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) || bytes.Equal(value, []byte("false")) {
		return false
	}
	return true
}

// Request implements Connection.
func (c *Conn) Request(ctx context.Context, method string, params, result any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	err := c.rpc.Call(ctx, method, params, result)
	elapsed := time.Since(start)
	if err == nil {
		c.logger.Debug("lsp request", zap.String("method", method), zap.Duration("elapsed", elapsed))
		return nil
	}
	err = translateError(ctx, method, err)
	c.logger.Warn("lsp request failed", zap.String("method", method), zap.Duration("elapsed", elapsed), zap.Error(err))
	return err
}

func translateError(ctx context.Context, method string, err error) error {
	var rpcErr *jsonrpc2.Error
	switch {
	case errors.As(err, &rpcErr):
		return &RPCError{Method: method, Code: rpcErr.Code, Message: rpcErr.Message}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", method, ErrTimeout)
	case errors.Is(err, jsonrpc2.ErrClosed):
		return fmt.Errorf("%s: %w", method, ErrClosed)
	default:
		return fmt.Errorf("%s: %w", method, err)
	}
}

// OpenDocument sends textDocument/didOpen for path once per connection and
// returns the document URI used in later requests.
func (c *Conn) OpenDocument(ctx context.Context, path, languageID string) (protocol.DocumentURI, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	docURI := protocol.DocumentURI(uri.File(absPath))
	c.mu.Lock()
	if c.openedFiles[docURI] {
		c.mu.Unlock()
		return docURI, nil
	}
	c.openedFiles[docURI] = true
	c.mu.Unlock()

	data, err := os.ReadFile(absPath)
	if err != nil {
		c.mu.Lock()
		delete(c.openedFiles, docURI)
		c.mu.Unlock()
		return "", err
	}
	params := protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        docURI,
			LanguageID: protocol.LanguageIdentifier(languageID),
			Version:    1,
			Text:       string(data),
		},
	}
	if err := c.rpc.Notify(ctx, "textDocument/didOpen", params); err != nil {
		return "", err
	}
	return docURI, nil
}

// Shutdown asks the server to shut down and closes the connection.
func (c *Conn) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := c.rpc.Call(shutdownCtx, "shutdown", nil, nil); err != nil {
		c.logger.Debug("lsp shutdown failed", zap.Error(err))
	}
	cancel()
	_ = c.rpc.Notify(ctx, "exit", nil)
	if err := c.rpc.Close(); err != nil && !errors.Is(err, jsonrpc2.ErrClosed) {
		return err
	}
	return nil
}

// Done is closed when the underlying stream is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.rpc.DisconnectNotify()
}
