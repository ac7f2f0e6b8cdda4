package lspconn

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSupported indicates the server did not advertise a capability.
	ErrNotSupported = errors.New("feature not supported by server")

	// ErrTimeout indicates a request did not complete within the request timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrClosed indicates the connection was closed before a reply arrived.
	ErrClosed = errors.New("connection closed")
)

// RPCError is an error reply sent by the language server.
type RPCError struct {
	Method  string
	Code    int64
	Message string
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return fmt.Sprintf("%s: rpc error %d: %s", e.Method, e.Code, e.Message)
}

// ServerMessage returns the text a user should see for err: the server's own
// message for RPC errors, the error string otherwise.
func ServerMessage(err error) string {
	if err == nil {
		return ""
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Message != "" {
		return rpcErr.Message
	}
	return err.Error()
}
