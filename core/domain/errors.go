package domain

import (
	"errors"
	"fmt"

	"github.com/aquilax/truncate"
)

var (
	ErrCredentialDecode      = errors.New("invalid registry credential")
	ErrInvalidReference      = errors.New("invalid image reference")
	ErrMalformedResponse     = errors.New("malformed engine response")
	ErrMockError             = errors.New("mock error")
	ErrUnknownFunction       = errors.New("unknown function")
	ErrUnsupportedConversion = errors.New("unsupported conversion")
)

// maxErrorBodyLength bounds the engine body embedded in error messages
const maxErrorBodyLength = 1024

// EngineOp names a container engine operation
type EngineOp string

const (
	OpPull    EngineOp = "pull"
	OpCreate  EngineOp = "create"
	OpStart   EngineOp = "start"
	OpStdin   EngineOp = "stdin"
	OpWait    EngineOp = "wait"
	OpLogs    EngineOp = "logs"
	OpDelete  EngineOp = "delete"
	OpPing    EngineOp = "ping"
	OpVersion EngineOp = "version"
)

// EngineError is returned when the engine answered with an unexpected status
type EngineError struct {
	Op     EngineOp
	Status int
	Body   []byte
}

func (e *EngineError) Error() string {
	body := truncate.Truncate(string(e.Body), maxErrorBodyLength, "...", truncate.PositionEnd)
	return fmt.Sprintf("engine %s failed: %s (%d)", e.Op, body, e.Status)
}

// TransportError is returned when a request could not be sent or its response read
type TransportError struct {
	Op  EngineOp
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("engine %s transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
