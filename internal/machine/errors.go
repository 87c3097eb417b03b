package machine

import (
	"errors"
	"fmt"
)

var (
	// ErrStackOverflow is returned when a call is made with a full stack.
	ErrStackOverflow = errors.New("stack overflow")
	// ErrStackUnderflow is returned when returning with an empty stack.
	ErrStackUnderflow = errors.New("stack underflow")
	// ErrOversizeImage is returned when a program image does not fit into RAM.
	ErrOversizeImage = errors.New("program image too large")
)

// MemoryFaultError is returned for any access outside of RAM.
type MemoryFaultError struct {
	Address int
}

func (e *MemoryFaultError) Error() string {
	return fmt.Sprintf("memory fault at address 0x%04X", e.Address)
}
