package codegen

import (
	"bytes"
	"fmt"

	"github.com/xplshn/exprc/pkg/config"
	"github.com/xplshn/exprc/pkg/ir"
)

// Backend is the interface that all code generation backends must implement.
type Backend interface {
	// Generate takes a finished program and a configuration, and produces the
	// target text as a byte buffer.
	Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error)
}

// SelectBackend returns the backend named by cfg.BackendName.
func SelectBackend(cfg *config.Config) (Backend, error) {
	switch cfg.BackendName {
	case "", "text":
		return NewTextBackend(), nil
	case "qbe":
		return NewQBEBackend(), nil
	}
	return nil, fmt.Errorf("unsupported backend '%s'", cfg.BackendName)
}

type textBackend struct{}

// NewTextBackend renders the instruction stream one instruction per line.
func NewTextBackend() Backend { return textBackend{} }

func (textBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	for _, line := range prog.Lines(0) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return &buf, nil
}
