//go:build !windows

package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xplshn/exprc/pkg/config"
	"github.com/xplshn/exprc/pkg/ir"
	"modernc.org/libqbe"
)

// Generate assembles the program's QBE IL with the embedded libqbe.
func (b *qbeBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	il, err := b.GenerateIR(prog, cfg)
	if err != nil {
		return nil, err
	}

	var asmBuf bytes.Buffer
	if err := libqbe.Main(cfg.BackendTarget, "input.ssa", strings.NewReader(il), &asmBuf, nil); err != nil {
		return nil, fmt.Errorf("qbe: assembling for %s failed: %w\n--- IL ---\n%s", cfg.BackendTarget, err, il)
	}
	return &asmBuf, nil
}
