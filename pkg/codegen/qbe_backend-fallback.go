//go:build windows

package codegen

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"github.com/xplshn/exprc/pkg/config"
	"github.com/xplshn/exprc/pkg/ir"
)

// Generate shells out to a system qbe, since libqbe does not build on Windows.
func (b *qbeBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	if _, err := exec.LookPath("qbe"); err != nil {
		return nil, fmt.Errorf("qbe: not found in PATH: %w", err)
	}

	il, err := b.GenerateIR(prog, cfg)
	if err != nil {
		return nil, err
	}

	input, err := os.CreateTemp("", "exprc-*.ssa")
	if err != nil {
		return nil, err
	}
	defer os.Remove(input.Name())
	if _, err := input.WriteString(il); err != nil {
		input.Close()
		return nil, err
	}
	input.Close()

	var asmBuf, stderr bytes.Buffer
	cmd := exec.Command("qbe", "-t", cfg.BackendTarget, input.Name())
	cmd.Stdout, cmd.Stderr = &asmBuf, &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("qbe: assembling for %s failed: %w\n%s--- IL ---\n%s", cfg.BackendTarget, err, stderr.String(), il)
	}
	return &asmBuf, nil
}
