package download

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/pkg/errors"
)

// CommandRunner abstracts external process execution so tests can
// substitute the downloader binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), errors.Wrapf(err, "%s failed", name)
}
