// Launching of the stasis connector printing the lobby travel feed.

package travel

import (
	"context"
	"io"
	"os/exec"

	"github.com/pkg/errors"
)

// Process is a running connector.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Waits for exit once both streams hit EOF, a non-zero exit is an error
	Wait() error
	Kill() error
}

// Launcher starts connector processes.
type Launcher interface {
	Start(ctx context.Context, path string, args []string) (Process, error)
}

type execLauncher struct{}

// Returns a Launcher spawning local executables.
func NewExecLauncher() Launcher {
	return execLauncher{}
}

// Start does not bind the process to ctx, the refresher kills it itself so output can still be drained.
func (execLauncher) Start(ctx context.Context, path string, args []string) (Process, error) {
	cmd := exec.Command(path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "connector stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, "connector stderr")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "starting %s", path)
	}
	return &execProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }

func (p *execProcess) Wait() error {
	if err := p.cmd.Wait(); err != nil {
		return errors.Wrap(err, "connector exited")
	}
	return nil
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}
