/*
Copyright The Flotilla Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package execlog runs external commands with their stdout and stderr
// forwarded line by line to the structured logger, optionally capturing
// the output for the caller
package execlog

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/flotilla-dev/flotilla/pkg/log"
)

const (
	// PipeKey is the key for the pipe the log refers to
	PipeKey = "pipe"
	// StdOut is the PipeKey value for stdout
	StdOut = "stdout"
	// StdErr is the PipeKey value for stderr
	StdErr = "stderr"
)

// RunStreaming executes the command redirecting its stdout and stderr to
// the logger, and waits for it to terminate
func RunStreaming(cmd *exec.Cmd, cmdName string) error {
	logger := log.WithName(cmdName)
	return run(cmd, logger,
		&LogWriter{Logger: logger.WithValues(PipeKey, StdOut)},
		&LogWriter{Logger: logger.WithValues(PipeKey, StdErr)},
	)
}

// RunCapturing executes the command redirecting its stdout and stderr to
// the logger while also collecting both. The collected output is returned
// even when the command fails, so callers can attach it to their errors.
func RunCapturing(cmd *exec.Cmd, cmdName string) (string, string, error) {
	logger := log.WithName(cmdName)
	stdout := &lineBuffer{}
	stderr := &lineBuffer{}

	err := run(cmd, logger,
		io.MultiWriter(stdout, &LogWriter{Logger: logger.WithValues(PipeKey, StdOut)}),
		io.MultiWriter(stderr, &LogWriter{Logger: logger.WithValues(PipeKey, StdErr)}),
	)
	return stdout.String(), stderr.String(), err
}

// run starts the command with both pipes drained into the given writers,
// one line per write, and reaps it once the pipes hit EOF
func run(cmd *exec.Cmd, logger log.Logger, stdoutWriter, stderrWriter io.Writer) error {
	stdoutRead, stdoutWrite, err := os.Pipe()
	if err != nil {
		return err
	}
	stderrRead, stderrWrite, err := os.Pipe()
	if err != nil {
		return err
	}

	cmd.Stdout = stdoutWrite
	cmd.Stderr = stderrWrite
	if err := cmd.Start(); err != nil {
		return err
	}

	// the child holds its own copies now; EOF on the read ends tracks the
	// child exiting
	if err := stdoutWrite.Close(); err != nil {
		return err
	}
	if err := stderrWrite.Close(); err != nil {
		return err
	}

	var pipes sync.WaitGroup
	pipes.Add(2)
	go func() {
		defer pipes.Done()
		copyPipe(stdoutWriter, stdoutRead, logger)
	}()
	go func() {
		defer pipes.Done()
		copyPipe(stderrWriter, stderrRead, logger)
	}()
	pipes.Wait()

	return cmd.Wait()
}

// copyPipe copies the content of an io.Reader into an io.Writer one line
// at a time
func copyPipe(dst io.Writer, src io.ReadCloser, logger log.Logger) {
	defer func() {
		if err := src.Close(); err != nil {
			logger.Error(err, "error closing src pipe")
		}
	}()

	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := scanner.Bytes()
		if _, err := dst.Write(line); err != nil {
			logger.Error(err, "can't write to dst writer", "line", string(line))
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Error(err, "can't scan from src pipe")
	}
}
