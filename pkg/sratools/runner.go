// Package sratools is the boundary to the archive's download toolkit:
// prefetch for staging and fasterq-dump for extraction, invoked as
// subprocesses.
package sratools

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Gobusters/ectologger"
)

// Tool exit codes. The toolkit signals "already complete" and "disk limit
// exceeded" through dedicated codes.
const (
	ExitSuccess         = 0
	ExitAlreadyComplete = 3
	ExitNoSpace         = 111
)

// Result captures one tool invocation.
type Result struct {
	ExitCode int
	Stderr   string
}

// Outcome classifies a tool result for the retry loop.
type Outcome int

const (
	// OutcomeSuccess covers a clean exit and an already-complete download
	OutcomeSuccess Outcome = iota
	// OutcomeFailed is a retry-worthy failure; stderr carries the reason
	OutcomeFailed
	// OutcomeNoSpace means the disk limit was hit
	OutcomeNoSpace
)

// Classify maps a tool exit to its outcome.
func Classify(result *Result) Outcome {
	switch result.ExitCode {
	case ExitSuccess, ExitAlreadyComplete:
		return OutcomeSuccess
	case ExitNoSpace:
		return OutcomeNoSpace
	default:
		return OutcomeFailed
	}
}

// Runner executes the download tools for one accession at a time.
type Runner interface {
	// SizeCheck asks the extraction tool whether the accession fits on disk
	// without extracting anything.
	SizeCheck(ctx context.Context, accession string) (*Result, error)
	// Prefetch stages the accession's archive file locally.
	Prefetch(ctx context.Context, accession string) (*Result, error)
	// FasterqDump extracts staged data into fastq files in the output
	// directory.
	FasterqDump(ctx context.Context, accession string) (*Result, error)
}

// Config holds tool paths and invocation settings.
type Config struct {
	PrefetchPath string
	FasterqPath  string
	// KeyFile unlocks restricted-access data when set
	KeyFile   string
	OutputDir string
	TempDir   string
	Threads   int
}

// ExecRunner runs the toolkit binaries through os/exec.
type ExecRunner struct {
	cfg    Config
	logger ectologger.Logger
}

func NewExecRunner(cfg Config, logger ectologger.Logger) *ExecRunner {
	if cfg.PrefetchPath == "" {
		cfg.PrefetchPath = "prefetch"
	}
	if cfg.FasterqPath == "" {
		cfg.FasterqPath = "fasterq-dump"
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 6
	}
	return &ExecRunner{cfg: cfg, logger: logger}
}

func (r *ExecRunner) SizeCheck(ctx context.Context, accession string) (*Result, error) {
	args := []string{"--size-check", "only", "-x"}
	args = r.withKeyFile(args)
	args = append(args, accession)
	return r.run(ctx, r.cfg.FasterqPath, args...)
}

func (r *ExecRunner) Prefetch(ctx context.Context, accession string) (*Result, error) {
	args := []string{"-X", "u"}
	if r.cfg.TempDir != "" {
		args = append(args, "-O", r.cfg.TempDir)
	}
	args = r.withKeyFile(args)
	args = append(args, accession)
	return r.run(ctx, r.cfg.PrefetchPath, args...)
}

func (r *ExecRunner) FasterqDump(ctx context.Context, accession string) (*Result, error) {
	args := []string{"-e", strconv.Itoa(r.cfg.Threads)}
	if r.cfg.OutputDir != "" {
		args = append(args, "-O", r.cfg.OutputDir)
	}
	if r.cfg.TempDir != "" {
		args = append(args, "-t", r.cfg.TempDir)
	}
	args = r.withKeyFile(args)
	args = append(args, accession)
	return r.run(ctx, r.cfg.FasterqPath, args...)
}

func (r *ExecRunner) withKeyFile(args []string) []string {
	if r.cfg.KeyFile != "" {
		args = append(args, "--ngc", r.cfg.KeyFile)
	}
	return args
}

func (r *ExecRunner) run(ctx context.Context, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{Stderr: strings.TrimSpace(stderr.String())}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// the tool could not be started at all
			return nil, err
		}
		result.ExitCode = exitErr.ExitCode()
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"tool":      name,
		"exit_code": result.ExitCode,
	}).Debugf("%s %s finished", name, strings.Join(args, " "))

	return result, nil
}
