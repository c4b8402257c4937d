package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"azure-prompt/internal/llm"
	"azure-prompt/internal/video"

	"github.com/spf13/cobra"
)

const (
	ExitOK        = 0
	ExitError     = 1
	ExitUsage     = 2
	ExitAuth      = 3
	ExitNotFound  = 4
	ExitRateLimit = 5
	ExitNetwork   = 6

	ExitInterrupted = 130
)

type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// usageArgs reports positional argument errors as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

// Execute runs the command tree and returns the process exit code. Errors
// are reported on errOut; nothing is retried.
func Execute(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if args == nil {
		args = []string{}
	}

	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(errOut, "interrupted")
		return ExitInterrupted
	}
	fmt.Fprintf(errOut, "error: %v\n", err)
	if hint := troubleshootingHint(err); hint != "" {
		fmt.Fprintf(errOut, "hint: %s\n", hint)
	}
	return ExitCode(err)
}

func ExitCode(err error) int {
	var usage usageError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.As(err, &usage):
		return ExitUsage
	case errors.Is(err, llm.ErrAuthentication):
		return ExitAuth
	case errors.Is(err, llm.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, llm.ErrRateLimit):
		return ExitRateLimit
	case errors.Is(err, llm.ErrNetwork):
		return ExitNetwork
	default:
		return ExitError
	}
}

func troubleshootingHint(err error) string {
	switch {
	case errors.Is(err, llm.ErrAuthentication):
		return "check AZURE_OPENAI_API_KEY in your .env and that the key belongs to the resource at AZURE_OPENAI_ENDPOINT"
	case errors.Is(err, llm.ErrNotFound):
		return "check that AZURE_OPENAI_DEPLOYMENT_NAME matches a deployment name on the resource, not the model family name"
	case errors.Is(err, llm.ErrRateLimit):
		return "the deployment's quota is exhausted; wait a minute or raise its tokens-per-minute limit"
	case errors.Is(err, llm.ErrNetwork):
		return "check AZURE_OPENAI_ENDPOINT and your network connection"
	case errors.Is(err, video.ErrJobTimeout):
		return "the job may still finish; raise --timeout to wait longer"
	}
	return ""
}
