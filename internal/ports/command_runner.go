package ports

import "context"

// CommandRunner spawns the external tool once per call and returns its
// captured output. A non-zero exit status is not an error; failure to start is.
type CommandRunner interface {
	Run(ctx context.Context, input string, args ...string) (stdout string, stderr string, err error)
}
