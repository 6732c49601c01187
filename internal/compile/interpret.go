package compile

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
)

// Interpret turns the build outcome of ws into a Result.
// A nil outcome means the build couldn't be launched and err describes why.
func Interpret(log *slog.Logger, ws *Workspace, target string, outcome *Outcome, err error) *Result {
	if outcome == nil {
		if err == nil {
			err = errors.New("build didn't run")
		}
		return errorResult(err)
	}

	stdout := string(outcome.Stdout)
	stderr := string(outcome.Stderr)

	if !outcome.Succeeded() {
		return &Result{Success: false, Output: stdout, Errors: &stderr}
	}

	result := &Result{Success: true, Output: stdout}
	if stderr != "" {
		result.Errors = &stderr
	}

	artifactPath := ws.ArtifactPath(target)
	info, err := os.Stat(artifactPath)
	switch {
	case err == nil:
		size := info.Size()
		result.ArtifactSize = &size
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("artifact missing", "path", artifactPath)
	default:
		log.Warn("didn't stat artifact", "path", artifactPath, "error", err)
	}

	return result
}
