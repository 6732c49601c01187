package compile

// Request is a single compile submission.
type Request struct {
	SourceText  string // contract source, written verbatim
	ProjectName string // cargo package name, not validated here
}

// Result is the normalized outcome of a compile.
// Errors is nil when there is nothing to report.
// ArtifactSize is set only when Success is true and the artifact was found.
type Result struct {
	Success      bool
	Output       string
	Errors       *string
	ArtifactSize *int64
}

func errorResult(err error) *Result {
	msg := err.Error()
	return &Result{Success: false, Output: "", Errors: &msg}
}
