package runner

import (
	"fmt"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/testcentral/outpost/internal/models"
)

// pathDelimiters cannot appear in a test case path: '+' joins the paths and
// the brackets and comma frame the task arguments.
const pathDelimiters = "+,[]"

// Invocation is a rake task call. Params are kept raw and escaped only when
// the task argument is rendered.
type Invocation struct {
	Bin    string
	Task   string
	Params []string
}

// NewInvocation lays out the parameters of job in the order the test task
// expects them: joined test case paths, session token, result artifact, run
// id, recipients, environment, web driver, locale and release day.
func NewInvocation(bin, task string, job *models.JobDescription) (Invocation, error) {
	for _, p := range job.TestCasePaths {
		if p == "" || strings.ContainsAny(p, pathDelimiters) {
			return Invocation{}, fmt.Errorf("test case path %q contains a reserved character", p)
		}
	}

	params := []string{
		strings.Join(job.TestCasePaths, "+"),
		job.SessionToken,
		job.ResultArtifact,
		job.RunID,
		job.EmailList,
		job.Env,
		job.WebDriver,
		job.Locale,
		job.ReleaseDay,
	}
	for _, p := range params {
		if strings.ContainsRune(p, 0) {
			return Invocation{}, fmt.Errorf("parameter contains a NUL byte")
		}
	}

	return Invocation{Bin: bin, Task: task, Params: params}, nil
}

// TaskArg renders task[p1,p2,...] with every parameter escaped for rake's
// argument parser.
func (i Invocation) TaskArg() string {
	escaped := make([]string, 0, len(i.Params))
	for _, p := range i.Params {
		escaped = append(escaped, EscapeTaskParam(p))
	}
	return fmt.Sprintf("%s[%s]", i.Task, strings.Join(escaped, ","))
}

// Argv is the command line without any shell involved.
func (i Invocation) Argv() []string {
	return []string{i.Bin, i.TaskArg()}
}

// String renders the invocation as a copy-pasteable shell command.
func (i Invocation) String() string {
	return shellescape.QuoteCommand(i.Argv())
}

// Redacted renders the invocation with the session token hidden.
func (i Invocation) Redacted() string {
	if len(i.Params) < 2 || i.Params[1] == "" {
		return i.String()
	}
	r := i
	r.Params = append([]string(nil), i.Params...)
	r.Params[1] = "REDACTED"
	return r.String()
}

// EscapeTaskParam escapes backslashes and commas, the only characters rake
// interprets inside task arguments.
func EscapeTaskParam(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, ",", `\,`)
}
