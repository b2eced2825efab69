package jobs

import (
	"fmt"
	"path"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/testcentral/outpost/internal/models"
	srvErrors "github.com/testcentral/outpost/pkg/errors"
)

const (
	artifactLayout = "060102_150405"
	artifactExt    = ".json"
)

// pathSegment is a single directory or file name such as "test case 1". It
// cannot start with a dot, cannot start or end with a space, and cannot
// contain separators or the runner's argument delimiters.
var pathSegment = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9_. \-]*[A-Za-z0-9_.\-])?$`)

type target struct {
	RunID     string `json:"run_id" validate:"required"`
	Silo      string `json:"silo" validate:"required,pathsegment"`
	TestSuite string `json:"testsuite" validate:"required,pathsegment"`
	TestCases string `json:"testcases" validate:"required"`
}

// Builder turns execution requests into job descriptions.
type Builder struct {
	clock        clock.Clock
	sessionToken string
	validate     *validator.Validate

	mu           sync.Mutex
	lastArtifact time.Time
}

func NewBuilder(clk clock.Clock, sessionToken string) *Builder {
	return &Builder{
		clock:        clk,
		sessionToken: sessionToken,
		validate:     NewValidator(),
	}
}

// NewValidator returns a validator knowing the pathsegment tag and reporting
// fields by their json name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("pathsegment", func(fl validator.FieldLevel) bool {
		return pathSegment.MatchString(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Build validates req and resolves its test cases under silo. Paths are not
// checked for existence: a missing case fails the run, not the request.
func (b *Builder) Build(req models.ExecutionRequest, silo string) (*models.JobDescription, error) {
	// run_id is only checked for presence. The value goes to the test task as
	// sent.
	t := target{
		RunID:     strings.TrimSpace(req.RunID),
		Silo:      silo,
		TestSuite: req.TestSuite,
		TestCases: req.TestCases,
	}
	if err := b.validate.Struct(t); err != nil {
		return nil, toValidationError(err)
	}

	cases := SplitTestCases(req.TestCases)
	if len(cases) == 0 {
		return nil, srvErrors.NewValidationError("testcases", "at least one test case is required")
	}

	paths := make([]string, 0, len(cases))
	for _, c := range cases {
		if err := b.validate.Var(c, "pathsegment"); err != nil {
			return nil, srvErrors.NewValidationError("testcases", fmt.Sprintf("%q is not a valid test case name", c))
		}
		paths = append(paths, path.Join(silo, "spec", req.TestSuite, c))
	}

	passThrough := map[string]string{
		"run_id":      req.RunID,
		"email_list":  req.EmailList,
		"browser":     req.Browser,
		"locale":      req.Locale,
		"environment": req.Env,
		"release_day": req.ReleaseDay,
	}
	for field, v := range passThrough {
		if strings.ContainsAny(v, "\x00\n\r") {
			return nil, srvErrors.NewValidationError(field, "control characters are not allowed")
		}
	}

	now := b.clock.Now()

	return &models.JobDescription{
		ID:             uuid.NewString(),
		RunID:          req.RunID,
		EmailList:      req.EmailList,
		Silo:           silo,
		TestSuite:      req.TestSuite,
		TestCasePaths:  paths,
		SessionToken:   b.sessionToken,
		WebDriver:      req.Browser,
		Locale:         req.Locale,
		Env:            req.Env,
		ReleaseDay:     req.ReleaseDay,
		ResultArtifact: b.nextArtifact(now),
		CreatedAt:      now,
	}, nil
}

// nextArtifact names the result file after now with millisecond resolution.
// Names are strictly increasing within the process.
func (b *Builder) nextArtifact(now time.Time) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := now.Truncate(time.Millisecond)
	if !t.After(b.lastArtifact) {
		t = b.lastArtifact.Add(time.Millisecond)
	}
	b.lastArtifact = t

	return ArtifactName(t)
}

// ArtifactName formats t as yyMMdd_HHmmssSSS.json.
func ArtifactName(t time.Time) string {
	return fmt.Sprintf("%s%03d%s", t.Format(artifactLayout), t.Nanosecond()/int(time.Millisecond), artifactExt)
}

// SplitTestCases splits a comma separated list, trimming blanks and dropping
// empty names.
func SplitTestCases(s string) []string {
	cases := []string{}
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cases = append(cases, c)
		}
	}
	return cases
}

// IsPathSegment reports whether s can be used as a single path element.
func IsPathSegment(s string) bool {
	return pathSegment.MatchString(s)
}

func toValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return srvErrors.NewValidationError("", err.Error())
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return srvErrors.NewValidationError(fe.Field(), "field is required")
	case "pathsegment":
		return srvErrors.NewValidationError(fe.Field(), fmt.Sprintf("%q is not a valid name", fe.Value()))
	default:
		return srvErrors.NewValidationError(fe.Field(), fe.Tag())
	}
}
