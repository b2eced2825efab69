package jobs_test

import (
	"os"
	"path/filepath"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/testcentral/outpost/internal/models"
	srvErrors "github.com/testcentral/outpost/pkg/errors"
	"github.com/testcentral/outpost/pkg/inventory"
	"github.com/testcentral/outpost/pkg/jobs"
)

var _ = Describe("Builder", func() {
	var (
		clk     *fakeclock.FakeClock
		builder *jobs.Builder
		req     models.ExecutionRequest
	)

	BeforeEach(func() {
		clk = fakeclock.NewFakeClock(time.Date(2018, 10, 18, 9, 30, 15, 123_000_000, time.UTC))
		builder = jobs.NewBuilder(clk, "session-token")
		req = models.ExecutionRequest{
			RunID:      "42",
			EmailList:  "qa@example.com,dev@example.com",
			Silo:       "narnia",
			TestSuite:  "smoke",
			TestCases:  "Login, Signup",
			Browser:    "chrome",
			Locale:     "en",
			Env:        "staging",
			ReleaseDay: "2018-10-20",
		}
	})

	// Given a request with two comma separated cases
	// When we build the job
	// Then it should resolve trimmed silo/suite qualified paths
	It("should resolve test case paths", func() {
		// Act
		job, err := builder.Build(req, "narnia")

		// Assert
		Expect(err).NotTo(HaveOccurred())
		Expect(job.TestCasePaths).To(Equal([]string{"narnia/spec/smoke/Login", "narnia/spec/smoke/Signup"}))
	})

	It("should copy pass-through fields unchanged", func() {
		job, err := builder.Build(req, "narnia")

		Expect(err).NotTo(HaveOccurred())
		Expect(job.RunID).To(Equal("42"))
		Expect(job.EmailList).To(Equal("qa@example.com,dev@example.com"))
		Expect(job.SessionToken).To(Equal("session-token"))
		Expect(job.WebDriver).To(Equal("chrome"))
		Expect(job.Locale).To(Equal("en"))
		Expect(job.Env).To(Equal("staging"))
		Expect(job.ReleaseDay).To(Equal("2018-10-20"))
		Expect(job.ID).NotTo(BeEmpty())
	})

	It("should keep the run id exactly as sent", func() {
		req.RunID = " 42 "

		job, err := builder.Build(req, "narnia")

		Expect(err).NotTo(HaveOccurred())
		Expect(job.RunID).To(Equal(" 42 "))
	})

	// Given names with inner spaces, as the inventory lists them
	// When we build the job
	// Then the spaces should be kept in the resolved paths
	It("should accept suite and case names with spaces", func() {
		// Arrange
		req.TestSuite = "test suite"
		req.TestCases = "test case 1, test case 2"

		// Act
		job, err := builder.Build(req, "narnia")

		// Assert
		Expect(err).NotTo(HaveOccurred())
		Expect(job.TestCasePaths).To(Equal([]string{
			"narnia/spec/test suite/test case 1",
			"narnia/spec/test suite/test case 2",
		}))
	})

	// Given a silo whose suite and cases have spaces in their names
	// When we build a job from what the inventory lists
	// Then every listed case should be accepted
	It("should accept every case the inventory lists", func() {
		// Arrange
		root := GinkgoT().TempDir()
		for _, c := range []string{"test case 1", "test case 2", "Login.rb"} {
			Expect(os.MkdirAll(filepath.Join(root, "narnia", "spec", "test suite", c), 0o755)).To(Succeed())
		}
		suites, err := inventory.NewLookup(root).ListSuites("narnia")
		Expect(err).NotTo(HaveOccurred())
		Expect(suites).To(HaveLen(1))

		// Act
		req.TestSuite = suites[0].TestSuite
		req.TestCases = suites[0].TestCases
		job, err := builder.Build(req, "narnia")

		// Assert
		Expect(err).NotTo(HaveOccurred())
		Expect(job.TestCasePaths).To(ConsistOf(
			"narnia/spec/test suite/test case 1",
			"narnia/spec/test suite/test case 2",
			"narnia/spec/test suite/Login.rb",
		))
	})

	It("should name the result artifact after the current time", func() {
		job, err := builder.Build(req, "narnia")

		Expect(err).NotTo(HaveOccurred())
		Expect(job.ResultArtifact).To(Equal("181018_093015123.json"))
	})

	// Given two builds within the same millisecond
	// When we build both jobs
	// Then their artifact names should differ
	It("should generate distinct artifact names for successive runs", func() {
		// Act
		first, err := builder.Build(req, "narnia")
		Expect(err).NotTo(HaveOccurred())
		second, err := builder.Build(req, "narnia")
		Expect(err).NotTo(HaveOccurred())

		// Assert
		Expect(second.ResultArtifact).NotTo(Equal(first.ResultArtifact))
		Expect(second.ResultArtifact > first.ResultArtifact).To(BeTrue())
	})

	It("should follow the clock between runs", func() {
		first, err := builder.Build(req, "narnia")
		Expect(err).NotTo(HaveOccurred())

		clk.Increment(2 * time.Second)
		second, err := builder.Build(req, "narnia")

		Expect(err).NotTo(HaveOccurred())
		Expect(first.ResultArtifact).To(Equal("181018_093015123.json"))
		Expect(second.ResultArtifact).To(Equal("181018_093017123.json"))
	})

	DescribeTable("should reject empty test case lists",
		func(testCases string) {
			req.TestCases = testCases

			job, err := builder.Build(req, "narnia")

			Expect(job).To(BeNil())
			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
		},
		Entry("empty", ""),
		Entry("blank", "   "),
		Entry("only commas", " , ,"),
	)

	DescribeTable("should reject unsafe names",
		func(mutate func(r *models.ExecutionRequest), silo string) {
			mutate(&req)

			_, err := builder.Build(req, silo)

			Expect(err).To(HaveOccurred())
			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
		},
		Entry("silo traversal", func(r *models.ExecutionRequest) {}, ".."),
		Entry("silo with separator", func(r *models.ExecutionRequest) {}, "narnia/../etc"),
		Entry("suite traversal", func(r *models.ExecutionRequest) { r.TestSuite = "../secrets" }, "narnia"),
		Entry("hidden suite", func(r *models.ExecutionRequest) { r.TestSuite = ".git" }, "narnia"),
		Entry("case with runner delimiter", func(r *models.ExecutionRequest) { r.TestCases = "a+b" }, "narnia"),
		Entry("case with bracket", func(r *models.ExecutionRequest) { r.TestCases = "a]" }, "narnia"),
		Entry("case with shell metachar", func(r *models.ExecutionRequest) { r.TestCases = "a;rm -rf" }, "narnia"),
		Entry("suite with leading space", func(r *models.ExecutionRequest) { r.TestSuite = " smoke" }, "narnia"),
		Entry("suite with trailing space", func(r *models.ExecutionRequest) { r.TestSuite = "smoke " }, "narnia"),
		Entry("pass-through newline", func(r *models.ExecutionRequest) { r.Locale = "en\nfr" }, "narnia"),
	)

	It("should require a run id", func() {
		req.RunID = " "

		_, err := builder.Build(req, "narnia")

		Expect(err).To(MatchError(ContainSubstring("run_id")))
	})

	It("should require a test suite", func() {
		req.TestSuite = ""

		_, err := builder.Build(req, "narnia")

		Expect(err).To(MatchError(ContainSubstring("testsuite")))
	})
})

var _ = DescribeTable("IsPathSegment",
	func(name string, valid bool) {
		Expect(jobs.IsPathSegment(name)).To(Equal(valid))
	},
	Entry("plain", "Login", true),
	Entry("single character", "a", true),
	Entry("inner spaces", "test case 1", true),
	Entry("dots and dashes", "v1.2-rc_1", true),
	Entry("leading dot", ".git", false),
	Entry("leading space", " a", false),
	Entry("trailing space", "a ", false),
	Entry("separator", "a/b", false),
	Entry("tab", "a\tb", false),
	Entry("empty", "", false),
)

var _ = Describe("SplitTestCases", func() {
	It("should trim and drop empty names", func() {
		Expect(jobs.SplitTestCases(" a ,, b,")).To(Equal([]string{"a", "b"}))
	})
})
