package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/testcentral/outpost/api/v1"
	"github.com/testcentral/outpost/internal/handlers"
	srvErrors "github.com/testcentral/outpost/pkg/errors"
)

var _ = Describe("Execute Handler", func() {
	var (
		mockExec *MockExecutionService
		router   *gin.Engine
	)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/rest/v1/execute", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder) v1.ExecuteResponse {
		var response v1.ExecuteResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &response)).To(Succeed())
		return response
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		mockExec = &MockExecutionService{}
		router = gin.New()
		v1.RegisterHandlers(router.Group("/rest/v1"), handlers.New(mockExec, &MockStatusService{}, &MockRunHistoryService{}))
	})

	// Given an idle outpost
	// When Test Central posts a valid run
	// Then it should answer 201 with status true
	It("should accept a run", func() {
		// Act
		w := post(`{"run_id": 42, "silo": "narnia", "testsuite": "smoke", "testcases": "Login,Logout", "browser": "chrome", "environment": "staging"}`)

		// Assert
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Body.String()).To(MatchJSON(`{"status": true}`))
		Expect(mockExec.ExecuteCount).To(Equal(1))
		Expect(mockExec.LastRequest.RunID).To(Equal("42"))
		Expect(mockExec.LastRequest.Silo).To(Equal("narnia"))
		Expect(mockExec.LastRequest.TestCases).To(Equal("Login,Logout"))
		Expect(mockExec.LastRequest.Browser).To(Equal("chrome"))
		Expect(mockExec.LastRequest.Env).To(Equal("staging"))
	})

	// Given a run already in progress
	// When Test Central posts another run
	// Then it should answer 500 with "Server is running"
	It("should reject while busy", func() {
		// Arrange
		mockExec.ExecuteError = srvErrors.NewRunInProgressError()

		// Act
		w := post(`{"run_id": "43", "testsuite": "smoke", "testcases": "Login"}`)

		// Assert
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		response := decode(w)
		Expect(response.Status).To(BeFalse())
		Expect(*response.Message).To(Equal("Server is running"))
	})

	It("should reject an invalid request", func() {
		mockExec.ExecuteError = srvErrors.NewValidationError("testsuite", "must be a single path segment")

		w := post(`{"run_id": "43", "testsuite": "../etc", "testcases": "Login"}`)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(*decode(w).Message).To(ContainSubstring("testsuite"))
	})

	It("should report unexpected failures", func() {
		mockExec.ExecuteError = errors.New("scheduler closed")

		w := post(`{"run_id": "43", "testsuite": "smoke", "testcases": "Login"}`)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(*decode(w).Message).To(Equal("scheduler closed"))
	})

	DescribeTable("should reject a malformed body without calling the service",
		func(body string) {
			w := post(body)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			response := decode(w)
			Expect(response.Status).To(BeFalse())
			Expect(*response.Message).To(HavePrefix("invalid request body"))
			Expect(mockExec.ExecuteCount).To(BeZero())
		},
		Entry("not json", `run_id=42`),
		Entry("empty", ``),
		Entry("run_id object", `{"run_id": {"id": 42}}`),
		Entry("testcases array", `{"run_id": 1, "testsuite": "smoke", "testcases": ["a"]}`),
	)
})
