package middlewares_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/testcentral/outpost/internal/server/middlewares"
)

var _ = Describe("Logger", func() {
	var (
		router *gin.Engine
		seenID string
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		seenID = ""
		router = gin.New()
		router.Use(middlewares.Logger())
		router.GET("/status", func(c *gin.Context) {
			seenID = c.GetString(middlewares.RequestIDKey)
			c.Status(http.StatusOK)
		})
	})

	// Given a request without a request id
	// When it is served
	// Then a new id should be generated and echoed back
	It("should generate a request id", func() {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		id := w.Header().Get(middlewares.RequestIDHeader)
		Expect(uuid.Validate(id)).To(Succeed())
		Expect(seenID).To(Equal(id))
	})

	It("should keep the caller's request id", func() {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		req.Header.Set(middlewares.RequestIDHeader, "central-123")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Header().Get(middlewares.RequestIDHeader)).To(Equal("central-123"))
		Expect(seenID).To(Equal("central-123"))
	})
})
