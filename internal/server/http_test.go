package server_test

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/testcentral/outpost/internal/config"
	"github.com/testcentral/outpost/internal/server"
	"github.com/testcentral/outpost/internal/server/middlewares"
)

var _ = Describe("HTTP Server", func() {
	var (
		cfg               *config.Configuration
		registerHandlerFn func(router *gin.RouterGroup)
		srv               *server.Server
	)

	start := func() {
		var err error
		srv, err = server.NewServer(cfg, registerHandlerFn)
		Expect(err).ToNot(HaveOccurred())

		go func() {
			_ = srv.Start(context.TODO())
		}()
		time.Sleep(100 * time.Millisecond)
	}

	BeforeEach(func() {
		registerHandlerFn = func(router *gin.RouterGroup) {
			router.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{"status": "ok"})
			})
			router.GET("/panic", func(c *gin.Context) {
				panic("boom")
			})
		}
	})

	AfterEach(func() {
		if srv != nil {
			srv.Stop(context.TODO())
			srv = nil
		}
	})

	Context("plain HTTP", func() {
		BeforeEach(func() {
			cfg = config.NewConfigurationWithOptionsAndDefaults(
				config.WithServer(config.Server{ServerMode: server.DevServer, HTTPPort: 18567}),
			)
		})

		It("serves under /rest/v1", func() {
			start()

			resp, err := http.Get(fmt.Sprintf("http://localhost:%d/rest/v1/health", cfg.Server.HTTPPort))
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(200))
			Expect(resp.Header.Get(middlewares.RequestIDHeader)).ToNot(BeEmpty())
			resp.Body.Close()
		})

		// Given a server
		// When we request a route that does not exist
		// Then it should return 404 with a JSON error
		It("returns 404 JSON for unknown routes", func() {
			start()

			resp, err := http.Get(fmt.Sprintf("http://localhost:%d/rest/v1/nonexistent", cfg.Server.HTTPPort))
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(404))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("application/json"))
			resp.Body.Close()
		})

		// Given a handler that panics
		// When it is called
		// Then the server should recover and answer 500
		It("recovers from panics", func() {
			start()

			resp, err := http.Get(fmt.Sprintf("http://localhost:%d/rest/v1/panic", cfg.Server.HTTPPort))
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(500))
			resp.Body.Close()

			resp, err = http.Get(fmt.Sprintf("http://localhost:%d/rest/v1/health", cfg.Server.HTTPPort))
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(200))
			resp.Body.Close()
		})
	})

	Context("TLS enabled", func() {
		BeforeEach(func() {
			cfg = config.NewConfigurationWithOptionsAndDefaults(
				config.WithServer(config.Server{ServerMode: server.ProductionServer, HTTPPort: 18568, TLSEnabled: true}),
			)
		})

		It("serves over HTTPS with TLS", func() {
			start()

			client := &http.Client{
				Transport: &http.Transport{
					TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
				},
			}

			resp, err := client.Get(fmt.Sprintf("https://localhost:%d/rest/v1/health", cfg.Server.HTTPPort))
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(200))
			Expect(resp.TLS).ToNot(BeNil())
			Expect(resp.TLS.PeerCertificates[0].Subject.OrganizationalUnit).To(ContainElement("Outpost"))
			resp.Body.Close()
		})
	})
})
