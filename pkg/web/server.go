// Package web provides the HTTP server: health and status endpoints, a
// read-only moderation API and the Prometheus scrape endpoint.
package web

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Options configures the server
type Options struct {
	// AllowedHosts are host suffixes accepted by the server. Empty accepts all.
	AllowedHosts []string
	// APIToken protects /api/guilds. Without it those routes are not served.
	APIToken string
	// RateLimit is the number of requests allowed per client and window.
	RateLimit int
	// RateWindow defaults to one minute.
	RateWindow time.Duration
}

// Server represents the web server
type Server struct {
	engine           *gin.Engine
	opts             Options
	allowedHostRegex *regexp.Regexp
}

var server *Server

// Init initializes the global web server
func Init(opts Options, deps Deps) *Server {
	server = NewServer(opts, deps)
	return server
}

// Get returns the global web server
func Get() *Server {
	return server
}

// NewServer creates a server with every route registered
func NewServer(opts Options, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)

	if opts.RateLimit <= 0 {
		opts.RateLimit = 100
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:           engine,
		opts:             opts,
		allowedHostRegex: hostPattern(opts.AllowedHosts),
	}

	s.engine.Use(s.metricsMiddleware())
	s.engine.Use(s.logsMiddleware())
	s.engine.Use(s.rateLimitMiddleware())

	s.setupErrorHandlers()
	SetupRoutes(s, deps)

	return s
}

// hostPattern matches any of the hosts or their subdomains, with an optional port
func hostPattern(hosts []string) *regexp.Regexp {
	if len(hosts) == 0 {
		return nil
	}
	quoted := make([]string, 0, len(hosts))
	for _, h := range hosts {
		quoted = append(quoted, regexp.QuoteMeta(h))
	}
	return regexp.MustCompile(`^(.+\.)?(` + strings.Join(quoted, "|") + `)(:\d+)?$`)
}

// Engine returns the underlying Gin engine
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// logsMiddleware logs every request and rejects unknown hosts
func (s *Server) logsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.allowedHostRegex != nil && !s.allowedHostRegex.MatchString(c.Request.Host) {
			logger.Warn(fmt.Sprintf("[LOG] Solicitud Sospechosa: %s %s | %s | host %s", c.Request.Method, c.Request.URL.Path, c.ClientIP(), c.Request.Host), "WebServer")
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		logger.Debug(fmt.Sprintf("[LOG] Nueva solicitud: %s %s", c.Request.Method, c.Request.URL.Path), "WebServer")
		c.Next()
	}
}

// rateLimitMiddleware allows RateLimit requests per client IP and window.
// Windows expire with the cache entry.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	type window struct {
		mu    sync.Mutex
		count int
	}
	clients := expirable.NewLRU[string, *window](10000, nil, s.opts.RateWindow)
	var mu sync.Mutex

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		w, ok := clients.Get(ip)
		if !ok {
			w = &window{}
			clients.Add(ip, w)
		}
		mu.Unlock()

		w.mu.Lock()
		w.count++
		count := w.count
		w.mu.Unlock()

		if count > s.opts.RateLimit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Demasiadas solicitudes, por favor intente de nuevo más tarde.",
			})
			return
		}
		c.Next()
	}
}

// tokenAuth requires "Authorization: Bearer <token>". Routes behind it are
// only registered when a token is configured.
func (s *Server) tokenAuth() gin.HandlerFunc {
	want := []byte("Bearer " + s.opts.APIToken)
	return func(c *gin.Context) {
		if subtle.ConstantTimeCompare([]byte(c.GetHeader("Authorization")), want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Token inválido o ausente.",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) setupErrorHandlers() {
	s.engine.HandleMethodNotAllowed = true

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "La ruta solicitada no existe.",
			"status":  404,
		})
	})

	s.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":   "Method Not Allowed",
			"message": "El método HTTP no está permitido para esta ruta.",
			"status":  405,
		})
	})
}

// Start starts the web server
func (s *Server) Start(port string) error {
	logger.Info(fmt.Sprintf("🚀 Servidor escuchando en http://localhost:%s", port), "WebServer")
	return s.engine.Run(":" + port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(port string) {
	go func() {
		if err := s.Start(port); err != nil {
			logger.Error(fmt.Sprintf("Error starting web server: %v", err), "WebServer")
		}
	}()
}

// Group creates a new router group
func (s *Server) Group(path string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return s.engine.Group(path, handlers...)
}
