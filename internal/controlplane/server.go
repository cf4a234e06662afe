package controlplane

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/fentz26/taskmaster/docs"
	"github.com/fentz26/taskmaster/internal/task"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Pinger reports whether the state database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK        bool                   `json:"ok"`
	DB        string                 `json:"db"`
	Version   string                 `json:"version"`
	Time      string                 `json:"time"`
	Scheduler map[string]interface{} `json:"scheduler,omitempty"`
}

// StatsFunc reports scheduler statistics for the health endpoint.
type StatsFunc func() map[string]interface{}

// Server provides the HTTP API for TaskMaster.
type Server struct {
	service *Service
	db      Pinger
	stats   StatsFunc
	addr    string
	logger  *zap.Logger
	limiter *rateLimiter
	engine  *gin.Engine
	server  *http.Server
}

// NewServer creates a new HTTP server. requestsPerMin of zero disables rate
// limiting.
func NewServer(service *Service, db Pinger, addr string, requestsPerMin int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: service,
		db:      db,
		addr:    addr,
		logger:  logger,
	}
	if requestsPerMin > 0 {
		s.limiter = newRateLimiter(requestsPerMin)
	}
	s.engine = s.routes()
	return s
}

// SetStats attaches scheduler statistics to the health report.
func (s *Server) SetStats(f StatsFunc) { s.stats = f }

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests(), s.rateLimit())

	r.GET("/health", s.handleHealth)

	r.GET("/tasks", s.listTasks)
	r.POST("/tasks", s.createTask)
	r.GET("/tasks/search", s.searchTasks)
	r.GET("/tasks/:id", s.getTask)
	r.DELETE("/tasks/:id", s.deleteTask)

	r.GET("/reminders", s.listReminders)
	r.GET("/runs", s.listRuns)
	r.POST("/process", s.process)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))

	return r
}

// Start starts the HTTP server. It blocks until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute, // a pass may wait on slow mail
	}

	s.logger.Info("starting TaskMaster daemon", zap.String("addr", s.addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// --- Middleware ---

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}
		if err := s.limiter.Allow(c.ClientIP()); err != nil {
			s.logger.Warn("rate limited", zap.String("client", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: ErrRateLimited.Error()})
			return
		}
		c.Next()
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

// --- Health ---

// handleHealth reports database reachability and scheduler stats.
// @Summary Health Check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(c *gin.Context) {
	resp := HealthResponse{
		OK:      true,
		DB:      "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	if s.stats != nil {
		resp.Scheduler = s.stats()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		resp.OK = false
		resp.DB = err.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// --- Task Handlers ---

// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param task body task.Input true "Task"
// @Success 201 {object} TaskView
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /tasks [post]
func (s *Server) createTask(c *gin.Context) {
	var req task.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	view, err := s.service.CreateTask(req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Success 200 {array} TaskView
// @Router /tasks [get]
func (s *Server) listTasks(c *gin.Context) {
	views, err := s.service.ListTasks()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// @Summary Search tasks
// @Tags Tasks
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {array} TaskView
// @Router /tasks/search [get]
func (s *Server) searchTasks(c *gin.Context) {
	views, err := s.service.SearchTasks(c.Query("q"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// @Summary Get task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} TaskView
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{id} [get]
func (s *Server) getTask(c *gin.Context) {
	view, err := s.service.GetTask(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Delete task
// @Tags Tasks
// @Param id path string true "Task ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{id} [delete]
func (s *Server) deleteTask(c *gin.Context) {
	if err := s.service.DeleteTask(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Reminder and Pass Handlers ---

// @Summary List reminders
// @Tags Passes
// @Produce json
// @Param group query string false "Inbox group name"
// @Param limit query int false "Maximum items (default 50)"
// @Success 200 {array} models.InboxItem
// @Router /reminders [get]
func (s *Server) listReminders(c *gin.Context) {
	items, err := s.service.ListReminders(c.Query("group"), queryInt(c, "limit", 50))
	if err != nil {
		s.fail(c, err)
		return
	}
	if items == nil {
		c.JSON(http.StatusOK, []struct{}{})
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary List runs
// @Tags Passes
// @Produce json
// @Param limit query int false "Maximum runs (default 20)"
// @Success 200 {array} models.Run
// @Router /runs [get]
func (s *Server) listRuns(c *gin.Context) {
	runs, err := s.service.ListRuns(queryInt(c, "limit", 20))
	if err != nil {
		s.fail(c, err)
		return
	}
	if runs == nil {
		c.JSON(http.StatusOK, []struct{}{})
		return
	}
	c.JSON(http.StatusOK, runs)
}

// process runs one pass through the configured runner.
// @Summary Run a pass
// @Tags Passes
// @Produce json
// @Success 200 {object} PassReport
// @Failure 501 {object} ErrorResponse
// @Router /process [post]
func (s *Server) process(c *gin.Context) {
	report, err := s.service.Process(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
