package server

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/LinkesAuge/autoseq/engine"
	"github.com/LinkesAuge/autoseq/sequence"
)

// Server exposes loaded sequences over HTTP. Each run request gets its own
// executor, store and event recorder, so runs never share mutable state.
type Server struct {
	l         *slog.Logger
	sequences map[string]sequence.Sequence
	drv       engine.Context
}

func New(l *slog.Logger, sequences map[string]sequence.Sequence, drv engine.Context) *Server {
	if l == nil {
		l = slog.Default()
	}
	if drv == nil {
		drv = engine.NopContext{}
	}
	return &Server{l: l, sequences: sequences, drv: drv}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	g := gin.New()
	g.Use(gin.Recovery())

	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	g.GET("/sequences", s.handleList)
	g.POST("/sequences/:name/run", s.handleRun)
	return g
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.l.Info("listening", "addr", addr)
	return s.Router().Run(addr)
}

func (s *Server) handleList(c *gin.Context) {
	names := make([]string, 0, len(s.sequences))
	for name := range s.sequences {
		names = append(names, name)
	}
	sort.Strings(names)
	c.JSON(http.StatusOK, gin.H{"sequences": names})
}

// runResponse is the wire shape of a completed run.
type runResponse struct {
	RunID     string         `json:"run_id"`
	Success   bool           `json:"success"`
	Variables map[string]any `json:"variables"`
	Events    []engine.Event `json:"events"`
}

func (s *Server) handleRun(c *gin.Context) {
	name := c.Param("name")
	seq, ok := s.sequences[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "unknown sequence: " + name})
		return
	}

	initial := map[string]any{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&initial); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "request body must be a JSON object"})
			return
		}
	}

	mode := engine.ModeExecute
	if c.Query("mode") == "simulate" {
		mode = engine.ModeSimulate
	}

	runID := uuid.NewString()
	recorder := engine.NewRecorder(slog.LevelInfo)
	executor := engine.NewExecutor(recorder.Logger().With("run_id", runID), s.drv)
	store := engine.NewStoreFrom(initial)

	s.l.Info("run started", "sequence", name, "run_id", runID, "mode", string(mode))
	success := executor.Run(c.Request.Context(), seq.Actions, store, mode)
	s.l.Info("run finished", "sequence", name, "run_id", runID, "success", success)

	c.JSON(http.StatusOK, runResponse{
		RunID:     runID,
		Success:   success,
		Variables: store.All(),
		Events:    recorder.Events(),
	})
}
