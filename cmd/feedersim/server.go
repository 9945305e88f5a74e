package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/synaptecltd/feedersim"
	"github.com/synaptecltd/feedersim/config"
	"github.com/synaptecltd/feedersim/fault"
	"github.com/synaptecltd/feedersim/metrics"
	"github.com/synaptecltd/feedersim/topology"
)

type server struct {
	sim    *feedersim.Simulator
	cfg    config.Config
	logger *slog.Logger
}

func newRouter(sim *feedersim.Simulator, cfg config.Config, reg *metrics.Registry, logger *slog.Logger) *gin.Engine {
	s := &server{sim: sim, cfg: cfg, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	router.GET("/health", s.health)
	router.GET("/snapshot", s.snapshot)
	router.GET("/history", s.history)
	router.GET("/events", s.events)
	router.GET("/buses", s.buses)
	router.GET("/metrics", gin.WrapH(reg.Handler()))

	cmd := router.Group("/commands")
	{
		cmd.POST("/step", s.step)
		cmd.POST("/run", s.run)
		cmd.POST("/fault", s.injectFault)
		cmd.POST("/clear", s.apply((*feedersim.State).ForceClear))
		cmd.POST("/reset", s.apply((*feedersim.State).ResetRecloser))
		cmd.POST("/restart", s.apply((*feedersim.State).Restart))
		cmd.POST("/mode", s.setMode)
		cmd.POST("/tap", s.setValue("position", (*feedersim.State).SetTap))
		cmd.POST("/capacitor", s.setValue("kvar", (*feedersim.State).SetCapacitor))
		cmd.POST("/setpoint", s.setValue("celsius", (*feedersim.State).SetSetpoint))
		cmd.POST("/speed", s.setValue("speed", (*feedersim.State).SetSpeed))
		cmd.POST("/bus", s.setBus)
	}
	return router
}

func (s *server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "running": s.sim.Running()})
}

func (s *server) snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.sim.Snapshot())
}

func (s *server) history(c *gin.Context) {
	c.JSON(http.StatusOK, s.sim.History())
}

// events handles GET /events?category=Protection
func (s *server) events(c *gin.Context) {
	c.JSON(http.StatusOK, s.sim.Events(c.Query("category")))
}

type busInfo struct {
	ID         topology.BusID `json:"id"`
	Kind       topology.Kind  `json:"kind"`
	Distance   float64        `json:"distance"`
	PVCapacity float64        `json:"pv_capacity_kw,omitempty"`
}

func (s *server) buses(c *gin.Context) {
	var out []busInfo
	_ = s.sim.Apply(func(st *feedersim.State) error {
		f := st.Feeder()
		for _, b := range f.Buses() {
			out = append(out, busInfo{
				ID:         b,
				Kind:       f.Kind(b),
				Distance:   f.Distance(b),
				PVCapacity: st.PVCapacity(b),
			})
		}
		return nil
	})
	c.JSON(http.StatusOK, out)
}

func (s *server) step(c *gin.Context) {
	c.JSON(http.StatusOK, s.sim.Step())
}

func (s *server) run(c *gin.Context) {
	var req struct {
		Running bool `json:"running"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.sim.SetRunning(req.Running)
	c.JSON(http.StatusOK, gin.H{"running": req.Running})
}

// apply wraps a command without arguments.
func (s *server) apply(cmd func(*feedersim.State) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.sim.Apply(cmd); err != nil {
			badRequest(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// setValue wraps a command taking one number, read from the JSON field name.
func (s *server) setValue(name string, cmd func(*feedersim.State, float64) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req map[string]float64
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		v, ok := req[name]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing field " + name})
			return
		}
		err := s.sim.Apply(func(st *feedersim.State) error { return cmd(st, v) })
		if err != nil {
			badRequest(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *server) injectFault(c *gin.Context) {
	var req struct {
		Bus  topology.BusID `json:"bus" binding:"required"`
		Type *fault.Type    `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t := s.cfg.Fault.DefaultType
	if req.Type != nil {
		t = *req.Type
	}
	err := s.sim.Apply(func(st *feedersim.State) error { return st.InjectFault(req.Bus, t) })
	if err != nil {
		badRequest(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) setMode(c *gin.Context) {
	var req struct {
		Mode feedersim.Mode `json:"mode" binding:"required"`
		On   bool           `json:"on"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := s.sim.Apply(func(st *feedersim.State) error { return st.SetMode(req.Mode, req.On) })
	if err != nil {
		badRequest(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) setBus(c *gin.Context) {
	var req struct {
		Bus topology.BusID `json:"bus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := s.sim.Apply(func(st *feedersim.State) error { return st.SetBus(req.Bus) })
	if err != nil {
		badRequest(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
