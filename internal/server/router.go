package server

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"teaboard/internal/domain"
	"teaboard/internal/store"
)

// Server exposes the store's dispatch surface over HTTP and pushes
// every new state snapshot to connected dashboards over a websocket.
type Server struct {
	st      *store.Store
	hub     *hub
	log     *zap.SugaredLogger
	metrics bool
	detach  func()
}

func New(st *store.Store, lg *zap.SugaredLogger, metricsEnabled bool) *Server {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	s := &Server{st: st, hub: newHub(lg), log: lg, metrics: metricsEnabled}
	s.detach = st.Subscribe(func(state domain.AppState) {
		if b, err := json.Marshal(state); err == nil {
			s.hub.broadcast(b)
		}
	})
	return s
}

// Close detaches the server from the store.
func (s *Server) Close() { s.detach() }

func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	if s.metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	{
		api.GET("/state", s.getState)
		api.GET("/tables", s.getTables)

		tables := api.Group("/tables/:id")
		{
			tables.GET("", s.getTable)
			tables.POST("/items", s.addItem)
			tables.POST("/items/:itemID/decrement", s.decrementItem)
			tables.DELETE("/items/:itemID", s.removeItem)
			tables.PATCH("/status", s.updateStatus)
			tables.PUT("/notes", s.setNotes)
			tables.POST("/paid", s.markPaid)
			tables.POST("/clear", s.clearTable)
		}

		customer := api.Group("/customer/:id")
		{
			customer.GET("", s.getTable)
			customer.POST("/items", s.customerAddItem)
			customer.POST("/items/:itemID/decrement", s.customerDecrementItem)
			customer.DELETE("/items/:itemID", s.customerRemoveItem)
			customer.POST("/order", s.placeOrder)
		}

		api.POST("/notifications", s.pushInfo)
		api.DELETE("/notifications/:id", s.dismissNotification)
	}

	r.GET("/ws", s.handleWS)
	return r
}
