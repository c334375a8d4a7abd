package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"teaboard/internal/domain"
	"teaboard/internal/store"
)

type itemRequest struct {
	ID       string  `json:"id" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Price    float64 `json:"price"`
	Qty      int     `json:"qty"`
	Category string  `json:"category"`
}

type statusRequest struct {
	Status domain.TableStatus `json:"status" binding:"required"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type infoRequest struct {
	Message string `json:"message" binding:"required"`
}

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.st.State())
}

func (s *Server) getTables(c *gin.Context) {
	state := s.st.State()
	c.JSON(http.StatusOK, gin.H{
		"tableIds": s.st.TableIDs(),
		"tables":   state.Tables,
	})
}

func (s *Server) getTable(c *gin.Context) {
	id := c.Param("id")
	t, ok := s.st.State().Tables[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// table responds with the table after a dispatch, or 404 if the id is
// not on the board (the reducer already no-opped in that case).
func (s *Server) table(c *gin.Context, id string) {
	t, ok := s.st.State().Tables[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) addItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be non-negative"})
		return
	}
	id := c.Param("id")
	s.st.Dispatch(store.AddItem{
		TableID: id,
		Item:    domain.OrderItem{ID: req.ID, Name: req.Name, Price: req.Price, Category: req.Category},
		Qty:     req.Qty,
	})
	s.table(c, id)
}

func (s *Server) decrementItem(c *gin.Context) {
	id := c.Param("id")
	s.st.Dispatch(store.DecrementItem{TableID: id, ItemID: c.Param("itemID")})
	s.table(c, id)
}

func (s *Server) removeItem(c *gin.Context) {
	id := c.Param("id")
	s.st.Dispatch(store.RemoveItem{TableID: id, ItemID: c.Param("itemID")})
	s.table(c, id)
}

func (s *Server) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	id := c.Param("id")
	s.st.Dispatch(store.UpdateTableStatus{TableID: id, Status: req.Status})
	s.table(c, id)
}

func (s *Server) setNotes(c *gin.Context) {
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	s.st.Dispatch(store.SetNotes{TableID: id, Notes: req.Notes})
	s.table(c, id)
}

func (s *Server) markPaid(c *gin.Context) {
	id := c.Param("id")
	s.st.Dispatch(store.MarkPaid{TableID: id})
	s.table(c, id)
}

func (s *Server) clearTable(c *gin.Context) {
	id := c.Param("id")
	s.st.Dispatch(store.ClearTable{TableID: id})
	s.table(c, id)
}

func (s *Server) customerAddItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be non-negative"})
		return
	}
	id := c.Param("id")
	s.st.Dispatch(store.CustomerAddItem{
		TableID: id,
		Item:    domain.OrderItem{ID: req.ID, Name: req.Name, Price: req.Price, Category: req.Category},
		Qty:     req.Qty,
	})
	s.table(c, id)
}

func (s *Server) customerDecrementItem(c *gin.Context) {
	id := c.Param("id")
	s.st.Dispatch(store.CustomerDecrementItem{TableID: id, ItemID: c.Param("itemID")})
	s.table(c, id)
}

func (s *Server) customerRemoveItem(c *gin.Context) {
	id := c.Param("id")
	s.st.Dispatch(store.CustomerRemoveItem{TableID: id, ItemID: c.Param("itemID")})
	s.table(c, id)
}

// placeOrder submits the customer's cart. When the table actually
// transitions to ORDERED, a NEW_ORDER notification is raised for the
// staff dashboards.
func (s *Server) placeOrder(c *gin.Context) {
	id := c.Param("id")
	before, ok := s.st.State().Tables[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		return
	}
	s.st.Dispatch(store.PlaceOrder{TableID: id})
	after := s.st.State().Tables[id]
	if before.Status == domain.StatusEmpty && after.Status == domain.StatusOrdered {
		s.st.Dispatch(store.PushNotification{Notification: domain.Notification{
			ID:        uuid.NewString(),
			Kind:      domain.NoteNewOrder,
			TableID:   id,
			Amount:    after.Amount,
			CreatedAt: time.Now().UnixMilli(),
		}})
		c.JSON(http.StatusOK, after)
		return
	}
	c.JSON(http.StatusConflict, gin.H{"error": "nothing to order", "table": after})
}

func (s *Server) pushInfo(c *gin.Context) {
	var req infoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n := domain.Notification{
		ID:        uuid.NewString(),
		Kind:      domain.NoteInfo,
		Message:   req.Message,
		CreatedAt: time.Now().UnixMilli(),
	}
	s.st.Dispatch(store.PushNotification{Notification: n})
	c.JSON(http.StatusCreated, n)
}

func (s *Server) dismissNotification(c *gin.Context) {
	s.st.Dispatch(store.DismissNotification{ID: c.Param("id")})
	c.Status(http.StatusNoContent)
}
