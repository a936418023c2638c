package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"goeats/internal/service/auth"
	"goeats/internal/service/order"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	deps Deps
	log  *slog.Logger
}

type addItemRequest struct {
	MenuID   string `json:"menu_id" binding:"required"`
	Quantity *int   `json:"quantity"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *handlers) listMenu(c *gin.Context) {
	items, err := h.deps.Menu.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *handlers) listReviews(c *gin.Context) {
	reviews, err := h.deps.Menu.Reviews(c.Request.Context(), c.Param("menuId"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

func (h *handlers) getCart(c *gin.Context) {
	snapshot, summary := h.deps.Orders.Summary()
	c.JSON(http.StatusOK, gin.H{"cart": snapshot, "summary": summary})
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "menu_id is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	line, err := h.deps.Menu.AddToCart(c.Request.Context(), strings.TrimSpace(req.MenuID), quantity)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": line, "cart": h.deps.Cart.Snapshot()})
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "quantity is required")
		return
	}
	if err := h.deps.Cart.SetQuantity(c.Param("menuId"), *req.Quantity); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": h.deps.Cart.Snapshot()})
}

func (h *handlers) removeCartItem(c *gin.Context) {
	if err := h.deps.Cart.RemoveItem(c.Param("menuId")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": h.deps.Cart.Snapshot()})
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.deps.Cart.Clear(); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) getSession(c *gin.Context) {
	user, ok := h.deps.Session.User()
	if !ok || !h.deps.Session.IsAuthenticated() {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": user})
}

func (h *handlers) login(c *gin.Context) {
	var in auth.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.deps.Auth.Login(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": user})
}

func (h *handlers) register(c *gin.Context) {
	var in auth.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.deps.Auth.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *handlers) logout(c *gin.Context) {
	if err := h.deps.Auth.Logout(); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.Orders.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *handlers) placeOrder(c *gin.Context) {
	placed, err := h.deps.Orders.Place(c.Request.Context())
	switch {
	case errors.Is(err, order.ErrCartNotCleared):
		h.log.Warn("order placed but cart not cleared", slog.String("error", err.Error()))
	case err != nil:
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": placed, "message": "Order placed successfully!"})
}
