package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"goeats/internal/domain"
	"goeats/internal/logger"
	"goeats/internal/service/auth"
	"goeats/internal/service/cart"
	"goeats/internal/service/order"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CartStore is the part of the cart the pages edit directly.
type CartStore interface {
	Snapshot() cart.Snapshot
	SetQuantity(menuItemID string, quantity int) error
	RemoveItem(menuItemID string) error
	Clear() error
}

type SessionStore interface {
	User() (domain.User, bool)
	IsAuthenticated() bool
}

type AuthService interface {
	Login(ctx context.Context, in auth.LoginInput) (*domain.User, error)
	Register(ctx context.Context, in auth.RegisterInput) (*domain.User, error)
	Logout() error
}

type MenuService interface {
	List(ctx context.Context, query string) ([]domain.MenuItem, error)
	AddToCart(ctx context.Context, menuItemID string, quantity int) (domain.LineItem, error)
	Reviews(ctx context.Context, menuItemID string) ([]domain.Review, error)
}

type OrderService interface {
	Summary() (cart.Snapshot, order.Summary)
	Place(ctx context.Context) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
}

// Deps groups the stores and flows the handlers depend on.
type Deps struct {
	Cart    CartStore
	Session SessionStore
	Auth    AuthService
	Menu    MenuService
	Orders  OrderService
	Ready   []ReadinessCheck
}

// buildRouter wires routes for the API.
func buildRouter(log *slog.Logger, deps Deps, corsOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer(log)), gin.Recovery())
	if len(corsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(log, deps.Ready))

	h := &handlers{deps: deps, log: log}
	api := router.Group("/api")

	api.GET("/menu", h.listMenu)
	api.GET("/menu/:menuId/reviews", h.listReviews)

	api.GET("/cart", h.getCart)
	api.POST("/cart/items", h.addCartItem)
	api.PATCH("/cart/items/:menuId", h.updateCartItem)
	api.DELETE("/cart/items/:menuId", h.removeCartItem)
	api.DELETE("/cart", h.clearCart)

	api.GET("/session", h.getSession)
	api.POST("/session/login", h.login)
	api.POST("/session/register", h.register)
	api.DELETE("/session", h.logout)

	api.GET("/orders", h.listOrders)
	api.POST("/orders", h.placeOrder)

	return router
}
