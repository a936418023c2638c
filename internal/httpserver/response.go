package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"goeats/internal/domain"
	"goeats/internal/remote"
	"goeats/internal/repository/state"
	"goeats/internal/service/auth"
	"goeats/internal/service/cart"
	"goeats/internal/service/order"
	"goeats/internal/service/session"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// writeError maps service errors onto statuses and user-facing messages.
func writeError(c *gin.Context, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrLoginRequired):
		respondError(c, http.StatusUnauthorized, "Please login to continue.")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "Invalid email or password.")
	case errors.Is(err, order.ErrEmptyCart):
		respondError(c, http.StatusBadRequest, "Please add items to your cart before placing an order.")
	case errors.Is(err, cart.ErrInvalidItem),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, session.ErrInvalidSession):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(c, http.StatusNotFound, "Not found.")
	case errors.Is(err, domain.ErrStale):
		respondError(c, http.StatusConflict, "Session changed, please retry.")
	case errors.Is(err, state.ErrQuotaExceeded):
		respondError(c, http.StatusInsufficientStorage, "Local storage is full.")
	case errors.Is(err, remote.ErrRemote), errors.Is(err, remote.ErrUnavailable):
		log.Warn("remote call failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		respondError(c, http.StatusBadGateway, "The GO-Eats service is unavailable, please try again.")
	default:
		log.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}
