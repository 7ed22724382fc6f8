package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service/anonymous"
)

func (h *handlers) getCart(c *gin.Context) {
	who, _ := callerFrom(c)
	cart, err := h.deps.CartSvc.Get(c.Request.Context(), who.Owner)
	if err != nil {
		h.respondError(c, "get cart", err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) addCartItem(c *gin.Context) {
	who, _ := callerFrom(c)
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	cart, err := h.deps.CartSvc.AddItem(c.Request.Context(), who.Owner, strings.TrimSpace(req.ProductID), req.Quantity)
	if err != nil {
		h.respondError(c, "add cart item", err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) setCartItemQuantity(c *gin.Context) {
	who, _ := callerFrom(c)
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "quantity is required")
		return
	}
	cart, err := h.deps.CartSvc.SetQuantity(c.Request.Context(), who.Owner, c.Param("productId"), *req.Quantity)
	if err != nil {
		h.respondError(c, "set cart quantity", err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) removeCartItem(c *gin.Context) {
	who, _ := callerFrom(c)
	cart, err := h.deps.CartSvc.RemoveItem(c.Request.Context(), who.Owner, c.Param("productId"))
	if err != nil {
		h.respondError(c, "remove cart item", err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) clearCart(c *gin.Context) {
	who, _ := callerFrom(c)
	cart, err := h.deps.CartSvc.Clear(c.Request.Context(), who.Owner)
	if err != nil {
		h.respondError(c, "clear cart", err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// mergeCart folds the guest cart named by a guest token into the caller's
// user cart.
func (h *handlers) mergeCart(c *gin.Context) {
	who, _ := callerFrom(c)
	if !who.Owner.IsUser() {
		abortJSON(c, http.StatusForbidden, "merge requires a signed-in user")
		return
	}

	var req mergeCartRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	token := strings.TrimSpace(req.GuestToken)
	if token == "" {
		token = strings.TrimSpace(c.GetHeader(headerGuestToken))
	}
	if token == "" {
		badRequest(c, "guestToken is required")
		return
	}

	guestID, err := h.deps.GuestSvc.LookupByToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, anonymous.ErrInvalidToken) {
			badRequest(c, "invalid guest token")
			return
		}
		h.respondError(c, "lookup guest token", err)
		return
	}

	cart, err := h.deps.CartSvc.MergeInto(c.Request.Context(), who.Owner, domain.GuestOwner(guestID))
	if err != nil {
		h.respondError(c, "merge cart", err)
		return
	}
	c.JSON(http.StatusOK, cart)
}
