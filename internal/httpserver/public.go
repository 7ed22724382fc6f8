package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/service/shipping"
)

func (h *handlers) issueGuestToken(c *gin.Context) {
	issued, err := h.deps.GuestSvc.Issue(c.Request.Context())
	if err != nil {
		h.respondError(c, "issue guest token", err)
		return
	}
	expiresIn := int(time.Until(issued.ExpiresAt).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}
	c.JSON(http.StatusCreated, guestTokenResponse{
		AccessToken: issued.Token,
		TokenType:   "Bearer",
		GuestID:     issued.GuestID,
		ExpiresIn:   expiresIn,
	})
}

func (h *handlers) resolveShippingRate(c *gin.Context) {
	code := shipping.NormalizePostalCode(c.Param("postalCode"))
	cents, err := h.deps.ShippingSvc.Resolve(c.Request.Context(), code)
	if err != nil {
		h.respondError(c, "resolve shipping rate", err)
		return
	}
	c.JSON(http.StatusOK, shippingQuoteResponse{PostalCode: code, ChargeCents: cents})
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.ProductSvc.List(c.Request.Context())
	if err != nil {
		h.respondError(c, "list products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": products, "count": len(products)})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.ProductSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}
