package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
)

func (h *handlers) transitionOrder(c *gin.Context) {
	who, _ := callerFrom(c)
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	to, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		badRequest(c, "unknown status "+strconv.Quote(req.Status))
		return
	}
	order, err := h.deps.OrderSvc.Transition(c.Request.Context(), c.Param("id"), to, who.actor(), req.Notes)
	if err != nil {
		h.respondError(c, "transition order", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) updateOrderNotes(c *gin.Context) {
	who, _ := callerFrom(c)
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	order, err := h.deps.OrderSvc.UpdateNotes(c.Request.Context(), c.Param("id"), req.Notes, who.actor())
	if err != nil {
		h.respondError(c, "update order notes", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) createPOSOrder(c *gin.Context) {
	who, _ := callerFrom(c)
	var req posOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	order, err := h.deps.OrderSvc.CreateFromAdHocItems(c.Request.Context(), ordersvc.POSOrderInput{
		Customer:              req.Customer,
		Items:                 req.Items,
		ShippingAddress:       req.ShippingAddress,
		BillingAddress:        req.BillingAddress,
		PaymentMethod:         req.PaymentMethod,
		TaxCents:              req.TaxCents,
		ShippingOverrideCents: req.ShippingOverrideCents,
		Notes:                 req.Notes,
		PerformedBy:           who.actor(),
	})
	if err != nil {
		h.respondError(c, "create pos order", err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *handlers) resolveCustomer(c *gin.Context) {
	var req customersvc.Identity
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	customer, err := h.deps.CustomerSvc.Resolve(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "resolve customer", err)
		return
	}
	if customer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *handlers) resolveOrCreateCustomer(c *gin.Context) {
	var req customersvc.Identity
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	customer, err := h.deps.CustomerSvc.ResolveOrCreate(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "resolve or create customer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *handlers) listShippingRates(c *gin.Context) {
	rates, err := h.deps.ShippingSvc.ListRates(c.Request.Context())
	if err != nil {
		h.respondError(c, "list shipping rates", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": rates, "count": len(rates)})
}

func (h *handlers) setShippingRate(c *gin.Context) {
	var req shippingRateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ChargeCents == nil {
		badRequest(c, "chargeCents is required")
		return
	}
	rate, err := h.deps.ShippingSvc.SetRate(c.Request.Context(), c.Param("postalCode"), *req.ChargeCents)
	if err != nil {
		h.respondError(c, "set shipping rate", err)
		return
	}
	c.JSON(http.StatusOK, rate)
}

func (h *handlers) deleteShippingRate(c *gin.Context) {
	if err := h.deps.ShippingSvc.DeleteRate(c.Request.Context(), c.Param("postalCode")); err != nil {
		h.respondError(c, "delete shipping rate", err)
		return
	}
	c.Status(http.StatusNoContent)
}
