package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	orderrepo "storefront/internal/repository/order"
	ordersvc "storefront/internal/service/order"
)

func (h *handlers) createOrder(c *gin.Context) {
	who, _ := callerFrom(c)
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	order, err := h.deps.OrderSvc.CreateFromCart(c.Request.Context(), ordersvc.CartOrderInput{
		Owner:           who.Owner,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		TaxCents:        req.TaxCents,
		Notes:           req.Notes,
		PerformedBy:     who.actor(),
	})
	if err != nil {
		h.respondError(c, "create order", err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// visibleOrder loads the order and hides it from callers that neither own it
// nor may view any order.
func (h *handlers) visibleOrder(c *gin.Context) (*domain.Order, bool) {
	who, _ := callerFrom(c)
	order, err := h.deps.OrderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get order", err)
		return nil, false
	}
	if !who.Role.Can(domain.CapViewAnyOrder) && order.CustomerRef != ordersvc.CustomerRefFor(who.Owner) {
		c.JSON(http.StatusNotFound, gin.H{"error": (&domain.NotFoundError{Kind: "order", ID: order.ID}).Error()})
		return nil, false
	}
	return order, true
}

func (h *handlers) getOrder(c *gin.Context) {
	order, ok := h.visibleOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) getOrderActivity(c *gin.Context) {
	order, ok := h.visibleOrder(c)
	if !ok {
		return
	}
	entries, err := h.deps.OrderSvc.ListActivity(c.Request.Context(), order.ID)
	if err != nil {
		h.respondError(c, "list order activity", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": order.ID, "results": entries})
}

func (h *handlers) reorder(c *gin.Context) {
	who, _ := callerFrom(c)
	order, ok := h.visibleOrder(c)
	if !ok {
		return
	}
	result, err := h.deps.ReorderSvc.ReorderFrom(c.Request.Context(), order, who.Owner)
	if err != nil {
		h.respondError(c, "reorder", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) listMyOrders(c *gin.Context) {
	who, _ := callerFrom(c)
	filter := orderrepo.ListFilter{CustomerRef: ordersvc.CustomerRefFor(who.Owner)}
	if !applyListParams(c, &filter) {
		return
	}
	h.writeOrderList(c, filter)
}

func (h *handlers) listOrders(c *gin.Context) {
	var filter orderrepo.ListFilter
	if !applyListParams(c, &filter) {
		return
	}
	filter.CustomerRef = c.Query("customerRef")
	h.writeOrderList(c, filter)
}

func (h *handlers) writeOrderList(c *gin.Context, filter orderrepo.ListFilter) {
	orders, err := h.deps.OrderSvc.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "list orders", err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"results": orders, "count": len(orders)})
}

func applyListParams(c *gin.Context, filter *orderrepo.ListFilter) bool {
	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParseOrderStatus(raw)
		if !ok {
			badRequest(c, "unknown status "+strconv.Quote(raw))
			return false
		}
		filter.Status = status
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return false
		}
		filter.Limit = limit
	}
	return true
}
