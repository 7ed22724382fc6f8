package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
	orderrepo "storefront/internal/repository/order"
	shippingrepo "storefront/internal/repository/shipping"
	"storefront/internal/service/anonymous"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
	"storefront/internal/service/reorder"
)

type GuestService interface {
	Issue(ctx context.Context) (*anonymous.Issued, error)
	LookupByToken(ctx context.Context, token string) (string, error)
}

type CartService interface {
	Get(ctx context.Context, owner domain.OwnerKey) (*domain.Cart, error)
	AddItem(ctx context.Context, owner domain.OwnerKey, productID string, qty int) (*domain.Cart, error)
	SetQuantity(ctx context.Context, owner domain.OwnerKey, productID string, qty int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, owner domain.OwnerKey, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, owner domain.OwnerKey) (*domain.Cart, error)
	MergeInto(ctx context.Context, target, source domain.OwnerKey) (*domain.Cart, error)
}

type OrderService interface {
	CreateFromCart(ctx context.Context, in ordersvc.CartOrderInput) (*domain.Order, error)
	CreateFromAdHocItems(ctx context.Context, in ordersvc.POSOrderInput) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListActivity(ctx context.Context, id string) ([]domain.ActivityEntry, error)
	List(ctx context.Context, filter orderrepo.ListFilter) ([]domain.Order, error)
	Transition(ctx context.Context, id string, to domain.OrderStatus, performedBy, notes string) (*domain.Order, error)
	UpdateNotes(ctx context.Context, id, notes, performedBy string) (*domain.Order, error)
}

type ReorderService interface {
	ReorderFrom(ctx context.Context, o *domain.Order, target domain.OwnerKey) (*reorder.Result, error)
}

type ShippingService interface {
	Resolve(ctx context.Context, postalCode string) (int64, error)
	SetRate(ctx context.Context, postalCode string, cents int64) (*shippingrepo.Rate, error)
	DeleteRate(ctx context.Context, postalCode string) error
	ListRates(ctx context.Context) ([]shippingrepo.Rate, error)
}

type CustomerService interface {
	Resolve(ctx context.Context, in customersvc.Identity) (*domain.Customer, error)
	ResolveOrCreate(ctx context.Context, in customersvc.Identity) (*domain.Customer, error)
}

type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

// Deps groups the services the router dispatches to.
type Deps struct {
	GuestSvc    GuestService
	CartSvc     CartService
	OrderSvc    OrderService
	ReorderSvc  ReorderService
	ShippingSvc ShippingService
	CustomerSvc CustomerService
	ProductSvc  ProductService
}

func (d Deps) validate() error {
	switch {
	case d.GuestSvc == nil:
		return errors.New("guest service is required")
	case d.CartSvc == nil:
		return errors.New("cart service is required")
	case d.OrderSvc == nil:
		return errors.New("order service is required")
	case d.ReorderSvc == nil:
		return errors.New("reorder service is required")
	case d.ShippingSvc == nil:
		return errors.New("shipping service is required")
	case d.CustomerSvc == nil:
		return errors.New("customer service is required")
	case d.ProductSvc == nil:
		return errors.New("product service is required")
	}
	return nil
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, corsOrigins []string) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(corsOrigins)))

	h := &handlers{deps: deps, logger: logger}

	router.GET("/healthz", healthHandler)
	var probe pinger
	if db != nil {
		probe = db
	}
	router.GET("/readyz", readyHandler(probe))

	router.POST("/guest/token", h.issueGuestToken)
	router.GET("/shipping/rates/:postalCode", h.resolveShippingRate)
	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)

	authed := router.Group("/", identityMiddleware(deps.GuestSvc, logger))

	cart := authed.Group("/cart", requireCapability(domain.CapManageOwnCart))
	cart.GET("", h.getCart)
	cart.DELETE("", h.clearCart)
	cart.POST("/items", h.addCartItem)
	cart.PUT("/items/:productId", h.setCartItemQuantity)
	cart.DELETE("/items/:productId", h.removeCartItem)
	authed.POST("/cart/merge", requireCapability(domain.CapMergeGuestCart), h.mergeCart)

	orders := authed.Group("/", requireCapability(domain.CapPlaceOrder))
	orders.POST("/orders", h.createOrder)
	orders.GET("/orders/:id", h.getOrder)
	orders.GET("/orders/:id/activity", h.getOrderActivity)
	orders.POST("/orders/:id/reorder", h.reorder)
	orders.GET("/me/orders", h.listMyOrders)

	admin := authed.Group("/admin")
	admin.GET("/orders", requireCapability(domain.CapViewAnyOrder), h.listOrders)
	admin.POST("/orders/:id/transitions", requireCapability(domain.CapTransitionOrder), h.transitionOrder)
	admin.PATCH("/orders/:id/notes", requireCapability(domain.CapTransitionOrder), h.updateOrderNotes)
	admin.POST("/pos/orders", requireCapability(domain.CapCreatePOSOrder), h.createPOSOrder)
	admin.POST("/customers/resolve", requireCapability(domain.CapCreatePOSOrder), h.resolveCustomer)
	admin.POST("/customers/resolve-or-create", requireCapability(domain.CapCreatePOSOrder), h.resolveOrCreateCustomer)

	rates := admin.Group("/shipping/rates", requireCapability(domain.CapManageShippingRates))
	rates.GET("", h.listShippingRates)
	rates.PUT("/:postalCode", h.setShippingRate)
	rates.DELETE("/:postalCode", h.deleteShippingRate)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", headerUserID, headerUserRole, headerGuestToken},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
