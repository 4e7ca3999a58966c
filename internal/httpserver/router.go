package httpserver

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-api/internal/domain"
	"storefront-api/internal/payment/installment"
	"storefront-api/internal/repository/order"
	"storefront-api/internal/repository/product"
	"storefront-api/internal/service/cart"
	"storefront-api/internal/service/checkout"
	"storefront-api/internal/service/session"
	"storefront-api/internal/service/shopper"
	"storefront-api/internal/service/stock"
)

type SessionService interface {
	Ensure(ctx context.Context, token, clientHash string) (*session.EnsureResult, error)
	// Get is the read-only lookup: it never creates a session. The bool
	// reports that the cookie should be cleared.
	Get(ctx context.Context, token string) (*domain.Session, bool, error)
	Revoke(ctx context.Context, sessionID string) error
	AttachUser(ctx context.Context, sessionID, userID string) error
}

type CatalogService interface {
	List(ctx context.Context, f product.ListFilter) ([]domain.Product, error)
	Get(ctx context.Context, idOrSlug string) (*domain.Product, error)
	ListInstallationLocations(ctx context.Context) ([]domain.InstallationLocation, error)
}

type CartService interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, in cart.AddItemInput) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, variantItemIDs []string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID, productID string, variantItemIDs []string) (*domain.Cart, error)
	Clear(ctx context.Context, sessionID string) (*domain.Cart, error)
	SetBilling(ctx context.Context, sessionID string, billing domain.BillingDetails) (*domain.Cart, error)
	GetBilling(ctx context.Context, sessionID string) (*domain.BillingDetails, error)
	AttachUser(ctx context.Context, sessionID, userID string) error
}

type WishlistService interface {
	Get(ctx context.Context, sessionID string) (*domain.Wishlist, error)
	Toggle(ctx context.Context, sessionID, productID string, variantItemIDs []string) (*domain.Wishlist, bool, error)
	Clear(ctx context.Context, sessionID string) (*domain.Wishlist, error)
	MergeOnLogin(ctx context.Context, sessionID, userID string) error
}

type StockService interface {
	Validate(ctx context.Context, lines []stock.LineRequest) (*stock.Result, error)
}

type CheckoutService interface {
	Begin(ctx context.Context, sess *domain.Session, in checkout.BeginInput) (*checkout.BeginResult, error)
	CheckInstallmentAvailability(ctx context.Context, sessionID string) (*installment.AvailabilityResult, error)
	HandleWebhook(ctx context.Context, ev checkout.WebhookEvent) (*domain.Order, error)
}

type ShopperService interface {
	Register(ctx context.Context, in shopper.RegisterInput) (*domain.Shopper, error)
	Login(ctx context.Context, email, password string) (*domain.Shopper, error)
}

type OrderReader interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context, f order.ListFilter) ([]domain.Order, error)
}

// Deps carries every service the router needs.
type Deps struct {
	Sessions  SessionService
	Catalog   CatalogService
	Carts     CartService
	Wishlists WishlistService
	Stock     StockService
	Checkout  CheckoutService
	Shoppers  ShopperService
	Orders    OrderReader

	CookieSecure bool
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	// Webhooks come from providers, not browsers, so they sit outside the
	// session-scoped group.
	router.POST("/webhooks/card", cardWebhookHandler(deps.Checkout))
	router.POST("/webhooks/installment", installmentWebhookHandler(deps.Checkout))

	api := router.Group("/api")
	api.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	// Reading the session never creates one, so the lookup stays outside
	// the ensure middleware.
	api.GET("/session", getSessionHandler(deps.Sessions, deps.CookieSecure))

	sessioned := api.Group("")
	sessioned.Use(sessionMiddleware(deps.Sessions, deps.CookieSecure))

	sessioned.DELETE("/session", revokeSessionHandler(deps.Sessions, deps.CookieSecure))

	sessioned.GET("/products", listProductsHandler(deps.Catalog))
	sessioned.GET("/products/:id", getProductHandler(deps.Catalog))
	sessioned.GET("/installation-locations", listLocationsHandler(deps.Catalog))

	sessioned.GET("/cart", getCartHandler(deps.Carts))
	sessioned.POST("/cart/items", addCartItemHandler(deps.Carts))
	sessioned.PATCH("/cart/items", updateCartItemHandler(deps.Carts))
	sessioned.DELETE("/cart/items", removeCartItemHandler(deps.Carts))
	sessioned.DELETE("/cart", clearCartHandler(deps.Carts))
	sessioned.GET("/cart/billing", getBillingHandler(deps.Carts))
	sessioned.PUT("/cart/billing", setBillingHandler(deps.Carts))

	sessioned.GET("/wishlist", getWishlistHandler(deps.Wishlists))
	sessioned.POST("/wishlist/toggle", toggleWishlistHandler(deps.Wishlists))
	sessioned.DELETE("/wishlist", clearWishlistHandler(deps.Wishlists))

	sessioned.POST("/stock/validate", validateStockHandler(deps.Stock))

	sessioned.POST("/auth/register", registerHandler(deps))
	sessioned.POST("/auth/login", loginHandler(deps))

	sessioned.POST("/installments/availability", installmentAvailabilityHandler(deps.Checkout))
	sessioned.POST("/checkout/:provider", beginCheckoutHandler(deps.Checkout))

	sessioned.GET("/orders", listOrdersHandler(deps.Orders))
	sessioned.GET("/orders/:id", getOrderHandler(deps.Orders))
	sessioned.GET("/admin/orders", adminListOrdersHandler(deps.Orders))

	return router, nil
}
