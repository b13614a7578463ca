package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muralhq/mural-backend/api/controllers"
	"github.com/muralhq/mural-backend/api/middleware"
	"github.com/muralhq/mural-backend/internal/accounts"
	"github.com/muralhq/mural-backend/internal/artworks"
	"github.com/muralhq/mural-backend/internal/auth"
	"github.com/muralhq/mural-backend/internal/cart"
	"github.com/muralhq/mural-backend/internal/favorites"
	"github.com/muralhq/mural-backend/internal/purchases"
	"github.com/muralhq/mural-backend/pkg/auth/session"
	"github.com/muralhq/mural-backend/pkg/config"
	"github.com/muralhq/mural-backend/pkg/db"
	"github.com/muralhq/mural-backend/pkg/enums"
	"github.com/muralhq/mural-backend/pkg/logger"
	"github.com/muralhq/mural-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager sessionManager,
	authService auth.Service,
	accountsService accounts.Service,
	artworksService artworks.Service,
	cartService cart.Service,
	favoritesService favorites.Service,
	purchasesService purchases.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
		r.Post("/guest", controllers.AuthContinueAsGuest(authService, logg))
	})

	// Published catalog is readable without a session; a bearer token is still
	// honored so artists can see their own drafts on the detail route.
	r.Route("/api/v1/artworks", func(r chi.Router) {
		r.Get("/", controllers.ArtworkList(artworksService, logg))
		r.With(middleware.OptionalAuth(cfg.JWT, sessionManager, logg)).Get("/{artworkID}", controllers.ArtworkGet(artworksService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
			r.Use(middleware.RequireRole(string(enums.RoleArtist), logg))
			r.Use(middleware.Idempotency(redisClient, logg))
			r.Post("/", controllers.ArtworkCreate(artworksService, logg))
			r.Get("/mine", controllers.ArtworkListMine(artworksService, logg))
			r.Put("/{artworkID}", controllers.ArtworkUpdate(artworksService, logg))
			r.Delete("/{artworkID}", controllers.ArtworkDelete(artworksService, logg))
		})
	})

	// Cart and checkout accept either a signed-in account or a guest token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Actor(cfg.JWT, sessionManager, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Put("/items", controllers.CartSetQuantity(cartService, logg))
			r.Delete("/items/{artworkID}", controllers.CartRemoveItem(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
		})

		r.Post("/api/v1/checkout", controllers.Checkout(purchasesService, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))

		r.Get("/api/v1/ping", controllers.PrivatePing())

		r.Route("/api/v1/favorites", func(r chi.Router) {
			r.Get("/", controllers.FavoritesList(favoritesService, logg))
			r.Post("/{artworkID}/toggle", controllers.FavoritesToggle(favoritesService, logg))
			r.Get("/{artworkID}", controllers.FavoriteStatus(favoritesService, logg))
		})

		r.Get("/api/v1/purchases", controllers.PurchaseHistory(purchasesService, logg))

		r.Route("/api/v1/me", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(accountsService, logg))
			r.Put("/", controllers.ProfileUpdate(accountsService, logg))
			r.Put("/password", controllers.PasswordChange(accountsService, logg))
			r.Delete("/", controllers.AccountDelete(accountsService, logg))
		})
	})

	return r
}
