package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/tajdo/backend/internal/metrics"
	"github.com/tajdo/backend/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier      middleware.TokenVerifier
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	Logger             *slog.Logger

	// メトリクス
	MetricsCollector metrics.MetricsCollector
	MetricsHandler   http.Handler

	// サービス
	AuthService         AuthServiceInterface
	AccountService      AccountServiceInterface
	CatalogService      CatalogServiceInterface
	CartService         CartServiceInterface
	OrderService        OrderServiceInterface
	AdminNameResolver   AdminNameResolver
	ReviewService       ReviewServiceInterface
	NotificationService NotificationServiceInterface
	SupportService      SupportServiceInterface
	ProcurementService  ProcurementServiceInterface
	PaymentService      PaymentServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → Recovery → SecurityHeaders → Logging → Metrics
//
// 認証が必要なルートにはさらに Auth → RateLimit(General) が掛かり、
// チェックアウトには専用レート制限、管理者ルートには RequireAdmin が掛かる。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.MetricsCollector != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsCollector))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	accountHandler := NewAccountHandler(deps.AccountService)
	catalogHandler := NewCatalogHandler(deps.CatalogService)
	cartHandler := NewCartHandler(deps.CartService)
	orderHandler := NewOrderHandler(deps.OrderService, deps.AdminNameResolver, deps.MetricsCollector)
	reviewHandler := NewReviewHandler(deps.ReviewService)
	notificationHandler := NewNotificationHandler(deps.NotificationService)
	supportHandler := NewSupportHandler(deps.SupportService)
	procurementHandler := NewProcurementHandler(deps.ProcurementService)
	paymentHandler := NewPaymentHandler(deps.PaymentService, deps.MetricsCollector)

	// --- 認証不要のルート ---

	r.Get("/health", handleHealth)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Post("/api/users", authHandler.Register)
	r.Post("/api/token", authHandler.Login)
	r.Post("/api/auth/admin/login", authHandler.AdminLogin)

	r.Get("/api/products", catalogHandler.ListProducts)
	r.Get("/api/products/{id}", catalogHandler.GetProduct)
	r.Get("/api/products/{id}/reviews", reviewHandler.ListByProduct)
	r.Get("/api/categories", catalogHandler.ListCategories)
	r.Get("/api/categories/{id}", catalogHandler.GetCategory)
	r.Get("/api/suppliers", procurementHandler.ListSuppliers)
	r.Get("/api/suppliers/{id}", procurementHandler.GetSupplier)

	// ゲストの注文照会
	r.Post("/api/orders/track", orderHandler.Track)

	// 決済ゲートウェイからの確認通知
	r.Post("/api/payments/webhook", paymentHandler.Webhook)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// プロフィール
		r.Get("/api/users/me", authHandler.Me)
		r.Patch("/api/users/me", accountHandler.UpdateProfile)

		// 住所管理
		r.Route("/api/addresses", func(r chi.Router) {
			r.Get("/", accountHandler.ListAddresses)
			r.Post("/", accountHandler.CreateAddress)
			r.Put("/{id}", accountHandler.UpdateAddress)
			r.Delete("/{id}", accountHandler.DeleteAddress)
		})

		// ウィッシュリスト
		r.Route("/api/wishlist", func(r chi.Router) {
			r.Get("/", accountHandler.ListWishlist)
			r.Post("/{productID}", accountHandler.AddToWishlist)
			r.Delete("/{productID}", accountHandler.RemoveFromWishlist)
		})

		// カート
		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.Clear)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productID}", cartHandler.UpdateItem)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
		})

		// 注文
		r.Route("/api/orders", func(r chi.Router) {
			// POST /api/orders/checkout - チェックアウト（専用レート制限を追加）
			r.With(deps.RateLimiter.CheckoutMiddleware()).Post("/checkout", orderHandler.Checkout)

			r.Get("/", orderHandler.ListMyOrders)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", orderHandler.GetOrder)
				r.Get("/history", orderHandler.StatusHistory)
				r.Get("/rescue-contribution", orderHandler.RescueContribution)
				r.Post("/payment", paymentHandler.AttachIntent)
			})
		})

		// 決済
		r.Post("/api/payments/intent", paymentHandler.CreateIntent)

		// レビュー投稿
		r.Post("/api/products/{id}/reviews", reviewHandler.Create)

		// 通知
		r.Route("/api/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.List)
			r.Post("/", notificationHandler.Create)
			r.Get("/unread-count", notificationHandler.UnreadCount)
			r.Post("/read-all", notificationHandler.MarkAllRead)
			r.Post("/{id}/read", notificationHandler.MarkRead)
		})

		// 苦情・返品
		r.Route("/api/complaints", func(r chi.Router) {
			r.Get("/", supportHandler.ListMyComplaints)
			r.Post("/", supportHandler.CreateComplaint)
		})
		r.Route("/api/returns", func(r chi.Router) {
			r.Get("/", supportHandler.ListMyReturns)
			r.Post("/", supportHandler.CreateReturn)
		})

		// --- 管理者ルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRequireAdminMiddleware())

			r.Get("/api/users", accountHandler.ListUsers)

			// カタログ管理
			r.Post("/api/products", catalogHandler.CreateProduct)
			r.Patch("/api/products/{id}", catalogHandler.UpdateProduct)
			r.Delete("/api/products/{id}", catalogHandler.DeleteProduct)
			r.Post("/api/categories", catalogHandler.CreateCategory)
			r.Patch("/api/categories/{id}", catalogHandler.UpdateCategory)
			r.Delete("/api/categories/{id}", catalogHandler.DeleteCategory)

			// 注文管理
			r.Get("/api/admin/orders", orderHandler.ListAllOrders)
			r.Get("/api/admin/users/{userID}/orders", orderHandler.ListUserOrders)
			r.Patch("/api/admin/orders/{id}/status", orderHandler.UpdateStatus)
			r.Get("/api/admin/rescue-contributions", orderHandler.ListRescueContributions)

			// レビュー管理
			r.Get("/api/admin/reviews", reviewHandler.ListAll)
			r.Delete("/api/admin/reviews/{id}", reviewHandler.Delete)

			// 苦情・返品管理
			r.Get("/api/admin/complaints", supportHandler.ListAllComplaints)
			r.Patch("/api/admin/complaints/{id}", supportHandler.ResolveComplaint)
			r.Get("/api/admin/returns", supportHandler.ListAllReturns)
			r.Patch("/api/admin/returns/{id}", supportHandler.UpdateReturn)

			// 仕入管理
			r.Post("/api/admin/suppliers", procurementHandler.CreateSupplier)
			r.Route("/api/admin/supplier-orders", func(r chi.Router) {
				r.Get("/", procurementHandler.ListSupplierOrders)
				r.Post("/", procurementHandler.CreateSupplierOrder)
				r.Get("/{id}", procurementHandler.GetSupplierOrder)
				r.Patch("/{id}/status", procurementHandler.UpdateSupplierOrderStatus)
			})
			r.Route("/api/admin/supplier-payments", func(r chi.Router) {
				r.Get("/", procurementHandler.ListPayments)
				r.Post("/", procurementHandler.RecordPayment)
			})
		})
	})

	return r
}

// handleHealth はヘルスチェックエンドポイント。
// GET /health
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
