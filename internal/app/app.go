// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tajdo/backend/internal/account"
	"github.com/tajdo/backend/internal/auth"
	"github.com/tajdo/backend/internal/cart"
	"github.com/tajdo/backend/internal/catalog"
	"github.com/tajdo/backend/internal/config"
	"github.com/tajdo/backend/internal/database"
	"github.com/tajdo/backend/internal/handler"
	"github.com/tajdo/backend/internal/logger"
	"github.com/tajdo/backend/internal/mailer"
	"github.com/tajdo/backend/internal/metrics"
	"github.com/tajdo/backend/internal/middleware"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/notification"
	"github.com/tajdo/backend/internal/order"
	"github.com/tajdo/backend/internal/payment"
	"github.com/tajdo/backend/internal/procurement"
	"github.com/tajdo/backend/internal/repository"
	"github.com/tajdo/backend/internal/review"
	"github.com/tajdo/backend/internal/security"
	"github.com/tajdo/backend/internal/support"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCreateAdmin:
		return runCreateAdmin(cfg, args[1:])
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	addressRepo := repository.NewPostgresAddressRepo(db)
	categoryRepo := repository.NewPostgresCategoryRepo(db)
	productRepo := repository.NewPostgresProductRepo(db)
	wishlistRepo := repository.NewPostgresWishlistRepo(db)
	cartRepo := repository.NewPostgresCartRepo(db)
	orderRepo := repository.NewPostgresOrderRepo(db)
	reviewRepo := repository.NewPostgresReviewRepo(db)
	notificationRepo := repository.NewPostgresNotificationRepo(db)
	complaintRepo := repository.NewPostgresComplaintRepo(db)
	returnRepo := repository.NewPostgresReturnRepo(db)
	supplierRepo := repository.NewPostgresSupplierRepo(db)

	// 3. 共有コンポーネントの初期化
	sanitizer := security.NewSanitizer()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	mailClient := mailer.NewClient(
		&http.Client{Timeout: 10 * time.Second},
		slog.Default(),
		cfg.ResendAPIKey, cfg.FromEmail, cfg.FromName,
	)
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	// 4. ドメインサービスの初期化
	authService := auth.NewService(userRepo, tokens)
	accountService := account.NewService(userRepo, addressRepo, wishlistRepo, productRepo)
	catalogService := catalog.NewService(productRepo, categoryRepo)
	cartService := cart.NewService(cartRepo, productRepo)
	notificationService := notification.NewService(notificationRepo, orderRepo)
	orderService := order.NewService(orderRepo, cartRepo, productRepo, addressRepo, userRepo, notificationService, mailClient)
	reviewService := review.NewService(reviewRepo, productRepo, orderRepo, sanitizer)
	supportService := support.NewService(complaintRepo, returnRepo, orderRepo, sanitizer)
	procurementService := procurement.NewService(supplierRepo, productRepo)
	paymentService := payment.NewService(orderRepo, rand.New(rand.NewSource(time.Now().UnixNano())))

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitCheckout),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		TokenVerifier:      tokens,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        rateLimiter,
		Logger:             slog.Default(),

		MetricsCollector: collector,
		MetricsHandler:   metrics.Handler(prometheus.DefaultGatherer),

		AuthService:         authService,
		AccountService:      accountService,
		CatalogService:      catalogService,
		CartService:         cartService,
		OrderService:        orderService,
		AdminNameResolver:   userRepo,
		ReviewService:       reviewService,
		NotificationService: notificationService,
		SupportService:      supportService,
		ProcurementService:  procurementService,
		PaymentService:      paymentService,
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runCreateAdmin は管理者ユーザーを作成する。
// 使い方: createadmin <email> <password> [full name]
// 同じメールアドレスのユーザーが既に存在する場合は管理者ロールに昇格する。
func runCreateAdmin(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: createadmin <email> <password> [full name]")
	}
	email, password := args[0], args[1]
	fullName := "Administrator"
	if len(args) > 2 {
		fullName = args[2]
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userRepo := repository.NewPostgresUserRepo(db)

	existing, err := userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		existing.Role = model.RoleAdmin
		existing.PasswordHash = hash
		if err := userRepo.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to promote user: %w", err)
		}
		slog.Info("existing user promoted to admin", slog.String("email", email))
		return nil
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         model.RoleAdmin,
		Locale:       "en",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	slog.Info("admin user created", slog.String("email", email))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
