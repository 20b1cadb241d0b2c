package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nilesh-agrahari/SecureFileShare/internal/config"
	"github.com/nilesh-agrahari/SecureFileShare/internal/mailer"
	"github.com/nilesh-agrahari/SecureFileShare/internal/middleware"
	"github.com/nilesh-agrahari/SecureFileShare/internal/policy"
	"github.com/nilesh-agrahari/SecureFileShare/internal/repository"
	"github.com/nilesh-agrahari/SecureFileShare/internal/security"
	"github.com/nilesh-agrahari/SecureFileShare/internal/service"
	"github.com/nilesh-agrahari/SecureFileShare/internal/storage"
)

type HandlerSet struct {
	log             zerolog.Logger
	cfg             *config.AppConfig
	authService     *service.AuthService
	documentService *service.DocumentService
	linkService     *service.LinkService
	db              *pgxpool.Pool
	cache           *redis.Client
	store           *storage.ObjectStore
	accounts        *repository.UserRepository
	sessions        *repository.SessionRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, mail mailer.Sender, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(cache)
	documentRepo := repository.NewDocumentRepository(db)

	signer := security.NewSigner([]byte(cfg.Security.SigningSecret))
	authz := policy.NewEngine(cfg.Policy)

	auth := service.NewAuthService(userRepo, sessionRepo, signer, mail, cfg, log)
	documents := service.NewDocumentService(documentRepo, store, authz, log)
	links := service.NewLinkService(documentRepo, store, authz, signer, cache, cfg, log)

	return HandlerSet{
		log:             log,
		cfg:             cfg,
		authService:     auth,
		documentService: documents,
		linkService:     links,
		db:              db,
		cache:           cache,
		store:           store,
		accounts:        userRepo,
		sessions:        sessionRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.Use(middleware.Identify(h.cfg, h.accounts, h.sessions))

	auth := v1.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.GET("/verify-email/:token", h.VerifyEmail)
		auth.POST("/login", h.Login)
		auth.POST("/logout", middleware.RequireAuth(), h.Logout)
	}

	documents := v1.Group("/documents")
	{
		documents.POST("", h.UploadDocument)
		documents.GET("", h.ListDocuments)
		documents.GET("/:id/download", h.DownloadDocument)
		documents.GET("/:id/view", h.ViewDocument)
		documents.DELETE("/:id", h.DeleteDocument)
		documents.GET("/:id/link", middleware.RequireAuth(), h.IssueLink)
		documents.GET("/secure/:token", h.RedeemLink)
	}
}
