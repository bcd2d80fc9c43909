package server

import (
	"strings"
	"time"

	"anoa.com/titlereview/internal/config"
	"anoa.com/titlereview/internal/handler"
	"anoa.com/titlereview/internal/middleware"
	"anoa.com/titlereview/internal/repository"
	"anoa.com/titlereview/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Server {
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	genreRepo := repository.NewGenreRepository(db)
	titleRepo := repository.NewTitleRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Search is optional: without a Meilisearch host the title search
	// degrades to a database name filter.
	var meiliClient meilisearch.ServiceManager
	if cfg.MeiliSearchHost != "" {
		host := cfg.MeiliSearchHost
		if !strings.HasPrefix(host, "http") {
			host = "http://" + host + ":7700"
		}
		meiliClient = meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	}
	searchSvc := service.NewSearchService(meiliClient)

	var mailer service.Mailer
	if cfg.SMTPHost != "" {
		mailer = service.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	} else {
		mailer = service.NewLogMailer()
	}

	codes := service.NewCodeStore(redisClient, cfg.ConfirmationCodeTTL)

	authSvc := service.NewAuthService(userRepo, codes, mailer, redisClient, cfg.JWTSecret, cfg.JWTTTL, cfg.SignupCooldown)
	authHandler := handler.NewAuthHandler(authSvc)

	categoryHandler := handler.NewCatalogHandler(service.NewCategoryService(categoryRepo))
	genreHandler := handler.NewCatalogHandler(service.NewGenreService(genreRepo))

	titleSvc := service.NewTitleService(titleRepo, categoryRepo, genreRepo, searchSvc)
	titleHandler := handler.NewTitleHandler(titleSvc)

	reviewSvc := service.NewReviewService(reviewRepo, titleRepo)
	reviewHandler := handler.NewReviewHandler(reviewSvc)

	commentSvc := service.NewCommentService(commentRepo, reviewRepo)
	commentHandler := handler.NewCommentHandler(commentSvc)

	userSvc := service.NewUserService(userRepo)
	userHandler := handler.NewUserHandler(userSvc)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	api := router.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/token", authHandler.Token)
	}

	// Reads are public; unsafe verbs carry the auth middleware and the
	// services decide the rest through the policy.
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/categories", categoryHandler.List)
		public.GET("/genres", genreHandler.List)
		public.GET("/titles", titleHandler.List)
		public.GET("/titles/:title_id", titleHandler.Get)
		public.GET("/titles/:title_id/reviews", reviewHandler.List)
		public.GET("/titles/:title_id/reviews/:review_id", reviewHandler.Get)
		public.GET("/titles/:title_id/reviews/:review_id/comments", commentHandler.List)
		public.GET("/titles/:title_id/reviews/:review_id/comments/:comment_id", commentHandler.Get)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/categories", categoryHandler.Create)
		protected.DELETE("/categories/:slug", categoryHandler.Delete)

		protected.POST("/genres", genreHandler.Create)
		protected.DELETE("/genres/:slug", genreHandler.Delete)

		protected.POST("/titles", titleHandler.Create)
		protected.PATCH("/titles/:title_id", titleHandler.Update)
		protected.DELETE("/titles/:title_id", titleHandler.Delete)

		protected.POST("/titles/:title_id/reviews", reviewHandler.Create)
		protected.PATCH("/titles/:title_id/reviews/:review_id", reviewHandler.Update)
		protected.DELETE("/titles/:title_id/reviews/:review_id", reviewHandler.Delete)

		protected.POST("/titles/:title_id/reviews/:review_id/comments", commentHandler.Create)
		protected.PATCH("/titles/:title_id/reviews/:review_id/comments/:comment_id", commentHandler.Update)
		protected.DELETE("/titles/:title_id/reviews/:review_id/comments/:comment_id", commentHandler.Delete)

		protected.GET("/users/me", userHandler.GetProfile)
		protected.PATCH("/users/me", userHandler.UpdateProfile)

		protected.POST("/users", userHandler.Create)
		protected.GET("/users", userHandler.List)
		protected.GET("/users/:username", userHandler.Get)
		protected.PATCH("/users/:username", userHandler.Update)
		protected.DELETE("/users/:username", userHandler.Delete)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
