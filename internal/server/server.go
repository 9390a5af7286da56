package server

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/campusforum/backend/internal/database"
	"github.com/campusforum/backend/internal/events"
	"github.com/campusforum/backend/internal/handlers"
	"github.com/campusforum/backend/internal/middleware"
	"github.com/campusforum/backend/internal/services"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
	Emitter *events.Emitter
}

// NewServer creates and configures a new server
func NewServer() (*http.Server, *Server) {
	db := database.New()

	emitter := events.NewEmitter(256)

	var moderator services.ContentModerator = services.DisabledModerator{}
	if url := os.Getenv("MODERATION_URL"); url != "" {
		moderator = services.NewHTTPModerator(url)
	}

	handler := handlers.NewHandler(db.GetDB(), emitter, moderator)

	newServer := &Server{
		db:      db,
		handler: handler,
		Emitter: emitter,
	}

	router := newServer.RegisterRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", port)

	return server, newServer
}

func (s *Server) DB() database.Service {
	return s.db
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Public reads
		api.GET("/questions", s.handler.Question.GetQuestions)
		api.GET("/posts/:id/comments", s.handler.Comment.GetComments)
		api.GET("/resources", s.handler.Resource.GetResources)
		api.GET("/users/:id", s.handler.User.GetUserProfile)
		api.GET("/users/:id/badges", s.handler.User.GetUserBadges)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			protected.GET("/questions/:slug", s.handler.Question.GetQuestion)
			protected.POST("/questions", s.handler.Question.CreateQuestion)
			protected.POST("/questions/:slug/accept_answer", s.handler.Question.AcceptAnswer)
			protected.POST("/questions/:slug/answers", s.handler.Answer.CreateAnswer)

			protected.POST("/posts/:id/comments", s.handler.Comment.CreateComment)
			protected.POST("/resources", s.handler.Resource.CreateResource)

			protected.POST("/posts/vote", s.handler.Vote.Vote("posts"))
			protected.POST("/comments/vote", s.handler.Vote.Vote("comments"))
			protected.POST("/resources/vote", s.handler.Vote.Vote("resources"))

			protected.POST("/posts/bookmark/:id", s.handler.Bookmark.AddBookmark)
			protected.DELETE("/posts/bookmark/:id", s.handler.Bookmark.RemoveBookmark)

			protected.PUT("/users/:id", s.handler.User.UpdateUserProfile)
		}
	}

	return r
}
