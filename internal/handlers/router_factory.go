package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"tutoria/internal/config"
	"tutoria/internal/middleware"
	"tutoria/internal/observability"
	"tutoria/internal/services"
	"tutoria/internal/version"
)

// NewRouter creates a new router with all the necessary middleware and routes
func NewRouter(
	cfg *config.Config,
	userService services.UserServiceInterface,
	quizService services.QuizServiceInterface,
	cardService services.CardServiceInterface,
	gamesService services.GamesServiceInterface,
	conversationService services.ConversationServiceInterface,
	classService services.ClassServiceInterface,
	documentService services.DocumentServiceInterface,
	activityService services.ActivityServiceInterface,
	logger *observability.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorRecoveryMiddleware(nil))

	// HTTP request logging through the observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		if statusCode >= 500 {
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		} else if statusCode >= 400 {
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		} else {
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check endpoint (defined before any middleware). Reports
	// degraded with a 503 when the database is unreachable.
	router.GET("/health", func(c *gin.Context) {
		if db := userService.GetDB(); db != nil {
			if err := db.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "service": "backend"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "backend"})
	})

	// OpenTelemetry middleware for HTTP tracing and context propagation
	router.Use(observability.GinMiddlewareWithErrorHandling(cfg.OpenTelemetry.ServiceName))

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	// Initialize handlers
	authHandler := NewAuthHandler(userService, cfg, logger)
	userHandler := NewUserHandler(userService, logger)
	quizHandler := NewQuizHandler(quizService, documentService, cfg, logger)
	cardHandler := NewCardHandler(cardService, documentService, logger)
	gamesHandler := NewGamesHandler(gamesService, documentService, logger)
	chatHandler := NewChatHandler(conversationService, logger)
	classHandler := NewClassHandler(classService, logger)
	documentHandler := NewDocumentHandler(documentService, cfg, logger)
	activityHandler := NewActivityHandler(activityService, logger)

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service":   "backend",
				"version":   version.Version,
				"commit":    version.Commit,
				"buildTime": version.BuildTime,
			})
		})

		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/status", authHandler.Status)
		}

		quiz := v1.Group("/quiz")
		quiz.Use(middleware.RequireAuth())
		{
			quiz.POST("/generate", quizHandler.CreateQuiz)
			quiz.GET("", quizHandler.GetQuizzes)
			quiz.GET("/:id", quizHandler.GetQuiz)
			quiz.POST("/:id/submit", quizHandler.SubmitQuiz)
		}

		cards := v1.Group("/cards")
		cards.Use(middleware.RequireAuth())
		{
			cards.POST("/generate", cardHandler.CreateCards)
			cards.GET("", cardHandler.GetCards)
			cards.POST("/:id/review", cardHandler.ReviewCard)
		}

		games := v1.Group("/games")
		{
			// Demo payloads are public so the landing page can show them
			games.GET("/demo/:type", gamesHandler.DemoGame)

			authed := games.Group("")
			authed.Use(middleware.RequireAuth())
			{
				authed.GET("", gamesHandler.GetGames)
				authed.GET("/:id", gamesHandler.GetGame)
				authed.POST("/:type", gamesHandler.CreateGame)
				authed.POST("/:type/complete", gamesHandler.CompleteGame)
			}
		}

		chat := v1.Group("/chat")
		chat.Use(middleware.RequireAuth())
		{
			chat.POST("", chatHandler.SendMessage)
			chat.GET("/conversations", chatHandler.GetConversations)
			chat.GET("/conversations/:id/messages", chatHandler.GetMessages)
			chat.DELETE("/conversations/:id", chatHandler.DeleteConversation)
		}

		classes := v1.Group("/classes")
		{
			classes.POST("", middleware.RequireTeacher(), classHandler.CreateClass)
			classes.GET("", middleware.RequireTeacher(), classHandler.GetClasses)
			classes.GET("/:id/students", middleware.RequireTeacher(), classHandler.GetClassStudents)
			classes.GET("/:id/students/:studentID/progress", middleware.RequireTeacher(), classHandler.GetStudentProgress)
			classes.GET("/:id/activities", middleware.RequireAuth(), activityHandler.GetClassActivities)
			classes.GET("/:id/documents", middleware.RequireAuth(), documentHandler.GetClassDocuments)
			classes.DELETE("/:id", middleware.RequireTeacher(), classHandler.DeleteClass)
			classes.POST("/join", middleware.RequireAuth(), classHandler.JoinClass)
		}

		activities := v1.Group("/activities")
		{
			activities.POST("", middleware.RequireTeacher(), activityHandler.CreateActivity)
			activities.POST("/:id/submit", middleware.RequireAuth(), activityHandler.SubmitActivity)
			activities.GET("/:id/submissions", middleware.RequireTeacher(), activityHandler.GetSubmissions)
			activities.DELETE("/:id", middleware.RequireTeacher(), activityHandler.DeleteActivity)
		}

		documents := v1.Group("/documents")
		documents.Use(middleware.RequireAuth())
		{
			documents.POST("", documentHandler.UploadDocument)
			documents.GET("", documentHandler.GetDocuments)
			documents.GET("/:id", documentHandler.GetDocument)
			documents.PATCH("/:id/share", middleware.RequireTeacher(), documentHandler.ShareDocument)
			documents.DELETE("/:id", documentHandler.DeleteDocument)
		}

		students := v1.Group("/students")
		students.Use(middleware.RequireAuth())
		{
			students.GET("/me/stats", userHandler.StudentStats)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router
}
