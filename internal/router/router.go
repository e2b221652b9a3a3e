package router

import (
	"database/sql"

	"acroyoga_club_backend/internal/handlers"
	"acroyoga_club_backend/internal/mailer"
	"acroyoga_club_backend/internal/messaging"
	"acroyoga_club_backend/internal/middleware"
	"acroyoga_club_backend/internal/repositories"
	"acroyoga_club_backend/internal/services"
	"acroyoga_club_backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Dependencies carries everything the route tree needs. main builds it
// from config and passes it in.
type Dependencies struct {
	DB        *sql.DB
	Redis     *redis.Client
	Sessions  *session.Store
	Mailer    mailer.Mailer
	Publisher messaging.Publisher

	TokenSecret  []byte
	FromAddress  string
	ClubInbox    string
	PublicURL    string
	SecureCookie bool
	CookieMaxAge int
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	// Repositories
	userRepo := repositories.NewUserRepository(deps.DB)
	activityRepo := repositories.NewActivityRepository(deps.DB)
	signUpRepo := repositories.NewSignUpRepository(deps.DB)
	transactionRepo := repositories.NewTransactionRepository(deps.DB)
	trimesterRepo := repositories.NewTrimesterRepository(deps.DB)
	feeRepo := repositories.NewMembershipFeeRepository(deps.DB)
	emailRepo := repositories.NewEmailRepository(deps.DB)
	txRunner := repositories.NewTxRunner(deps.DB)

	// Services
	authService := services.NewAuthService(userRepo, txRunner, deps.Publisher)
	userService := services.NewUserService(userRepo, txRunner, deps.TokenSecret)
	activityService := services.NewActivityService(activityRepo, txRunner)
	signUpService := services.NewSignUpService(signUpRepo, activityRepo, userRepo, transactionRepo, txRunner, deps.Publisher)
	transactionService := services.NewTransactionService(transactionRepo, signUpRepo, activityRepo, feeRepo, txRunner, deps.Publisher)
	membershipService := services.NewMembershipService(trimesterRepo, feeRepo, transactionRepo, txRunner, deps.Publisher)
	emailService := services.NewEmailService(emailRepo, userRepo, feeRepo, txRunner, deps.Mailer, deps.Publisher, deps.FromAddress, deps.PublicURL, deps.TokenSecret)
	contactLimiter := services.NewContactRateLimiter(deps.Redis)
	contactService := services.NewContactService(deps.Mailer, contactLimiter, deps.FromAddress, deps.ClubInbox)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, deps.Sessions, deps.SecureCookie)
	userHandler := handlers.NewUserHandler(userService)
	activityHandler := handlers.NewActivityHandler(activityService)
	signUpHandler := handlers.NewSignUpHandler(signUpService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	membershipHandler := handlers.NewMembershipHandler(membershipService)
	emailHandler := handlers.NewEmailHandler(emailService)
	contactHandler := handlers.NewContactHandler(contactService)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis)

	// Health and metrics sit outside the session middleware so probes
	// do not churn the session store.
	engine.GET("/healthz", healthHandler.Live)
	engine.GET("/readyz", healthHandler.Ready)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	api.Use(middleware.SessionMiddleware(deps.Sessions, middleware.SessionOptions{
		Secure: deps.SecureCookie,
		MaxAge: deps.CookieMaxAge,
	}))

	api.GET("/health", healthHandler.Info)

	SetupAuthRoutes(api, authHandler)
	SetupUserRoutes(api, userHandler)
	SetupActivityRoutes(api, activityHandler, signUpHandler)
	SetupSignUpRoutes(api, signUpHandler)
	SetupTransactionRoutes(api, transactionHandler)
	SetupMembershipRoutes(api, membershipHandler)
	SetupEmailRoutes(api, emailHandler)
	SetupContactRoutes(api, contactHandler)
}
