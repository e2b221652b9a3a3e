package router

import (
	"acroyoga_club_backend/internal/handlers"
	"acroyoga_club_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/logout", authHandler.Logout)
		authRoutes.GET("/session", authHandler.GetSession)
	}
}

// SetupUserRoutes sets up profile and admin user-management routes.
func SetupUserRoutes(apiGroup *gin.RouterGroup, userHandler *handlers.UserHandler) {
	userRoutes := apiGroup.Group("/users")
	{
		// Reached from email footers without a session.
		userRoutes.GET("/unsubscribe", userHandler.Unsubscribe)

		me := userRoutes.Group("/me")
		me.Use(middleware.RequireAuth())
		{
			me.GET("", userHandler.GetMe)
			me.PATCH("", userHandler.UpdateMe)
		}

		admin := userRoutes.Group("")
		admin.Use(middleware.RequireAuth(), middleware.RequireAdmin())
		{
			admin.GET("", userHandler.GetUsers)
			admin.PATCH("/:id/status", userHandler.SetUserStatus)
			admin.PATCH("/:id/membership", userHandler.SetMembership)
		}
	}
}

// SetupActivityRoutes sets up the activity routes. Browsing is public;
// booking needs a login; management needs admin.
func SetupActivityRoutes(apiGroup *gin.RouterGroup, activityHandler *handlers.ActivityHandler, signUpHandler *handlers.SignUpHandler) {
	activityRoutes := apiGroup.Group("/activities")
	{
		activityRoutes.GET("", activityHandler.GetActivities)
		activityRoutes.GET("/:id", activityHandler.GetActivityByID)

		book := activityRoutes.Group("")
		book.Use(middleware.RequireAuth())
		{
			book.POST("/:id/sign-ups", signUpHandler.CreateSignUp)
		}

		admin := activityRoutes.Group("")
		admin.Use(middleware.RequireAuth(), middleware.RequireAdmin())
		{
			admin.POST("", activityHandler.CreateActivity)
			admin.PUT("/:id", activityHandler.UpdateActivity)
			admin.DELETE("/:id", activityHandler.DeleteActivity)
		}
	}
}

// SetupSignUpRoutes sets up the caller's own sign-up listing.
func SetupSignUpRoutes(apiGroup *gin.RouterGroup, signUpHandler *handlers.SignUpHandler) {
	signUpRoutes := apiGroup.Group("/sign-ups")
	signUpRoutes.Use(middleware.RequireAuth())
	{
		signUpRoutes.GET("", signUpHandler.GetMySignUps)
	}
}

// SetupTransactionRoutes sets up the admin transaction routes.
func SetupTransactionRoutes(apiGroup *gin.RouterGroup, transactionHandler *handlers.TransactionHandler) {
	transactionRoutes := apiGroup.Group("/transactions")
	transactionRoutes.Use(middleware.RequireAuth(), middleware.RequireAdmin())
	{
		transactionRoutes.GET("", transactionHandler.GetTransactions)
		transactionRoutes.GET("/:id", transactionHandler.GetTransactionByID)
		transactionRoutes.PATCH("/:id/status", transactionHandler.UpdateTransactionStatus)
	}
}

// SetupMembershipRoutes sets up trimester and membership-fee routes.
func SetupMembershipRoutes(apiGroup *gin.RouterGroup, membershipHandler *handlers.MembershipHandler) {
	trimesterRoutes := apiGroup.Group("/trimesters")
	trimesterRoutes.Use(middleware.RequireAuth(), middleware.RequireAdmin())
	{
		trimesterRoutes.POST("", membershipHandler.CreateTrimester)
		trimesterRoutes.GET("", membershipHandler.GetTrimesters)
		trimesterRoutes.GET("/:id", membershipHandler.GetTrimesterByID)
		trimesterRoutes.PUT("/:id", membershipHandler.UpdateTrimester)
		trimesterRoutes.DELETE("/:id", membershipHandler.DeleteTrimester)
		trimesterRoutes.POST("/:id/fees", membershipHandler.ComputeDueFees)
	}

	feeRoutes := apiGroup.Group("/membership-fees")
	feeRoutes.Use(middleware.RequireAuth())
	{
		feeRoutes.GET("/me", membershipHandler.GetMyFees)
		feeRoutes.POST("/:id/pay", membershipHandler.PayFee)

		adminFees := feeRoutes.Group("")
		adminFees.Use(middleware.RequireAdmin())
		{
			adminFees.GET("/pending", membershipHandler.GetPendingFees)
		}
	}
}

// SetupEmailRoutes sets up the admin campaign routes.
func SetupEmailRoutes(apiGroup *gin.RouterGroup, emailHandler *handlers.EmailHandler) {
	emailRoutes := apiGroup.Group("/emails")
	emailRoutes.Use(middleware.RequireAuth(), middleware.RequireAdmin())
	{
		emailRoutes.POST("", emailHandler.CreateEmail)
		emailRoutes.GET("", emailHandler.GetEmails)
		emailRoutes.GET("/:id", emailHandler.GetEmailByID)
		emailRoutes.GET("/:id/audience", emailHandler.PreviewAudience)
		emailRoutes.PUT("/:id", emailHandler.UpdateEmail)
		emailRoutes.DELETE("/:id", emailHandler.DeleteEmail)
		emailRoutes.POST("/:id/send", emailHandler.SendEmail)
	}
}

// SetupContactRoutes sets up the public contact-form route.
func SetupContactRoutes(apiGroup *gin.RouterGroup, contactHandler *handlers.ContactHandler) {
	apiGroup.POST("/contact", contactHandler.SubmitContactForm)
}
