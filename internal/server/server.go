package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"gymhub/internal/attendance"
	"gymhub/internal/auth"
	"gymhub/internal/booking"
	"gymhub/internal/classes"
	"gymhub/internal/config"
	"gymhub/internal/credits"
	"gymhub/internal/dashboard"
	"gymhub/internal/discount"
	"gymhub/internal/inventory"
	"gymhub/internal/marketing"
	"gymhub/internal/membership"
	"gymhub/internal/retention"
	"gymhub/internal/user"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
}

func New(db *sqlx.DB, cfg *config.Config, svc *Services, sender Sender) *Server {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	s := &Server{router: router, db: db, config: cfg}
	s.routes(svc, sender)
	return s
}

func (s *Server) routes(svc *Services, sender Sender) {
	r := s.router

	userHandler := user.NewHandler(svc.Users)
	classHandler := classes.NewHandler(svc.Classes)
	creditHandler := credits.NewHandler(svc.Credits)
	discountHandler := discount.NewHandler(svc.Discounts)
	bookingHandler := booking.NewHandler(svc.Bookings)
	membershipHandler := membership.NewHandler(svc.Memberships)
	attendanceHandler := attendance.NewHandler(svc.Attendance)
	inventoryHandler := inventory.NewHandler(svc.Inventory)
	retentionHandler := retention.NewHandler(svc.Retention)
	marketingHandler := marketing.NewHandler(svc.Marketing)
	dashboardHandler := dashboard.NewHandler(svc.Dashboard)

	r.GET("/health", Health)
	r.GET("/ready", Ready(s.db))
	r.GET("/metrics", Metrics())
	SetupSwagger(r)

	public := r.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}

	catalog := r.Group("/")
	{
		catalog.GET("/classes", classHandler.ListClasses)
		catalog.GET("/classes/:id", classHandler.GetClass)
		catalog.GET("/schedules", classHandler.ListSchedules)
		catalog.GET("/schedules/:id", classHandler.GetSchedule)
		catalog.GET("/trainers", userHandler.ListTrainers)
		catalog.GET("/packages", creditHandler.ListPackages)
		catalog.GET("/plans", membershipHandler.ListPlans)
		catalog.GET("/plans/:id", membershipHandler.GetPlan)
	}

	authMiddleware := auth.AuthMiddleware(s.config.JWTSecret)
	protected := r.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.PATCH("/me", userHandler.UpdateMe)
		protected.GET("/me/qr-token", userHandler.GetQRToken)
		protected.GET("/me/bookings", bookingHandler.ListMine)
		protected.GET("/me/waitlist", bookingHandler.ListMyWaitlist)
		protected.GET("/me/credits", creditHandler.MySummary)
		protected.GET("/me/credits/transactions", creditHandler.MyLedger)
		protected.GET("/me/passes", creditHandler.MyPasses)
		protected.POST("/me/passes", creditHandler.Purchase)
		protected.GET("/me/memberships", membershipHandler.ListMine)
		protected.GET("/me/attendance", attendanceHandler.ListMine)
		protected.POST("/me/check-out", attendanceHandler.CheckOutSelf)

		protected.POST("/classes/ratings", classHandler.RateClass)

		protected.POST("/bookings", bookingHandler.Book)
		protected.GET("/bookings/:id", bookingHandler.Get)
		protected.POST("/bookings/:id/cancel", bookingHandler.Cancel)

		protected.POST("/waitlist", bookingHandler.JoinWaitlist)
		protected.DELETE("/waitlist/:id", bookingHandler.LeaveWaitlist)
		protected.POST("/waitlist/:id/accept", bookingHandler.AcceptOffer)
		protected.POST("/waitlist/:id/decline", bookingHandler.DeclineOffer)

		protected.POST("/discount-codes/preview", discountHandler.Preview)
		protected.GET("/memberships/:id", membershipHandler.Get)
	}

	staff := r.Group("/")
	staff.Use(authMiddleware, auth.RequireRole(auth.RoleStaff, auth.RoleAdmin))
	{
		staff.GET("/members", userHandler.ListMembers)
		staff.GET("/members/:id", userHandler.GetMember)
		staff.POST("/members/:id/deactivate", userHandler.DeactivateMember)
		staff.GET("/members/:id/credits", creditHandler.MemberSummary)
	}

	desk := r.Group("/admin")
	desk.Use(authMiddleware, auth.RequireRole(auth.RoleStaff, auth.RoleAdmin))
	{
		desk.GET("/dashboard", dashboardHandler.Overview)

		desk.POST("/schedules", classHandler.CreateSchedule)
		desk.GET("/schedules/:id/waitlist", bookingHandler.ListScheduleWaitlist)

		desk.POST("/bookings", bookingHandler.StaffBook)
		desk.GET("/bookings", bookingHandler.List)
		desk.PATCH("/bookings/:id/status", bookingHandler.Transition)

		desk.POST("/passes", creditHandler.Grant)

		desk.POST("/memberships", membershipHandler.Assign)
		desk.GET("/memberships", membershipHandler.List)
		desk.PATCH("/memberships/:id/status", membershipHandler.Apply)

		desk.POST("/attendance/check-in", attendanceHandler.CheckIn)
		desk.POST("/attendance/qr", attendanceHandler.CheckInByQR)
		desk.POST("/attendance/check-out", attendanceHandler.CheckOut)
		desk.GET("/attendance", attendanceHandler.List)
		desk.GET("/attendance/report", attendanceHandler.Report)

		desk.POST("/products", inventoryHandler.Create)
		desk.GET("/products", inventoryHandler.List)
		desk.GET("/products/low-stock", inventoryHandler.LowStock)
		desk.GET("/products/:id", inventoryHandler.Get)
		desk.PATCH("/products/:id", inventoryHandler.Update)
		desk.POST("/products/:id/restock", inventoryHandler.Restock)
		desk.GET("/products/:id/movements", inventoryHandler.Movements)
		desk.POST("/sales", inventoryHandler.RecordSale)
		desk.GET("/sales", inventoryHandler.Sales)

		desk.GET("/retention", retentionHandler.Overview)
		desk.GET("/retention/:risk", retentionHandler.ListByRisk)
	}

	admin := r.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/users", userHandler.CreateUser)
		admin.POST("/classes", classHandler.CreateClass)

		admin.POST("/packages", creditHandler.CreatePackage)

		admin.POST("/discount-codes", discountHandler.Create)
		admin.GET("/discount-codes", discountHandler.List)
		admin.POST("/discount-codes/:id/deactivate", discountHandler.Deactivate)

		admin.POST("/plans", membershipHandler.CreatePlan)
		admin.PATCH("/plans/:id", membershipHandler.UpdatePlan)
		admin.POST("/plans/:id/deactivate", membershipHandler.DeactivatePlan)

		admin.POST("/retention/recompute", retentionHandler.Recompute)

		admin.POST("/campaigns", marketingHandler.Create)
		admin.GET("/campaigns", marketingHandler.List)
		admin.GET("/campaigns/:id", marketingHandler.Get)
		admin.POST("/campaigns/:id/send", marketingHandler.Send)
		admin.GET("/campaigns/:id/events", marketingHandler.ListEvents)

		if sender != nil {
			admin.POST("/test-email", TestEmail(sender))
		}
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
