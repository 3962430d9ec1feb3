package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xiebiao/libracirc/internal/application/circulation"
	appinventory "github.com/xiebiao/libracirc/internal/application/inventory"
	apploan "github.com/xiebiao/libracirc/internal/application/loan"
	appmember "github.com/xiebiao/libracirc/internal/application/member"
	apprequest "github.com/xiebiao/libracirc/internal/application/request"
	appreservation "github.com/xiebiao/libracirc/internal/application/reservation"
	"github.com/xiebiao/libracirc/internal/domain/catalog"
	"github.com/xiebiao/libracirc/internal/domain/loan"
	"github.com/xiebiao/libracirc/internal/domain/member"
	"github.com/xiebiao/libracirc/internal/infrastructure/config"
	"github.com/xiebiao/libracirc/internal/infrastructure/notify"
	"github.com/xiebiao/libracirc/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/libracirc/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/libracirc/internal/interface/http/handler"
	"github.com/xiebiao/libracirc/internal/interface/http/middleware"
	"github.com/xiebiao/libracirc/pkg/clock"
	"github.com/xiebiao/libracirc/pkg/jwt"
	"github.com/xiebiao/libracirc/pkg/metrics"
	"github.com/xiebiao/libracirc/pkg/mq"
	"github.com/xiebiao/libracirc/pkg/response"
	"github.com/xiebiao/libracirc/pkg/tracing"
)

// main 主程序入口
// 说明：手动依赖注入(wire.go提供编译期生成的等价装配)
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	fmt.Printf("✓ 配置加载成功\n")
	fmt.Printf("  - 服务端口: %d\n", cfg.Server.Port)
	fmt.Printf("  - 运行模式: %s\n", cfg.Server.Mode)
	fmt.Printf("  - 数据库: %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	fmt.Printf("  - Redis: %s\n", cfg.Redis.Addr())

	// 2. 可观测性
	metrics.InitMetrics()
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer("libracirc", cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatalf("初始化链路追踪失败: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				log.Printf("关闭链路追踪失败: %v", err)
			}
		}()
	}

	// 3. 初始化数据库连接
	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	// 4. 初始化Redis连接
	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}

	// 5. 通知通道(MQ不可用或未启用时降级为no-op)
	var notifier notify.Notifier = notify.NewNoop()
	if cfg.MQ.Enabled {
		publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
		if err != nil {
			log.Printf("连接RabbitMQ失败,通知降级为no-op: %v", err)
		} else {
			defer publisher.Close()
			notifier = notify.NewMQNotifier(publisher)
		}
	}

	// 6. 依赖注入（手动组装）
	// 依赖注入链: Repository ← Service/Coordinator ← UseCase ← Handler

	// 基础设施层
	memberRepo := mysql.NewMemberRepository(db)
	titleRepo := mysql.NewTitleRepository(db)
	itemRepo := mysql.NewItemRepository(db)
	loanRepo := mysql.NewLoanRepository(db)
	reservationRepo := mysql.NewReservationRepository(db)
	requestRepo := mysql.NewRequestRepository(db)
	txManager := mysql.NewTxManager(db)
	sessionStore := redis.NewSessionStore(redisClient)
	jwtManager := jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)

	// 流通内核
	clk := clock.NewReal()
	policy := loan.Policy{
		LoanPeriodDays: cfg.Circulation.LoanPeriodDays,
		MaxRenewals:    cfg.Circulation.MaxRenewals,
		FinePerDay:     cfg.Circulation.FinePerDay,
	}
	coordinator := circulation.NewCoordinator(txManager, cfg.Circulation.TxMaxRetries, mysql.IsRetryableError)
	issuer := circulation.NewIssuer(memberRepo, titleRepo, itemRepo, loanRepo, policy, clk)
	router := circulation.NewRouter(titleRepo, itemRepo, reservationRepo, clk)

	// 领域层
	memberService := member.NewService(memberRepo)
	catalogService := catalog.NewService(titleRepo, itemRepo)

	// 应用层
	registerUseCase := appmember.NewRegisterUseCase(memberService, cfg.Circulation.DefaultMaxBorrow)
	loginUseCase := appmember.NewLoginUseCase(memberService, jwtManager, sessionStore)
	logoutUseCase := appmember.NewLogoutUseCase(sessionStore)
	refreshUseCase := appmember.NewRefreshTokenUseCase(jwtManager)
	profileUseCase := appmember.NewGetProfileUseCase(memberRepo)
	promoteUseCase := appmember.NewPromoteMemberUseCase(coordinator, memberRepo)
	cancelMemberUseCase := appmember.NewCancelMembershipUseCase(coordinator, memberRepo, sessionStore)

	addTitleUseCase := appinventory.NewAddTitleUseCase(catalogService)
	addItemUseCase := appinventory.NewAddItemUseCase(coordinator, titleRepo, itemRepo)
	setItemStatusUseCase := appinventory.NewSetItemStatusUseCase(coordinator, titleRepo, itemRepo)
	removeItemUseCase := appinventory.NewRemoveItemUseCase(coordinator, titleRepo, itemRepo)
	inventoryQueryUseCase := appinventory.NewQueryUseCase(catalogService)

	checkoutUseCase := apploan.NewCheckoutUseCase(coordinator, issuer)
	returnUseCase := apploan.NewReturnBookUseCase(coordinator, router, loanRepo, memberRepo, itemRepo, policy, clk, notifier)
	renewUseCase := apploan.NewRenewLoanUseCase(coordinator, loanRepo, policy)
	payFineUseCase := apploan.NewPayFineUseCase(coordinator, loanRepo, clk)
	markOverdueUseCase := apploan.NewMarkOverdueUseCase(coordinator, loanRepo, policy, clk, notifier)
	listLoansUseCase := apploan.NewListLoansUseCase(loanRepo)

	reserveUseCase := appreservation.NewReserveUseCase(coordinator, memberRepo, titleRepo, reservationRepo, clk)
	cancelReservationUseCase := appreservation.NewCancelReservationUseCase(coordinator, router, reservationRepo, itemRepo, notifier)
	fulfillUseCase := appreservation.NewFulfillReservationUseCase(coordinator, issuer, reservationRepo, clk)
	listReservationsUseCase := appreservation.NewListReservationsUseCase(reservationRepo)

	submitRequestUseCase := apprequest.NewSubmitRequestUseCase(memberRepo, titleRepo, itemRepo, requestRepo, clk)
	approveRequestUseCase := apprequest.NewApproveRequestUseCase(coordinator, issuer, requestRepo, itemRepo, clk)
	rejectRequestUseCase := apprequest.NewRejectRequestUseCase(coordinator, requestRepo, clk)
	cancelRequestUseCase := apprequest.NewCancelRequestUseCase(coordinator, requestRepo)
	listRequestsUseCase := apprequest.NewListRequestsUseCase(requestRepo)

	// 接口层
	memberHandler := handler.NewMemberHandler(
		registerUseCase, loginUseCase, logoutUseCase, refreshUseCase,
		profileUseCase, promoteUseCase, cancelMemberUseCase,
	)
	inventoryHandler := handler.NewInventoryHandler(
		addTitleUseCase, addItemUseCase, setItemStatusUseCase,
		removeItemUseCase, inventoryQueryUseCase,
	)
	loanHandler := handler.NewLoanHandler(
		checkoutUseCase, returnUseCase, renewUseCase,
		payFineUseCase, markOverdueUseCase, listLoansUseCase,
	)
	reservationHandler := handler.NewReservationHandler(
		reserveUseCase, cancelReservationUseCase, fulfillUseCase, listReservationsUseCase,
	)
	requestHandler := handler.NewRequestHandler(
		submitRequestUseCase, approveRequestUseCase, rejectRequestUseCase,
		cancelRequestUseCase, listRequestsUseCase,
	)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, sessionStore)

	// 7. 首个馆员提权(新部署时通过配置指定)
	bootstrapLibrarian(coordinator, memberRepo, cfg.Circulation.BootstrapAdmin)

	// 8. 初始化Gin引擎
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(middleware.Metrics())

	// 9. 注册路由
	registerRoutes(r, memberHandler, inventoryHandler, loanHandler, reservationHandler, requestHandler, authMiddleware)

	// 10. 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	fmt.Printf("\n🚀 服务启动成功！\n")
	fmt.Printf("   访问地址: http://localhost%s\n", addr)
	fmt.Printf("   健康检查: http://localhost%s/ping\n", addr)
	fmt.Printf("   API文档:  http://localhost%s/swagger/index.html\n", addr)
	fmt.Printf("\n按Ctrl+C停止服务\n\n")

	if err := r.Run(addr); err != nil {
		log.Fatalf("启动服务失败: %v", err)
	}
}

// bootstrapLibrarian 将配置指定的账号提升为馆员
// 账号不存在时只提示,等注册后重启再提权
func bootstrapLibrarian(coordinator *circulation.Coordinator, members member.Repository, email string) {
	if email == "" {
		return
	}

	err := coordinator.Atomic(context.Background(), "BootstrapLibrarian", func(txCtx context.Context) error {
		m, err := members.FindByEmail(txCtx, email)
		if err != nil {
			return err
		}
		if m.IsLibrarian() {
			return nil
		}
		m, err = members.LockByID(txCtx, m.ID)
		if err != nil {
			return err
		}
		if err := m.Promote(); err != nil {
			return err
		}
		return members.Update(txCtx, m)
	})
	if err != nil {
		log.Printf("首个馆员提权未完成(%s): %v", email, err)
		return
	}
	log.Printf("✅ 馆员账号就绪: %s", email)
}

// registerRoutes 注册路由
func registerRoutes(
	r *gin.Engine,
	memberHandler *handler.MemberHandler,
	inventoryHandler *handler.InventoryHandler,
	loanHandler *handler.LoanHandler,
	reservationHandler *handler.ReservationHandler,
	requestHandler *handler.RequestHandler,
	auth *middleware.AuthMiddleware,
) {
	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger文档(生产环境建议禁用或加访问控制)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		// 读者模块（公开接口，不需要登录）
		members := v1.Group("/members")
		{
			members.POST("/register", memberHandler.Register)
			members.POST("/login", memberHandler.Login)
			members.POST("/refresh", memberHandler.RefreshToken)
		}

		// 读者模块（需要登录）
		membersAuth := v1.Group("/members")
		membersAuth.Use(auth.RequireAuth())
		{
			membersAuth.POST("/logout", memberHandler.Logout)
			membersAuth.GET("/me", memberHandler.GetProfile)
			membersAuth.DELETE("/:id", memberHandler.Cancel)
			membersAuth.POST("/:id/promote", auth.RequireLibrarian(), memberHandler.Promote)
		}

		// 馆藏模块（查询公开,维护需要馆员）
		titles := v1.Group("/titles")
		{
			titles.GET("", inventoryHandler.ListTitles)
			titles.GET("/:id", inventoryHandler.GetTitle)
			titles.GET("/:id/items", inventoryHandler.ListItems)

			titles.POST("", auth.RequireAuth(), auth.RequireLibrarian(), inventoryHandler.AddTitle)
			titles.POST("/:id/items", auth.RequireAuth(), auth.RequireLibrarian(), inventoryHandler.AddItem)
		}
		items := v1.Group("/items", auth.RequireAuth(), auth.RequireLibrarian())
		{
			items.PUT("/:id/status", inventoryHandler.SetItemStatus)
			items.DELETE("/:id", inventoryHandler.RemoveItem)
		}

		// 借阅模块（需要登录）
		loans := v1.Group("/loans")
		loans.Use(auth.RequireAuth())
		{
			loans.POST("", loanHandler.Checkout)
			loans.GET("", loanHandler.ListMyLoans)
			loans.POST("/:id/return", loanHandler.Return)
			loans.POST("/:id/renew", loanHandler.Renew)
			loans.POST("/:id/fine/pay", loanHandler.PayFine)
			loans.POST("/overdue/sweep", auth.RequireLibrarian(), loanHandler.MarkOverdue)
		}

		// 预约模块（需要登录）
		reservations := v1.Group("/reservations")
		reservations.Use(auth.RequireAuth())
		{
			reservations.POST("", reservationHandler.Reserve)
			reservations.GET("", reservationHandler.List)
			reservations.DELETE("/:id", reservationHandler.Cancel)
			reservations.POST("/:id/fulfill", reservationHandler.Fulfill)
		}

		// 借阅申请模块（需要登录,审批需要馆员）
		requests := v1.Group("/requests")
		requests.Use(auth.RequireAuth())
		{
			requests.POST("", requestHandler.Submit)
			requests.GET("", requestHandler.ListMine)
			requests.DELETE("/:id", requestHandler.Cancel)

			requests.GET("/queue", auth.RequireLibrarian(), requestHandler.ListPending)
			requests.POST("/:id/approve", auth.RequireLibrarian(), requestHandler.Approve)
			requests.POST("/:id/reject", auth.RequireLibrarian(), requestHandler.Reject)
		}
	}
}
