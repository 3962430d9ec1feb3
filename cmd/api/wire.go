//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 教学说明：
// 1. Wire是Google开发的编译期依赖注入工具
// 2. 与运行时反射注入（如Spring的@Autowired）不同，Wire在编译期生成代码
// 3. 优势：零运行时开销、类型安全、编译期检测循环依赖
//
// Wire工作流程：
// Step 1: 编写wire.go（本文件），定义Providers和Injector
// Step 2: 运行 `wire gen ./cmd/api`
// Step 3: Wire生成wire_gen.go，包含完整的依赖创建代码
// Step 4: main.go调用wire_gen.go中的InitializeApp()

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"

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
	"github.com/xiebiao/libracirc/pkg/mq"
)

// ========================================
// Wire Provider Sets (依赖分组)
// ========================================

// infrastructureSet 基础设施层依赖
var infrastructureSet = wire.NewSet(
	config.Load,     // 加载配置文件
	mysql.NewDB,     // 创建MySQL连接
	redis.NewClient, // 创建Redis连接
)

// repositorySet 仓储层依赖
var repositorySet = wire.NewSet(
	mysql.NewMemberRepository,      // 读者仓储
	mysql.NewTitleRepository,       // 书目仓储
	mysql.NewItemRepository,        // 副本仓储
	mysql.NewLoanRepository,        // 借阅仓储
	mysql.NewReservationRepository, // 预约仓储
	mysql.NewRequestRepository,     // 借阅申请仓储
	mysql.NewTxManager,             // 事务管理器
)

// circulationSet 流通内核依赖
// Coordinator/Issuer/Router被loan、reservation、request三组用例共用
var circulationSet = wire.NewSet(
	provideClock,       // 系统时钟
	provideLoanPolicy,  // 流通策略(借期、续借上限、罚金费率)
	provideCoordinator, // 流通协调器(事务+重试)
	circulation.NewIssuer,
	circulation.NewRouter,
	provideNotifier, // 通知通道(MQ或no-op)
)

// domainSet 领域层依赖
var domainSet = wire.NewSet(
	member.NewService,  // 读者领域服务
	catalog.NewService, // 馆藏领域服务
)

// applicationSet 应用层依赖
var applicationSet = wire.NewSet(
	provideRegisterUseCase,
	appmember.NewLoginUseCase,
	appmember.NewLogoutUseCase,
	appmember.NewRefreshTokenUseCase,
	appmember.NewGetProfileUseCase,
	appmember.NewPromoteMemberUseCase,
	appmember.NewCancelMembershipUseCase,

	appinventory.NewAddTitleUseCase,
	appinventory.NewAddItemUseCase,
	appinventory.NewSetItemStatusUseCase,
	appinventory.NewRemoveItemUseCase,
	appinventory.NewQueryUseCase,

	apploan.NewCheckoutUseCase,
	apploan.NewReturnBookUseCase,
	apploan.NewRenewLoanUseCase,
	apploan.NewPayFineUseCase,
	apploan.NewMarkOverdueUseCase,
	apploan.NewListLoansUseCase,

	appreservation.NewReserveUseCase,
	appreservation.NewCancelReservationUseCase,
	appreservation.NewFulfillReservationUseCase,
	appreservation.NewListReservationsUseCase,

	apprequest.NewSubmitRequestUseCase,
	apprequest.NewApproveRequestUseCase,
	apprequest.NewRejectRequestUseCase,
	apprequest.NewCancelRequestUseCase,
	apprequest.NewListRequestsUseCase,
)

// middlewareSet 中间件依赖
var middlewareSet = wire.NewSet(
	provideJWTManager,            // JWT管理器（需要从config提取参数）
	provideSessionStore,          // Session存储（需要从Redis创建）
	middleware.NewAuthMiddleware, // 认证中间件
)

// handlerSet HTTP处理器依赖
var handlerSet = wire.NewSet(
	handler.NewMemberHandler,
	handler.NewInventoryHandler,
	handler.NewLoanHandler,
	handler.NewReservationHandler,
	handler.NewRequestHandler,
)

// ========================================
// Custom Providers (自定义Provider)
// ========================================
// 有些依赖的构造参数要从Config中提取,Wire无法自动拆解结构体字段,
// 需要手动编写Provider函数

// provideClock 系统时钟(测试中替换为clock.Fixed)
func provideClock() clock.Clock {
	return clock.NewReal()
}

// provideLoanPolicy 从配置提取流通策略
func provideLoanPolicy(cfg *config.Config) loan.Policy {
	return loan.Policy{
		LoanPeriodDays: cfg.Circulation.LoanPeriodDays,
		MaxRenewals:    cfg.Circulation.MaxRenewals,
		FinePerDay:     cfg.Circulation.FinePerDay,
	}
}

// provideCoordinator 从配置创建流通协调器
// 重试判定函数绑定MySQL的死锁/锁等待错误码
func provideCoordinator(cfg *config.Config, txManager *mysql.TxManager) *circulation.Coordinator {
	return circulation.NewCoordinator(txManager, cfg.Circulation.TxMaxRetries, mysql.IsRetryableError)
}

// provideNotifier 创建通知通道
// MQ未启用或连接失败时降级为no-op,不阻止服务启动
func provideNotifier(cfg *config.Config) notify.Notifier {
	if !cfg.MQ.Enabled {
		return notify.NewNoop()
	}
	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
	if err != nil {
		return notify.NewNoop()
	}
	return notify.NewMQNotifier(publisher)
}

// provideRegisterUseCase 注册用例需要配置中的默认借阅上限
func provideRegisterUseCase(memberService member.Service, cfg *config.Config) *appmember.RegisterUseCase {
	return appmember.NewRegisterUseCase(memberService, cfg.Circulation.DefaultMaxBorrow)
}

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

// provideSessionStore 从Redis客户端创建Session存储
func provideSessionStore(client *goredis.Client) *redis.SessionStore {
	return redis.NewSessionStore(client)
}

// provideGinEngine 创建并配置Gin引擎
// 路由注册复用main.go的registerRoutes,手动装配与Wire装配产出一致
func provideGinEngine(
	cfg *config.Config,
	memberHandler *handler.MemberHandler,
	inventoryHandler *handler.InventoryHandler,
	loanHandler *handler.LoanHandler,
	reservationHandler *handler.ReservationHandler,
	requestHandler *handler.RequestHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.Metrics())
	registerRoutes(r, memberHandler, inventoryHandler, loanHandler, reservationHandler, requestHandler, authMiddleware)

	return r
}

// ========================================
// Wire Injector (依赖注入器)
// ========================================

// InitializeApp 初始化整个应用
// 返回：配置好的Gin引擎
func InitializeApp() (*gin.Engine, error) {
	wire.Build(
		// 基础设施层
		infrastructureSet,

		// 仓储层
		repositorySet,

		// 流通内核
		circulationSet,

		// 领域层
		domainSet,

		// 应用层
		applicationSet,

		// 中间件层
		middlewareSet,

		// 接口层
		handlerSet,

		// Gin引擎
		provideGinEngine,
	)

	// 返回值是占位符，实际运行时会被wire_gen.go替代
	return nil, nil
}
