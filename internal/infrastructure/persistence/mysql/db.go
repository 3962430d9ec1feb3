package mysql

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/libracirc/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 自动迁移表结构（AutoMigrate）
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()

	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Println("✓ 数据库连接成功")

	// 自动迁移表结构（开发环境）
	// 注意：生产环境应使用专门的迁移工具（如golang-migrate）
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// 学习要点：
// 1. AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
// 2. 生产环境应使用版本化的迁移脚本，不要依赖AutoMigrate
func autoMigrate(db *gorm.DB) error {
	// 注意：这里使用GORM的模型定义（带tag），不是domain层的实体
	return db.AutoMigrate(
		&MemberModel{},
		&TitleModel{},
		&ItemModel{},
		&LoanModel{},
		&ReservationModel{},
		&BorrowRequestModel{},
	)
}

// MemberModel GORM读者模型
// 设计说明：
// 1. 这是infrastructure层的数据模型，包含GORM tag
// 2. domain/member/entity.go是领域实体，不依赖GORM
// 3. Repository负责两者之间的转换
// 4. borrowed_count是冗余计数,由受护UPDATE维护
type MemberModel struct {
	ID            uint           `gorm:"primaryKey"`
	Email         string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password      string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Name          string         `gorm:"size:50;not null;comment:姓名"`
	Role          string         `gorm:"index;size:20;not null;default:member;comment:角色(member/librarian/cancelled)"`
	MaxBorrow     int            `gorm:"not null;comment:同时在借上限"`
	BorrowedCount int            `gorm:"not null;default:0;comment:当前在借数量(冗余计数)"`
	CreatedAt     time.Time      `gorm:"comment:创建时间"`
	UpdatedAt     time.Time      `gorm:"comment:更新时间"`
	DeletedAt     gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

// TableName 指定表名
func (MemberModel) TableName() string {
	return "members"
}

// TitleModel GORM书目模型
// 设计说明:
// 1. Authors/Categories序列化为JSON字符串存储(Repository转换)
// 2. ISBN有唯一索引,防止重复登记
// 3. total_copies/available_copies是冗余计数,只经受护UPDATE调整
type TitleModel struct {
	ID              uint           `gorm:"primaryKey"`
	Title           string         `gorm:"index:idx_search;size:200;not null;comment:书名"` // 搜索索引
	Authors         string         `gorm:"size:500;not null;comment:作者(JSON数组)"`
	ISBN            string         `gorm:"uniqueIndex;size:20;not null;comment:ISBN号"`
	Categories      string         `gorm:"size:500;comment:分类(JSON数组)"`
	TotalCopies     int            `gorm:"not null;default:0;comment:副本总数(冗余计数)"`
	AvailableCopies int            `gorm:"not null;default:0;comment:可借副本数(冗余计数)"`
	PublishedAt     time.Time      `gorm:"comment:出版日期"`
	CreatedAt       time.Time      `gorm:"index;comment:创建时间"`
	UpdatedAt       time.Time      `gorm:"comment:更新时间"`
	DeletedAt       gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (TitleModel) TableName() string {
	return "titles"
}

// ItemModel GORM馆藏副本模型
// 教学要点:
// 1. Barcode有唯一索引(业务主键)
// 2. (title_id, status, barcode)复合索引服务"锁定条码最小的可借副本"
// 3. 副本下架是硬删除(下架即移出馆藏),与软删除的书目不同
type ItemModel struct {
	ID        uint      `gorm:"primaryKey"`
	TitleID   uint      `gorm:"index:idx_pick,priority:1;not null;comment:书目ID"`
	Barcode   string    `gorm:"uniqueIndex;size:32;not null;comment:条码"`
	Location  string    `gorm:"size:50;comment:馆藏位置"`
	Condition string    `gorm:"size:100;comment:品相"`
	Status    string    `gorm:"index:idx_pick,priority:2;size:20;not null;default:available;comment:状态(available/borrowed/reserved/maintenance/lost)"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (ItemModel) TableName() string {
	return "items"
}

// LoanModel GORM借阅记录模型
// 教学要点:
// 1. (item_id, status)索引服务"一副本至多一条在借记录"查询
// 2. 罚金以分为单位的int64存储
// 3. 逾期巡检按(status, due_date)扫描
type LoanModel struct {
	ID         uint       `gorm:"primaryKey"`
	MemberID   uint       `gorm:"index;not null;comment:读者ID"`
	TitleID    uint       `gorm:"index;not null;comment:书目ID"`
	ItemID     uint       `gorm:"index:idx_item_status,priority:1;not null;comment:副本ID"`
	IssueDate  time.Time  `gorm:"not null;comment:借出时间"`
	DueDate    time.Time  `gorm:"index:idx_sweep,priority:2;not null;comment:到期时间"`
	ReturnDate *time.Time `gorm:"comment:归还时间"`
	Status     string     `gorm:"index:idx_item_status,priority:2;index:idx_sweep,priority:1;size:20;not null;default:issued;comment:状态(issued/overdue/returned)"`
	Fine       int64      `gorm:"not null;default:0;comment:罚金(分)"`
	FinePaid   bool       `gorm:"not null;default:false;comment:罚金已缴"`
	FinePaidAt *time.Time `gorm:"comment:缴纳时间"`
	RenewCount int        `gorm:"not null;default:0;comment:已续借次数"`
	CreatedAt  time.Time  `gorm:"index;comment:创建时间"`
	UpdatedAt  time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (LoanModel) TableName() string {
	return "loans"
}

// ReservationModel GORM预约模型
// 教学要点:
// 1. (title_id, status, reserved_at)索引服务FIFO队首查询
// 2. ItemID可空:排到队首收到通知时才绑定副本
type ReservationModel struct {
	ID         uint       `gorm:"primaryKey"`
	MemberID   uint       `gorm:"index;not null;comment:读者ID"`
	TitleID    uint       `gorm:"index:idx_queue,priority:1;not null;comment:书目ID"`
	ItemID     *uint      `gorm:"index;comment:绑定副本ID(notified后有值)"`
	ReservedAt time.Time  `gorm:"index:idx_queue,priority:3;not null;comment:预约时间(队列顺序)"`
	NotifiedAt *time.Time `gorm:"comment:通知时间"`
	Status     string     `gorm:"index:idx_queue,priority:2;size:20;not null;default:waiting;comment:状态(waiting/notified/fulfilled/canceled)"`
	CreatedAt  time.Time  `gorm:"comment:创建时间"`
	UpdatedAt  time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (ReservationModel) TableName() string {
	return "reservations"
}

// BorrowRequestModel GORM借阅申请模型
type BorrowRequestModel struct {
	ID            uint       `gorm:"primaryKey"`
	MemberID      uint       `gorm:"index;not null;comment:申请读者ID"`
	TitleID       uint       `gorm:"index;not null;comment:书目ID"`
	ItemID        *uint      `gorm:"comment:指定副本ID(可空)"`
	RequestedAt   time.Time  `gorm:"not null;comment:申请时间"`
	Status        string     `gorm:"index;size:20;not null;default:pending;comment:状态(pending/approved/rejected/cancelled)"`
	MemberNote    string     `gorm:"size:500;comment:申请备注"`
	LibrarianNote string     `gorm:"size:500;comment:审批意见"`
	ProcessedBy   *uint      `gorm:"comment:审批馆员ID"`
	ProcessedAt   *time.Time `gorm:"comment:审批时间"`
	CreatedAt     time.Time  `gorm:"comment:创建时间"`
	UpdatedAt     time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BorrowRequestModel) TableName() string {
	return "borrow_requests"
}
