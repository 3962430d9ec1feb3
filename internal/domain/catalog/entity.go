package catalog

import (
	"time"
)

// ItemStatus 馆藏副本状态
// 教学要点:
// 1. 使用string类型:状态值直接持久化和序列化,对外契约固定为
//    available/borrowed/reserved/maintenance/lost 五个字符串
// 2. 状态流转通过CanTransitionTo集中定义,禁止绕过状态机直接赋值
type ItemStatus string

const (
	ItemStatusAvailable   ItemStatus = "available"   // 在架可借
	ItemStatusBorrowed    ItemStatus = "borrowed"    // 已借出
	ItemStatusReserved    ItemStatus = "reserved"    // 已绑定预约(待取书)
	ItemStatusMaintenance ItemStatus = "maintenance" // 维护中
	ItemStatusLost        ItemStatus = "lost"        // 丢失
)

// IsValid 校验状态是否在闭集内
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusAvailable, ItemStatusBorrowed, ItemStatusReserved,
		ItemStatusMaintenance, ItemStatusLost:
		return true
	default:
		return false
	}
}

// Title 书目实体（聚合根）
// DDD设计说明:
// 1. Title是书目聚合的根实体,Item是同一书目下的物理副本
// 2. TotalCopies/AvailableCopies是冗余计数(可由Item行推导),
//    不变式:0 ≤ AvailableCopies ≤ TotalCopies
// 3. 计数只允许通过受护的原子UPDATE维护,实体上的方法仅做内存校验
type Title struct {
	ID              uint
	Title           string
	Authors         []string
	ISBN            string
	Categories      []string
	TotalCopies     int // 副本总数(冗余计数)
	AvailableCopies int // 可借副本数(冗余计数)
	PublishedAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewTitle 创建新书目（工厂方法）
// 初始无副本,计数随AddItem递增
func NewTitle(title string, authors []string, isbn string, categories []string, publishedAt time.Time) *Title {
	now := time.Now()
	return &Title{
		Title:           title,
		Authors:         authors,
		ISBN:            isbn,
		Categories:      categories,
		TotalCopies:     0,
		AvailableCopies: 0,
		PublishedAt:     publishedAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Item 馆藏副本实体
// 教学要点:
// 1. 不是独立聚合根,必须通过Title访问(只保存TitleID,避免跨聚合引用)
// 2. Barcode是业务唯一标识(数据库层保证唯一性)
type Item struct {
	ID        uint
	TitleID   uint
	Barcode   string // 条码(业务主键,全局唯一)
	Location  string // 馆藏位置(如"3F-A12")
	Condition string // 品相描述
	Status    ItemStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewItem 创建新副本（工厂方法）
// 新副本初始状态为available
func NewItem(titleID uint, barcode, location, condition string) *Item {
	now := time.Now()
	return &Item{
		TitleID:   titleID,
		Barcode:   barcode,
		Location:  location,
		Condition: condition,
		Status:    ItemStatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanTransitionTo 检查副本是否可以转换到目标状态
// 教学要点:状态机设计,防止非法状态跳转
// 涉及borrowed的边只允许流通路径(借出/归还)触发,
// 馆员的人工改状态入口在Service层额外收紧
func (i *Item) CanTransitionTo(target ItemStatus) bool {
	transitions := map[ItemStatus][]ItemStatus{
		ItemStatusAvailable:   {ItemStatusBorrowed, ItemStatusReserved, ItemStatusMaintenance, ItemStatusLost},
		ItemStatusBorrowed:    {ItemStatusAvailable, ItemStatusReserved},                       // 归还→在架 / 归还→直接绑定队首预约
		ItemStatusReserved:    {ItemStatusBorrowed, ItemStatusAvailable},                       // 取书借出 / 预约取消释放
		ItemStatusMaintenance: {ItemStatusAvailable},                                          // 修复归架
		ItemStatusLost:        {ItemStatusAvailable},                                          // 找回归架
	}

	allowedTargets, exists := transitions[i.Status]
	if !exists {
		return false
	}

	for _, allowed := range allowedTargets {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo 状态转换
func (i *Item) TransitionTo(target ItemStatus) error {
	if !i.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	i.Status = target
	i.UpdatedAt = time.Now()
	return nil
}

// AvailableDelta 计算一次状态转换对AvailableCopies的影响
// 副本只有处于available时计入可借数
func AvailableDelta(from, to ItemStatus) int {
	delta := 0
	if from == ItemStatusAvailable {
		delta--
	}
	if to == ItemStatusAvailable {
		delta++
	}
	return delta
}

// RecountCopies 从副本行重算书目计数
// 冗余计数的对账基准:任意时刻 Title.TotalCopies/AvailableCopies
// 必须与本函数对全部副本行的重算结果一致
func RecountCopies(items []*Item) (total, available int) {
	for _, item := range items {
		total++
		if item.Status == ItemStatusAvailable {
			available++
		}
	}
	return total, available
}
