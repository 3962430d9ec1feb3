package circulation

// 内存假仓储:单元测试不依赖MySQL,用map模拟表、
// 用受护的状态/计数检查模拟受护UPDATE的语义

import (
	"context"
	"sort"
	"time"

	"github.com/xiebiao/libracirc/internal/domain/catalog"
	"github.com/xiebiao/libracirc/internal/domain/loan"
	"github.com/xiebiao/libracirc/internal/domain/member"
	"github.com/xiebiao/libracirc/internal/domain/reservation"
)

// fakeTx 直通事务执行器:单测中没有真事务,fn直接执行
type fakeTx struct{}

func (fakeTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ---------- 读者 ----------

type fakeMemberRepo struct {
	members map[uint]*member.Member
	nextID  uint
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: make(map[uint]*member.Member), nextID: 1}
}

func (r *fakeMemberRepo) add(m *member.Member) *member.Member {
	m.ID = r.nextID
	r.nextID++
	r.members[m.ID] = m
	return m
}

func (r *fakeMemberRepo) Create(_ context.Context, m *member.Member) error {
	r.add(m)
	return nil
}

func (r *fakeMemberRepo) FindByID(_ context.Context, id uint) (*member.Member, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, member.ErrMemberNotFound
	}
	return m, nil
}

func (r *fakeMemberRepo) FindByEmail(_ context.Context, email string) (*member.Member, error) {
	for _, m := range r.members {
		if m.Email == email {
			return m, nil
		}
	}
	return nil, member.ErrMemberNotFound
}

func (r *fakeMemberRepo) Update(_ context.Context, m *member.Member) error {
	r.members[m.ID] = m
	return nil
}

func (r *fakeMemberRepo) LockByID(ctx context.Context, id uint) (*member.Member, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeMemberRepo) AdjustBorrowed(_ context.Context, id uint, delta int) error {
	m, ok := r.members[id]
	if !ok {
		return member.ErrMemberNotFound
	}
	next := m.BorrowedCount + delta
	if next < 0 || next > m.MaxBorrow {
		return member.ErrBorrowLimitExceeded
	}
	m.BorrowedCount = next
	return nil
}

// ---------- 书目 ----------

type fakeTitleRepo struct {
	titles map[uint]*catalog.Title
	nextID uint
}

func newFakeTitleRepo() *fakeTitleRepo {
	return &fakeTitleRepo{titles: make(map[uint]*catalog.Title), nextID: 1}
}

func (r *fakeTitleRepo) add(t *catalog.Title) *catalog.Title {
	t.ID = r.nextID
	r.nextID++
	r.titles[t.ID] = t
	return t
}

func (r *fakeTitleRepo) Create(_ context.Context, t *catalog.Title) error {
	r.add(t)
	return nil
}

func (r *fakeTitleRepo) FindByID(_ context.Context, id uint) (*catalog.Title, error) {
	t, ok := r.titles[id]
	if !ok {
		return nil, catalog.ErrTitleNotFound
	}
	return t, nil
}

func (r *fakeTitleRepo) FindByISBN(_ context.Context, isbn string) (*catalog.Title, error) {
	for _, t := range r.titles {
		if t.ISBN == isbn {
			return t, nil
		}
	}
	return nil, catalog.ErrTitleNotFound
}

func (r *fakeTitleRepo) Update(_ context.Context, t *catalog.Title) error {
	r.titles[t.ID] = t
	return nil
}

func (r *fakeTitleRepo) List(_ context.Context, _ catalog.ListParams) ([]*catalog.Title, int64, error) {
	return nil, 0, nil
}

func (r *fakeTitleRepo) LockByID(ctx context.Context, id uint) (*catalog.Title, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeTitleRepo) AdjustCopies(_ context.Context, id uint, totalDelta, availableDelta int) error {
	t, ok := r.titles[id]
	if !ok {
		return catalog.ErrTitleNotFound
	}
	total := t.TotalCopies + totalDelta
	available := t.AvailableCopies + availableDelta
	if available < 0 || available > total || total < 0 {
		return catalog.ErrCopiesOutOfRange
	}
	t.TotalCopies = total
	t.AvailableCopies = available
	return nil
}

// ---------- 副本 ----------

type fakeItemRepo struct {
	items  map[uint]*catalog.Item
	nextID uint
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[uint]*catalog.Item), nextID: 1}
}

func (r *fakeItemRepo) add(item *catalog.Item) *catalog.Item {
	item.ID = r.nextID
	r.nextID++
	r.items[item.ID] = item
	return item
}

func (r *fakeItemRepo) Create(_ context.Context, item *catalog.Item) error {
	for _, existing := range r.items {
		if existing.Barcode == item.Barcode {
			return catalog.ErrDuplicateBarcode
		}
	}
	r.add(item)
	return nil
}

func (r *fakeItemRepo) FindByID(_ context.Context, id uint) (*catalog.Item, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, catalog.ErrItemNotFound
	}
	return item, nil
}

func (r *fakeItemRepo) FindByBarcode(_ context.Context, barcode string) (*catalog.Item, error) {
	for _, item := range r.items {
		if item.Barcode == barcode {
			return item, nil
		}
	}
	return nil, catalog.ErrItemNotFound
}

func (r *fakeItemRepo) ListByTitle(_ context.Context, titleID uint) ([]*catalog.Item, error) {
	var out []*catalog.Item
	for _, item := range r.items {
		if item.TitleID == titleID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) Delete(_ context.Context, id uint) error {
	delete(r.items, id)
	return nil
}

func (r *fakeItemRepo) LockByID(ctx context.Context, id uint) (*catalog.Item, error) {
	return r.FindByID(ctx, id)
}

// UpdateStatus 模拟受护UPDATE:前置状态不符时未命中
func (r *fakeItemRepo) UpdateStatus(_ context.Context, id uint, from, to catalog.ItemStatus) error {
	item, ok := r.items[id]
	if !ok || item.Status != from {
		return catalog.ErrInvalidTransition
	}
	item.Status = to
	return nil
}

// FirstAvailableForUpdate 条码最小的available副本
func (r *fakeItemRepo) FirstAvailableForUpdate(_ context.Context, titleID uint) (*catalog.Item, error) {
	var candidates []*catalog.Item
	for _, item := range r.items {
		if item.TitleID == titleID && item.Status == catalog.ItemStatusAvailable {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		return nil, catalog.ErrNoItemsAvailable
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Barcode < candidates[j].Barcode })
	return candidates[0], nil
}

func (r *fakeItemRepo) CountByTitleStatus(_ context.Context, titleID uint, status catalog.ItemStatus) (int64, error) {
	var n int64
	for _, item := range r.items {
		if item.TitleID == titleID && item.Status == status {
			n++
		}
	}
	return n, nil
}

// ---------- 借阅 ----------

type fakeLoanRepo struct {
	loans  map[uint]*loan.Loan
	nextID uint
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{loans: make(map[uint]*loan.Loan), nextID: 1}
}

func (r *fakeLoanRepo) Create(_ context.Context, l *loan.Loan) error {
	l.ID = r.nextID
	r.nextID++
	r.loans[l.ID] = l
	return nil
}

func (r *fakeLoanRepo) FindByID(_ context.Context, id uint) (*loan.Loan, error) {
	l, ok := r.loans[id]
	if !ok {
		return nil, loan.ErrLoanNotFound
	}
	return l, nil
}

func (r *fakeLoanRepo) LockByID(ctx context.Context, id uint) (*loan.Loan, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeLoanRepo) Update(_ context.Context, l *loan.Loan) error {
	r.loans[l.ID] = l
	return nil
}

func (r *fakeLoanRepo) FindOpenByItem(_ context.Context, itemID uint) (*loan.Loan, error) {
	for _, l := range r.loans {
		if l.ItemID == itemID && l.IsOpen() {
			return l, nil
		}
	}
	return nil, loan.ErrLoanNotFound
}

func (r *fakeLoanRepo) ListByMember(_ context.Context, memberID uint, status loan.Status, _, _ int) ([]*loan.Loan, int64, error) {
	var out []*loan.Loan
	for _, l := range r.loans {
		if l.MemberID == memberID && (status == "" || l.Status == status) {
			out = append(out, l)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeLoanRepo) ListIssuedDueBefore(_ context.Context, deadline time.Time, limit int) ([]*loan.Loan, error) {
	var out []*loan.Loan
	for _, l := range r.loans {
		if l.Status == loan.StatusIssued && l.DueDate.Before(deadline) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---------- 预约 ----------

type fakeReservationRepo struct {
	reservations map[uint]*reservation.Reservation
	nextID       uint
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{reservations: make(map[uint]*reservation.Reservation), nextID: 1}
}

func (r *fakeReservationRepo) Create(_ context.Context, res *reservation.Reservation) error {
	res.ID = r.nextID
	r.nextID++
	r.reservations[res.ID] = res
	return nil
}

func (r *fakeReservationRepo) FindByID(_ context.Context, id uint) (*reservation.Reservation, error) {
	res, ok := r.reservations[id]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}
	return res, nil
}

func (r *fakeReservationRepo) LockByID(ctx context.Context, id uint) (*reservation.Reservation, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeReservationRepo) Update(_ context.Context, res *reservation.Reservation) error {
	r.reservations[res.ID] = res
	return nil
}

func (r *fakeReservationRepo) FindActiveByMemberTitle(_ context.Context, memberID, titleID uint) (*reservation.Reservation, error) {
	for _, res := range r.reservations {
		if res.MemberID == memberID && res.TitleID == titleID && res.IsActive() {
			return res, nil
		}
	}
	return nil, reservation.ErrReservationNotFound
}

// FindHeadWaitingForUpdate FIFO:reserved_at最早,同刻按ID
func (r *fakeReservationRepo) FindHeadWaitingForUpdate(_ context.Context, titleID uint) (*reservation.Reservation, error) {
	var waiting []*reservation.Reservation
	for _, res := range r.reservations {
		if res.TitleID == titleID && res.Status == reservation.StatusWaiting {
			waiting = append(waiting, res)
		}
	}
	if len(waiting) == 0 {
		return nil, reservation.ErrReservationNotFound
	}
	sort.Slice(waiting, func(i, j int) bool {
		if !waiting[i].ReservedAt.Equal(waiting[j].ReservedAt) {
			return waiting[i].ReservedAt.Before(waiting[j].ReservedAt)
		}
		return waiting[i].ID < waiting[j].ID
	})
	return waiting[0], nil
}

func (r *fakeReservationRepo) ListByTitle(_ context.Context, titleID uint, status reservation.Status, _, _ int) ([]*reservation.Reservation, int64, error) {
	var out []*reservation.Reservation
	for _, res := range r.reservations {
		if res.TitleID == titleID && (status == "" || res.Status == status) {
			out = append(out, res)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeReservationRepo) ListByMember(_ context.Context, memberID uint, status reservation.Status, _, _ int) ([]*reservation.Reservation, int64, error) {
	var out []*reservation.Reservation
	for _, res := range r.reservations {
		if res.MemberID == memberID && (status == "" || res.Status == status) {
			out = append(out, res)
		}
	}
	return out, int64(len(out)), nil
}
