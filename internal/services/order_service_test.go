package services

import (
	"context"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/repositories"
	apperrors "github.com/dch2rfzbnb-cmyk/nano-crm/pkg/errors"
)

// fakeOrderRepo — репозиторий в памяти для тестов сервиса.
type fakeOrderRepo struct {
	orders     map[int64]*entities.Order
	nextID     int64
	todayCount int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int64]*entities.Order{}, nextID: 1}
}

func (f *fakeOrderRepo) InsertIfUnique(_ context.Context, order *entities.Order) (int64, error) {
	for _, o := range f.orders {
		if o.Model == order.Model && o.ContactRaw == order.ContactRaw {
			return 0, apperrors.ErrDuplicateOrder
		}
	}
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	f.nextID++
	clone := *order
	f.orders[order.ID] = &clone
	return order.ID, nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id int64) (*entities.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, apperrors.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (f *fakeOrderRepo) GetByOrigin(_ context.Context, chatID, messageID int64) (*entities.Order, error) {
	for _, o := range f.orders {
		if o.ChatID == chatID && o.MessageID == messageID {
			clone := *o
			return &clone, nil
		}
	}
	return nil, apperrors.ErrOrderNotFound
}

func (f *fakeOrderRepo) applyUpdate(o *entities.Order, upd repositories.OrderUpdate) {
	o.Model = upd.Model
	o.Price = upd.Price
	o.Address = upd.Address
	o.ContactRaw = upd.ContactRaw
	o.Phone = upd.Phone
	o.CustomerName = upd.CustomerName
	o.Comment = upd.Comment
	o.ReminderAt = upd.ReminderAt
	o.ReminderSent = false
	o.UpdatedAt = time.Now()
}

func (f *fakeOrderRepo) UpdateByID(_ context.Context, id int64, upd repositories.OrderUpdate) (bool, error) {
	o, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	f.applyUpdate(o, upd)
	return true, nil
}

func (f *fakeOrderRepo) UpdateByOrigin(_ context.Context, chatID, messageID int64, upd repositories.OrderUpdate) (bool, error) {
	for _, o := range f.orders {
		if o.ChatID == chatID && o.MessageID == messageID {
			f.applyUpdate(o, upd)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOrderRepo) PatchFields(_ context.Context, id int64, patch map[string]interface{}) (bool, error) {
	o, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	for field, value := range patch {
		switch field {
		case "price":
			o.Price = value.(string)
		case "address":
			o.Address = value.(string)
		case "customer_name":
			o.CustomerName = value.(string)
		case "phone":
			o.Phone, _ = value.(null.String)
		}
	}
	return true, nil
}

func (f *fakeOrderRepo) AppendComment(_ context.Context, id int64, fragment string, reminderAt null.Time, historyEntry string) (bool, error) {
	o, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	if o.Comment != "" {
		o.Comment += "; " + fragment
	} else {
		o.Comment = fragment
	}
	o.ReminderAt = reminderAt
	o.ReminderSent = false
	o.CommentHistory += historyEntry + "\n"
	return true, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id int64, status string) (bool, error) {
	o, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	o.Status = status
	return true, nil
}

func (f *fakeOrderRepo) BulkUpdateStatus(_ context.Context, ids []int64, status string) (int64, error) {
	var n int64
	for _, id := range ids {
		if o, ok := f.orders[id]; ok {
			o.Status = status
			n++
		}
	}
	return n, nil
}

func (f *fakeOrderRepo) FindByStatus(_ context.Context, status string, limit int) ([]entities.Order, error) {
	out := []entities.Order{}
	for _, o := range f.orders {
		if o.Status == status {
			out = append(out, *o)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) FindDueReminders(_ context.Context, now time.Time) ([]entities.Order, error) {
	out := []entities.Order{}
	for _, o := range f.orders {
		if o.ReminderAt.Valid && !o.ReminderSent && !o.ReminderAt.Time.After(now) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) MarkReminderSent(_ context.Context, id int64) error {
	if o, ok := f.orders[id]; ok {
		o.ReminderSent = true
	}
	return nil
}

func (f *fakeOrderRepo) Search(_ context.Context, query string, limit int) ([]entities.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) ForReport(_ context.Context) ([]entities.Order, error) {
	out := []entities.Order{}
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderRepo) ForDate(_ context.Context, _ time.Time) ([]entities.Order, error) {
	return f.ForReport(context.Background())
}

func (f *fakeOrderRepo) ActiveForDate(_ context.Context, _ time.Time) ([]entities.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) CountForManagerToday(_ context.Context, _ int64, _ time.Time) (int, error) {
	return f.todayCount, nil
}

func newTestService(repo *fakeOrderRepo) *OrderService {
	svc := NewOrderService(repo, repositories.NewMemoryCacheRepository(), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 1, 10, 12, 0, 0, 0, time.Local) }
	return svc
}

func submission(text string) Submission {
	return Submission{
		ChatID:      -100500,
		MessageID:   42,
		ManagerID:   7,
		ManagerName: "Анна",
		Text:        text,
	}
}

func TestSubmitOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.SubmitOrder(ctx, submission("Цветы / 15000 / Нью-Йорк / 89991234567 Питер Паркер / завтра 15:00"))
	require.NoError(t, err)

	assert.Equal(t, "Цветы", order.Model)
	assert.Equal(t, "15000", order.Price)
	assert.Equal(t, entities.StatusNew, order.Status)
	require.True(t, order.Phone.Valid)
	assert.Equal(t, "+79991234567", order.Phone.String)
	assert.Equal(t, "Питер Паркер", order.CustomerName)
	require.True(t, order.ReminderAt.Valid)
	// завтра 15:00 минус 5 минут
	assert.Equal(t, time.Date(2025, 1, 11, 14, 55, 0, 0, time.Local), order.ReminderAt.Time)
}

func TestSubmitOrderNotOrderFormat(t *testing.T) {
	svc := newTestService(newFakeOrderRepo())

	_, err := svc.SubmitOrder(context.Background(), submission("просто поисковый запрос"))
	assert.ErrorIs(t, err, apperrors.ErrNotOrderFormat)
}

func TestSubmitOrderCooldown(t *testing.T) {
	svc := newTestService(newFakeOrderRepo())
	ctx := context.Background()

	_, err := svc.SubmitOrder(ctx, submission("А / 1 / Б / 89991234567 / x"))
	require.NoError(t, err)

	// Второе сообщение того же менеджера сразу же.
	_, err = svc.SubmitOrder(ctx, submission("В / 2 / Г / 89997654321 / y"))
	assert.ErrorIs(t, err, apperrors.ErrRateLimited)
}

func TestSubmitOrderDuplicate(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	sub := submission("Цветы / 100 / Москва / 89991234567 Олег / ")
	_, err := svc.SubmitOrder(ctx, sub)
	require.NoError(t, err)

	sub.ManagerID = 8 // другой менеджер, другой кулдаун
	_, err = svc.SubmitOrder(ctx, sub)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateOrder)
}

func TestSubmitOrderDailyLimit(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.todayCount = 50
	svc := newTestService(repo)

	_, err := svc.SubmitOrder(context.Background(), submission("А / 1 / Б / 89991234567 / x"))
	assert.ErrorIs(t, err, apperrors.ErrDailyLimitExceeded)
}

func TestSubmitOrderCommentTooLong(t *testing.T) {
	svc := newTestService(newFakeOrderRepo())

	long := make([]rune, 501)
	for i := range long {
		long[i] = 'ы'
	}
	_, err := svc.SubmitOrder(context.Background(), submission("А / 1 / Б / 89991234567 / "+string(long)))
	assert.ErrorIs(t, err, apperrors.ErrCommentTooLong)
}

func TestAppendComment(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.SubmitOrder(ctx, submission("Торт / 3000 / Казань / 89991234567 / старый текст"))
	require.NoError(t, err)

	updated, err := svc.AppendComment(ctx, order.ID, "перезвонить 28.12 10:00", "Борис")
	require.NoError(t, err)

	assert.Equal(t, "старый текст; перезвонить 28.12 10:00", updated.Comment)
	require.True(t, updated.ReminderAt.Valid)
	// Напоминание считается только по новому фрагменту.
	assert.Equal(t, time.Date(2025, 12, 28, 9, 55, 0, 0, time.Local), updated.ReminderAt.Time)
	assert.False(t, updated.ReminderSent)
	assert.Contains(t, updated.CommentHistory, "Борис")
	assert.Contains(t, updated.CommentHistory, "перезвонить 28.12 10:00")
}

func TestAppendCommentNotFound(t *testing.T) {
	svc := newTestService(newFakeOrderRepo())

	_, err := svc.AppendComment(context.Background(), 99, "текст", "Анна")
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}

func TestPatchFieldPhoneNormalized(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.SubmitOrder(ctx, submission("Шар / 500 / Тверь / без телефона / x"))
	require.NoError(t, err)
	assert.False(t, order.Phone.Valid)

	updated, err := svc.PatchField(ctx, order.ID, "phone", "8 999 111 22 33")
	require.NoError(t, err)
	require.True(t, updated.Phone.Valid)
	assert.Equal(t, "+79991112233", updated.Phone.String)
}

func TestPatchFieldUnknown(t *testing.T) {
	svc := newTestService(newFakeOrderRepo())

	_, err := svc.PatchField(context.Background(), 1, "status", "new")
	var invalid *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestSetStatusInvalid(t *testing.T) {
	svc := newTestService(newFakeOrderRepo())

	_, err := svc.SetStatus(context.Background(), 1, "shipped")
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
}

func TestBulkSetStatus(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i, text := range []string{
		"А / 1 / X / 89991230001 / ",
		"Б / 2 / Y / 89991230002 / ",
	} {
		sub := submission(text)
		sub.ManagerID = int64(100 + i)
		_, err := svc.SubmitOrder(ctx, sub)
		require.NoError(t, err)
	}

	affected, err := svc.BulkSetStatus(ctx, entities.StatusNew, entities.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	paid, err := svc.ListByStatus(ctx, entities.StatusPaid, 0)
	require.NoError(t, err)
	assert.Len(t, paid, 2)
}

func TestUpdateWholeRecord(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.SubmitOrder(ctx, submission("Ваза / 700 / Сочи / 89991234567 Ира / "))
	require.NoError(t, err)

	updated, err := svc.UpdateWholeRecord(ctx, order.ID, "Ваза синяя/900/Сочи/89991234567 Ира/срочно")
	require.NoError(t, err)
	assert.Equal(t, "Ваза синяя", updated.Model)
	assert.Equal(t, "900", updated.Price)
	assert.Equal(t, "срочно", updated.Comment)
}
