package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/entities"
	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/parser"
	apperrors "github.com/dch2rfzbnb-cmyk/nano-crm/pkg/errors"
)

const (
	orderTable  = "orders"
	orderFields = `id, model, price, address, contact_raw, phone, customer_name, comment,
		manager_id, manager_name, chat_id, message_id, created_at, updated_at,
		status, reminder_at, reminder_sent, comment_history`

	pgUniqueViolationCode = "23505"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// allowedPatchFields - БЕЛЫЙ СПИСОК полей точечной правки.
var allowedPatchFields = map[string]bool{
	"price":         true,
	"address":       true,
	"customer_name": true,
	"phone":         true,
}

// OrderUpdate — полный набор полей при переписывании записи (правка
// исходного сообщения или /find-поток). reminder_sent при этом сбрасывается.
type OrderUpdate struct {
	Model        string
	Price        string
	Address      string
	ContactRaw   string
	Phone        null.String
	CustomerName string
	Comment      string
	ReminderAt   null.Time
}

type OrderRepositoryInterface interface {
	InsertIfUnique(ctx context.Context, order *entities.Order) (int64, error)
	GetByID(ctx context.Context, id int64) (*entities.Order, error)
	GetByOrigin(ctx context.Context, chatID, messageID int64) (*entities.Order, error)
	UpdateByID(ctx context.Context, id int64, upd OrderUpdate) (bool, error)
	UpdateByOrigin(ctx context.Context, chatID, messageID int64, upd OrderUpdate) (bool, error)
	PatchFields(ctx context.Context, id int64, patch map[string]interface{}) (bool, error)
	AppendComment(ctx context.Context, id int64, fragment string, reminderAt null.Time, historyEntry string) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status string) (bool, error)
	BulkUpdateStatus(ctx context.Context, ids []int64, status string) (int64, error)
	FindByStatus(ctx context.Context, status string, limit int) ([]entities.Order, error)
	FindDueReminders(ctx context.Context, now time.Time) ([]entities.Order, error)
	MarkReminderSent(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, limit int) ([]entities.Order, error)
	ForReport(ctx context.Context) ([]entities.Order, error)
	ForDate(ctx context.Context, day time.Time) ([]entities.Order, error)
	ActiveForDate(ctx context.Context, day time.Time) ([]entities.Order, error)
	CountForManagerToday(ctx context.Context, managerID int64, now time.Time) (int, error)
}

type orderRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrderRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderRepositoryInterface {
	return &orderRepository{storage: storage, logger: logger}
}

func scanOrder(row pgx.Row) (*entities.Order, error) {
	var o entities.Order
	err := row.Scan(
		&o.ID, &o.Model, &o.Price, &o.Address, &o.ContactRaw, &o.Phone, &o.CustomerName,
		&o.Comment, &o.ManagerID, &o.ManagerName, &o.ChatID, &o.MessageID,
		&o.CreatedAt, &o.UpdatedAt, &o.Status, &o.ReminderAt, &o.ReminderSent,
		&o.CommentHistory,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования заказа: %w", err)
	}
	return &o, nil
}

func (r *orderRepository) findOne(ctx context.Context, q querier, query string, args ...interface{}) (*entities.Order, error) {
	return scanOrder(q.QueryRow(ctx, query, args...))
}

func (r *orderRepository) queryOrders(ctx context.Context, q querier, query string, args ...interface{}) ([]entities.Order, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки заказов: %w", err)
	}
	defer rows.Close()

	orders := make([]entities.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// InsertIfUnique проверяет пару (model, contact_raw) и вставляет заказ в
// одной транзакции. Дубликат — громкая ошибка, а не слияние; уникальный
// индекс страхует проверку от гонки двух конкурентных вставок.
func (r *orderRepository) InsertIfUnique(ctx context.Context, order *entities.Order) (int64, error) {
	var id int64
	err := WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		var existing int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM orders WHERE model = $1 AND contact_raw = $2 LIMIT 1`,
			order.Model, order.ContactRaw,
		).Scan(&existing)
		if err == nil {
			return apperrors.ErrDuplicateOrder
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("ошибка проверки дубликата: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO orders (model, price, address, contact_raw, phone, customer_name,
				comment, manager_id, manager_name, chat_id, message_id, status,
				reminder_at, reminder_sent)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, FALSE)
			RETURNING id, created_at, updated_at`,
			order.Model, order.Price, order.Address, order.ContactRaw, order.Phone,
			order.CustomerName, order.Comment, order.ManagerID, order.ManagerName,
			order.ChatID, order.MessageID, order.Status, order.ReminderAt,
		).Scan(&id, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
				return apperrors.ErrDuplicateOrder
			}
			return fmt.Errorf("ошибка вставки заказа: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	order.ID = id
	return id, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*entities.Order, error) {
	return r.findOne(ctx, r.storage,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, orderFields, orderTable), id)
}

func (r *orderRepository) GetByOrigin(ctx context.Context, chatID, messageID int64) (*entities.Order, error) {
	return r.findOne(ctx, r.storage,
		fmt.Sprintf(`SELECT %s FROM %s WHERE chat_id = $1 AND message_id = $2`, orderFields, orderTable),
		chatID, messageID)
}

func (r *orderRepository) applyUpdate(ctx context.Context, upd OrderUpdate, where sq.Sqlizer) (bool, error) {
	query, args, err := psql.Update(orderTable).
		Set("model", upd.Model).
		Set("price", upd.Price).
		Set("address", upd.Address).
		Set("contact_raw", upd.ContactRaw).
		Set("phone", upd.Phone).
		Set("customer_name", upd.CustomerName).
		Set("comment", upd.Comment).
		Set("updated_at", sq.Expr("now()")).
		Set("reminder_at", upd.ReminderAt).
		Set("reminder_sent", false).
		Where(where).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("ошибка сборки запроса обновления: %w", err)
	}

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("ошибка обновления заказа: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) UpdateByID(ctx context.Context, id int64, upd OrderUpdate) (bool, error) {
	return r.applyUpdate(ctx, upd, sq.Eq{"id": id})
}

func (r *orderRepository) UpdateByOrigin(ctx context.Context, chatID, messageID int64, upd OrderUpdate) (bool, error) {
	return r.applyUpdate(ctx, upd, sq.Eq{"chat_id": chatID, "message_id": messageID})
}

// PatchFields точечно правит поля из белого списка (цена, адрес, имя,
// телефон).
func (r *orderRepository) PatchFields(ctx context.Context, id int64, patch map[string]interface{}) (bool, error) {
	if len(patch) == 0 {
		return false, apperrors.ErrBadRequest
	}

	b := psql.Update(orderTable).Set("updated_at", sq.Expr("now()"))
	for field, value := range patch {
		if !allowedPatchFields[field] {
			return false, apperrors.NewInvalidInputError("поле %q нельзя править точечно", field)
		}
		b = b.Set(field, value)
	}

	query, args, err := b.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("ошибка сборки запроса правки: %w", err)
	}

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("ошибка правки полей заказа: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AppendComment дописывает фрагмент к комментарию и журналу в одной
// транзакции (чтение-модификация-запись под блокировкой строки) и
// пересчитанное напоминание. reminder_sent сбрасывается всегда.
func (r *orderRepository) AppendComment(ctx context.Context, id int64, fragment string, reminderAt null.Time, historyEntry string) (bool, error) {
	found := false
	err := WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		var current string
		err := tx.QueryRow(ctx, `SELECT comment FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("ошибка чтения комментария: %w", err)
		}

		merged := fragment
		if current != "" {
			merged = current + "; " + fragment
		}

		_, err = tx.Exec(ctx, `
			UPDATE orders
			SET comment = $1,
			    reminder_at = $2,
			    reminder_sent = FALSE,
			    comment_history = comment_history || $3 || E'\n',
			    updated_at = now()
			WHERE id = $4`,
			merged, reminderAt, historyEntry, id)
		if err != nil {
			return fmt.Errorf("ошибка дописывания комментария: %w", err)
		}
		found = true
		return nil
	})
	return found, err
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	if !entities.IsValidStatus(status) {
		return false, apperrors.ErrInvalidStatus
	}
	tag, err := r.storage.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return false, fmt.Errorf("ошибка смены статуса: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) BulkUpdateStatus(ctx context.Context, ids []int64, status string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if !entities.IsValidStatus(status) {
		return 0, apperrors.ErrInvalidStatus
	}

	query, args, err := psql.Update(orderTable).
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки массового обновления: %w", err)
	}

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("ошибка массовой смены статуса: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *orderRepository) FindByStatus(ctx context.Context, status string, limit int) ([]entities.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE status = $1 ORDER BY created_at DESC`, orderFields, orderTable)
	args := []interface{}{status}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	return r.queryOrders(ctx, r.storage, query, args...)
}

func (r *orderRepository) FindDueReminders(ctx context.Context, now time.Time) ([]entities.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE reminder_at IS NOT NULL AND reminder_at <= $1 AND NOT reminder_sent
		ORDER BY reminder_at ASC`, orderFields, orderTable)
	return r.queryOrders(ctx, r.storage, query, now)
}

func (r *orderRepository) MarkReminderSent(ctx context.Context, id int64) error {
	_, err := r.storage.Exec(ctx, `UPDATE orders SET reminder_sent = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка отметки напоминания: %w", err)
	}
	return nil
}

// Search — подстрочный поиск без учёта регистра по всем текстовым полям.
// Нормализация кириллицы выполняется на стороне приложения (FoldForSearch),
// поэтому кандидаты выбираются все и фильтруются здесь.
func (r *orderRepository) Search(ctx context.Context, query string, limit int) ([]entities.Order, error) {
	q := parser.FoldForSearch(parser.NormalizeQuery(query))
	if q == "" {
		return []entities.Order{}, nil
	}

	all, err := r.queryOrders(ctx, r.storage,
		fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at DESC`, orderFields, orderTable))
	if err != nil {
		return nil, err
	}

	matched := make([]entities.Order, 0)
	for _, o := range all {
		if orderMatches(&o, q) {
			matched = append(matched, o)
			if limit > 0 && len(matched) >= limit {
				break
			}
		}
	}

	r.logger.Debug("поиск по заказам",
		zap.String("query", query),
		zap.Int("total", len(all)),
		zap.Int("matched", len(matched)))

	return matched, nil
}

func orderMatches(o *entities.Order, folded string) bool {
	haystacks := []string{
		o.Model, o.Price, o.Address, o.ContactRaw, o.PhoneString(),
		o.CustomerName, o.Comment, o.ManagerName,
	}
	for _, h := range haystacks {
		if h == "" {
			continue
		}
		if strings.Contains(parser.FoldForSearch(h), folded) {
			return true
		}
	}
	return false
}

func (r *orderRepository) ForReport(ctx context.Context) ([]entities.Order, error) {
	return r.queryOrders(ctx, r.storage,
		fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at DESC`, orderFields, orderTable))
}

func (r *orderRepository) ForDate(ctx context.Context, day time.Time) ([]entities.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE created_at::date = $1::date
		ORDER BY created_at DESC`, orderFields, orderTable)
	return r.queryOrders(ctx, r.storage, query, day)
}

// ActiveForDate — созданные или обновлённые за день заказы, ещё не
// закрытые (не paid и не canceled).
func (r *orderRepository) ActiveForDate(ctx context.Context, day time.Time) ([]entities.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE (created_at::date = $1::date OR updated_at::date = $1::date)
		  AND status NOT IN ('paid', 'canceled')
		ORDER BY created_at DESC`, orderFields, orderTable)
	return r.queryOrders(ctx, r.storage, query, day)
}

func (r *orderRepository) CountForManagerToday(ctx context.Context, managerID int64, now time.Time) (int, error) {
	var count int
	err := r.storage.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE manager_id = $1 AND created_at::date = $2::date`,
		managerID, now,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта заказов за день: %w", err)
	}
	return count, nil
}
