package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/psqlbuilder"
)

var bookingColumns = []string{
	"id",
	"resource_type",
	"resource_id",
	"requester_id",
	"owner_id",
	"seats",
	"start_date",
	"end_date",
	"price_snapshot",
	"currency",
	"status",
	"payment_deadline",
	"cancellation_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование в статусе pending
// Если в контексте передана активная транзакция, использует её
func (r *Repository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"resource_type",
			"resource_id",
			"requester_id",
			"owner_id",
			"seats",
			"start_date",
			"end_date",
			"price_snapshot",
			"currency",
			"status",
		).
		Values(
			b.ResourceType,
			b.ResourceID,
			b.RequesterID,
			b.OwnerID,
			b.Seats,
			b.StartDate,
			b.EndDate,
			b.PriceSnapshot,
			b.Currency,
			b.Status,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return b, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	// Внутри транзакции блокируем строку - переходы по одному бронированию
	// линеаризуются ещё до условного обновления статуса
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	b, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return b, nil
}

// List получает бронирования с фильтрацией по ресурсу, участнику и статусу
func (r *Repository) List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		OrderBy("created_at DESC, id DESC")

	if filter.ResourceType != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"resource_type": *filter.ResourceType})
	}
	if filter.ResourceID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"resource_id": *filter.ResourceID})
	}

	// Фильтрация по участнику: по конкретной стороне или по обеим
	if filter.ActorID != nil {
		if filter.ActorRole != nil && *filter.ActorRole == domain.RoleRequester {
			selectBuilder = selectBuilder.Where(squirrel.Eq{"requester_id": *filter.ActorID})
		} else if filter.ActorRole != nil && *filter.ActorRole == domain.RoleOwner {
			selectBuilder = selectBuilder.Where(squirrel.Eq{"owner_id": *filter.ActorID})
		} else {
			selectBuilder = selectBuilder.Where(squirrel.Or{
				squirrel.Eq{"requester_id": *filter.ActorID},
				squirrel.Eq{"owner_id": *filter.ActorID},
			})
		}
	}

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListCapacityHolding получает бронирования ресурса, удерживающие ёмкость
// Используется для пересчёта леджера из истории бронирований
func (r *Repository) ListCapacityHolding(ctx context.Context, resourceType domain.ResourceType, resourceID int64) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	statuses := make([]string, len(domain.CapacityHoldingStatuses))
	for i, s := range domain.CapacityHoldingStatuses {
		statuses[i] = string(s)
	}

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"resource_type": resourceType}).
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.Eq{"status": statuses}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListCapacityHolding - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListCapacityHolding - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListExpiredHolds получает бронирования в awaiting_payment с истёкшим
// дедлайном оплаты. Запрос Expiry Sweeper, покрыт индексом (status, payment_deadline).
func (r *Repository) ListExpiredHolds(ctx context.Context, now time.Time) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"status": domain.StatusAwaitingPayment}).
		Where(squirrel.LtOrEq{"payment_deadline": now}).
		OrderBy("payment_deadline ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredHolds - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredHolds - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdateStatusCAS условно переводит бронирование из статуса from в статус to.
// Обновление применяется только если текущий статус всё ещё from - это
// линеаризует конкурентные переходы по одному бронированию.
// Возвращает ErrStaleWrite, если статус уже изменился, и ErrBookingNotFound,
// если бронирования нет.
func (r *Repository) UpdateStatusCAS(ctx context.Context, id int64, from, to domain.BookingStatus, deadline *time.Time, clearDeadline bool) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": from})

	if deadline != nil {
		updateBuilder = updateBuilder.Set("payment_deadline", *deadline)
	} else if clearDeadline {
		updateBuilder = updateBuilder.Set("payment_deadline", nil)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatusCAS - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatusCAS - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatusCAS - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return r.classifyZeroRows(ctx, id)
	}

	return nil
}

// CancelCAS условно отменяет бронирование с указанием причины
// Семантика условного обновления та же, что у UpdateStatusCAS
func (r *Repository) CancelCAS(ctx context.Context, id int64, from domain.BookingStatus, reason *string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("payment_deadline", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": from}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: CancelCAS - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: CancelCAS - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: CancelCAS - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return r.classifyZeroRows(ctx, id)
	}

	return nil
}

// AppendHistory добавляет запись о совершённом переходе в аудит-историю
func (r *Repository) AppendHistory(ctx context.Context, entry *domain.StatusHistoryEntry) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("booking_status_history").
		Columns("booking_id", "from_status", "to_status", "actor_id", "actor_role").
		Values(entry.BookingID, entry.FromStatus, entry.ToStatus, entry.ActorID, entry.ActorRole).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: AppendHistory - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &createdAt); err != nil {
		return fmt.Errorf("%w: AppendHistory - execute insert: %v", ErrExecQuery, err)
	}
	entry.CreatedAt = createdAt.Time

	return nil
}

// GetHistory получает историю статусов бронирования в порядке переходов
func (r *Repository) GetHistory(ctx context.Context, bookingID int64) ([]*domain.StatusHistoryEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"booking_id",
		"from_status",
		"to_status",
		"actor_id",
		"actor_role",
		"created_at",
	).
		From("booking_status_history").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetHistory - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetHistory - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	entries := make([]*domain.StatusHistoryEntry, 0)
	for rows.Next() {
		var e domain.StatusHistoryEntry
		var createdAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.BookingID, &e.FromStatus, &e.ToStatus, &e.ActorID, &e.ActorRole, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: GetHistory - scan row: %v", ErrScanRow, err)
		}
		e.CreatedAt = createdAt.Time
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetHistory - rows error: %v", ErrScanRow, err)
	}

	return entries, nil
}

// classifyZeroRows различает "бронирование не найдено" и "статус уже другой"
func (r *Repository) classifyZeroRows(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("1").
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: classifyZeroRows - build select query: %v", ErrBuildQuery, err)
	}

	var one int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookingNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: classifyZeroRows - scan: %v", ErrScanRow, err)
	}

	return ErrStaleWrite
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBooking сканирует одну строку в бронирование
func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.ResourceType,
		&b.ResourceID,
		&b.RequesterID,
		&b.OwnerID,
		&b.Seats,
		&b.StartDate,
		&b.EndDate,
		&b.PriceSnapshot,
		&b.Currency,
		&b.Status,
		&b.PaymentDeadline,
		&b.CancellationReason,
		&b.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return &b, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}
