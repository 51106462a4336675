package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/psqlbuilder"
)

// Repository репозиторий леджера ресурсов: автомобили и поездки
// TryCommit/Release - единственные операции, мутирующие занятую ёмкость.
// Вызываются только из guarded-переходов state machine, никогда напрямую
// из обработчиков запросов.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория ресурсов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetVehicle получает автомобиль по ID
func (r *Repository) GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"owner_id",
		"daily_price",
		"currency",
		"created_at",
		"updated_at",
	).
		From("vehicles").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetVehicle - build select query: %v", ErrBuildQuery, err)
	}

	var v domain.Vehicle
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&v.ID,
		&v.OwnerID,
		&v.DailyPrice,
		&v.Currency,
		&createdAt,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetVehicle - scan vehicle: %v", ErrScanRow, err)
	}

	v.CreatedAt = createdAt.Time
	v.UpdatedAt = updatedAt.Time

	return &v, nil
}

// GetTrip получает поездку по ID
func (r *Repository) GetTrip(ctx context.Context, id int64) (*domain.Trip, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"driver_id",
		"seat_capacity",
		"seats_remaining",
		"departs_at",
		"seat_price",
		"currency",
		"created_at",
		"updated_at",
	).
		From("trips").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetTrip - build select query: %v", ErrBuildQuery, err)
	}

	var t domain.Trip
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&t.ID,
		&t.DriverID,
		&t.SeatCapacity,
		&t.SeatsRemaining,
		&t.DepartsAt,
		&t.SeatPrice,
		&t.Currency,
		&createdAt,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetTrip - scan trip: %v", ErrScanRow, err)
	}

	t.CreatedAt = createdAt.Time
	t.UpdatedAt = updatedAt.Time

	return &t, nil
}

// GetBookedRanges получает занятые диапазоны дат автомобиля,
// отсортированные по началу диапазона
// Внутри транзакции блокирует строки (FOR UPDATE) - конкурентные approve
// одного автомобиля сериализуются на этом запросе
func (r *Repository) GetBookedRanges(ctx context.Context, vehicleID int64) ([]*domain.BookedRange, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"vehicle_id",
		"booking_id",
		"start_date",
		"end_date",
	).
		From("vehicle_booked_ranges").
		Where(squirrel.Eq{"vehicle_id": vehicleID}).
		OrderBy("start_date ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetBookedRanges - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetBookedRanges - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	ranges := make([]*domain.BookedRange, 0)
	for rows.Next() {
		var br domain.BookedRange
		if err := rows.Scan(&br.VehicleID, &br.BookingID, &br.Range.Start, &br.Range.End); err != nil {
			return nil, fmt.Errorf("%w: GetBookedRanges - scan row: %v", ErrScanRow, err)
		}
		ranges = append(ranges, &br)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetBookedRanges - rows error: %v", ErrScanRow, err)
	}

	return ranges, nil
}

// TryCommit атомарно фиксирует количество бронирования в леджере ресурса
// Возвращает ErrCapacityExceeded без изменения состояния, если ёмкости
// недостаточно
func (r *Repository) TryCommit(ctx context.Context, b *domain.Booking) error {
	switch b.ResourceType {
	case domain.ResourceTrip:
		return r.tryCommitSeats(ctx, b.ResourceID, b.Seats)
	case domain.ResourceVehicle:
		rng, ok := b.DateRange()
		if !ok {
			return fmt.Errorf("%w: TryCommit - booking id=%d has no date range", ErrExecQuery, b.ID)
		}
		return r.tryCommitRange(ctx, b.ResourceID, b.ID, rng)
	default:
		return fmt.Errorf("%w: TryCommit - unknown resource type %q", ErrExecQuery, b.ResourceType)
	}
}

// Release атомарно освобождает ранее зафиксированное количество
// Идемпотентен по диапазонам дат; для мест защищён инвариантом
// remaining + seats <= capacity
func (r *Repository) Release(ctx context.Context, b *domain.Booking) error {
	switch b.ResourceType {
	case domain.ResourceTrip:
		return r.releaseSeats(ctx, b.ResourceID, b.Seats)
	case domain.ResourceVehicle:
		return r.releaseRange(ctx, b.ResourceID, b.ID)
	default:
		return fmt.Errorf("%w: Release - unknown resource type %q", ErrExecQuery, b.ResourceType)
	}
}

// tryCommitSeats условно декрементирует счётчик свободных мест
// UPDATE применяется только при seats_remaining >= seats - никакого
// read-then-write, гонка исключена на уровне БД
func (r *Repository) tryCommitSeats(ctx context.Context, tripID int64, seats int) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("trips").
		Set("seats_remaining", squirrel.Expr("seats_remaining - ?", seats)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": tripID}).
		Where(squirrel.GtOrEq{"seats_remaining": seats}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: tryCommitSeats - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: tryCommitSeats - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: tryCommitSeats - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		// Либо поездки нет, либо мест недостаточно
		if _, err := r.GetTrip(ctx, tripID); err != nil {
			return err
		}
		return ErrCapacityExceeded
	}

	return nil
}

// releaseSeats возвращает места в пул поездки
// Инвариант 0 <= remaining <= capacity защищён условием обновления
func (r *Repository) releaseSeats(ctx context.Context, tripID int64, seats int) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("trips").
		Set("seats_remaining", squirrel.Expr("seats_remaining + ?", seats)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": tripID}).
		Where(squirrel.Expr("seats_remaining + ? <= seat_capacity", seats)).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: releaseSeats - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: releaseSeats - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: releaseSeats - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		if _, err := r.GetTrip(ctx, tripID); err != nil {
			return err
		}
		return fmt.Errorf("%w: releaseSeats - trip id=%d would exceed capacity", ErrLedgerInconsistent, tripID)
	}

	return nil
}

// tryCommitRange фиксирует диапазон дат автомобиля
// Вызывается внутри сериализуемой транзакции: занятые диапазоны читаются
// с блокировкой, пересечение проверяется по отсортированному списку, затем
// вставляется новая строка
func (r *Repository) tryCommitRange(ctx context.Context, vehicleID, bookingID int64, rng domain.DateRange) error {
	ranges, err := r.GetBookedRanges(ctx, vehicleID)
	if err != nil {
		return err
	}

	for _, br := range ranges {
		// Диапазоны отсортированы по началу - дальше пересечений не будет
		if !br.Range.Start.Before(rng.End) {
			break
		}
		if br.Range.Overlaps(rng) {
			return ErrCapacityExceeded
		}
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("vehicle_booked_ranges").
		Columns("vehicle_id", "booking_id", "start_date", "end_date").
		Values(vehicleID, bookingID, rng.Start, rng.End).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: tryCommitRange - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: tryCommitRange - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// releaseRange снимает блокировку диапазона дат
// Удаление по booking_id идемпотентно: повторный release - no-op
func (r *Repository) releaseRange(ctx context.Context, vehicleID, bookingID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("vehicle_booked_ranges").
		Where(squirrel.Eq{"vehicle_id": vehicleID}).
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: releaseRange - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: releaseRange - execute delete: %v", ErrExecQuery, err)
	}

	return nil
}
