package resource

import "errors"

var (
	// ErrVehicleNotFound возвращается, когда автомобиль не найден
	ErrVehicleNotFound = errors.New("resource.repository: vehicle not found")

	// ErrTripNotFound возвращается, когда поездка не найдена
	ErrTripNotFound = errors.New("resource.repository: trip not found")

	// ErrCapacityExceeded возвращается, когда леджер не может зафиксировать
	// запрошенное количество: мест меньше, чем запрошено, или диапазон дат
	// пересекается с уже занятым
	ErrCapacityExceeded = errors.New("resource.repository: capacity exceeded")

	// ErrLedgerInconsistent возвращается, когда release не может быть применён
	// без нарушения инварианта леджера. При корректной работе state machine
	// такого происходить не должно.
	ErrLedgerInconsistent = errors.New("resource.repository: ledger inconsistent")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("resource.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("resource.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("resource.repository: failed to scan row")
)
