package http

import (
	"errors"
	"net/http"

	"github.com/geopresensi/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERROR MAPPING
// Переводит доменные ошибки в пары (HTTP-статус, машинный код).
// Порядок проверок важен: конкретные sentinel-ошибки раньше категорий.
// ══════════════════════════════════════════════════════════════════════════════

// errorStatus resolves a domain error into an HTTP status and a machine
// readable error code. Unknown errors map to 500 without leaking details.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, shared.ErrInactiveUser):
		// Деактивированный аккаунт с ещё живой сессией. Это запрет,
		// а не сбой системы.
		return http.StatusForbidden, "account_deactivated"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "already_exists"
	case shared.IsValidation(err):
		return http.StatusBadRequest, "validation_failed"
	case shared.IsRuleViolation(err):
		return http.StatusUnprocessableEntity, "rule_violation"
	case shared.IsStoreFailure(err):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal_server_error"
	}
}

// writeDomainError writes a domain error as a JSON error response.
// 5xx responses hide the underlying message from the client.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "An unexpected error occurred"
	}

	writeJSONError(w, status, code, message)
}
