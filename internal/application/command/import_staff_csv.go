package command

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// IMPORT STAFF CSV COMMAND
// Массовое создание сотрудников из CSV-файла администратора.
// Колонки: username, full_name, nuptk, password, subjects, additional_roles.
// Списки внутри колонки разделяются точкой с запятой. Ошибочные строки
// пропускаются и попадают в отчёт, остальные создаются.
// ══════════════════════════════════════════════════════════════════════════════

// csvHeader - обязательный заголовок файла импорта.
var csvHeader = []string{"username", "full_name", "nuptk", "password", "subjects", "additional_roles"}

// ImportStaffCSVCommand содержит файл импорта.
type ImportStaffCSVCommand struct {
	AdminID       string
	Reader        io.Reader
	CorrelationID string
}

// ImportStaffCSVResult содержит итог импорта.
type ImportStaffCSVResult struct {
	TotalRows    int
	CreatedCount int
	FailedCount  int

	// Errors - ошибки по номеру строки файла (строка 1 - заголовок).
	Errors map[int]error
}

// ImportStaffCSVHandler handles the ImportStaffCSVCommand.
type ImportStaffCSVHandler struct {
	users *UserAdminHandler
}

// NewImportStaffCSVHandler creates a new ImportStaffCSVHandler.
func NewImportStaffCSVHandler(users *UserAdminHandler) *ImportStaffCSVHandler {
	return &ImportStaffCSVHandler{users: users}
}

// Handle executes the import command.
func (h *ImportStaffCSVHandler) Handle(ctx context.Context, cmd ImportStaffCSVCommand) (*ImportStaffCSVResult, error) {
	if cmd.AdminID == "" {
		return nil, errors.New("import_staff: admin_id is required")
	}
	if cmd.Reader == nil {
		return nil, errors.New("import_staff: file is required")
	}

	reader := csv.NewReader(cmd.Reader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("import_staff: failed to read header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return nil, fmt.Errorf("import_staff: %w", err)
	}

	result := &ImportStaffCSVResult{Errors: make(map[int]error)}
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			result.TotalRows++
			result.FailedCount++
			result.Errors[line] = err
			continue
		}

		result.TotalRows++
		if _, err := h.users.HandleCreate(ctx, rowToCommand(cmd, row)); err != nil {
			result.FailedCount++
			result.Errors[line] = err
			continue
		}
		result.CreatedCount++
	}

	return result, nil
}

func validateHeader(header []string) error {
	if len(header) != len(csvHeader) {
		return fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(header))
	}
	for i, name := range csvHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return fmt.Errorf("expected column %q at position %d, got %q", name, i+1, header[i])
		}
	}
	return nil
}

func rowToCommand(cmd ImportStaffCSVCommand, row []string) CreateUserCommand {
	return CreateUserCommand{
		AdminID:         cmd.AdminID,
		Username:        strings.TrimSpace(row[0]),
		FullName:        strings.TrimSpace(row[1]),
		NUPTK:           strings.TrimSpace(row[2]),
		Password:        row[3],
		Role:            user.RoleStaff,
		Subjects:        splitList(row[4]),
		AdditionalRoles: splitRoleList(row[5]),
		CorrelationID:   cmd.CorrelationID,
	}
}

// splitList разбирает список через точку с запятой, отбрасывая пустые элементы.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func splitRoleList(raw string) []shared.RoleLabel {
	var out []shared.RoleLabel
	for _, part := range splitList(raw) {
		out = append(out, shared.RoleLabel(part))
	}
	return out
}
