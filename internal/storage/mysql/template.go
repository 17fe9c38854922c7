package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"print-calc/internal/storage"
)

func (s *Storage) GetTemplateByID(ctx context.Context, id int64) (*storage.ProductTemplate, error) {
	const op = "storage.mysql.GetTemplateByID"

	query := `
		SELECT id, name, category, default_material_id, width, height, workflow_definition, is_active
		FROM print_templates
		WHERE id = ?
	`

	template := &storage.ProductTemplate{}

	// JSON схемы сканируем как байты
	var materialID sql.NullInt64
	var workflowJSON []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&template.ID,
		&template.Name,
		&template.Category,
		&materialID,
		&template.Width,
		&template.Height,
		&workflowJSON,
		&template.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: шаблон id=%d: %w", op, id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: выполнение запроса завершилось ошибкой: %w", op, err)
	}

	if materialID.Valid {
		template.DefaultMaterialID = &materialID.Int64
	}

	if len(workflowJSON) > 0 {
		var graph storage.WorkflowGraph
		if err := json.Unmarshal(workflowJSON, &graph); err != nil {
			return nil, fmt.Errorf("%s: ошибка парсинга JSON схемы: %w", op, err)
		}
		template.WorkflowDefinition = &graph
	}

	return template, nil
}

// GetAllTemplates lists active templates without their workflow documents.
func (s *Storage) GetAllTemplates(ctx context.Context) ([]*storage.ProductTemplate, error) {
	const op = "storage.mysql.GetAllTemplates"

	stmt := "SELECT id, name, category, default_material_id, width, height, is_active FROM print_templates WHERE is_active = TRUE ORDER BY name"

	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var templates []*storage.ProductTemplate

	for rows.Next() {
		template := &storage.ProductTemplate{}
		var materialID sql.NullInt64

		err := rows.Scan(&template.ID, &template.Name, &template.Category, &materialID, &template.Width, &template.Height, &template.IsActive)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}
		if materialID.Valid {
			template.DefaultMaterialID = &materialID.Int64
		}

		templates = append(templates, template)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return templates, nil
}

// SaveTemplate inserts the template when ID is zero, otherwise updates it in place.
func (s *Storage) SaveTemplate(ctx context.Context, template storage.ProductTemplate) (int64, error) {
	const op = "storage.mysql.SaveTemplate"

	var workflow []byte
	if template.WorkflowDefinition != nil {
		var err error
		workflow, err = json.Marshal(template.WorkflowDefinition)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if template.ID == 0 {
		stmt := `INSERT INTO print_templates (name, category, default_material_id, width, height, workflow_definition, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?)`

		res, err := s.db.ExecContext(ctx, stmt, template.Name, template.Category, template.DefaultMaterialID,
			template.Width, template.Height, nullableJSON(workflow), template.IsActive)
		if err != nil {
			if foreignKeyViolation(err) {
				return 0, fmt.Errorf("%s: материал по умолчанию не существует: %w", op, storage.ErrNotFound)
			}
			return 0, fmt.Errorf("%s: ошибка сохранения шаблона: %w", op, err)
		}

		return res.LastInsertId()
	}

	stmt := `UPDATE print_templates SET name=?, category=?, default_material_id=?, width=?, height=?, workflow_definition=?, is_active=?
		WHERE id=?`

	res, err := s.db.ExecContext(ctx, stmt, template.Name, template.Category, template.DefaultMaterialID,
		template.Width, template.Height, nullableJSON(workflow), template.IsActive, template.ID)
	if err != nil {
		if foreignKeyViolation(err) {
			return 0, fmt.Errorf("%s: материал по умолчанию не существует: %w", op, storage.ErrNotFound)
		}
		return 0, fmt.Errorf("%s: ошибка обновления шаблона: %w", op, err)
	}

	// MySQL считает только изменённые строки, поэтому проверяем существование отдельно
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM print_templates WHERE id = ?)", template.ID).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return 0, fmt.Errorf("%s: шаблон id=%d: %w", op, template.ID, storage.ErrNotFound)
		}
	}

	return template.ID, nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
