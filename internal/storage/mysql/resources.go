package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"print-calc/internal/storage"
)

// одна таблица на каждый тип ресурса
var resourceTables = map[storage.ResourceType]string{
	storage.ResourceMachine:   "print_machines",
	storage.ResourceFinishing: "print_finishing",
	storage.ResourceLabor:     "print_labor",
}

func (s *Storage) FindResourceByID(ctx context.Context, resourceType storage.ResourceType, id int64) (*storage.Resource, error) {
	const op = "storage.mysql.FindResourceByID"

	table, ok := resourceTables[resourceType]
	if !ok {
		return nil, fmt.Errorf("%s: неизвестный тип ресурса %q: %w", op, resourceType, storage.ErrNotFound)
	}

	query := fmt.Sprintf("SELECT id, name, cost_per_hour, costing_profile FROM %s WHERE id = ?", table)

	res := &storage.Resource{Type: resourceType}
	var profileJSON []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&res.ID, &res.Name, &res.CostPerHour, &profileJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %s id=%d: %w", op, resourceType, id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(profileJSON) > 0 {
		if err := json.Unmarshal(profileJSON, &res.CostingProfile); err != nil {
			return nil, fmt.Errorf("%s: ошибка парсинга профиля затрат: %w", op, err)
		}
	}

	return res, nil
}

func (s *Storage) FindMaterialByID(ctx context.Context, id int64) (*storage.Material, error) {
	const op = "storage.mysql.FindMaterialByID"

	query := `SELECT id, name, price, width, height, thickness FROM print_materials WHERE id = ?`

	m := &storage.Material{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Name, &m.Price, &m.Width, &m.Height, &m.Thickness)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: материал id=%d: %w", op, id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return m, nil
}

func (s *Storage) GetAllMaterials(ctx context.Context) ([]*storage.Material, error) {
	const op = "storage.mysql.GetAllMaterials"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, price, width, height, thickness FROM print_materials ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var materials []*storage.Material
	for rows.Next() {
		m := &storage.Material{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.Width, &m.Height, &m.Thickness); err != nil {
			return nil, fmt.Errorf("%s: ошибка чтения строки: %w", op, err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return materials, nil
}
