package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ Store = (*SQLStore)(nil)

// serviceRow is the persisted shape of a catalog entry; the definition is
// stored as a JSON document.
type serviceRow struct {
	Name        string    `gorm:"primaryKey;size:255"`
	Description string    `gorm:"not null;default:''"`
	Definition  string    `gorm:"type:text;not null"`
	Status      string    `gorm:"size:32;not null;default:registered"`
	ClusterID   *string   `gorm:"column:cluster_id;size:128"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (serviceRow) TableName() string {
	return "catalog_services"
}

type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// OpenSQLStore opens (creating if needed) the SQLite catalog at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	if err := db.AutoMigrate(&serviceRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog database: %w", err)
	}

	return &SQLStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) List(ctx context.Context) ([]model.CatalogEntry, error) {
	var rows []serviceRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}

	entries := make([]model.CatalogEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, nil
}

func (s *SQLStore) Get(ctx context.Context, name string) (*model.CatalogEntry, error) {
	row, err := s.get(s.db.WithContext(ctx), name)
	if err != nil {
		return nil, err
	}

	e, err := row.entry()
	if err != nil {
		return nil, err
	}

	return &e, nil
}

func (s *SQLStore) Create(ctx context.Context, entry model.CatalogEntry) (*model.CatalogEntry, error) {
	now := s.now()
	entry.Status = model.StatusRegistered
	entry.ClusterID = ""
	entry.CreatedAt = now
	entry.UpdatedAt = now

	row, err := toRow(entry)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.get(tx, entry.Name)
		if err == nil {
			return fmt.Errorf("service %q: %w", entry.Name, model.ErrConflict)
		}
		if !errors.Is(err, model.ErrNotFound) {
			return err
		}

		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (s *SQLStore) UpdateDefinition(ctx context.Context, name string, def *model.ServiceDefinition, description *string) (*model.CatalogEntry, error) {
	var updated model.CatalogEntry

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.get(tx, name)
		if err != nil {
			return err
		}

		e, err := row.entry()
		if err != nil {
			return err
		}

		if def != nil {
			e.Definition = *def
		}
		if description != nil {
			e.Description = *description
		}
		e.UpdatedAt = s.now()

		b, err := json.Marshal(e.Definition)
		if err != nil {
			return fmt.Errorf("failed to encode definition: %w", err)
		}

		err = tx.Model(&serviceRow{}).Where("name = ?", name).Updates(map[string]any{
			"description": e.Description,
			"definition":  string(b),
			"updated_at":  e.UpdatedAt,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update service %q: %w", name, err)
		}

		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (s *SQLStore) Delete(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(&serviceRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete service %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("service %q: %w", name, model.ErrNotFound)
	}

	return nil
}

func (s *SQLStore) SetStatus(ctx context.Context, name string, status model.Status, clusterID string) error {
	var id *string
	if clusterID != "" {
		id = &clusterID
	}

	res := s.db.WithContext(ctx).Model(&serviceRow{}).Where("name = ?", name).Updates(map[string]any{
		"status":     string(status),
		"cluster_id": id,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to set status of %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("service %q: %w", name, model.ErrNotFound)
	}

	return nil
}

func (s *SQLStore) get(tx *gorm.DB, name string) (serviceRow, error) {
	var row serviceRow

	err := tx.Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, fmt.Errorf("service %q: %w", name, model.ErrNotFound)
	} else if err != nil {
		return row, fmt.Errorf("failed to get service %q: %w", name, err)
	}

	return row, nil
}

func toRow(e model.CatalogEntry) (serviceRow, error) {
	b, err := json.Marshal(e.Definition)
	if err != nil {
		return serviceRow{}, fmt.Errorf("failed to encode definition: %w", err)
	}

	row := serviceRow{
		Name:        e.Name,
		Description: e.Description,
		Definition:  string(b),
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.ClusterID != "" {
		row.ClusterID = &e.ClusterID
	}

	return row, nil
}

func (r serviceRow) entry() (model.CatalogEntry, error) {
	e := model.CatalogEntry{
		Name:        r.Name,
		Description: r.Description,
		Status:      model.Status(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	if err := json.Unmarshal([]byte(r.Definition), &e.Definition); err != nil {
		return e, fmt.Errorf("failed to decode definition of %q: %w", r.Name, err)
	}
	if r.ClusterID != nil {
		e.ClusterID = *r.ClusterID
	}

	return e, nil
}
