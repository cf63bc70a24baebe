package mapping

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInvalidMapping is returned when a mapping lacks provider or record UIDs.
var ErrInvalidMapping = errors.New("invalid mapping")

// Store is the persistent mapping relation.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore migrates the mapping table and returns a store.
func NewStore(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("mapping store requires a database connection")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&Mapping{}); err != nil {
		return nil, fmt.Errorf("failed to migrate mapping table: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// SaveMapping inserts or replaces m. On return m.OID holds the stored row id.
// Any other row with the same key is removed so one live row remains.
func (s *Store) SaveMapping(ctx context.Context, m *Mapping) error {
	if m.SourceProviderUID == "" || m.SinkProviderUID == "" || m.SourceUID == "" || m.SinkUID == "" {
		return fmt.Errorf("%w: %+v", ErrInvalidMapping, *m)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []Mapping
		q := tx.Where("source_provider_uid = ? AND source_uid = ? AND sink_provider_uid = ?",
			m.SourceProviderUID, m.SourceUID, m.SinkProviderUID)
		if m.OID != "" {
			q = q.Or("oid = ?", m.OID)
		}
		if err := q.Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to look up mapping: %w", err)
		}

		if m.OID == "" {
			for _, e := range existing {
				if e.Key() == m.Key() {
					m.OID = e.OID
					break
				}
			}
		}
		if m.OID == "" {
			m.OID = uuid.NewString()
		}

		var stale []string
		for _, e := range existing {
			if e.OID != m.OID {
				stale = append(stale, e.OID)
			}
		}
		if len(stale) > 0 {
			s.logger.Warn("Removing duplicate mappings", zap.Strings("oids", stale), zap.String("key_source_uid", m.SourceUID))
			if err := tx.Where("oid IN ?", stale).Delete(&Mapping{}).Error; err != nil {
				return fmt.Errorf("failed to remove duplicate mappings: %w", err)
			}
		}

		if err := tx.Save(m).Error; err != nil {
			return fmt.Errorf("failed to save mapping: %w", err)
		}
		return nil
	})
}

// GetMapping returns the mapping for dataLUID on sourceProvider paired with
// sinkProvider, oriented with sourceProvider as source. A nil mapping with a
// nil error means there is no correlation yet.
func (s *Store) GetMapping(ctx context.Context, sourceProvider, dataLUID, sinkProvider string) (*Mapping, error) {
	var rows []Mapping
	err := s.db.WithContext(ctx).
		Where("source_provider_uid = ? AND source_uid = ? AND sink_provider_uid = ?", sourceProvider, dataLUID, sinkProvider).
		Or("source_provider_uid = ? AND sink_uid = ? AND sink_provider_uid = ?", sinkProvider, dataLUID, sourceProvider).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get mapping: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	m := rows[0].OrientedFrom(sourceProvider)
	return &m, nil
}

// GetMappingsForProviders returns every mapping between the two providers,
// oriented with sourceProvider as source.
func (s *Store) GetMappingsForProviders(ctx context.Context, sourceProvider, sinkProvider string) ([]Mapping, error) {
	var rows []Mapping
	err := s.db.WithContext(ctx).
		Where("source_provider_uid = ? AND sink_provider_uid = ?", sourceProvider, sinkProvider).
		Or("source_provider_uid = ? AND sink_provider_uid = ?", sinkProvider, sourceProvider).
		Order("source_uid").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	for i := range rows {
		rows[i] = rows[i].OrientedFrom(sourceProvider)
	}
	return rows, nil
}

// GetMatchingUID returns the UID of the counterpart of dataLUID on sinkProvider.
func (s *Store) GetMatchingUID(ctx context.Context, sourceProvider, dataLUID, sinkProvider string) (string, bool, error) {
	m, err := s.GetMapping(ctx, sourceProvider, dataLUID, sinkProvider)
	if err != nil || m == nil {
		return "", false, err
	}
	return m.SinkUID, true, nil
}

// DeleteMapping removes m by OID, or by key when the OID is empty.
func (s *Store) DeleteMapping(ctx context.Context, m Mapping) error {
	db := s.db.WithContext(ctx)
	if m.OID != "" {
		db = db.Where("oid = ?", m.OID)
	} else {
		db = db.Where("source_provider_uid = ? AND source_uid = ? AND sink_provider_uid = ?",
			m.SourceProviderUID, m.SourceUID, m.SinkProviderUID)
	}
	if err := db.Delete(&Mapping{}).Error; err != nil {
		return fmt.Errorf("failed to delete mapping: %w", err)
	}
	return nil
}

// DeleteMappingsForProviders removes every mapping between two providers.
func (s *Store) DeleteMappingsForProviders(ctx context.Context, a, b string) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("source_provider_uid = ? AND sink_provider_uid = ?", a, b).
		Or("source_provider_uid = ? AND sink_provider_uid = ?", b, a).
		Delete(&Mapping{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete mappings: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Count returns the number of stored mappings.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Mapping{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count mappings: %w", err)
	}
	return n, nil
}
