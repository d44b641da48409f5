package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Auyante/refineryiq-system/config"
	"github.com/Auyante/refineryiq-system/models"
)

// AlertRecord is the persisted audit row for an alert.
type AlertRecord struct {
	ID             string `gorm:"primaryKey;size:36"`
	EntityID       string `gorm:"size:64;index"`
	UnitID         string `gorm:"size:64"`
	TagID          string `gorm:"size:128"`
	Condition      string `gorm:"size:32"`
	Severity       string `gorm:"size:16"`
	Message        string
	CreatedAt      time.Time
	Acknowledged   bool
	AcknowledgedAt *time.Time
	AcknowledgedBy string `gorm:"size:64"`
}

// PredictionRecord mirrors the maintenance_predictions audit table.
type PredictionRecord struct {
	ID                 uint   `gorm:"primaryKey;autoIncrement"`
	EquipmentID        string `gorm:"size:64;index"`
	EquipmentType      string `gorm:"size:32"`
	UnitID             string `gorm:"size:64"`
	FailureProbability float64
	RULHours           *float64
	IsAnomaly          bool
	AnomalyScore       float64
	Confidence         float64
	Prediction         string `gorm:"size:32"`
	Recommendation     string
	ModelSource        string `gorm:"size:64"`
	GeneratedAt        time.Time
}

// EnergyAnalysisRecord mirrors the energy_analysis audit table.
type EnergyAnalysisRecord struct {
	ID                   uint   `gorm:"primaryKey;autoIncrement"`
	UnitID               string `gorm:"size:64;index"`
	AvgEnergyConsumption float64
	Benchmark            float64
	Target               float64
	EfficiencyScore      float64
	SavingsPotential     float64
	Status               string `gorm:"size:32"`
	Recommendation       string
	GeneratedAt          time.Time
}

// Store is the optional relational audit sink for alerts, predictions and
// energy analyses. The engine treats its failures as PublishError: results
// get retried, cycles never fail because the database is down.
type Store struct {
	db *gorm.DB
}

// Open connects using the configured driver and migrates the audit tables.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLite.Path)
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User,
			cfg.Postgres.Password, cfg.Postgres.DBName, cfg.Postgres.SSLMode)
		dialector = postgres.Open(dsn)
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True",
			cfg.MySQL.User, cfg.MySQL.Password, cfg.MySQL.Host, cfg.MySQL.Port, cfg.MySQL.DBName)
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Pool.ConnMaxLifetime) * time.Second)

	if err := db.AutoMigrate(&AlertRecord{}, &PredictionRecord{}, &EnergyAnalysisRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate audit tables: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Name() string { return "database" }

// PublishSnapshot appends this cycle's predictions and energy analyses to
// the audit tables.
func (s *Store) PublishSnapshot(ctx context.Context, snap *models.Snapshot) error {
	for _, pred := range snap.Predictions {
		record := PredictionRecord{
			EquipmentID:        pred.EquipmentID,
			EquipmentType:      pred.EquipmentType,
			UnitID:             pred.UnitID,
			FailureProbability: pred.FailureProbability,
			RULHours:           pred.RULHours,
			IsAnomaly:          pred.IsAnomaly,
			AnomalyScore:       pred.AnomalyScore,
			Confidence:         pred.Confidence,
			Prediction:         pred.Prediction,
			Recommendation:     pred.Recommendation,
			ModelSource:        pred.ModelSource,
			GeneratedAt:        pred.GeneratedAt,
		}
		if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
			return err
		}
	}

	for _, rec := range snap.Energy {
		record := EnergyAnalysisRecord{
			UnitID:               rec.UnitID,
			AvgEnergyConsumption: rec.AvgEnergyConsumption,
			Benchmark:            rec.Benchmark,
			Target:               rec.Target,
			EfficiencyScore:      rec.EfficiencyScore,
			SavingsPotential:     rec.SavingsPotential,
			Status:               rec.Status,
			Recommendation:       rec.Recommendation,
			GeneratedAt:          snap.GeneratedAt,
		}
		if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
			return err
		}
	}

	return nil
}

// PublishAlert inserts the alert audit row.
func (s *Store) PublishAlert(ctx context.Context, alert models.Alert) error {
	record := AlertRecord{
		ID:             alert.ID,
		EntityID:       alert.EntityID,
		UnitID:         alert.UnitID,
		TagID:          alert.TagID,
		Condition:      string(alert.Condition),
		Severity:       string(alert.Severity),
		Message:        alert.Message,
		CreatedAt:      alert.CreatedAt,
		Acknowledged:   alert.Acknowledged,
		AcknowledgedAt: alert.AcknowledgedAt,
		AcknowledgedBy: alert.AcknowledgedBy,
	}
	return s.db.WithContext(ctx).Create(&record).Error
}

// MarkAcknowledged propagates an acknowledgment to the audit row.
func (s *Store) MarkAcknowledged(ctx context.Context, alert models.Alert) error {
	return s.db.WithContext(ctx).Model(&AlertRecord{}).
		Where("id = ?", alert.ID).
		Updates(map[string]interface{}{
			"acknowledged":    true,
			"acknowledged_at": alert.AcknowledgedAt,
			"acknowledged_by": alert.AcknowledgedBy,
		}).Error
}

// RecentPredictions returns the latest persisted predictions, newest first.
func (s *Store) RecentPredictions(ctx context.Context, limit int) ([]PredictionRecord, error) {
	var records []PredictionRecord
	err := s.db.WithContext(ctx).
		Order("generated_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
