package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"storefront-service/internal/domain"
)

// Postgres error codes mapped to store errors.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type planModel struct {
	ID                int64               `gorm:"primaryKey;autoIncrement"`
	Name              string              `gorm:"column:nombre;size:255;not null"`
	Installments      int                 `gorm:"column:cuotas;not null"`
	SurchargePercent  decimal.Decimal     `gorm:"column:recargo_porcentual;type:numeric(7,2);not null"`
	SurchargeFixed    decimal.Decimal     `gorm:"column:recargo_fijo;type:numeric(12,2);not null"`
	MinPrice          decimal.Decimal     `gorm:"column:monto_minimo;type:numeric(12,2);not null"`
	MaxPrice          decimal.NullDecimal `gorm:"column:monto_maximo;type:numeric(12,2)"`
	Active            bool                `gorm:"column:activo;not null"`
	MinUpfrontFixed   decimal.NullDecimal `gorm:"column:anticipo_minimo_fijo;type:numeric(12,2)"`
	MinUpfrontPercent decimal.NullDecimal `gorm:"column:anticipo_minimo;type:numeric(5,2)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (planModel) TableName() string {
	return "planes_financiacion"
}

func planModelFromDomain(p *domain.FinancingPlan) planModel {
	return planModel{
		ID:                p.ID,
		Name:              p.Name,
		Installments:      p.Installments,
		SurchargePercent:  p.SurchargePercent,
		SurchargeFixed:    p.SurchargeFixed,
		MinPrice:          p.MinPrice,
		MaxPrice:          p.MaxPrice,
		Active:            p.Active,
		MinUpfrontFixed:   p.MinUpfrontFixed,
		MinUpfrontPercent: p.MinUpfrontPercent,
	}
}

func (m planModel) toDomain() domain.FinancingPlan {
	return domain.FinancingPlan{
		ID:                m.ID,
		Name:              m.Name,
		Installments:      m.Installments,
		SurchargePercent:  m.SurchargePercent,
		SurchargeFixed:    m.SurchargeFixed,
		MinPrice:          m.MinPrice,
		MaxPrice:          m.MaxPrice,
		Active:            m.Active,
		MinUpfrontFixed:   m.MinUpfrontFixed,
		MinUpfrontPercent: m.MinUpfrontPercent,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// associationModel maps both link tables; the table is chosen per query.
type associationModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	ProductID int64 `gorm:"column:fk_id_producto;not null"`
	PlanID    int64 `gorm:"column:fk_id_plan;not null"`
	Active    bool  `gorm:"column:activo;not null"`
	CreatedAt time.Time
}

type settingsModel struct {
	ID        int64  `gorm:"primaryKey"`
	Phone     string `gorm:"column:telefono"`
	CreatedAt time.Time
}

func (settingsModel) TableName() string {
	return "configuracion"
}

// OpenGorm wraps an existing connection pool so the admin store shares it with
// the read store. Queries are logged by the callers, not by GORM.
func OpenGorm(db *sql.DB) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: failed to open gorm session: %w", err)
	}
	return gdb, nil
}

// GormAdminStore implements PlanAdminStorer with GORM.
type GormAdminStore struct {
	db *gorm.DB
}

// NewGormAdminStore creates a new GormAdminStore instance.
func NewGormAdminStore(db *gorm.DB) *GormAdminStore {
	return &GormAdminStore{db: db}
}

func (s *GormAdminStore) ListPlans(ctx context.Context) ([]domain.FinancingPlan, error) {
	var rows []planModel
	if err := s.db.WithContext(ctx).Order("cuotas ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: ListPlans failed to query plans: %w", err)
	}
	plans := make([]domain.FinancingPlan, len(rows))
	for i, m := range rows {
		plans[i] = m.toDomain()
	}
	return plans, nil
}

func (s *GormAdminStore) CreatePlan(ctx context.Context, plan *domain.FinancingPlan) (*domain.FinancingPlan, error) {
	m := planModelFromDomain(plan)
	m.ID = 0
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("store: CreatePlan failed to insert plan: %w", err)
	}
	created := m.toDomain()
	return &created, nil
}

func (s *GormAdminStore) UpdatePlan(ctx context.Context, plan *domain.FinancingPlan) (*domain.FinancingPlan, error) {
	m := planModelFromDomain(plan)
	m.UpdatedAt = time.Now()

	res := s.db.WithContext(ctx).
		Model(&planModel{ID: plan.ID}).
		Select("*").
		Omit("id", "created_at").
		Updates(&m)
	if res.Error != nil {
		return nil, fmt.Errorf("store: UpdatePlan failed to update plan %d: %w", plan.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrPlanNotFound
	}

	var updated planModel
	if err := s.db.WithContext(ctx).First(&updated, plan.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("store: UpdatePlan failed to reload plan %d: %w", plan.ID, err)
	}
	result := updated.toDomain()
	return &result, nil
}

func (s *GormAdminStore) DeletePlan(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&planModel{}, id)
	if res.Error != nil {
		return fmt.Errorf("store: DeletePlan failed to delete plan %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (s *GormAdminStore) LinkPlan(ctx context.Context, kind domain.AssociationKind, productID, planID int64) (*domain.PlanAssociation, error) {
	table, err := associationTable(kind)
	if err != nil {
		return nil, err
	}

	m := associationModel{ProductID: productID, PlanID: planID, Active: true}
	if err := s.db.WithContext(ctx).Table(table).Create(&m).Error; err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case pqUniqueViolation:
				return nil, ErrAssociationExists
			case pqForeignKeyViolation:
				if strings.HasSuffix(pqErr.Constraint, "_plan_fkey") {
					return nil, ErrPlanNotFound
				}
				return nil, ErrProductNotFound
			}
		}
		return nil, fmt.Errorf("store: LinkPlan failed to insert into %s: %w", table, err)
	}

	return &domain.PlanAssociation{
		ID:        m.ID,
		Kind:      kind,
		ProductID: m.ProductID,
		PlanID:    m.PlanID,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
	}, nil
}

func (s *GormAdminStore) UnlinkPlan(ctx context.Context, kind domain.AssociationKind, productID, planID int64) error {
	table, err := associationTable(kind)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Table(table).
		Where("fk_id_producto = ? AND fk_id_plan = ?", productID, planID).
		Delete(&associationModel{})
	if res.Error != nil {
		return fmt.Errorf("store: UnlinkPlan failed to delete from %s: %w", table, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAssociationNotFound
	}
	return nil
}

// SetContactPhone upserts the single settings row.
func (s *GormAdminStore) SetContactPhone(ctx context.Context, phone string) error {
	row := settingsModel{ID: 1, Phone: phone}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"telefono"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("store: SetContactPhone failed to upsert settings: %w", err)
	}
	return nil
}
