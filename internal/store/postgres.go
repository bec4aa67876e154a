package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrProductNotFound     = errors.New("store: product not found")
	ErrPlanNotFound        = errors.New("store: financing plan not found")
	ErrAssociationNotFound = errors.New("store: plan association not found")
	ErrAssociationExists   = errors.New("store: plan association already exists")
	ErrSettingsNotFound    = errors.New("store: contact phone not configured")
	ErrUnknownAssociation  = errors.New("store: unknown plan association kind")
)

// Rows without a category or brand are shown under these ids.
const (
	DefaultCategoryID int64 = 1
	DefaultBrandID    int64 = 1
)

var associationTables = map[domain.AssociationKind]string{
	domain.AssociationSpecific: "producto_planes",
	domain.AssociationDefault:  "producto_planes_default",
}

func associationTable(kind domain.AssociationKind) (string, error) {
	table, ok := associationTables[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAssociation, kind)
	}
	return table, nil
}

// PostgresStore implements the storefront read interfaces using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// --- CatalogStorer Implementation ---

// Effective relation ids of a product row. They match normalize: a missing or
// non-positive foreign key counts as the default id.
const (
	categoryKey = `CASE WHEN p.fk_id_categoria > 0 THEN p.fk_id_categoria ELSE 1 END`
	brandKey    = `CASE WHEN p.fk_id_marca > 0 THEN p.fk_id_marca ELSE 1 END`
)

const productSelect = `
	SELECT p.id, p.descripcion, p.name, p.descripcion_detallada, p.description, p.precio, p.stock,
		p.imagen, p.imagen_2, p.imagen_3, p.imagen_4, p.imagen_5,
		p.fk_id_categoria, p.fk_id_marca, COALESCE(p.destacado, FALSE), p.created_at, p.updated_at,
		c.descripcion, c.created_at, m.descripcion, m.created_at
	FROM productos p
	LEFT JOIN categoria c ON c.id = ` + categoryKey + `
	LEFT JOIN marcas m ON m.id = ` + brandKey

// productRow mirrors the nullable shape of a productos row joined with its relations.
type productRow struct {
	ID                  int64
	Name, LegacyName    sql.NullString
	Details, LegacyDesc sql.NullString
	Price               decimal.NullDecimal
	Stock               sql.NullInt32
	Images              [domain.MaxProductImages]sql.NullString
	CategoryID, BrandID sql.NullInt64
	Featured            bool
	CreatedAt           time.Time
	UpdatedAt           sql.NullTime
	CategoryName        sql.NullString
	CategoryCreatedAt   sql.NullTime
	BrandName           sql.NullString
	BrandCreatedAt      sql.NullTime
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(s rowScanner) (domain.Product, error) {
	var r productRow
	err := s.Scan(
		&r.ID, &r.Name, &r.LegacyName, &r.Details, &r.LegacyDesc, &r.Price, &r.Stock,
		&r.Images[0], &r.Images[1], &r.Images[2], &r.Images[3], &r.Images[4],
		&r.CategoryID, &r.BrandID, &r.Featured, &r.CreatedAt, &r.UpdatedAt,
		&r.CategoryName, &r.CategoryCreatedAt, &r.BrandName, &r.BrandCreatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	return r.normalize(), nil
}

// normalize resolves legacy field aliases and fills placeholder relations so that
// callers never have to check which columns were present.
func (r productRow) normalize() domain.Product {
	p := domain.Product{
		ID:          r.ID,
		Name:        firstNonEmpty(r.Name, r.LegacyName),
		Description: firstNonEmpty(r.Details, r.LegacyDesc),
		Price:       r.Price.Decimal,
		Stock:       r.Stock.Int32,
		Images:      make([]string, 0, domain.MaxProductImages),
		CategoryID:  DefaultCategoryID,
		BrandID:     DefaultBrandID,
		Featured:    r.Featured,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt.Time,
	}
	for _, img := range r.Images {
		if ref := strings.TrimSpace(img.String); img.Valid && ref != "" {
			p.Images = append(p.Images, ref)
		}
	}
	if r.CategoryID.Valid && r.CategoryID.Int64 > 0 {
		p.CategoryID = r.CategoryID.Int64
	}
	if r.BrandID.Valid && r.BrandID.Int64 > 0 {
		p.BrandID = r.BrandID.Int64
	}

	p.Category = domain.Category{ID: p.CategoryID, Name: fmt.Sprintf("Categoría %d", p.CategoryID)}
	if r.CategoryName.Valid {
		p.Category.Name = r.CategoryName.String
		p.Category.CreatedAt = r.CategoryCreatedAt.Time
	}
	p.Brand = domain.Brand{ID: p.BrandID, Name: fmt.Sprintf("Marca %d", p.BrandID)}
	if r.BrandName.Valid {
		p.Brand.Name = r.BrandName.String
		p.Brand.CreatedAt = r.BrandCreatedAt.Time
	}
	return p
}

func firstNonEmpty(values ...sql.NullString) string {
	for _, v := range values {
		if s := strings.TrimSpace(v.String); v.Valid && s != "" {
			return s
		}
	}
	return ""
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := productSelect + `
	WHERE p.id = $1;`

	product, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}
	return &product, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, error) {
	var queryArgs []interface{}
	var whereClauses []string
	argID := 1

	if params.CategoryID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", categoryKey, argID))
		queryArgs = append(queryArgs, *params.CategoryID)
		argID++
	}
	if params.BrandID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", brandKey, argID))
		queryArgs = append(queryArgs, *params.BrandID)
		argID++
	}
	if params.FeaturedOnly {
		whereClauses = append(whereClauses, "p.destacado = TRUE")
	}

	whereCondition := ""
	if len(whereClauses) > 0 {
		whereCondition = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Featured products lead the general listing; the featured shelf is alphabetical.
	orderBy := " ORDER BY p.destacado DESC, p.descripcion ASC, p.id ASC"
	if params.FeaturedOnly {
		orderBy = " ORDER BY p.descripcion ASC, p.id ASC"
	}

	query := productSelect + whereCondition + orderBy
	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		queryArgs = append(queryArgs, params.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, params.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, descripcion, created_at
		FROM categoria
		ORDER BY descripcion ASC, id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListCategories failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: ListCategories failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListCategories iteration error: %w", err)
	}
	return categories, nil
}

func (s *PostgresStore) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	query := `
		SELECT id, descripcion, created_at
		FROM marcas
		ORDER BY descripcion ASC, id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListBrands failed to query brands: %w", err)
	}
	defer rows.Close()

	brands := []domain.Brand{}
	for rows.Next() {
		var b domain.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: ListBrands failed to scan brand row: %w", err)
		}
		brands = append(brands, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListBrands iteration error: %w", err)
	}
	return brands, nil
}

// --- PlanStorer Implementation ---

const planColumns = `id, nombre, cuotas, COALESCE(recargo_porcentual, 0), COALESCE(recargo_fijo, 0),
		COALESCE(monto_minimo, 0), monto_maximo, activo, anticipo_minimo_fijo, anticipo_minimo, created_at, updated_at`

func scanPlan(s rowScanner) (domain.FinancingPlan, error) {
	var p domain.FinancingPlan
	var updatedAt sql.NullTime
	err := s.Scan(
		&p.ID, &p.Name, &p.Installments, &p.SurchargePercent, &p.SurchargeFixed,
		&p.MinPrice, &p.MaxPrice, &p.Active, &p.MinUpfrontFixed, &p.MinUpfrontPercent,
		&p.CreatedAt, &updatedAt,
	)
	p.UpdatedAt = updatedAt.Time
	return p, err
}

func (s *PostgresStore) FindAssociations(ctx context.Context, kind domain.AssociationKind, productID int64) ([]domain.PlanAssociation, error) {
	table, err := associationTable(kind)
	if err != nil {
		return nil, err
	}
	// table comes from the associationTables whitelist, never from input.
	query := fmt.Sprintf(`
		SELECT id, fk_id_producto, fk_id_plan, COALESCE(activo, TRUE), created_at
		FROM %s
		WHERE fk_id_producto = $1
		ORDER BY id ASC;
	`, table)

	rows, err := s.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("store: FindAssociations(%s) failed to query %s: %w", kind, table, err)
	}
	defer rows.Close()

	associations := []domain.PlanAssociation{}
	for rows.Next() {
		a := domain.PlanAssociation{Kind: kind}
		if err := rows.Scan(&a.ID, &a.ProductID, &a.PlanID, &a.Active, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: FindAssociations(%s) failed to scan row: %w", kind, err)
		}
		associations = append(associations, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: FindAssociations(%s) iteration error: %w", kind, err)
	}
	return associations, nil
}

func (s *PostgresStore) FindPlan(ctx context.Context, id int64) (*domain.FinancingPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM planes_financiacion
		WHERE id = $1;
	`
	plan, err := scanPlan(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("store: FindPlan failed to scan row: %w", err)
	}
	return &plan, nil
}

func (s *PostgresStore) FindActivePlans(ctx context.Context) ([]domain.FinancingPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM planes_financiacion
		WHERE activo = TRUE
		ORDER BY cuotas ASC, id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: FindActivePlans failed to query plans: %w", err)
	}
	defer rows.Close()

	plans := []domain.FinancingPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("store: FindActivePlans failed to scan plan row: %w", err)
		}
		plans = append(plans, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: FindActivePlans iteration error: %w", err)
	}
	return plans, nil
}

// --- SettingsStorer Implementation ---

func (s *PostgresStore) GetContactPhone(ctx context.Context) (string, error) {
	query := `SELECT telefono FROM configuracion ORDER BY id ASC LIMIT 1;`

	var phone sql.NullString
	if err := s.db.QueryRowContext(ctx, query).Scan(&phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSettingsNotFound
		}
		return "", fmt.Errorf("store: GetContactPhone failed to scan row: %w", err)
	}
	if !phone.Valid || strings.TrimSpace(phone.String) == "" {
		return "", ErrSettingsNotFound
	}
	return strings.TrimSpace(phone.String), nil
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		zap.L().Info("Closing database connection pool...")
		if err := s.db.Close(); err != nil {
			zap.L().Error("Failed to close database connection pool", zap.Error(err))
			return err
		}
		zap.L().Info("Database connection pool closed successfully.")
	}
	return nil
}
