package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/joao-fontenele/botica-storefront/internal/domain"
)

const (
	DefaultPageSize = 1000
	settingsRowID   = 1
)

// Repository reads the product cache and settings written by the ERP sync
// job. It implements Source.
type Repository struct {
	db       *sql.DB
	pageSize int
}

func NewRepository(db *sql.DB, pageSize int) *Repository {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Repository{db: db, pageSize: pageSize}
}

func (r *Repository) FetchCompanyConfig(ctx context.Context) (domain.CompanyConfig, error) {
	var (
		cfg                             domain.CompanyConfig
		name, logo, whatsapp, fb, insta sql.NullString
		banners                         []byte
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT company_name, logo_url, whatsapp_number, facebook_url, instagram_url, banners
		FROM settings
		WHERE id = $1
	`, settingsRowID).Scan(&name, &logo, &whatsapp, &fb, &insta, &banners)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cfg, ErrConfigNotFound
		}
		return cfg, fmt.Errorf("query settings: %w", err)
	}

	cfg.CompanyName = name.String
	cfg.LogoURL = logo.String
	cfg.WhatsAppNumber = whatsapp.String
	cfg.FacebookURL = fb.String
	cfg.InstagramURL = insta.String

	if len(banners) > 0 {
		if err := json.Unmarshal(banners, &cfg.Banners); err != nil {
			return cfg, fmt.Errorf("decode banners: %w", err)
		}
	}

	return cfg, nil
}

// FetchProducts pages through every active product by id so the result is
// never capped by a backend row limit, then orders it by name.
func (r *Repository) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	var (
		products []domain.Product
		afterID  int64
	)

	for {
		page, err := r.fetchPage(ctx, afterID)
		if err != nil {
			return nil, err
		}
		products = append(products, page...)
		if len(page) < r.pageSize {
			break
		}
		afterID = page[len(page)-1].ID
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})

	return products, nil
}

func (r *Repository) fetchPage(ctx context.Context, afterID int64) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, erp_id, name, price, qty_available, category_name, default_code,
		       description_sale, image_url, uom_name, is_generic, requires_prescription
		FROM products
		WHERE active AND id > $1
		ORDER BY id
		LIMIT $2
	`, afterID, r.pageSize)
	if err != nil {
		return nil, fmt.Errorf("query products after %d: %w", afterID, err)
	}
	defer func() { _ = rows.Close() }()

	var page []domain.Product
	for rows.Next() {
		var (
			p                               domain.Product
			erpID                           sql.NullInt64
			category, sku, desc, image, uom sql.NullString
			isGeneric, requiresPrescription sql.NullBool
			stock                           sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &erpID, &p.Name, &p.Price, &stock, &category, &sku,
			&desc, &image, &uom, &isGeneric, &requiresPrescription); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}

		p.ERPID = erpID.Int64
		p.Stock = int(stock.Int64)
		p.Category = category.String
		p.SKU = sku.String
		p.Description = desc.String
		p.ImageURL = image.String
		p.Presentation = uom.String
		// Unset flags follow the storefront's historical defaults.
		p.IsGeneric = !isGeneric.Valid || isGeneric.Bool
		if requiresPrescription.Valid {
			p.RequiresPrescription = requiresPrescription.Bool
		} else {
			p.RequiresPrescription = p.Category == PrescriptionCategory
		}

		page = append(page, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return page, nil
}

// SaveCompanyConfig writes the settings row, replacing any previous one.
func (r *Repository) SaveCompanyConfig(ctx context.Context, cfg domain.CompanyConfig) error {
	banners, err := json.Marshal(cfg.Banners)
	if err != nil {
		return fmt.Errorf("encode banners: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings (id, company_name, logo_url, whatsapp_number, facebook_url, instagram_url, banners, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			logo_url = EXCLUDED.logo_url,
			whatsapp_number = EXCLUDED.whatsapp_number,
			facebook_url = EXCLUDED.facebook_url,
			instagram_url = EXCLUDED.instagram_url,
			banners = EXCLUDED.banners,
			updated_at = NOW()
	`, settingsRowID, cfg.CompanyName, cfg.LogoURL, cfg.WhatsAppNumber,
		nullString(cfg.FacebookURL), nullString(cfg.InstagramURL), banners)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// SaveProducts upserts products by id as active rows in one transaction.
func (r *Repository) SaveProducts(ctx context.Context, products []domain.Product) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (id, erp_id, name, price, qty_available, category_name, default_code,
		                      description_sale, image_url, uom_name, is_generic, requires_prescription,
		                      active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, TRUE, NOW())
		ON CONFLICT (id) DO UPDATE SET
			erp_id = EXCLUDED.erp_id,
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			qty_available = EXCLUDED.qty_available,
			category_name = EXCLUDED.category_name,
			default_code = EXCLUDED.default_code,
			description_sale = EXCLUDED.description_sale,
			image_url = EXCLUDED.image_url,
			uom_name = EXCLUDED.uom_name,
			is_generic = EXCLUDED.is_generic,
			requires_prescription = EXCLUDED.requires_prescription,
			active = TRUE,
			updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("prepare product upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range products {
		var erpID sql.NullInt64
		if p.ERPID != 0 {
			erpID = sql.NullInt64{Int64: p.ERPID, Valid: true}
		}
		if _, err = stmt.ExecContext(ctx, p.ID, erpID, p.Name, p.Price, p.Stock,
			nullString(p.Category), nullString(p.SKU), nullString(p.Description),
			nullString(p.ImageURL), nullString(p.Presentation), p.IsGeneric, p.RequiresPrescription); err != nil {
			return fmt.Errorf("upsert product %d: %w", p.ID, err)
		}
	}

	// Explicit ids leave the serial behind; move it past the highest id.
	if _, err = tx.ExecContext(ctx, `
		SELECT setval(pg_get_serial_sequence('products', 'id'), GREATEST((SELECT MAX(id) FROM products), 1))
	`); err != nil {
		return fmt.Errorf("advance product id sequence: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit products: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
