package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forteleaf/bill-and-pay-sub001/internal/calculator"
	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
	"github.com/forteleaf/bill-and-pay-sub001/internal/storage"
)

// CreateOrganization inserts a hierarchy node.
func (s *SQLiteStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	if org.CreatedAt == 0 {
		org.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organizations (id, code, name, org_type, path, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		org.ID, org.Code, org.Name, org.OrgType, org.Path, org.Status, org.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert organization: %w", err)
	}
	return nil
}

// GetOrganizationByCode retrieves an organization by its unique code.
func (s *SQLiteStore) GetOrganizationByCode(ctx context.Context, code string) (*models.Organization, error) {
	org := &models.Organization{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, name, org_type, path, status, created_at
		 FROM organizations WHERE code = ?`, code,
	).Scan(&org.ID, &org.Code, &org.Name, &org.OrgType, &org.Path, &org.Status, &org.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization by code: %w", err)
	}
	return org, nil
}

// AncestorChain resolves a dot-delimited merchant path into organizations,
// ordered from the vendor level up to the root. Every prefix of the path
// must name a known organization; activity is checked by the chain builder,
// malformed or unknown paths fail here.
func (s *SQLiteStore) AncestorChain(ctx context.Context, merchantPath string) ([]*models.Organization, error) {
	segments := strings.Split(merchantPath, ".")
	if merchantPath == "" || len(segments) == 0 {
		return nil, fmt.Errorf("malformed merchant path %q", merchantPath)
	}

	var chain []*models.Organization
	for i := len(segments); i > 0; i-- {
		if segments[i-1] == "" {
			return nil, fmt.Errorf("malformed merchant path %q: empty segment", merchantPath)
		}
		prefix := strings.Join(segments[:i], ".")

		org := &models.Organization{}
		err := s.db.QueryRowContext(ctx,
			`SELECT id, code, name, org_type, path, status, created_at
			 FROM organizations WHERE path = ?`, prefix,
		).Scan(&org.ID, &org.Code, &org.Name, &org.OrgType, &org.Path, &org.Status, &org.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no organization at path %q (merchant path %q)", prefix, merchantPath)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load organization at path %q: %w", prefix, err)
		}
		chain = append(chain, org)
	}
	return chain, nil
}

// CreateFeeConfig inserts a fee configuration.
func (s *SQLiteStore) CreateFeeConfig(ctx context.Context, cfg *models.FeeConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.CreatedAt == 0 {
		cfg.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fee_configs (id, entity_id, entity_type, payment_method, fee_rate, margin_rate, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cfg.ID, cfg.EntityID, cfg.EntityType, cfg.PaymentMethod,
		cfg.FeeRate.String(), cfg.MarginRate.String(), cfg.Status, cfg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert fee config: %w", err)
	}
	return nil
}

// Resolve returns the active fee configuration for an entity and payment
// method. A missing configuration is a *calculator.FeeConfigNotFoundError,
// fatal to the event being settled.
func (s *SQLiteStore) Resolve(ctx context.Context, entityID string, entityType models.EntityType, paymentMethod string) (*models.FeeConfig, error) {
	cfg := &models.FeeConfig{}
	var feeRate, marginRate string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, entity_id, entity_type, payment_method, fee_rate, margin_rate, status, created_at
		 FROM fee_configs
		 WHERE entity_id = ? AND entity_type = ? AND payment_method = ? AND status = ?
		 ORDER BY created_at DESC LIMIT 1`,
		entityID, entityType, paymentMethod, models.EntityActive,
	).Scan(&cfg.ID, &cfg.EntityID, &cfg.EntityType, &cfg.PaymentMethod, &feeRate, &marginRate, &cfg.Status, &cfg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &calculator.FeeConfigNotFoundError{
			EntityID:      entityID,
			EntityType:    entityType,
			PaymentMethod: paymentMethod,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fee config: %w", err)
	}

	cfg.FeeRate, err = decimal.NewFromString(feeRate)
	if err != nil {
		return nil, fmt.Errorf("corrupt fee rate %q on config %s: %w", feeRate, cfg.ID, err)
	}
	cfg.MarginRate, err = decimal.NewFromString(marginRate)
	if err != nil {
		return nil, fmt.Errorf("corrupt margin rate %q on config %s: %w", marginRate, cfg.ID, err)
	}
	return cfg, nil
}
