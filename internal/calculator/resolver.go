package calculator

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
)

var maxFeeRate = decimal.NewFromInt(1)

// HierarchyAccessor resolves a merchant path into its ordered ancestor
// chain, from the merchant's vendor organization up to the root. Implemented
// by the storage layer; injected so the calculator stays a pure function of
// its inputs.
type HierarchyAccessor interface {
	// AncestorChain returns the organizations on the merchant path,
	// ordered from the vendor level up to the root. It fails if the path
	// is malformed or references an unknown organization.
	AncestorChain(ctx context.Context, merchantPath string) ([]*models.Organization, error)
}

// FeeResolver returns the fee configuration for an entity and payment
// method. Implemented by the storage layer.
type FeeResolver interface {
	// Resolve returns the active fee configuration, or a
	// *FeeConfigNotFoundError if none exists.
	Resolve(ctx context.Context, entityID string, entityType models.EntityType, paymentMethod string) (*models.FeeConfig, error)
}

// BuildChain resolves the event's merchant path into the ordered chain the
// allocator consumes: root first, vendor last, with a fee configuration
// attached to every fee-taking level (everything above the vendor).
//
// Any failure is fatal for the event: an inactive entity, a chain not rooted
// at a distributor, or a missing fee configuration all abort with no
// settlements produced.
func BuildChain(ctx context.Context, hierarchy HierarchyAccessor, fees FeeResolver, event *models.TransactionEvent) ([]models.ChainLink, error) {
	orgs, err := hierarchy.AncestorChain(ctx, event.MerchantPath)
	if err != nil {
		return nil, fmt.Errorf("resolving ancestor chain: %w", err)
	}
	if len(orgs) == 0 {
		return nil, &ChainError{MerchantPath: event.MerchantPath, Reason: "empty chain"}
	}

	// Accessor returns vendor-up-to-root; the allocator walks top-down.
	chain := make([]models.ChainLink, 0, len(orgs))
	for i := len(orgs) - 1; i >= 0; i-- {
		chain = append(chain, models.ChainLink{Entity: orgs[i]})
	}

	if !chain[0].Entity.OrgType.IsMaster() {
		return nil, &ChainError{MerchantPath: event.MerchantPath,
			Reason: fmt.Sprintf("chain root is %s, not %s", chain[0].Entity.OrgType, models.EntityDistributor)}
	}
	if last := chain[len(chain)-1].Entity; last.OrgType != models.EntityVendor {
		return nil, &ChainError{MerchantPath: event.MerchantPath,
			Reason: fmt.Sprintf("chain does not end at a %s (got %s)", models.EntityVendor, last.OrgType)}
	}

	for i := range chain {
		org := chain[i].Entity
		if !org.OrgType.Valid() {
			return nil, &ChainError{MerchantPath: event.MerchantPath,
				Reason: fmt.Sprintf("unknown entity type %q for organization %s", org.OrgType, org.ID)}
		}
		if org.Status != models.EntityActive {
			return nil, &ChainError{MerchantPath: event.MerchantPath,
				Reason: fmt.Sprintf("organization %s (%s) is not ACTIVE", org.ID, org.OrgType)}
		}
		// The vendor level takes no cut; the merchant entry is the
		// residual, so no fee configuration is required there.
		if org.OrgType == models.EntityVendor {
			continue
		}
		cfg, err := fees.Resolve(ctx, org.ID, org.OrgType, event.PaymentMethod)
		if err != nil {
			return nil, err
		}
		// A rate outside [0, 1) would drive the remaining base negative
		// while still summing to the event amount.
		if cfg.FeeRate.IsNegative() || cfg.FeeRate.GreaterThanOrEqual(maxFeeRate) {
			return nil, &ChainError{MerchantPath: event.MerchantPath,
				Reason: fmt.Sprintf("fee rate %s for organization %s (%s) is outside [0, 1)", cfg.FeeRate, org.ID, org.OrgType)}
		}
		chain[i].FeeConfig = cfg
	}

	return chain, nil
}
