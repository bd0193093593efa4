package calculator

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
)

func approvalEvent(amount int64) *models.TransactionEvent {
	return &models.TransactionEvent{
		ID:            "evt-approval-1",
		TransactionID: "txn-1",
		EventType:     models.EventApproval,
		MerchantID:    "merchant-1",
		MerchantPath:  "dist1.agency1.dealer1.seller1.vendor1",
		PaymentMethod: "CARD",
		Amount:        amount,
		Currency:      "KRW",
	}
}

// fiveLevelChain builds the standard test hierarchy:
// DISTRIBUTOR 2%, AGENCY 1%, DEALER 1%, SELLER 0.5%, VENDOR (merchant).
func fiveLevelChain() []models.ChainLink {
	return chainWithRates("0.02", "0.01", "0.01", "0.005")
}

func chainWithRates(distributor, agency, dealer, seller string) []models.ChainLink {
	mk := func(id, code string, orgType models.EntityType, path string, rate string) models.ChainLink {
		link := models.ChainLink{
			Entity: &models.Organization{
				ID:      id,
				Code:    code,
				OrgType: orgType,
				Path:    path,
				Status:  models.EntityActive,
			},
		}
		if rate != "" {
			link.FeeConfig = &models.FeeConfig{
				ID:         "cfg-" + id,
				EntityID:   id,
				EntityType: orgType,
				FeeRate:    decimal.RequireFromString(rate),
				Status:     models.EntityActive,
			}
		}
		return link
	}
	return []models.ChainLink{
		mk("org-dist", "dist1", models.EntityDistributor, "dist1", distributor),
		mk("org-agency", "agency1", models.EntityAgency, "dist1.agency1", agency),
		mk("org-dealer", "dealer1", models.EntityDealer, "dist1.agency1.dealer1", dealer),
		mk("org-seller", "seller1", models.EntitySeller, "dist1.agency1.dealer1.seller1", seller),
		mk("org-vendor", "vendor1", models.EntityVendor, "dist1.agency1.dealer1.seller1.vendor1", ""),
	}
}

func amountsByEntityType(settlements []*models.Settlement) map[models.EntityType]int64 {
	out := make(map[models.EntityType]int64)
	for _, s := range settlements {
		out[s.EntityType] = s.Amount
	}
	return out
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name         string
		amount       int64
		chain        []models.ChainLink
		wantErr      bool
		validateFunc func(t *testing.T, settlements []*models.Settlement)
	}{
		{
			name:   "five-level cascade distributes fees top-down",
			amount: 10000,
			chain:  fiveLevelChain(),
			validateFunc: func(t *testing.T, settlements []*models.Settlement) {
				want := map[models.EntityType]int64{
					models.EntityDistributor: 200,  // floor(10000 * 0.02)
					models.EntityAgency:      98,   // floor(9800 * 0.01)
					models.EntityDealer:      97,   // floor(9702 * 0.01)
					models.EntitySeller:      48,   // floor(9605 * 0.005)
					models.EntityVendor:      9557, // residual
				}
				got := amountsByEntityType(settlements)
				if !reflect.DeepEqual(got, want) {
					t.Errorf("amounts = %v, want %v", got, want)
				}
				if total := models.SumAmounts(settlements); total != 10000 {
					t.Errorf("batch total = %d, want 10000", total)
				}
			},
		},
		{
			name:   "awkward amount still conserves every unit",
			amount: 9999,
			chain:  chainWithRates("0.033", "0.017", "0.011", "0.007"),
			validateFunc: func(t *testing.T, settlements []*models.Settlement) {
				if total := models.SumAmounts(settlements); total != 9999 {
					t.Errorf("batch total = %d, want 9999", total)
				}
			},
		},
		{
			name:   "tiny amount rounds every fee to zero",
			amount: 1,
			chain:  fiveLevelChain(),
			validateFunc: func(t *testing.T, settlements []*models.Settlement) {
				got := amountsByEntityType(settlements)
				if got[models.EntityVendor] != 1 {
					t.Errorf("merchant amount = %d, want 1", got[models.EntityVendor])
				}
				if total := models.SumAmounts(settlements); total != 1 {
					t.Errorf("batch total = %d, want 1", total)
				}
			},
		},
		{
			name:    "zero amount is rejected",
			amount:  0,
			chain:   fiveLevelChain(),
			wantErr: true,
		},
		{
			name:    "negative amount is rejected",
			amount:  -10000,
			chain:   fiveLevelChain(),
			wantErr: true,
		},
		{
			name:    "empty chain is rejected",
			amount:  10000,
			chain:   nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settlements, err := Allocate(approvalEvent(tt.amount), tt.chain)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Allocate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if len(settlements) != 0 {
					t.Errorf("expected no settlements on error, got %d", len(settlements))
				}
				return
			}
			for _, s := range settlements {
				if s.EntryType != models.EntryCredit {
					t.Errorf("entity %s entry type = %s, want CREDIT", s.EntityID, s.EntryType)
				}
				if s.Status != models.StatusPending {
					t.Errorf("entity %s status = %s, want PENDING", s.EntityID, s.Status)
				}
				if s.Amount < 0 {
					t.Errorf("entity %s amount = %d, negative magnitudes are not allowed", s.EntityID, s.Amount)
				}
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, settlements)
			}
		})
	}
}

func TestAllocateDeterministic(t *testing.T) {
	event := approvalEvent(10000)

	first, err := Allocate(event, fiveLevelChain())
	if err != nil {
		t.Fatalf("first Allocate failed: %v", err)
	}
	second, err := Allocate(event, fiveLevelChain())
	if err != nil {
		t.Fatalf("second Allocate failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different output:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestAllocateMerchantRowCarriesTotalFees(t *testing.T) {
	settlements, err := Allocate(approvalEvent(10000), fiveLevelChain())
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	merchant := settlements[len(settlements)-1]
	if merchant.EntityType != models.EntityVendor {
		t.Fatalf("last entry is %s, want merchant row", merchant.EntityType)
	}
	if merchant.FeeAmount != 443 { // 200 + 98 + 97 + 48
		t.Errorf("merchant fee amount = %d, want 443", merchant.FeeAmount)
	}
	if merchant.NetAmount != merchant.Amount {
		t.Errorf("merchant net = %d, want %d", merchant.NetAmount, merchant.Amount)
	}
}

// stub collaborators for BuildChain tests

type stubHierarchy struct {
	orgs []*models.Organization
	err  error
}

func (s *stubHierarchy) AncestorChain(_ context.Context, _ string) ([]*models.Organization, error) {
	return s.orgs, s.err
}

type stubResolver struct {
	configs map[string]*models.FeeConfig // keyed by entity ID
}

func (s *stubResolver) Resolve(_ context.Context, entityID string, entityType models.EntityType, paymentMethod string) (*models.FeeConfig, error) {
	cfg, ok := s.configs[entityID]
	if !ok {
		return nil, &FeeConfigNotFoundError{EntityID: entityID, EntityType: entityType, PaymentMethod: paymentMethod}
	}
	return cfg, nil
}

// vendorUpOrgs returns the five-level hierarchy in accessor order
// (vendor up to root).
func vendorUpOrgs() []*models.Organization {
	links := fiveLevelChain()
	orgs := make([]*models.Organization, 0, len(links))
	for i := len(links) - 1; i >= 0; i-- {
		orgs = append(orgs, links[i].Entity)
	}
	return orgs
}

func fullConfigs() map[string]*models.FeeConfig {
	configs := make(map[string]*models.FeeConfig)
	for _, link := range fiveLevelChain() {
		if link.FeeConfig != nil {
			configs[link.Entity.ID] = link.FeeConfig
		}
	}
	return configs
}

func TestBuildChain(t *testing.T) {
	ctx := context.Background()
	event := approvalEvent(10000)

	t.Run("resolves root-first chain with fee configs", func(t *testing.T) {
		chain, err := BuildChain(ctx, &stubHierarchy{orgs: vendorUpOrgs()}, &stubResolver{configs: fullConfigs()}, event)
		if err != nil {
			t.Fatalf("BuildChain failed: %v", err)
		}
		if len(chain) != 5 {
			t.Fatalf("chain length = %d, want 5", len(chain))
		}
		if chain[0].Entity.OrgType != models.EntityDistributor {
			t.Errorf("chain root = %s, want DISTRIBUTOR", chain[0].Entity.OrgType)
		}
		if chain[4].Entity.OrgType != models.EntityVendor {
			t.Errorf("chain tail = %s, want VENDOR", chain[4].Entity.OrgType)
		}
		for _, link := range chain[:4] {
			if link.FeeConfig == nil {
				t.Errorf("fee-taking level %s has no fee config", link.Entity.OrgType)
			}
		}
	})

	t.Run("missing fee config aborts the whole event", func(t *testing.T) {
		configs := fullConfigs()
		delete(configs, "org-dealer")

		chain, err := BuildChain(ctx, &stubHierarchy{orgs: vendorUpOrgs()}, &stubResolver{configs: configs}, event)
		var notFound *FeeConfigNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("error = %v, want FeeConfigNotFoundError", err)
		}
		if notFound.EntityID != "org-dealer" {
			t.Errorf("error entity = %s, want org-dealer", notFound.EntityID)
		}
		if chain != nil {
			t.Errorf("expected no chain on error, got %v", chain)
		}
	})

	t.Run("inactive entity aborts the chain", func(t *testing.T) {
		orgs := vendorUpOrgs()
		orgs[2].Status = models.EntityInactive

		_, err := BuildChain(ctx, &stubHierarchy{orgs: orgs}, &stubResolver{configs: fullConfigs()}, event)
		var chainErr *ChainError
		if !errors.As(err, &chainErr) {
			t.Fatalf("error = %v, want ChainError", err)
		}
	})

	t.Run("chain not rooted at distributor is rejected", func(t *testing.T) {
		orgs := vendorUpOrgs()
		orgs = orgs[:len(orgs)-1] // drop the distributor root

		_, err := BuildChain(ctx, &stubHierarchy{orgs: orgs}, &stubResolver{configs: fullConfigs()}, event)
		var chainErr *ChainError
		if !errors.As(err, &chainErr) {
			t.Fatalf("error = %v, want ChainError", err)
		}
	})

	t.Run("empty chain is rejected", func(t *testing.T) {
		_, err := BuildChain(ctx, &stubHierarchy{}, &stubResolver{configs: fullConfigs()}, event)
		var chainErr *ChainError
		if !errors.As(err, &chainErr) {
			t.Fatalf("error = %v, want ChainError", err)
		}
	})

	t.Run("fee rate at or above one is rejected", func(t *testing.T) {
		configs := fullConfigs()
		configs["org-agency"].FeeRate = decimal.RequireFromString("1.5")

		chain, err := BuildChain(ctx, &stubHierarchy{orgs: vendorUpOrgs()}, &stubResolver{configs: configs}, event)
		var chainErr *ChainError
		if !errors.As(err, &chainErr) {
			t.Fatalf("error = %v, want ChainError", err)
		}
		if chain != nil {
			t.Errorf("expected no chain on error, got %v", chain)
		}
	})

	t.Run("negative fee rate is rejected", func(t *testing.T) {
		configs := fullConfigs()
		configs["org-dealer"].FeeRate = decimal.RequireFromString("-0.01")

		_, err := BuildChain(ctx, &stubHierarchy{orgs: vendorUpOrgs()}, &stubResolver{configs: configs}, event)
		var chainErr *ChainError
		if !errors.As(err, &chainErr) {
			t.Fatalf("error = %v, want ChainError", err)
		}
	})
}
