package calculator

import (
	"errors"
	"testing"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		eventAmount int64
		amounts     map[models.EntityType]int64
		wantErr     bool
		wantDiff    int64
	}{
		{
			name:        "balanced credit batch passes",
			eventAmount: 10000,
			amounts: map[models.EntityType]int64{
				models.EntityDistributor: 200,
				models.EntityAgency:      98,
				models.EntityDealer:      97,
				models.EntitySeller:      48,
				models.EntityVendor:      9557,
			},
		},
		{
			name:        "cancel events compare against the absolute amount",
			eventAmount: -3333,
			amounts: map[models.EntityType]int64{
				models.EntityDistributor: 69,
				models.EntityVendor:      3264,
			},
		},
		{
			name:        "shortfall is a violation",
			eventAmount: 10000,
			amounts: map[models.EntityType]int64{
				models.EntityDistributor: 200,
				models.EntityVendor:      9700,
			},
			wantErr:  true,
			wantDiff: 100,
		},
		{
			name:        "excess is a violation",
			eventAmount: 10000,
			amounts: map[models.EntityType]int64{
				models.EntityDistributor: 200,
				models.EntityVendor:      9801,
			},
			wantErr:  true,
			wantDiff: -1,
		},
		{
			name:        "off by one is not tolerated",
			eventAmount: 10000,
			amounts: map[models.EntityType]int64{
				models.EntityDistributor: 200,
				models.EntityVendor:      9799,
			},
			wantErr:  true,
			wantDiff: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &models.TransactionEvent{ID: "evt-1", Amount: tt.eventAmount}
			settlements := batchOf(tt.amounts)

			err := Validate(event, settlements)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}

			var violation *ZeroSumViolationError
			if !errors.As(err, &violation) {
				t.Fatalf("error = %v, want ZeroSumViolationError", err)
			}
			if violation.EventID != "evt-1" {
				t.Errorf("violation event = %s, want evt-1", violation.EventID)
			}
			if violation.Difference != tt.wantDiff {
				t.Errorf("violation difference = %d, want %d", violation.Difference, tt.wantDiff)
			}
		})
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	event := &models.TransactionEvent{ID: "evt-1", Amount: 300}
	settlements := batchOf(map[models.EntityType]int64{
		models.EntityDistributor: 100,
		models.EntityVendor:      200,
	})

	for i := 0; i < 3; i++ {
		if err := Validate(event, settlements); err != nil {
			t.Fatalf("run %d: Validate failed: %v", i, err)
		}
	}
	if total := models.SumAmounts(settlements); total != 300 {
		t.Errorf("validation mutated the batch: total = %d, want 300", total)
	}
}
