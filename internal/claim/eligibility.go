package claim

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/factorclaim/internal/model"
	"github.com/erazemk/factorclaim/internal/store"
)

const (
	// DaysPerMonth approximates a month for age reporting.
	DaysPerMonth = 30

	// FreshnessMonths is how many approximate months an item stays claimable
	// without force_add.
	FreshnessMonths = 15

	// FreshnessWindow is the age beyond which an item needs force_add.
	FreshnessWindow = FreshnessMonths * DaysPerMonth * 24 * time.Hour
)

// Age is the outcome of the freshness rule for one production date.
type Age struct {
	Days   int
	Months int
	IsOld  bool
}

// AgeAt applies the freshness rule to a production date. Days are whole
// elapsed days (floored); months are days/30. An item is old when it was
// produced before now minus 450 days.
func AgeAt(produced, now time.Time) Age {
	elapsed := now.Sub(produced)
	days := int(elapsed / (24 * time.Hour))
	if elapsed < 0 && elapsed%(24*time.Hour) != 0 {
		days--
	}
	return Age{
		Days:   days,
		Months: days / DaysPerMonth,
		IsOld:  produced.Before(now.Add(-FreshnessWindow)),
	}
}

// Validate checks every line without force_add against the freshness rule
// and returns one warning per stale line. Lines naming items that no
// longer exist are skipped. Nothing is written.
func Validate(ctx context.Context, db *sql.DB, lines []model.ClaimLine, now time.Time) ([]model.Warning, error) {
	var warnings []model.Warning
	for i, line := range lines {
		if line.ForceAdd {
			continue
		}

		item, err := store.GetItem(ctx, db, line.ItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}

		produced, err := model.ParseTimestamp(item.ProductionDate)
		if err != nil {
			continue
		}
		age := AgeAt(produced, now)
		if !age.IsOld {
			continue
		}

		warnings = append(warnings, model.Warning{
			LineIndex:      i,
			ItemID:         item.ID,
			ModelName:      item.ModelName,
			Batch:          item.Batch,
			ProductionDate: produced.Format(time.RFC3339),
			AgeMonths:      age.Months,
			Message: fmt.Sprintf("%s (batch %s) is %d months old, older than %d months; set force_add to claim it anyway",
				item.ModelName, item.Batch, age.Months, FreshnessMonths),
		})
	}
	return warnings, nil
}

// CheckAge reports an item's age under the same rule Validate applies.
func CheckAge(ctx context.Context, db *sql.DB, itemID model.ID, now time.Time) (*model.AgeReport, error) {
	item, err := store.GetItem(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	produced, err := model.ParseTimestamp(item.ProductionDate)
	if err != nil {
		return nil, &ValidationError{Reason: ReasonNoProductionDate, Message: "item has no production date"}
	}
	age := AgeAt(produced, now)

	message := "Item is within acceptable age range"
	if age.IsOld {
		message = fmt.Sprintf("This item is %d months old (older than %d months). Please confirm before adding to claim.",
			age.Months, FreshnessMonths)
	}

	return &model.AgeReport{
		ItemID:               item.ID,
		ModelName:            item.ModelName,
		Batch:                item.Batch,
		ProductionDate:       produced.Format(time.RFC3339),
		AgeMonths:            age.Months,
		IsOld:                age.IsOld,
		RequiresConfirmation: age.IsOld,
		Message:              message,
	}, nil
}
