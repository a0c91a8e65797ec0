package forecast

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var recordValidate = newRecordValidator()

func newRecordValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("eventkind", func(fl validator.FieldLevel) bool {
		kind, ok := fl.Field().Interface().(domain.EventKind)
		return ok && kind.Valid()
	})
	return v
}

// RowError describes a record that was dropped while building ledgers.
type RowError struct {
	Index  int    `json:"index"`
	Item   string `json:"item,omitempty"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	if e.Item != "" {
		return fmt.Sprintf("row %d (%s): %s %s", e.Index, e.Item, e.Field, e.Reason)
	}
	return fmt.Sprintf("row %d: %s %s", e.Index, e.Field, e.Reason)
}

// ValidateRecord checks the fields every event needs. The returned error is
// a RowError carrying the first failing field.
func ValidateRecord(index int, r domain.Record) error {
	r.Item = strings.TrimSpace(r.Item)
	if err := recordValidate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return RowError{Index: index, Item: r.Item, Field: verrs[0].Field(), Reason: verrs[0].Tag()}
		}
		return RowError{Index: index, Item: r.Item, Field: "record", Reason: err.Error()}
	}
	if math.IsInf(*r.Quantity, 0) {
		return RowError{Index: index, Item: r.Item, Field: "quantity", Reason: "finite"}
	}
	return nil
}

// BuildLedgers groups records by item and orders each group by date, keeping
// input order for events on the same date. Records that fail validation are
// dropped and reported; they never affect other rows.
func BuildLedgers(records []domain.Record) (map[string]Ledger, []RowError) {
	ledgers := make(map[string]Ledger)
	var dropped []RowError

	for i, r := range records {
		if err := ValidateRecord(i, r); err != nil {
			var rowErr RowError
			if errors.As(err, &rowErr) {
				dropped = append(dropped, rowErr)
			}
			continue
		}

		item := strings.TrimSpace(r.Item)
		ledgers[item] = append(ledgers[item], newEvent(i, item, r))
	}

	for item, l := range ledgers {
		sort.SliceStable(l, func(a, b int) bool {
			if !l[a].Date.Equal(l[b].Date) {
				return l[a].Date.Before(l[b].Date)
			}
			return l[a].Sequence < l[b].Sequence
		})
		ledgers[item] = l
	}

	return ledgers, dropped
}

func newEvent(seq int, item string, r domain.Record) Event {
	ev := Event{
		Item:     item,
		Date:     dateOnly(r.Date),
		Kind:     r.Kind,
		Quantity: *r.Quantity,
		Unit:     strings.TrimSpace(r.Unit),
		Category: strings.TrimSpace(r.Category),
		Notes:    r.Notes,
		Sequence: seq,
	}

	if ev.IsPurchase() {
		ev.UnitPrice = r.UnitPrice
		ev.TotalCost = r.TotalCost
		if ev.TotalCost == nil && ev.UnitPrice != nil {
			total := ev.UnitPrice.Mul(decimal.NewFromFloat(ev.Quantity))
			ev.TotalCost = &total
		}
	}

	return ev
}
