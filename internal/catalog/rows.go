package catalog

import (
	"strings"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
)

// WorksheetNames are the sheet titles tried, in order, when the catalog is
// kept in the spreadsheet.
var WorksheetNames = []string{"库存产品", "Content_tracker", "物品清单"}

var (
	nameAliases     = []string{"物品名", "物品名称", "物品", "物品名称 (Item)", "食材名称", "item", "name"}
	categoryAliases = []string{"类型", "类别", "分类", "category"}
	unitAliases     = []string{"单位", "unit"}
	notesAliases    = []string{"备注", "notes"}
	trackingAliases = []string{"追踪方式", "tracking"}
)

// FromRows builds a catalog from a worksheet's header and rows.
func FromRows(header []string, rows [][]string) *Catalog {
	find := func(aliases []string) int {
		for _, a := range aliases {
			for i, h := range header {
				if strings.EqualFold(strings.TrimSpace(h), a) {
					return i
				}
			}
		}
		return -1
	}

	iName := find(nameAliases)
	if iName < 0 {
		return New(nil)
	}
	iCategory, iUnit, iNotes, iTracking := find(categoryAliases), find(unitAliases), find(notesAliases), find(trackingAliases)

	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	items := make([]domain.CatalogItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.CatalogItem{
			Name:     cell(row, iName),
			Category: cell(row, iCategory),
			Unit:     cell(row, iUnit),
			Notes:    cell(row, iNotes),
			Tracking: domain.Tracking(cell(row, iTracking)),
		})
	}
	return New(items)
}
