package normalize

import "strings"

// Column identifies a field of the event table.
type Column int

const (
	ColDate Column = iota
	ColItem
	ColCategory
	ColQty
	ColUnit
	ColUnitPrice
	ColTotalCost
	ColStatus
	ColNotes
)

// Headers is the canonical header row of the event table, in column order.
var Headers = []string{
	"日期 (Date)",
	"食材名称 (Item Name)",
	"分类 (Category)",
	"数量 (Qty)",
	"单位 (Unit)",
	"单价 (Unit Price)",
	"总价 (Total Cost)",
	"状态 (Status)",
	"备注 (Notes)",
}

var columnAliases = map[Column][]string{
	ColDate:      {"日期", "date", "day"},
	ColItem:      {"食材名称", "物品名", "物品名称", "物品", "item", "item name", "name"},
	ColCategory:  {"分类", "类别", "类型", "category"},
	ColQty:       {"数量", "qty", "quantity"},
	ColUnit:      {"单位", "unit"},
	ColUnitPrice: {"单价", "unit price", "price"},
	ColTotalCost: {"总价", "total", "total cost", "cost"},
	ColStatus:    {"状态", "status", "kind"},
	ColNotes:     {"备注", "notes", "note", "remark"},
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "", "(", "", ")", "", "（", "", "）", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(strings.TrimPrefix(name, "\ufeff")))
	return columnNameSanitizer.Replace(name)
}

var aliasLookup = buildAliasLookup()

func buildAliasLookup() map[string]Column {
	lookup := make(map[string]Column)
	for col, aliases := range columnAliases {
		lookup[normalizeColumnName(Headers[col])] = col
		for _, a := range aliases {
			lookup[normalizeColumnName(a)] = col
		}
	}
	return lookup
}

// ColumnIndex maps each known column to its position in header. A canonical
// header wins over an alias; otherwise the first alias is used.
func ColumnIndex(header []string) map[Column]int {
	idx := make(map[Column]int)
	canonical := make(map[Column]bool)
	for i, h := range header {
		name := normalizeColumnName(h)
		col, ok := aliasLookup[name]
		if !ok || canonical[col] {
			continue
		}
		if name == normalizeColumnName(Headers[col]) {
			canonical[col] = true
			idx[col] = i
			continue
		}
		if _, seen := idx[col]; !seen {
			idx[col] = i
		}
	}
	return idx
}
