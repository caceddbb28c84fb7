package resolve

import (
	"sort"

	"go-sheet-pipeline/internal/model"
)

// Resolve binds every role the hints ask for. Entity and value are always
// present in the result; other roles appear only when aliases were given.
// periodID is the period the source stands for and feeds the month-label step
// of value resolution.
func Resolve(t model.RawTable, h model.Hints, periodID string) model.ColumnRoleMap {
	m := model.ColumnRoleMap{}

	text := func(role model.Role, aliases []string) {
		if len(aliases) == 0 {
			return
		}
		col := Column(t.Headers, aliases)
		if col == "" && h.Fuzzy {
			col = Fuzzy(t.Headers, aliases)
		}
		m[role] = col
	}
	numeric := func(role model.Role, aliases []string) {
		if len(aliases) == 0 {
			return
		}
		m[role] = NumericColumn(t, aliases)
	}

	m[model.RoleEntity] = Column(t.Headers, h.EntityAliases)
	if m[model.RoleEntity] == "" && h.Fuzzy {
		m[model.RoleEntity] = Fuzzy(t.Headers, h.EntityAliases)
	}
	m[model.RoleValue] = ValueColumn(t, h, periodID)

	if len(h.QuantityAliases) > 0 {
		m[model.RoleQuantity] = QuantityColumn(t, h.QuantityAliases)
	}
	text(model.RoleDate, h.DateAliases)
	text(model.RoleUnit, h.UnitAliases)
	text(model.RoleProcess, h.ProcessAliases)
	text(model.RoleLot, h.LotAliases)
	text(model.RoleGroup, h.GroupAliases)
	text(model.RoleYear, h.YearAliases)
	text(model.RoleMonth, h.MonthAliases)
	numeric(model.RoleUnitPrice, h.UnitPriceAliases)

	names := make([]string, 0, len(h.ComponentAliases))
	for n := range h.ComponentAliases {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		numeric(model.ComponentRole(n), h.ComponentAliases[n])
	}

	// a column serves one role; the value role keeps it over a component
	if v, ok := m.Get(model.RoleValue); ok {
		for _, n := range names {
			if m[model.ComponentRole(n)] == v {
				m[model.ComponentRole(n)] = ""
			}
		}
	}
	return m
}
