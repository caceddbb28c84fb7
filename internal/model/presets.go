package model

import "sort"

var presets = map[string]Hints{
	// weekly product cost exports with a pivot block to the right
	"product-cost": {
		EntityAliases: []string{
			"Produto", "Item", "Item/Produto", "Código Produto", "Codigo Produto",
			"Descricao Produto", "Descrição", "Descrição do Produto",
		},
		ValueAliases:     []string{"Custo Total", "Total Custo", "CustoTotal", "Custo PA", "CustoPA", "Total"},
		DateAliases:      []string{"Dt. Ent/Sai", "Dt Ent/Sai", "Dt. Neg.", "Dt Neg", "Data", "Dt", "Emissão", "Data Produção"},
		QuantityAliases:  []string{"Qtd Produzida", "Quantidade", "Qtd", "Qtde", "Qtd.", "Qtd Produção", "Quantidade Produzida"},
		UnitAliases:      []string{"Unidade", "UN", "UM"},
		LotAliases:       []string{"Lote"},
		GroupAliases:     []string{"Linha", "Centro", "Centro de Trabalho", "Departamento", "Célula"},
		UnitPriceAliases: []string{"Custo Unitário", "Custo Unit", "Unitário", "CU"},
		ComponentAliases: map[string][]string{
			"mp":     {"Custo Matéria-Prima", "Custo MP", "MP", "Matéria Prima"},
			"emb":    {"Custo Embalagem", "Custo Emb", "Embalagem"},
			"mo":     {"Mão de Obra", "Custo MO", "MO"},
			"ovh":    {"Overhead", "OVH", "CIF", "Custo Fixo", "Custos Indiretos"},
			"outros": {"Outros", "Outros Custos", "Custo Outros", "Despesas", "Adicionais"},
		},
		EntityFragments: []string{`descri[cç][aã]o.*produto`},
		LooseValue:      []string{`custo\s*unit`, `unit[aá]rio`},
		StopColumns:     []string{`custo\s*unit`, `unit[aá]rio`, `^\s*custo\s*pa\s*$`},
		ProbeLimit:      150,
	},
	// monthly production quantity exports keyed by lot code
	"production-qty": {
		EntityAliases:   []string{"Descrição", "Descricao", "Produto"},
		QuantityAliases: []string{"Quantidade", "Qtd"},
		UnitAliases:     []string{"Unidade", "Unid", "UM"},
		ProcessAliases:  []string{"Processo"},
		LotAliases:      []string{"Lote"},
		EntityFragments: []string{`descri`},
		LooseValue:      []string{`quant`, `qtd`},
		ProbeLimit:      30,
	},
	// weekly salesperson ranking; value column varies per export
	"seller-ranking": {
		EntityAliases:   []string{"Vendedor", "Vendedores"},
		EntityFragments: []string{`vendedor`},
		ProbeLimit:      30,
	},
	// billed amounts per client
	"client-billing": {
		EntityAliases:   []string{"Cliente", "Razão Social", "Nome Cliente", "Parceiro"},
		ValueAliases:    []string{"Valor Faturado", "Faturado", "Valor Total", "Valor", "Total"},
		DateAliases:     []string{"Dt. Neg.", "Dt Neg", "Data", "Emissão"},
		EntityFragments: []string{`cliente`, `parceiro`},
		LooseValue:      []string{`valor`, `fatur`},
		ProbeLimit:      150,
	},
}

// Preset returns a copy of a named hint preset.
func Preset(name string) (Hints, bool) {
	h, ok := presets[name]
	if !ok {
		return Hints{}, false
	}
	return h.clone(), true
}

// PresetNames lists the built-in presets in lexical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Merge overlays non-empty fields of o onto h.
func (h Hints) Merge(o Hints) Hints {
	out := h.clone()
	pick := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = append([]string(nil), src...)
		}
	}
	pick(&out.EntityAliases, o.EntityAliases)
	pick(&out.ValueAliases, o.ValueAliases)
	pick(&out.DateAliases, o.DateAliases)
	pick(&out.QuantityAliases, o.QuantityAliases)
	pick(&out.UnitAliases, o.UnitAliases)
	pick(&out.ProcessAliases, o.ProcessAliases)
	pick(&out.LotAliases, o.LotAliases)
	pick(&out.GroupAliases, o.GroupAliases)
	pick(&out.UnitPriceAliases, o.UnitPriceAliases)
	pick(&out.YearAliases, o.YearAliases)
	pick(&out.MonthAliases, o.MonthAliases)
	pick(&out.ForcedValueColumn, o.ForcedValueColumn)
	pick(&out.EntityFragments, o.EntityFragments)
	pick(&out.LooseValue, o.LooseValue)
	pick(&out.StopColumns, o.StopColumns)
	if len(o.ComponentAliases) > 0 {
		out.ComponentAliases = make(map[string][]string, len(o.ComponentAliases))
		for k, v := range o.ComponentAliases {
			out.ComponentAliases[k] = append([]string(nil), v...)
		}
	}
	if o.PreferMonthLabel != "" {
		out.PreferMonthLabel = o.PreferMonthLabel
	}
	if !o.DateRange.IsZero() {
		dr := *o.DateRange
		out.DateRange = &dr
	}
	if o.ProbeLimit > 0 {
		out.ProbeLimit = o.ProbeLimit
	}
	if o.Sheet != "" {
		out.Sheet = o.Sheet
	}
	out.Fuzzy = out.Fuzzy || o.Fuzzy
	return out
}

func (h Hints) clone() Hints {
	c := h
	cp := func(s []string) []string {
		if s == nil {
			return nil
		}
		return append([]string(nil), s...)
	}
	c.EntityAliases = cp(h.EntityAliases)
	c.ValueAliases = cp(h.ValueAliases)
	c.DateAliases = cp(h.DateAliases)
	c.QuantityAliases = cp(h.QuantityAliases)
	c.UnitAliases = cp(h.UnitAliases)
	c.ProcessAliases = cp(h.ProcessAliases)
	c.LotAliases = cp(h.LotAliases)
	c.GroupAliases = cp(h.GroupAliases)
	c.UnitPriceAliases = cp(h.UnitPriceAliases)
	c.YearAliases = cp(h.YearAliases)
	c.MonthAliases = cp(h.MonthAliases)
	c.ForcedValueColumn = cp(h.ForcedValueColumn)
	c.EntityFragments = cp(h.EntityFragments)
	c.LooseValue = cp(h.LooseValue)
	c.StopColumns = cp(h.StopColumns)
	if h.ComponentAliases != nil {
		c.ComponentAliases = make(map[string][]string, len(h.ComponentAliases))
		for k, v := range h.ComponentAliases {
			c.ComponentAliases[k] = cp(v)
		}
	}
	if h.DateRange != nil {
		dr := *h.DateRange
		c.DateRange = &dr
	}
	return c
}
