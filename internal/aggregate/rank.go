package aggregate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"

	"go-sheet-pipeline/internal/coerce"
	"go-sheet-pipeline/internal/model"
)

// RankMode selects which statement lines compete in an expense ranking.
type RankMode string

const (
	// RankAggregated ranks broad categories: every non-revenue line.
	RankAggregated RankMode = "aggregated"
	// RankDetailed ranks leaf lines only, detail-looking names first.
	RankDetailed RankMode = "detailed"
)

// pctHeader recognizes "(12%)" style decoration on category headers.
var pctHeader = regexp.MustCompile(`\(\s*\d+\s*%`)

var (
	DefaultDenylist = []string{
		"faturamento bruto", "receita liquida", "custos totais", "custos operacionais",
		"lucro bruto", "lucro operacional", "ebitda", "resultado", "geracao de caixa",
		"kg fabricado", "cmv", "investimentos", "dividendos",
		"despesas adm", "despesas comercial", "despesas com logistica",
	}
	DefaultDetailTerms = []string{
		"salario", "comissao", "consultoria", "assessoria", "contabilidade", "material",
		"escritorio", "seguranca", "monitoramento", "seguros", "marketing", "campanha",
		"frete", "aluguel", "alugueis", "manutencao", "viagem", "depreciacao", "ggf",
		"agua", "esgoto", "imoveis", "veiculos", "infraestrutura", "terceirizada",
		"maquinas", "equipamentos", "uso e consumo", "servico de limpeza",
		"laboratorio", "quimico", "taxas", "licencas", "iptu",
	}
	DefaultRevenueTerms = []string{
		"receita", "faturamento", "venda", "revenda", "servico", "fabricacao",
	}
)

// RankOptions configure RankLineItems. Nil term lists take the defaults.
type RankOptions struct {
	Mode         RankMode
	N            int
	Denylist     []string
	DetailTerms  []string
	RevenueTerms []string
}

// RankLineItems orders statement lines by the magnitude of their actual
// value. Lines with no actual value never rank. The mode is the caller's
// choice and is never inferred.
func RankLineItems(items []model.LineItem, opts RankOptions) []model.RankedItem {
	if opts.N <= 0 {
		opts.N = DefaultTopN
	}
	deny := normTerms(opts.Denylist, DefaultDenylist)
	detail := normTerms(opts.DetailTerms, DefaultDetailTerms)
	revenue := normTerms(opts.RevenueTerms, DefaultRevenueTerms)

	ranked := lo.FilterMap(items, func(it model.LineItem, _ int) (model.RankedItem, bool) {
		r := model.RankedItem{LineItem: it, Magnitude: abs(it.Actual)}
		if r.Magnitude == 0 {
			return r, false
		}
		name := coerce.Lower(it.Name)
		r.Detail = anyIn(name, detail)
		if opts.Mode == RankDetailed {
			return r, !pctHeader.MatchString(name) && !anyIn(name, deny)
		}
		return r, !anyIn(name, revenue)
	})

	sort.SliceStable(ranked, func(i, j int) bool {
		if opts.Mode == RankDetailed && ranked[i].Detail != ranked[j].Detail {
			return ranked[i].Detail
		}
		return ranked[i].Magnitude > ranked[j].Magnitude
	})
	return lo.Slice(ranked, 0, opts.N)
}

func normTerms(terms, defaults []string) []string {
	if terms == nil {
		terms = defaults
	}
	return lo.Map(terms, func(t string, _ int) string { return coerce.Lower(t) })
}

func anyIn(name string, terms []string) bool {
	return lo.SomeBy(terms, func(t string) bool { return t != "" && strings.Contains(name, t) })
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
