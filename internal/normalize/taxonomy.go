package normalize

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/rtfti/ftscore/internal/model"
)

// Taxonomy maps source-specific classifiers to canonical categories.
// Lookups are case-insensitive; ledger account codes additionally fall
// back to the leading-digit chart-of-accounts convention.
type Taxonomy struct {
	Ledger  map[string]model.Category `yaml:"ledger"`
	Bank    map[string]model.Category `yaml:"bank"`
	Payroll map[string]model.Category `yaml:"payroll"`
}

// DefaultTaxonomy returns the built-in lookup tables.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Ledger: map[string]model.Category{
			"revenue":   model.CategoryRevenue,
			"sales":     model.CategoryRevenue,
			"income":    model.CategoryRevenue,
			"expense":   model.CategoryExpense,
			"purchase":  model.CategoryExpense,
			"asset":     model.CategoryAsset,
			"liability": model.CategoryLiability,
		},
		Bank: map[string]model.Category{
			"deposit":    model.CategoryDeposit,
			"credit":     model.CategoryDeposit,
			"withdrawal": model.CategoryWithdrawal,
			"debit":      model.CategoryWithdrawal,
		},
		Payroll: map[string]model.Category{
			"salary": model.CategorySalary,
			"wages":  model.CategorySalary,
			"pf":     model.CategoryPF,
			"esi":    model.CategoryESI,
		},
	}
}

// LoadTaxonomy reads a YAML override file and merges it over the
// defaults. Entries in the file win on conflict.
func LoadTaxonomy(path string) (Taxonomy, error) {
	tax := DefaultTaxonomy()

	data, err := os.ReadFile(path)
	if err != nil {
		return tax, eris.Wrapf(err, "normalize: read taxonomy %s", path)
	}

	var override Taxonomy
	if err := yaml.Unmarshal(data, &override); err != nil {
		return tax, eris.Wrapf(err, "normalize: parse taxonomy %s", path)
	}

	merge := func(dst, src map[string]model.Category) {
		for k, v := range src {
			dst[strings.ToLower(k)] = v
		}
	}
	merge(tax.Ledger, override.Ledger)
	merge(tax.Bank, override.Bank)
	merge(tax.Payroll, override.Payroll)

	return tax, nil
}

// MapLedger resolves a GL account code or name. Codes that miss the
// table fall back to the leading digit: 1 asset, 2 liability, 4
// revenue, 5-6 expense.
func (t Taxonomy) MapLedger(code string) (model.Category, bool) {
	if cat, ok := t.Ledger[strings.ToLower(strings.TrimSpace(code))]; ok {
		return cat, true
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", false
	}
	switch trimmed[0] {
	case '1':
		return model.CategoryAsset, true
	case '2':
		return model.CategoryLiability, true
	case '4':
		return model.CategoryRevenue, true
	case '5', '6':
		return model.CategoryExpense, true
	}
	return "", false
}

// MapBank resolves a bank transaction type.
func (t Taxonomy) MapBank(txnType string) (model.Category, bool) {
	cat, ok := t.Bank[strings.ToLower(strings.TrimSpace(txnType))]
	return cat, ok
}

// MapPayroll resolves a payroll entry type.
func (t Taxonomy) MapPayroll(entryType string) (model.Category, bool) {
	cat, ok := t.Payroll[strings.ToLower(strings.TrimSpace(entryType))]
	return cat, ok
}
