// Package reference holds the static account-code catalog.
package reference

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/prisonfinance/ledgersync/internal/models"
)

//go:embed account_codes.yaml
var defaultCatalog []byte

type catalogFile struct {
	AccountCodes []models.AccountCodeLookup `yaml:"accountCodes"`
}

// Catalog answers account-code questions. It is immutable after construction.
type Catalog struct {
	byCode map[int]models.AccountCodeLookup
	codes  []int
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("reference: embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog file. An empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading account code catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing account code catalog: %w", err)
	}
	if len(file.AccountCodes) == 0 {
		return nil, fmt.Errorf("account code catalog is empty")
	}

	c := &Catalog{byCode: make(map[int]models.AccountCodeLookup, len(file.AccountCodes))}
	subAccounts := make(map[models.SubAccountType]int)
	remoteRefs := make(map[string]int)
	for _, l := range file.AccountCodes {
		if _, dup := c.byCode[l.Code]; dup {
			return nil, fmt.Errorf("account code %d listed twice", l.Code)
		}
		if !l.PostingType.Valid() {
			return nil, fmt.Errorf("account code %d: invalid posting type %q", l.Code, l.PostingType)
		}
		if l.PostingType != l.Classification.NaturalSide() {
			return nil, fmt.Errorf("account code %d: posting type %s does not match %s", l.Code, l.PostingType, l.Classification)
		}
		if l.SubAccountType != "" {
			if other, dup := subAccounts[l.SubAccountType]; dup {
				return nil, fmt.Errorf("sub-account type %s used by %d and %d", l.SubAccountType, other, l.Code)
			}
			subAccounts[l.SubAccountType] = l.Code
		}
		// Reconciliation compares each remote sub-account with exactly one local code.
		if l.RemoteSubAccount != "" {
			if other, dup := remoteRefs[l.RemoteSubAccount]; dup {
				return nil, fmt.Errorf("remote sub-account %s used by %d and %d", l.RemoteSubAccount, other, l.Code)
			}
			remoteRefs[l.RemoteSubAccount] = l.Code
		}
		c.byCode[l.Code] = l
		c.codes = append(c.codes, l.Code)
	}
	sort.Ints(c.codes)
	return c, nil
}

// Lookup returns the reference row for code.
func (c *Catalog) Lookup(code int) (models.AccountCodeLookup, error) {
	l, ok := c.byCode[code]
	if !ok {
		return models.AccountCodeLookup{}, &models.UnknownAccountCodeError{Code: code}
	}
	return l, nil
}

// SubAccountTypeFor reports the prisoner sub-account an account code maps to.
func (c *Catalog) SubAccountTypeFor(code int) (models.SubAccountType, bool) {
	l, ok := c.byCode[code]
	if !ok || l.SubAccountType == "" {
		return "", false
	}
	return l.SubAccountType, true
}

// RemoteSubAccountFor returns the external general ledger reference for a prisoner account code.
func (c *Catalog) RemoteSubAccountFor(code int) (string, bool) {
	l, ok := c.byCode[code]
	if !ok || l.RemoteSubAccount == "" {
		return "", false
	}
	return l.RemoteSubAccount, true
}

// PrisonerAccountCodes lists the codes that belong to prisoners, in ascending order.
func (c *Catalog) PrisonerAccountCodes() []int {
	var out []int
	for _, code := range c.codes {
		if c.byCode[code].SubAccountType != "" {
			out = append(out, code)
		}
	}
	return out
}

// Codes lists every known account code in ascending order.
func (c *Catalog) Codes() []int {
	return append([]int(nil), c.codes...)
}
