// Package catalog defines the closed set of credential types the engine
// understands. Each type carries its scoring data (family, weight, validity and
// decay) so adding a type is a catalog edit rather than an aggregation change.
package catalog

import (
	"fmt"
	"sort"
	"time"
)

// Type identifies a credential kind.
type Type string

const (
	BankBalanceHigh    Type = "BANK_BALANCE_HIGH"
	BankBalanceMedium  Type = "BANK_BALANCE_MEDIUM"
	BankBalanceLow     Type = "BANK_BALANCE_LOW"
	BankBalanceMinimal Type = "BANK_BALANCE_MINIMAL"
	CexHistory         Type = "CEX_HISTORY"
	Employment         Type = "EMPLOYMENT"
)

func (t Type) String() string { return string(t) }

// Family groups mutually exclusive tiers. At most one credential per family
// contributes to a score.
type Family string

const (
	FamilyBankBalance Family = "bank_balance"
	FamilyCexHistory  Family = "cex_history"
	FamilyEmployment  Family = "employment"
)

const day = 24 * time.Hour

// Entry is the catalog data for one credential type.
type Entry struct {
	Type     Type
	Family   Family
	Weight   int
	Validity time.Duration
	Decay    Decay
}

// Catalog is an immutable lookup table of entries.
type Catalog struct {
	entries map[Type]Entry
}

// New builds a catalog, rejecting entries that would break scoring invariants.
func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[Type]Entry, len(entries))}
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.entries[e.Type]; dup {
			return nil, fmt.Errorf("catalog: duplicate type %s", e.Type)
		}
		c.entries[e.Type] = e
	}
	return c, nil
}

// MustNew is New for package-level catalogs; it panics on invalid entries.
func MustNew(entries ...Entry) *Catalog {
	c, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultCatalog = MustNew(
	Entry{Type: BankBalanceHigh, Family: FamilyBankBalance, Weight: 150, Validity: 90 * day, Decay: LinearToExpiry()},
	Entry{Type: BankBalanceMedium, Family: FamilyBankBalance, Weight: 120, Validity: 90 * day, Decay: LinearToExpiry()},
	Entry{Type: BankBalanceLow, Family: FamilyBankBalance, Weight: 80, Validity: 90 * day, Decay: LinearToExpiry()},
	Entry{Type: BankBalanceMinimal, Family: FamilyBankBalance, Weight: 40, Validity: 90 * day, Decay: LinearToExpiry()},
	Entry{Type: CexHistory, Family: FamilyCexHistory, Weight: 100, Validity: 180 * day, Decay: LinearOver(120 * day)},
	Entry{Type: Employment, Family: FamilyEmployment, Weight: 100, Validity: 365 * day, Decay: NoDecay()},
)

// Default returns the production catalog.
func Default() *Catalog { return defaultCatalog }

// Lookup returns the entry for t.
func (c *Catalog) Lookup(t Type) (Entry, bool) {
	e, ok := c.entries[t]
	return e, ok
}

// Contains reports whether t is a registered type.
func (c *Catalog) Contains(t Type) bool {
	_, ok := c.entries[t]
	return ok
}

// Entries returns all entries ordered by type name.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

func (e Entry) validate() error {
	if e.Type == "" {
		return fmt.Errorf("catalog: empty type")
	}
	if e.Family == "" {
		return fmt.Errorf("catalog: %s has no family", e.Type)
	}
	if e.Weight <= 0 {
		return fmt.Errorf("catalog: %s weight must be positive", e.Type)
	}
	if e.Validity <= 0 {
		return fmt.Errorf("catalog: %s validity must be positive", e.Type)
	}
	if e.Decay.Horizon < 0 {
		return fmt.Errorf("catalog: %s decay horizon must not be negative", e.Type)
	}
	return nil
}
