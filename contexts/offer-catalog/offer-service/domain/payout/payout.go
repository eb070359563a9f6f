// Package payout resolves the payout an influencer sees for an offer and
// renders it as a display string. Everything here is a pure function of its
// inputs: no I/O, no shared state, safe for concurrent use.
package payout

import (
	"fmt"
	"strings"

	domainerrors "offerhub/contexts/offer-catalog/offer-service/domain/errors"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeCPA          Type = "CPA"
	TypeFixed        Type = "FIXED"
	TypeCPAPlusFixed Type = "CPA_PLUS_FIXED"

	// legacyCPAPlusFixed is the value older clients and rows still carry.
	legacyCPAPlusFixed = "CPA_FIXED"

	// AmountScale is the number of decimal places an amount may carry on
	// write. Storage columns are numeric(12,4).
	AmountScale = 4
)

// maxAmount is the first value a numeric(12,4) column cannot hold.
var maxAmount = decimal.New(1, 12-AmountScale)

// ParseType accepts the canonical names case-insensitively plus the legacy
// CPA_FIXED spelling.
func ParseType(raw string) (Type, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == legacyCPAPlusFixed {
		return TypeCPAPlusFixed, nil
	}
	t := Type(value)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unsupported payout type %q", domainerrors.ErrInvalidPayoutDefinition, raw)
	}
	return t, nil
}

func (t Type) IsValid() bool {
	switch t {
	case TypeCPA, TypeFixed, TypeCPAPlusFixed:
		return true
	default:
		return false
	}
}

// HasCPA reports whether the type pays per conversion.
func (t Type) HasCPA() bool {
	return t == TypeCPA || t == TypeCPAPlusFixed
}

// HasFixed reports whether the type carries a flat amount.
func (t Type) HasFixed() bool {
	return t == TypeFixed || t == TypeCPAPlusFixed
}

// Label is the short name shown next to an influencer-facing payout.
func (t Type) Label() string {
	switch t {
	case TypeCPA:
		return "CPA"
	case TypeFixed:
		return "Fixed"
	case TypeCPAPlusFixed:
		return "CPA + Fixed"
	default:
		return string(t)
	}
}

type CountryOverride struct {
	CountryCode string
	CPAAmount   decimal.Decimal
}

// Definition is a payout as configured on an offer or assigned to a single
// influencer. Amounts are nil when the type does not use them.
type Definition struct {
	Type             Type
	CPAAmount        *decimal.Decimal
	FixedAmount      *decimal.Decimal
	CountryOverrides []CountryOverride
}

// CustomPayout replaces an offer's base payout for exactly one influencer.
// Country overrides inside Payout are never applied.
type CustomPayout struct {
	InfluencerID string
	Payout       Definition
}

// Effective is the resolved payout handed to Format. CPALow equals CPAHigh
// when no country override widened the range.
type Effective struct {
	Type        Type
	CPALow      *decimal.Decimal
	CPAHigh     *decimal.Decimal
	FixedAmount *decimal.Decimal
}

// NewDefinition builds a validated Definition. Country codes are normalized to
// upper case and the overrides slice is copied.
func NewDefinition(
	payoutType Type,
	cpaAmount *decimal.Decimal,
	fixedAmount *decimal.Decimal,
	overrides []CountryOverride,
) (Definition, error) {
	definition := Definition{
		Type:             payoutType,
		CPAAmount:        copyAmount(cpaAmount),
		FixedAmount:      copyAmount(fixedAmount),
		CountryOverrides: normalizeOverrides(overrides),
	}
	if err := definition.Validate(); err != nil {
		return Definition{}, err
	}
	return definition, nil
}

// Validate checks the amount-presence invariants for the declared type and the
// shape of the country overrides.
func (d Definition) Validate() error {
	if !d.Type.IsValid() {
		return invalid("unsupported payout type %q", string(d.Type))
	}
	if d.Type.HasCPA() && !isPositive(d.CPAAmount) {
		return invalid("%s payout requires a positive cpa amount", d.Type)
	}
	if d.Type.HasFixed() && !isPositive(d.FixedAmount) {
		return invalid("%s payout requires a positive fixed amount", d.Type)
	}
	if d.Type == TypeFixed && len(d.CountryOverrides) > 0 {
		return invalid("FIXED payout cannot carry country overrides")
	}

	seen := make(map[string]struct{}, len(d.CountryOverrides))
	for _, override := range d.CountryOverrides {
		code := strings.ToUpper(strings.TrimSpace(override.CountryCode))
		if !isCountryCode(code) {
			return invalid("country code %q must be two letters", override.CountryCode)
		}
		if !override.CPAAmount.IsPositive() {
			return invalid("country override %s requires a positive cpa amount", code)
		}
		if _, dup := seen[code]; dup {
			return invalid("duplicate country override %s", code)
		}
		seen[code] = struct{}{}
	}
	return nil
}

// ValidateExclusive additionally rejects amounts the type does not use and
// amounts storage cannot hold exactly. Write paths apply it.
func (d Definition) ValidateExclusive() error {
	if err := d.Validate(); err != nil {
		return err
	}
	if !d.Type.HasCPA() && d.CPAAmount != nil {
		return invalid("%s payout must not carry a cpa amount", d.Type)
	}
	if !d.Type.HasFixed() && d.FixedAmount != nil {
		return invalid("%s payout must not carry a fixed amount", d.Type)
	}
	if d.CPAAmount != nil {
		if err := checkStorable("cpa amount", *d.CPAAmount); err != nil {
			return err
		}
	}
	if d.FixedAmount != nil {
		if err := checkStorable("fixed amount", *d.FixedAmount); err != nil {
			return err
		}
	}
	for _, override := range d.CountryOverrides {
		if err := checkStorable("country override "+override.CountryCode+" cpa amount", override.CPAAmount); err != nil {
			return err
		}
	}
	return nil
}

// checkStorable rejects amounts that storage would round or overflow.
func checkStorable(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return invalid("%s %s has more than %d decimal places", field, amount.String(), AmountScale)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return invalid("%s %s must be below %s", field, amount.String(), maxAmount.String())
	}
	return nil
}

// Clone returns a deep copy so callers can hand a Definition across layers
// without sharing the overrides slice or amount pointers.
func (d Definition) Clone() Definition {
	return Definition{
		Type:             d.Type,
		CPAAmount:        copyAmount(d.CPAAmount),
		FixedAmount:      copyAmount(d.FixedAmount),
		CountryOverrides: normalizeOverrides(d.CountryOverrides),
	}
}

// HasRange reports whether country overrides widened the CPA into a range.
func (e Effective) HasRange() bool {
	return e.CPALow != nil && e.CPAHigh != nil && !e.CPALow.Equal(*e.CPAHigh)
}

// Bounds returns the lowest and highest amount an influencer can earn per
// action, fixed component included.
func (e Effective) Bounds() (decimal.Decimal, decimal.Decimal) {
	low := decimal.Zero
	high := decimal.Zero
	if e.Type.HasCPA() && e.CPALow != nil && e.CPAHigh != nil {
		low = *e.CPALow
		high = *e.CPAHigh
	}
	if e.Type.HasFixed() && e.FixedAmount != nil {
		low = low.Add(*e.FixedAmount)
		high = high.Add(*e.FixedAmount)
	}
	return low, high
}

// Amount is a small helper for building optional amounts.
func Amount(value decimal.Decimal) *decimal.Decimal {
	return &value
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domainerrors.ErrInvalidPayoutDefinition}, args...)...)
}

func isPositive(amount *decimal.Decimal) bool {
	return amount != nil && amount.IsPositive()
}

func isCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

func copyAmount(amount *decimal.Decimal) *decimal.Decimal {
	if amount == nil {
		return nil
	}
	value := *amount
	return &value
}

func normalizeOverrides(overrides []CountryOverride) []CountryOverride {
	if len(overrides) == 0 {
		return nil
	}
	items := make([]CountryOverride, 0, len(overrides))
	for _, override := range overrides {
		items = append(items, CountryOverride{
			CountryCode: strings.ToUpper(strings.TrimSpace(override.CountryCode)),
			CPAAmount:   override.CPAAmount,
		})
	}
	return items
}
