package application

import (
	"fmt"

	domainerrors "offerhub/contexts/offer-catalog/offer-service/domain/errors"
	"offerhub/contexts/offer-catalog/offer-service/domain/payout"

	"github.com/shopspring/decimal"
)

type CountryOverrideInput struct {
	CountryCode string
	CPAAmount   decimal.Decimal
}

type PayoutInput struct {
	Type             string
	CPAAmount        *decimal.Decimal
	FixedAmount      *decimal.Decimal
	CountryOverrides []CountryOverrideInput
}

// PayoutPatch is a partial payout update. Nil fields keep the stored value;
// a non-nil CountryOverrides replaces the stored overrides wholesale.
type PayoutPatch struct {
	Type             *string
	CPAAmount        *decimal.Decimal
	FixedAmount      *decimal.Decimal
	CountryOverrides *[]CountryOverrideInput
}

func (in PayoutInput) definition() (payout.Definition, error) {
	payoutType, err := payout.ParseType(in.Type)
	if err != nil {
		return payout.Definition{}, err
	}
	return exclusiveDefinition(payoutType, in.CPAAmount, in.FixedAmount, toOverrides(in.CountryOverrides))
}

// merge applies the patch over the stored definition. Amounts the resulting
// type does not use are carried over only when the patch sets them, in which
// case write validation rejects them.
func (p PayoutPatch) merge(existing payout.Definition) (payout.Definition, error) {
	payoutType := existing.Type
	if p.Type != nil {
		parsed, err := payout.ParseType(*p.Type)
		if err != nil {
			return payout.Definition{}, err
		}
		payoutType = parsed
	}

	cpa := p.CPAAmount
	if cpa == nil && payoutType.HasCPA() {
		cpa = existing.CPAAmount
	}
	fixed := p.FixedAmount
	if fixed == nil && payoutType.HasFixed() {
		fixed = existing.FixedAmount
	}

	var overrides []payout.CountryOverride
	switch {
	case p.CountryOverrides != nil:
		overrides = toOverrides(*p.CountryOverrides)
	case payoutType.HasCPA():
		overrides = existing.CountryOverrides
	}
	return exclusiveDefinition(payoutType, cpa, fixed, overrides)
}

// customDefinition validates a payout assigned to a single influencer, which
// never carries country overrides.
func (in PayoutInput) customDefinition() (payout.Definition, error) {
	if len(in.CountryOverrides) > 0 {
		return payout.Definition{}, fmt.Errorf("%w: custom payouts cannot carry country overrides", domainerrors.ErrInvalidPayoutDefinition)
	}
	return in.definition()
}

func exclusiveDefinition(
	payoutType payout.Type,
	cpa *decimal.Decimal,
	fixed *decimal.Decimal,
	overrides []payout.CountryOverride,
) (payout.Definition, error) {
	definition, err := payout.NewDefinition(payoutType, cpa, fixed, overrides)
	if err != nil {
		return payout.Definition{}, err
	}
	if err := definition.ValidateExclusive(); err != nil {
		return payout.Definition{}, err
	}
	return definition, nil
}

func toOverrides(items []CountryOverrideInput) []payout.CountryOverride {
	if len(items) == 0 {
		return nil
	}
	overrides := make([]payout.CountryOverride, 0, len(items))
	for _, item := range items {
		overrides = append(overrides, payout.CountryOverride{
			CountryCode: item.CountryCode,
			CPAAmount:   item.CPAAmount,
		})
	}
	return overrides
}

func payoutEventData(definition payout.Definition) map[string]any {
	data := map[string]any{
		"payout_type": string(definition.Type),
	}
	if definition.CPAAmount != nil {
		data["cpa_amount"] = definition.CPAAmount.String()
	}
	if definition.FixedAmount != nil {
		data["fixed_amount"] = definition.FixedAmount.String()
	}
	overrides := make([]map[string]any, 0, len(definition.CountryOverrides))
	for _, override := range definition.CountryOverrides {
		overrides = append(overrides, map[string]any{
			"country_code": override.CountryCode,
			"cpa_amount":   override.CPAAmount.String(),
		})
	}
	data["country_overrides"] = overrides
	return data
}

func payoutHashData(in PayoutInput) map[string]any {
	data := map[string]any{
		"payout_type": in.Type,
	}
	if in.CPAAmount != nil {
		data["cpa_amount"] = in.CPAAmount.String()
	}
	if in.FixedAmount != nil {
		data["fixed_amount"] = in.FixedAmount.String()
	}
	overrides := make([]string, 0, len(in.CountryOverrides))
	for _, override := range in.CountryOverrides {
		overrides = append(overrides, override.CountryCode+"="+override.CPAAmount.String())
	}
	data["country_overrides"] = overrides
	return data
}
