package payout

import "github.com/shopspring/decimal"

// Format renders an effective payout, e.g. "$20 - $30 CPA + $500 Fixed".
// It re-checks the fields the type requires since it is also called on values
// that did not come from Resolve.
func Format(e Effective) (string, error) {
	switch e.Type {
	case TypeCPA:
		return formatCPA(e)
	case TypeFixed:
		return formatFixed(e)
	case TypeCPAPlusFixed:
		cpa, err := formatCPA(e)
		if err != nil {
			return "", err
		}
		fixed, err := formatFixed(e)
		if err != nil {
			return "", err
		}
		return cpa + " + " + fixed, nil
	default:
		return "", invalid("unsupported payout type %q", string(e.Type))
	}
}

func formatCPA(e Effective) (string, error) {
	if e.CPALow == nil || e.CPAHigh == nil {
		return "", invalid("%s payout requires a cpa range", e.Type)
	}
	if e.CPALow.GreaterThan(*e.CPAHigh) {
		return "", invalid("cpa low %s exceeds cpa high %s", e.CPALow.String(), e.CPAHigh.String())
	}
	if e.CPALow.Equal(*e.CPAHigh) {
		return FormatMoney(*e.CPALow) + " CPA", nil
	}
	return FormatMoney(*e.CPALow) + " - " + FormatMoney(*e.CPAHigh) + " CPA", nil
}

func formatFixed(e Effective) (string, error) {
	if e.FixedAmount == nil {
		return "", invalid("%s payout requires a fixed amount", e.Type)
	}
	return FormatMoney(*e.FixedAmount) + " Fixed", nil
}

// FormatMoney renders whole amounts without decimals ($20), amounts with cents
// at two places ($12.50) and anything finer with its exact digits ($0.125).
func FormatMoney(amount decimal.Decimal) string {
	switch {
	case amount.IsInteger():
		return "$" + amount.Truncate(0).String()
	case amount.Round(2).Equal(amount):
		return "$" + amount.StringFixed(2)
	default:
		return "$" + amount.String()
	}
}
