package payout

// Resolve picks the definition an influencer is paid by and computes its CPA
// range. A custom payout wins outright and its country overrides are dropped.
// Otherwise the base rate and every override form the range, so a country
// without an override still counts at the base rate.
func Resolve(base Definition, custom *CustomPayout) (Effective, error) {
	definition := base
	if custom != nil {
		definition = custom.Payout
		definition.CountryOverrides = nil
	}
	if err := definition.Validate(); err != nil {
		return Effective{}, err
	}

	effective := Effective{Type: definition.Type}
	if definition.Type.HasCPA() {
		low := *definition.CPAAmount
		high := low
		for _, override := range definition.CountryOverrides {
			if override.CPAAmount.LessThan(low) {
				low = override.CPAAmount
			}
			if override.CPAAmount.GreaterThan(high) {
				high = override.CPAAmount
			}
		}
		effective.CPALow = &low
		effective.CPAHigh = &high
	}
	if definition.Type.HasFixed() {
		effective.FixedAmount = copyAmount(definition.FixedAmount)
	}
	return effective, nil
}

// Describe runs the full pipeline: resolve, then format.
func Describe(base Definition, custom *CustomPayout) (Effective, string, error) {
	effective, err := Resolve(base, custom)
	if err != nil {
		return Effective{}, "", err
	}
	text, err := Format(effective)
	if err != nil {
		return Effective{}, "", err
	}
	return effective, text, nil
}
