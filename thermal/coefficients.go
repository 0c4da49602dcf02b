package thermal

import "sort"

// Canonical metadata keys for the five Planck calibration constants.
// Metadata sources resolve whatever tag naming their container uses to
// these exact keys before handing values to CoefficientsFromTags.
const (
	KeyPlanckR1 = "PlanckR1"
	KeyPlanckR2 = "PlanckR2"
	KeyPlanckB  = "PlanckB"
	KeyPlanckF  = "PlanckF"
	KeyPlanckO  = "PlanckO"
)

// RequiredCoefficientKeys returns the five keys that must be present
// for conversion to proceed.
func RequiredCoefficientKeys() []string {
	return []string{KeyPlanckB, KeyPlanckF, KeyPlanckO, KeyPlanckR1, KeyPlanckR2}
}

// CoefficientsFromTags isolates the five Planck coefficients from a
// tag-name to value mapping and validates them. Every key must be
// present; a *MissingCoefficientsError lists the absent keys in sorted
// order. There is no defaulting.
func CoefficientsFromTags(tags map[string]float64) (Coefficients, error) {
	var missing []string
	for _, key := range RequiredCoefficientKeys() {
		if _, ok := tags[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Coefficients{}, &MissingCoefficientsError{Missing: missing}
	}

	c := Coefficients{
		R1: tags[KeyPlanckR1],
		R2: tags[KeyPlanckR2],
		B:  tags[KeyPlanckB],
		F:  tags[KeyPlanckF],
		O:  tags[KeyPlanckO],
	}
	if err := c.Validate(); err != nil {
		return Coefficients{}, err
	}
	return c, nil
}
