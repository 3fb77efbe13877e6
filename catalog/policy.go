package catalog

import "fmt"

// EnrollmentPolicy decides how far duplicate signups are checked.
type EnrollmentPolicy string

const (
	// PolicyPerActivity rejects a signup only if the email is already on that activity.
	PolicyPerActivity EnrollmentPolicy = "per_activity"
	// PolicyGlobal rejects a signup if the email is on any activity.
	PolicyGlobal EnrollmentPolicy = "global"
)

// ParsePolicy converts a config value to an EnrollmentPolicy.
// An empty string selects PolicyPerActivity.
func ParsePolicy(s string) (EnrollmentPolicy, error) {
	switch EnrollmentPolicy(s) {
	case "", PolicyPerActivity:
		return PolicyPerActivity, nil
	case PolicyGlobal:
		return PolicyGlobal, nil
	default:
		return "", fmt.Errorf("unknown enrollment policy %q (want %s or %s)", s, PolicyPerActivity, PolicyGlobal)
	}
}

func (p EnrollmentPolicy) String() string {
	return string(p)
}
