package sampling

import "errors"

var (
	// ErrInvalidPopulation is returned when the universe cannot be sampled:
	// N <= 1, no zones, or no registered voters.
	ErrInvalidPopulation = errors.New("invalid population")

	// ErrInvalidParameter covers unsupported confidence levels, margins
	// outside (0, 1) and malformed apportionment input.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrMissingProfileData means neither the real nor the calibrated
	// profile carries a distribution for a required axis.
	ErrMissingProfileData = errors.New("missing profile data")
)
