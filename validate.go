package authcore

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// PasswordPolicy selects one of the two observed complexity policies.
type PasswordPolicy int

const (
	// PolicyStandard requires 8-128 characters with at least one
	// lowercase letter, one uppercase letter, and one digit.
	PolicyStandard PasswordPolicy = iota
	// PolicyStrict requires 6-32 characters and additionally demands a
	// non-alphanumeric character.
	PolicyStrict
)

// local part: alphanumeric plus . - _ ; dot-separated domain labels;
// TLD of 2-4 letters.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+@([A-Za-z0-9-]+\.)+[A-Za-z]{2,4}$`)

// Credentials is a candidate submission checked by ValidateCredentials.
type Credentials struct {
	Name     string
	Email    string
	Password string
	Roles    []Role
}

type policyBounds struct {
	min, max       int
	requireSpecial bool
}

func boundsFor(policy PasswordPolicy) policyBounds {
	if policy == PolicyStrict {
		return policyBounds{min: 6, max: 32, requireSpecial: true}
	}
	return policyBounds{min: 8, max: 128, requireSpecial: false}
}

// ValidateCredentials checks a candidate against the format rules and
// returns nil or a [ValidationError] listing every violated field. It
// never touches storage.
func ValidateCredentials(c Credentials, policy PasswordPolicy) error {
	verr := &ValidationError{}

	if strings.TrimSpace(c.Name) == "" {
		verr.add("name", "name is required")
	}

	email := NormalizeEmail(c.Email)
	if email == "" {
		verr.add("email", "email is required")
	} else if !emailPattern.MatchString(email) {
		verr.add("email", "please use a valid email address")
	}

	validatePassword(c.Password, policy, verr)

	for _, r := range c.Roles {
		if !ValidRole(r) {
			verr.add("roles", fmt.Sprintf("role %q must be one of: user, admin, editor", string(r)))
		}
	}

	if len(verr.Violations) > 0 {
		return verr
	}
	return nil
}

// ValidatePassword checks only the password rules, used by the password
// change and reset flows where name and email are already established.
func ValidatePassword(password string, policy PasswordPolicy) error {
	verr := &ValidationError{}
	validatePassword(password, policy, verr)
	if len(verr.Violations) > 0 {
		return verr
	}
	return nil
}

func validatePassword(password string, policy PasswordPolicy, verr *ValidationError) {
	b := boundsFor(policy)

	if password == "" {
		verr.add("password", "password is required")
		return
	}
	if n := len(password); n < b.min || n > b.max {
		verr.add("password", fmt.Sprintf("password must be between %d and %d characters", b.min, b.max))
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if !hasLower {
		verr.add("password", "password must include a lowercase letter")
	}
	if !hasUpper {
		verr.add("password", "password must include an uppercase letter")
	}
	if !hasDigit {
		verr.add("password", "password must include a number")
	}
	if b.requireSpecial && !hasSpecial {
		verr.add("password", "password must include a special character")
	}
}
