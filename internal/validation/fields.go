package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}$`)

// MinPhoneDigits is the shortest accepted phone number once punctuation is removed.
const MinPhoneDigits = 10

// Required fails when value is empty or whitespace only.
func Required(field, value string) Result {
	if strings.TrimSpace(value) == "" {
		return Invalid(field, MissingField, "required")
	}
	return Valid()
}

// Email checks value against local@domain.tld.
func Email(field, value string) Result {
	if !emailPattern.MatchString(strings.TrimSpace(value)) {
		return Invalid(field, InvalidFormat, "invalid email address")
	}
	return Valid()
}

// Phone accepts digits with common punctuation and at most one leading '+'.
func Phone(field, value string) Result {
	digits := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(value))
	digits = strings.TrimPrefix(digits, "+")

	if len(digits) < MinPhoneDigits {
		return Invalid(field, InvalidFormat, "invalid phone number")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return Invalid(field, InvalidFormat, "invalid phone number")
		}
	}
	return Valid()
}

// Age returns completed years between dob and now, in now's calendar.
func Age(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

// MinAge fails with Underage when the person born on dob is younger than minYears at now.
func MinAge(field string, dob, now time.Time, minYears int) Result {
	if Age(dob, now) < minYears {
		return Invalid(field, Underage, fmt.Sprintf("must be at least %d years old", minYears))
	}
	return Valid()
}

// DateOfBirth parses a YYYY-MM-DD value and applies MinAge.
func DateOfBirth(field, value string, now time.Time, minYears int) Result {
	dob, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), now.Location())
	if err != nil {
		return Invalid(field, InvalidFormat, "date must be YYYY-MM-DD")
	}
	if dob.After(now) {
		return Invalid(field, InvalidFormat, "date of birth is in the future")
	}
	return MinAge(field, dob, now, minYears)
}

// PasswordMatch fails when confirm differs from password.
func PasswordMatch(field, password, confirm string) Result {
	if password != confirm {
		return Invalid(field, PasswordMismatch, "passwords do not match")
	}
	return Valid()
}

// OneOf fails when value is not one of allowed (case-sensitive).
func OneOf(field, value string, allowed ...string) Result {
	for _, a := range allowed {
		if value == a {
			return Valid()
		}
	}
	return Invalid(field, InvalidFormat, "must be one of "+strings.Join(allowed, ", "))
}

// Accepted fails unless value is the literal "true". Used for consent checkboxes.
func Accepted(field, value string) Result {
	if value != "true" {
		return Invalid(field, MissingField, "must be accepted")
	}
	return Valid()
}

// Boolean accepts the literal flags "true" and "false".
func Boolean(field, value string) Result {
	if value != "true" && value != "false" {
		return Invalid(field, InvalidFormat, "must be true or false")
	}
	return Valid()
}

// ForField runs the eager check the UI performs when a single input changes.
// Unknown fields only get the required check.
func ForField(field, value string, now time.Time, minAge int) Result {
	if r := Required(field, value); !r.OK {
		return r
	}
	switch field {
	case "email":
		return Email(field, value)
	case "phone":
		return Phone(field, value)
	case "date_of_birth":
		return DateOfBirth(field, value, now, minAge)
	case "gender":
		return OneOf(field, value, Genders...)
	case "payment_method":
		return OneOf(field, value, PaymentMethods...)
	case "terms_accepted":
		return Boolean(field, value)
	default:
		return Valid()
	}
}

// Genders lists accepted gender values.
var Genders = []string{"male", "female", "other"}

// PaymentMethods lists accepted payment methods on the booking confirm step.
var PaymentMethods = []string{"card", "pay_at_hospital"}
