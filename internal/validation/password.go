package validation

import "unicode"

// Level is the coarse strength bucket shown next to a password input.
type Level string

const (
	Weak   Level = "Weak"
	Fair   Level = "Fair"
	Good   Level = "Good"
	Strong Level = "Strong"
)

// MinPasswordLength is the length criterion of the strength meter.
const MinPasswordLength = 8

// Strength is advisory feedback; it does not gate a step on its own.
type Strength struct {
	Score int   `json:"score"`
	Level Level `json:"level"`
}

// PasswordStrength scores one point each for length, lowercase, uppercase,
// digit and symbol.
func PasswordStrength(password string) Strength {
	var lower, upper, digit, symbol bool
	length := 0
	for _, r := range password {
		length++
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsSpace(r):
			symbol = true
		}
	}

	score := 0
	for _, ok := range []bool{length >= MinPasswordLength, lower, upper, digit, symbol} {
		if ok {
			score++
		}
	}
	return Strength{Score: score, Level: levelFor(score)}
}

func levelFor(score int) Level {
	switch {
	case score <= 1:
		return Weak
	case score == 2:
		return Fair
	case score <= 4:
		return Good
	default:
		return Strong
	}
}
