package form

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"unicode/utf8"
)

// Rule is a named check on a single field value.  Check returns the message
// (without the field label) when the value is invalid and the empty string
// otherwise.
type Rule struct {
	Name  string
	Check func(value string) string
}

// MinLength requires at least n characters.
func MinLength(n int) Rule {
	return Rule{
		Name: "minlength",
		Check: func(v string) string {
			if utf8.RuneCountInString(v) < n {
				return fmt.Sprintf("must be at least %d characters", n)
			}
			return ""
		},
	}
}

// MaxLength allows at most n characters.
func MaxLength(n int) Rule {
	return Rule{
		Name: "maxlength",
		Check: func(v string) string {
			if utf8.RuneCountInString(v) > n {
				return fmt.Sprintf("must be at most %d characters", n)
			}
			return ""
		},
	}
}

// Pattern requires the whole value to match expr.  It panics if expr does not
// compile.
func Pattern(expr, msg string) Rule {
	re := regexp.MustCompile("^(?:" + expr + ")$")
	return Rule{
		Name: "pattern",
		Check: func(v string) string {
			if !re.MatchString(v) {
				return msg
			}
			return ""
		},
	}
}

// Email requires a single bare address.
func Email() Rule {
	return Rule{
		Name: "email",
		Check: func(v string) string {
			addr, err := mail.ParseAddress(v)
			if err != nil || addr.Address != v {
				return "is not a valid email address"
			}
			return ""
		},
	}
}

// Integer requires a whole number in [min, max].
func Integer(min, max int) Rule {
	return Rule{
		Name: "integer",
		Check: func(v string) string {
			n, err := strconv.Atoi(v)
			if err != nil {
				return "must be a whole number"
			}
			if n < min || n > max {
				return fmt.Sprintf("must be between %d and %d", min, max)
			}
			return ""
		},
	}
}

// OneOf requires the value to be one of vals.
func OneOf(vals ...string) Rule {
	return Rule{
		Name: "oneof",
		Check: func(v string) string {
			for _, ok := range vals {
				if v == ok {
					return ""
				}
			}
			return "has an invalid value"
		},
	}
}
