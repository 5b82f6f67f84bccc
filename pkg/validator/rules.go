package validator

import (
	"fmt"
	"net/mail"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"
)

func InList[T comparable](field string, value T, allowed []T) Rule {
	return Rule{
		Check: func() bool { return slices.Contains(allowed, value) },
		Error: ValidationError{
			Field:   field,
			Code:    "in_list",
			Message: fmt.Sprintf("must be one of: %v", allowed),
		},
	}
}

// RequiredString fails on empty or whitespace-only values.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Code: "required", Message: "field is required"},
	}
}

// MaxLenString limits the length in characters, not bytes.
func MaxLenString(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: ValidationError{
			Field:   field,
			Code:    "max_length",
			Message: fmt.Sprintf("must be at most %d characters long", max),
		},
	}
}

// ValidEmail accepts a bare address with a dotted domain.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != strings.TrimSpace(value) {
				return false
			}
			local, domain, ok := strings.Cut(addr.Address, "@")
			if !ok || local == "" {
				return false
			}
			labels := strings.Split(domain, ".")
			if len(labels) < 2 {
				return false
			}
			return !slices.Contains(labels, "")
		},
		Error: ValidationError{Field: field, Code: "email", Message: "must be a valid email address"},
	}
}

// ValidURL accepts absolute http and https URLs.
func ValidURL(field, value string) Rule {
	return Rule{
		Check: func() bool {
			u, err := url.ParseRequestURI(strings.TrimSpace(value))
			if err != nil || u.Host == "" {
				return false
			}
			return u.Scheme == "http" || u.Scheme == "https"
		},
		Error: ValidationError{Field: field, Code: "url", Message: "must be an absolute http(s) URL"},
	}
}
