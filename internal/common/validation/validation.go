package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxDisplayNameLength = 100
	MaxBioLength         = 500
	MaxFirstNameLength   = 150
	MaxLastNameLength    = 150
	MaxRuleNameLength    = 100
	MaxURLLength         = 200

	MinTitleLength = 1
)

// Instagram handles: letters, digits, dots and underscores, at most 30 chars.
var instagramUsernameRegex = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)

// ValidateTitle checks a giveaway title.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}

	n := utf8.RuneCountInString(title)
	if n < MinTitleLength {
		return fmt.Errorf("title must be at least %d characters long", MinTitleLength)
	}
	if n > MaxTitleLength {
		return fmt.Errorf("title cannot exceed %d characters", MaxTitleLength)
	}
	return nil
}

// ValidateDescription allows an empty description.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("description cannot exceed %d characters", MaxDescriptionLength)
	}
	return nil
}

// NormalizeInstagramUsername trims whitespace and a leading @.
func NormalizeInstagramUsername(username string) string {
	username = strings.TrimSpace(username)
	return strings.TrimPrefix(username, "@")
}

// ValidateInstagramUsername checks a handle after normalization.
func ValidateInstagramUsername(username string) error {
	username = NormalizeInstagramUsername(username)
	if username == "" {
		return fmt.Errorf("instagram username cannot be empty")
	}
	if !instagramUsernameRegex.MatchString(username) {
		return fmt.Errorf("instagram username must contain only letters, numbers, dots and underscores, 1-30 characters")
	}
	return nil
}

// ValidateURL accepts absolute http and https URLs. Empty is allowed.
func ValidateURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > MaxURLLength {
		return fmt.Errorf("url cannot exceed %d characters", MaxURLLength)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("url must be absolute")
	}
	return nil
}

func ValidateDisplayName(name string) error {
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return fmt.Errorf("display name cannot exceed %d characters", MaxDisplayNameLength)
	}
	return nil
}

func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return fmt.Errorf("bio cannot exceed %d characters", MaxBioLength)
	}
	return nil
}

func ValidateFirstName(firstName string) error {
	if utf8.RuneCountInString(firstName) > MaxFirstNameLength {
		return fmt.Errorf("first name cannot exceed %d characters", MaxFirstNameLength)
	}
	return nil
}

func ValidateLastName(lastName string) error {
	if utf8.RuneCountInString(lastName) > MaxLastNameLength {
		return fmt.Errorf("last name cannot exceed %d characters", MaxLastNameLength)
	}
	return nil
}

// ValidateRuleName checks a custom verification rule name.
func ValidateRuleName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("rule name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxRuleNameLength {
		return fmt.Errorf("rule name cannot exceed %d characters", MaxRuleNameLength)
	}
	return nil
}

// ValidatePositiveInt checks that the value is positive.
func ValidatePositiveInt(value int64, fieldName string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive", fieldName)
	}
	return nil
}

// ValidateNonNegativeInt checks that the value is not negative.
func ValidateNonNegativeInt(value int64, fieldName string) error {
	if value < 0 {
		return fmt.Errorf("%s cannot be negative", fieldName)
	}
	return nil
}
