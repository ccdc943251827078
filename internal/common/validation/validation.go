package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 20000
	MaxSummaryLength = 1000
	MaxMessageLength = 2000
	MaxNameLength    = 64

	MinPasswordLength = 6
)

var (
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if len(title) > MaxTitleLength {
		return fmt.Errorf("title cannot exceed %d characters", MaxTitleLength)
	}
	return nil
}

func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content cannot be empty")
	}
	if len(content) > MaxContentLength {
		return fmt.Errorf("content cannot exceed %d characters", MaxContentLength)
	}
	return nil
}

func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text cannot be empty")
	}
	if len(text) > MaxMessageLength {
		return fmt.Errorf("message cannot exceed %d characters", MaxMessageLength)
	}
	return nil
}

func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("display name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("display name cannot exceed %d characters", MaxNameLength)
	}
	return nil
}

// ValidatePassword enforces the product's signup rule: at least 6 characters
// with at least one uppercase letter.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	for _, r := range password {
		if unicode.IsUpper(r) {
			return nil
		}
	}
	return fmt.Errorf("password must contain at least one uppercase letter")
}

func IsPhoneNumber(s string) bool {
	return phoneRegex.MatchString(s)
}

func IsEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// ValidateIdentifier accepts either a phone number or an email address.
func ValidateIdentifier(s string) error {
	if s == "" {
		return fmt.Errorf("phone number or email is required")
	}
	if !IsPhoneNumber(s) && !IsEmail(s) {
		return fmt.Errorf("must be a valid phone number or email address")
	}
	return nil
}

func ValidateChannelID(id string) error {
	if id == "" {
		return fmt.Errorf("channel id cannot be empty")
	}
	if strings.ContainsAny(id, " :\n\t") {
		return fmt.Errorf("channel id contains invalid characters")
	}
	return nil
}
