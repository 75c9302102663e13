package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// UsernamePattern defines the accepted username format:
// latin letters, digits and underscores, 3-32 characters
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

// emailPattern is a deliberately loose shape check; real validation happens
// the first time mail is actually sent
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	// MinUsernameLen is the minimum username length
	MinUsernameLen = 3
	// MaxUsernameLen is the maximum username length
	MaxUsernameLen = 32

	// MinPasswordLen is the minimum password length
	MinPasswordLen = 8

	// MaxNameLen is the maximum length of category and topic names
	MaxNameLen = 100

	// MaxReplyLen is the maximum reply text length
	MaxReplyLen = 200

	// MaxMessageLen is the maximum direct message length
	MaxMessageLen = 1000
)

// ValidateUsername checks that the username matches the accepted format
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}

	return nil
}

// ValidateEmail checks that the email has a plausible shape
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if !emailPattern.MatchString(email) {
		return fmt.Errorf("email is not valid")
	}

	return nil
}

// ValidatePassword checks the minimum password requirements
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	return nil
}

// ValidateName checks category and topic names
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if len(name) > MaxNameLen {
		return fmt.Errorf("name must not exceed %d characters", MaxNameLen)
	}

	return nil
}

// ValidateReplyText checks reply content
func ValidateReplyText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("reply text cannot be empty")
	}

	if len(text) > MaxReplyLen {
		return fmt.Errorf("reply text cannot be more than %d characters", MaxReplyLen)
	}

	return nil
}

// ValidateMessageText checks direct message content
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text cannot be empty")
	}

	if len(text) > MaxMessageLen {
		return fmt.Errorf("message text cannot be more than %d characters", MaxMessageLen)
	}

	return nil
}
