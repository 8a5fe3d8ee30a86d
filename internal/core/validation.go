package core

import (
	"errors"
	"strings"
	"unicode"
)

const maxProfileNameLen = 100

var (
	ErrEmptyName       = errors.New("name must not be empty")
	ErrNameTooLong     = errors.New("name is too long")
	ErrInvalidNameRune = errors.New("name contains control characters")
	ErrInvalidBranch   = errors.New("invalid branch name")
)

// IsValidBranchChar reports whether r may appear in a branch name typed
// into a dialog. The first character must be a letter or digit.
func IsValidBranchChar(r rune, isFirst bool) bool {
	alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
	if isFirst {
		return alnum
	}
	return alnum || r == '.' || r == '_' || r == '-' || r == '/'
}

// ValidateBranchInput reports whether runes may be appended to
// currentText. It rejects ".." and "//" as they are typed.
func ValidateBranchInput(runes []rune, currentText string) bool {
	base := []rune(currentText)
	var prev rune
	if len(base) > 0 {
		prev = base[len(base)-1]
	}

	for i, r := range runes {
		if !IsValidBranchChar(r, len(base)+i == 0) {
			return false
		}
		if (r == '.' || r == '/') && prev == r {
			return false
		}
		prev = r
	}
	return true
}

// ValidateBranchName checks a complete branch name.
func ValidateBranchName(name string) error {
	if name == "" || !ValidateBranchInput([]rune(name), "") {
		return ErrInvalidBranch
	}
	if strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".") || strings.HasSuffix(name, ".lock") {
		return ErrInvalidBranch
	}
	return nil
}

// NormalizeProfileName trims name and checks it is usable as a display
// name.
func NormalizeProfileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len([]rune(name)) > maxProfileNameLen {
		return "", ErrNameTooLong
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return "", ErrInvalidNameRune
	}
	return name, nil
}
