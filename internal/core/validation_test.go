package core

import "testing"

func TestValidateBranchInput(t *testing.T) {
	tests := []struct {
		name    string
		runes   string
		current string
		want    bool
	}{
		{"simple", "main", "", true},
		{"nested", "feature/login", "", true},
		{"leading dash", "-x", "", false},
		{"leading slash", "/x", "", false},
		{"double dot", "a..b", "", false},
		{"double slash", "a//b", "", false},
		{"dot after dot in current", ".", "a.", false},
		{"space", "a b", "", false},
		{"append", "-fix", "bug", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateBranchInput([]rune(tt.runes), tt.current); got != tt.want {
				t.Errorf("ValidateBranchInput(%q, %q) = %v, want %v", tt.runes, tt.current, got, tt.want)
			}
		})
	}
}

func TestValidateBranchName(t *testing.T) {
	valid := []string{"main", "feature/x", "v1.2", "fix_bug-2"}
	for _, name := range valid {
		if err := ValidateBranchName(name); err != nil {
			t.Errorf("ValidateBranchName(%q) error = %v", name, err)
		}
	}

	invalid := []string{"", "feature/", "topic.lock", "end.", "a..b", "-x"}
	for _, name := range invalid {
		if err := ValidateBranchName(name); err != ErrInvalidBranch {
			t.Errorf("ValidateBranchName(%q) error = %v, want ErrInvalidBranch", name, err)
		}
	}
}

func TestNormalizeProfileName(t *testing.T) {
	got, err := NormalizeProfileName("  Work  ")
	if err != nil || got != "Work" {
		t.Errorf("NormalizeProfileName() = %q, %v", got, err)
	}

	if _, err := NormalizeProfileName("   "); err != ErrEmptyName {
		t.Errorf("NormalizeProfileName(blank) error = %v, want ErrEmptyName", err)
	}
	if _, err := NormalizeProfileName("a\tb"); err != ErrInvalidNameRune {
		t.Errorf("NormalizeProfileName(tab) error = %v, want ErrInvalidNameRune", err)
	}

	long := make([]rune, maxProfileNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	if _, err := NormalizeProfileName(string(long)); err != ErrNameTooLong {
		t.Errorf("NormalizeProfileName(long) error = %v, want ErrNameTooLong", err)
	}
}
