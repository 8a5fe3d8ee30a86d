package store

import "fmt"

// maxNameSuffix bounds the " (N)" search in UniqueProfileName.
const maxNameSuffix = 1000

// UniqueProfileName returns name if no other profile uses it, otherwise
// the first free "name (N)" starting at N = 2. The second return value
// reports whether a suffix was added.
func UniqueProfileName(s Store, name, excludingID string) (string, bool, error) {
	count, err := s.CountProfilesWithName(name, excludingID)
	if err != nil {
		return "", false, err
	}
	if count == 0 {
		return name, false, nil
	}

	for n := 2; n <= maxNameSuffix; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		count, err := s.CountProfilesWithName(candidate, excludingID)
		if err != nil {
			return "", false, err
		}
		if count == 0 {
			return candidate, true, nil
		}
	}

	return "", false, fmt.Errorf("no free name for profile %q", name)
}
