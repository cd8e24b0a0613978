package filter

import (
	"strings"

	"what_bot/internal/model"
)

// ValidateMembers checks that every name belongs to a non-bot member of the
// roster. Names match display names case-insensitively. The returned slice
// holds the roster spelling of each name, in request order, without repeats.
func ValidateMembers(names []string, roster []model.Member) ([]string, error) {
	var users []string
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		m, ok := findMember(name, roster)
		if !ok {
			return nil, model.Invalidf("One or more users do not exist in the server.")
		}
		if seen[m.DisplayName] {
			continue
		}
		seen[m.DisplayName] = true
		users = append(users, m.DisplayName)
	}
	return users, nil
}

func findMember(name string, roster []model.Member) (model.Member, bool) {
	for _, m := range roster {
		if !m.Bot && strings.EqualFold(m.DisplayName, name) {
			return m, true
		}
	}
	return model.Member{}, false
}
