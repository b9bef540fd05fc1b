package shop

import "strings"

// Account looks up an operator login by username, ignoring case.
func (s *Shop) Account(username string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.state.Accounts {
		if strings.EqualFold(a.Username, username) {
			return a, nil
		}
	}
	return Account{}, notFound("account", username)
}
