package logger

import "strings"

// RedactEmail masks a customer address for safe logging, keeping the domain
// and the first two characters of the local part:
// "john.doe@example.com" becomes "jo***@example.com". Local parts of two
// characters or fewer are fully masked, as are strings that are not
// addresses at all.
func RedactEmail(email string) string {
	at := strings.Index(email, "@")
	if at < 0 || strings.Count(email, "@") != 1 {
		return "***@***"
	}
	local, domain := email[:at], email[at+1:]
	if len(local) <= 2 {
		return "***@" + domain
	}
	return local[:2] + "***@" + domain
}
