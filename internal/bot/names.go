package bot

import (
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
)

const fallbackName = "FRIEND"

// FormatName renders a name for message templates: transliterated to ASCII,
// letters only, upper-cased.
func FormatName(name string) string {
	var b strings.Builder
	for _, r := range unidecode.Unidecode(name) {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallbackName
	}
	return strings.ToUpper(b.String())
}

// displayNameFor picks the stored display name for a new account: the
// Telegram username when present, otherwise a slug of the real name.
func displayNameFor(ev Event) string {
	if u := strings.TrimSpace(ev.Username); u != "" {
		return u
	}
	return fallbackDisplayName(ev)
}

// fallbackDisplayName is unique per user because it carries the user id.
func fallbackDisplayName(ev Event) string {
	id := strconv.FormatInt(ev.UserID, 10)
	base := slug.Make(strings.TrimSpace(ev.FirstName + " " + ev.LastName))
	if base == "" {
		base = "user"
	}
	return base + "-" + id
}
