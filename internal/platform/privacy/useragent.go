package privacy

import (
	"strings"

	"github.com/mssola/useragent"
)

// ClientClass reduces a User-Agent header to "<kind>/<browser>", where kind is
// bot, mobile or desktop. Versions and OS details are dropped so the value
// cannot fingerprint a caller.
func ClientClass(header string) string {
	if strings.TrimSpace(header) == "" {
		return "unknown"
	}
	ua := useragent.New(header)

	kind := "desktop"
	switch {
	case ua.Bot():
		kind = "bot"
	case ua.Mobile():
		kind = "mobile"
	}

	name, _ := ua.Browser()
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "unknown"
	}
	return kind + "/" + name
}
