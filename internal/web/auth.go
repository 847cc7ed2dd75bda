package web

import (
	"fmt"
	"strings"
)

const tokenCookieName = "token_v2"

// extractBearerToken pulls the token_v2 value out of a raw browser cookie
// string. Reddit web sessions carry the OAuth bearer token in that cookie,
// which lets users run migrations without registering an API application.
func extractBearerToken(cookie string) (string, error) {
	for _, segment := range strings.Split(cookie, ";") {
		segment = strings.TrimSpace(segment)
		value, ok := strings.CutPrefix(segment, tokenCookieName+"=")
		if !ok {
			continue
		}
		if value == "" {
			return "", fmt.Errorf("cookie has an empty %s value", tokenCookieName)
		}
		return value, nil
	}
	return "", fmt.Errorf("cookie does not contain a %s segment", tokenCookieName)
}
