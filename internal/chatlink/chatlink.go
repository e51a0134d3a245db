// Package chatlink normalizes user-submitted Telegram links into canonical
// chat identifiers. Only public t.me/telegram.me links are accepted, because
// membership verification resolves chats by public handle.
package chatlink

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrEmptyLink         = errors.New("Укажите ссылку на канал или группу")
	ErrInvalidFormat     = errors.New("Неверный формат ссылки. Используйте адрес вида https://t.me/username")
	ErrUnsupportedHost   = errors.New("Поддерживаются только публичные ссылки Telegram (t.me)")
	ErrMissingIdentifier = errors.New("Неверная ссылка на канал или группу")
	ErrPrivateLink       = errors.New("Используйте публичную ссылку на канал или группу")
)

var schemeRe = regexp.MustCompile(`(?i)^https?:`)

// ParseIdentifier resolves a free-form link or @handle into a canonical chat
// identifier with a leading "@".
func ParseIdentifier(link string) (string, error) {
	trimmed := strings.TrimSpace(link)
	if trimmed == "" {
		return "", ErrEmptyLink
	}

	if strings.HasPrefix(trimmed, "@") {
		return trimmed, nil
	}

	candidate := trimmed
	if !schemeRe.MatchString(candidate) {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return "", ErrInvalidFormat
	}

	host := strings.ToLower(u.Hostname())
	if !strings.HasSuffix(host, "t.me") && !strings.HasSuffix(host, "telegram.me") {
		return "", ErrUnsupportedHost
	}

	path := strings.TrimPrefix(u.Path, "/")
	if path == "" {
		return "", ErrMissingIdentifier
	}

	identifier := strings.SplitN(path, "/", 2)[0]
	if strings.HasPrefix(identifier, "+") {
		return "", ErrPrivateLink
	}

	if !strings.HasPrefix(identifier, "@") {
		identifier = "@" + identifier
	}
	return identifier, nil
}

// Canonical produces the https://t.me/<handle> form persisted on orders and
// shown to task takers, independent of whatever the submitter typed.
func Canonical(link string) (string, error) {
	identifier, err := ParseIdentifier(link)
	if err != nil {
		return "", err
	}
	return "https://t.me/" + strings.TrimPrefix(identifier, "@"), nil
}
