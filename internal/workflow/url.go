package workflow

import (
	"net/http"
	"net/url"
	"strings"
)

// ReminderPath путь колбэка напоминаний.
const ReminderPath = "/api/v1/workflows/subscription/reminder"

// ResolveCallbackURL возвращает адрес колбэка напоминаний. Если configuredBase
// абсолютный http(s) URL, используется он, иначе адрес собирается из запроса.
func ResolveCallbackURL(configuredBase string, r *http.Request) string {
	if u, err := url.Parse(strings.TrimSpace(configuredBase)); err == nil &&
		(u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return strings.TrimRight(u.String(), "/") + ReminderPath
	}
	return requestScheme(r) + "://" + r.Host + ReminderPath
}

// requestScheme принимает из X-Forwarded-Proto только http и https.
func requestScheme(r *http.Request) string {
	proto := strings.ToLower(strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-Proto"), ",")[0]))
	if proto == "http" || proto == "https" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
