package observability

import "strings"

const maxRouteLength = 120

// SanitizeRoute bounds the matched route pattern before it reaches the
// request log. Control characters would let a crafted path forge log lines.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	cleaned := stripControl(route)
	if len(cleaned) > maxRouteLength {
		cleaned = cleaned[:maxRouteLength]
	}
	return cleaned
}

// SanitizeMethod normalises the HTTP method for logging.
func SanitizeMethod(method string) string {
	cleaned := stripControl(method)
	if len(cleaned) > 10 {
		cleaned = cleaned[:10]
	}
	return strings.ToUpper(cleaned)
}

func sanitizeString(value string, limit int) string {
	cleaned := stripControl(value)
	if len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return cleaned
}

func stripControl(value string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, value)
}
