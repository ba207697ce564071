// redact — утилиты для логов HTTP-клиента и прокси: маскирование e-mail,
// заголовков авторизации и токенов. Сами токены в логи не попадают никогда;
// вместо них пишется короткий отпечаток, по которому можно сопоставить
// ротацию пары без раскрытия секрета.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// Email маскирует e-mail: первые две руны локальной части + "***", домен как есть.
// Строка без ровно одного '@' превращается в "***".
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token возвращает литерал-заглушку для токена в логах.
func Token() string { return "[REDACTED_TOKEN]" }

// Fingerprint — первые 8 hex-символов sha256 от токена; "" для пустого токена.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:4])
}

// sensitiveHeaders — заголовки, значения которых не логируются.
var sensitiveHeaders = map[string]struct{}{
	"Authorization":       {},
	"Proxy-Authorization": {},
	"Cookie":              {},
	"Set-Cookie":          {},
}

// Headers возвращает копию заголовков, пригодную для логирования:
// значения чувствительных заголовков заменены на Token().
func Headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		ck := http.CanonicalHeaderKey(k)
		if _, ok := sensitiveHeaders[ck]; ok {
			out[ck] = Token()
			continue
		}
		out[ck] = strings.Join(v, ",")
	}

	return out
}
