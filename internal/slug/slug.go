// Package slug строит канонические ключи идемпотентности для записей.
//
// Ключ - строчные ASCII-буквы и цифры, разделённые одиночными дефисами.
// Правило нормализации нельзя менять: по ключу находятся уже сохранённые записи.
package slug

import "strings"

// Derive объединяет части через дефис и нормализует результат.
// Функция тотальна: пустой ввод даёт пустой ключ.
func Derive(parts ...string) string {
	joined := strings.ToLower(strings.Join(parts, "-"))

	var sb strings.Builder
	sb.Grow(len(joined))
	pendingDash := false
	for i := 0; i < len(joined); i++ {
		c := joined[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pendingDash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingDash = false
			sb.WriteByte(c)
			continue
		}
		pendingDash = true
	}
	return sb.String()
}

// Release возвращает ключ поста о релизе: provider-name-version.
func Release(provider, name, version string) string {
	return Derive(provider, name, version)
}

// Title возвращает ключ новости по заголовку.
func Title(title string) string {
	return Derive(title)
}
