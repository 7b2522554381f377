package gemini

import "strings"

// extractJSON извлекает первый JSON-объект или массив из ответа модели.
// Модель часто оборачивает JSON в markdown code block (```json ... ```).
func extractJSON(text string) string {
	if body, ok := codeBlock(text); ok && body != "" {
		text = body
	}

	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return ""
	}
	open := text[start]
	closing := byte('}')
	if open == '[' {
		closing = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return strings.TrimSpace(text[start : i+1])
			}
		}
	}

	return ""
}

// codeBlock возвращает содержимое первого markdown code block.
func codeBlock(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start == -1 {
		return "", false
	}
	rest := text[start+3:]
	// Пропускаем указание языка (json, JSON и т.п.) до конца строки
	if nl := strings.IndexByte(rest, '\n'); nl != -1 && !strings.ContainsAny(rest[:nl], "{[") {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
