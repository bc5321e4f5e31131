package util

import (
	"regexp"
	"strings"
)

var (
	slugPattern       = regexp.MustCompile(`^[a-z0-9-]+$`)
	slugInvalidChars  = regexp.MustCompile(`[^a-z0-9-]+`)
	slugRepeatHyphens = regexp.MustCompile(`-{2,}`)
)

// IsValidSlug проверяет что slug состоит только из строчных латинских букв,
// цифр и дефисов
func IsValidSlug(slug string) bool {
	return slug != "" && slugPattern.MatchString(slug)
}

// GenerateSlug строит slug из названия категории: нижний регистр,
// пробелы и недопустимые символы заменяются дефисами
func GenerateSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	slug = slugRepeatHyphens.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
