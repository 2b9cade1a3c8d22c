package httpapi

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/marsha-uploader/internal/common"
)

var sizeMessages = map[string]string{
	"en": "File too large, max size is %d bytes",
	"fr": "Fichier trop volumineux, la taille maximale est de %d octets",
}

var requiredMessages = map[string]string{
	"en": "%s is a required field",
	"fr": "%s est un champ obligatoire",
}

// locale picks the first language of an Accept-Language header that has
// messages, falling back to common.DefaultLocale.
func locale(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		primary, _, _ := strings.Cut(tag, "-")
		primary = strings.ToLower(strings.TrimSpace(primary))
		if _, ok := sizeMessages[primary]; ok {
			return primary
		}
	}
	return common.DefaultLocale
}

func sizeMessage(acceptLanguage string, max int64) string {
	return fmt.Sprintf(sizeMessages[locale(acceptLanguage)], max)
}

func requiredMessage(acceptLanguage, field string) string {
	return fmt.Sprintf(requiredMessages[locale(acceptLanguage)], field)
}
