// Package i18n holds every user-facing string the assistant produces and the
// locale-aware display clock. Strings are registered in an x/text catalog
// under symbolic keys; French is the default locale and English is available.
package i18n

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a localized message.
type Key string

const (
	Welcome          Key = "welcome"
	SendFailed       Key = "send.failed"
	CategoriesHeader Key = "categories.header"
	ListFailed       Key = "categories.list_failed"
	NeedCategoryName Key = "category.need_name"
	Metadata         Key = "category.metadata"
	UndefinedMasc    Key = "placeholder.masc"
	UndefinedFem     Key = "placeholder.fem"
	NotFound         Key = "category.not_found"
	NotFoundUpdate   Key = "category.not_found_update"
	NothingToUpdate  Key = "category.nothing_to_update"
	Updated          Key = "category.updated"
	UpdateFailed     Key = "category.update_failed"
	Unrecognized     Key = "action.unrecognized"
)

var supported = []language.Tag{language.French, language.English}

var matcher = language.NewMatcher(supported)

var entries = map[language.Tag]map[Key]string{
	language.French: {
		Welcome:          `Bonjour ! Je suis votre assistant IA pour WordPress. Comment puis-je vous aider aujourd'hui ? Vous pouvez me demander de "lister les catégories de produits" pour commencer.`,
		SendFailed:       "Désolé, une erreur est survenue. Veuillez vérifier votre clé API Gemini et votre connexion, puis réessayez.",
		CategoriesHeader: "Voici les catégories de produits trouvées : ",
		ListFailed:       "Désolé, je n'ai pas pu récupérer les catégories de produits. Veuillez vérifier votre connexion WordPress.",
		NeedCategoryName: "Veuillez spécifier un nom de catégorie.",
		Metadata:         "Voici les métadonnées pour \"%s\":\n\n- Description: %s\n- Slug: %s\n- Titre SEO (Yoast): %s\n- Méta Description (Yoast): %s\n- Expression-clé principale (Yoast): %s",
		UndefinedMasc:    "Non défini",
		UndefinedFem:     "Non définie",
		NotFound:         `Désolé, je n'ai pas trouvé de catégorie nommée "%s".`,
		NotFoundUpdate:   `Désolé, je n'ai pas trouvé de catégorie nommée "%s" à mettre à jour.`,
		NothingToUpdate:  "Aucune modification à appliquer. Veuillez spécifier un champ à modifier.",
		Updated:          `La catégorie "%s" a été mise à jour avec succès.`,
		UpdateFailed:     `Une erreur est survenue lors de la mise à jour de la catégorie "%s".`,
		Unrecognized:     "Je ne reconnais pas l'action : %s",
	},
	language.English: {
		Welcome:          `Hello! I am your AI assistant for WordPress. How can I help you today? You can ask me to "list the product categories" to get started.`,
		SendFailed:       "Sorry, something went wrong. Please check your Gemini API key and your connection, then try again.",
		CategoriesHeader: "Here are the product categories found: ",
		ListFailed:       "Sorry, I could not retrieve the product categories. Please check your WordPress connection.",
		NeedCategoryName: "Please specify a category name.",
		Metadata:         "Here is the metadata for \"%s\":\n\n- Description: %s\n- Slug: %s\n- SEO title (Yoast): %s\n- Meta description (Yoast): %s\n- Focus keyphrase (Yoast): %s",
		UndefinedMasc:    "Not set",
		UndefinedFem:     "Not set",
		NotFound:         `Sorry, I could not find a category named "%s".`,
		NotFoundUpdate:   `Sorry, I could not find a category named "%s" to update.`,
		NothingToUpdate:  "Nothing to change. Please specify a field to modify.",
		Updated:          `The category "%s" was updated successfully.`,
		UpdateFailed:     `An error occurred while updating the category "%s".`,
		Unrecognized:     "I do not recognize the action: %s",
	},
}

var cat = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.French))
	for tag, msgs := range entries {
		for k, v := range msgs {
			if err := b.SetString(tag, string(k), v); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Localizer renders messages and display timestamps for one locale.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
	clock   string
}

// New returns a Localizer for locale ("fr", "en-GB", ...). Unknown or
// malformed locales fall back to French.
func New(locale string) *Localizer {
	tag := language.French
	if t, err := language.Parse(locale); err == nil {
		_, idx, conf := matcher.Match(t)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	clock := "15:04"
	if tag == language.English {
		clock = "03:04 PM"
	}
	return &Localizer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
		clock:   clock,
	}
}

// Tag returns the resolved language.
func (l *Localizer) Tag() language.Tag { return l.tag }

// Text renders key with args.
func (l *Localizer) Text(key Key, args ...any) string {
	return l.printer.Sprintf(string(key), args...)
}

// Clock formats t as the hour/minute display string stored on messages.
func (l *Localizer) Clock(t time.Time) string { return t.Format(l.clock) }
