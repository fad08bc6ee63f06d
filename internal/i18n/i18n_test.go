package i18n

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestNew_ResolvesLocale(t *testing.T) {
	cases := map[string]language.Tag{
		"fr":      language.French,
		"fr-FR":   language.French,
		"en":      language.English,
		"en-GB":   language.English,
		"":        language.French,
		"!!bogus": language.French,
		"ja":      language.French,
	}
	for in, want := range cases {
		if got := New(in).Tag(); got != want {
			t.Errorf("New(%q).Tag() = %v; want %v", in, got, want)
		}
	}
}

func TestText_French(t *testing.T) {
	l := New("fr")
	if got := l.Text(NeedCategoryName); got != "Veuillez spécifier un nom de catégorie." {
		t.Fatalf("unexpected text: %q", got)
	}
	if got := l.Text(NotFound, "Sacs"); got != `Désolé, je n'ai pas trouvé de catégorie nommée "Sacs".` {
		t.Fatalf("unexpected text: %q", got)
	}
	if got := l.Text(Unrecognized, "DELETE_ALL"); got != "Je ne reconnais pas l'action : DELETE_ALL" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestText_English(t *testing.T) {
	l := New("en")
	if got := l.Text(Updated, "Bags"); got != `The category "Bags" was updated successfully.` {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestText_EveryKeyInEveryLocale(t *testing.T) {
	for tag, msgs := range entries {
		for _, other := range entries {
			if len(other) != len(msgs) {
				t.Fatalf("locale %v has %d messages; others have %d", tag, len(msgs), len(other))
			}
		}
		l := New(tag.String())
		for k, raw := range msgs {
			args := make([]any, strings.Count(raw, "%s"))
			for i := range args {
				args[i] = "x"
			}
			if got := l.Text(k, args...); got == string(k) || strings.Contains(got, "%!") {
				t.Errorf("%v: key %q not rendered: %q", tag, k, got)
			}
		}
	}
}

func TestClock(t *testing.T) {
	ts := time.Date(2025, 3, 9, 14, 5, 0, 0, time.UTC)
	if got := New("fr").Clock(ts); got != "14:05" {
		t.Fatalf("fr clock = %q; want 14:05", got)
	}
	if got := New("en").Clock(ts); got != "02:05 PM" {
		t.Fatalf("en clock = %q; want 02:05 PM", got)
	}
}
