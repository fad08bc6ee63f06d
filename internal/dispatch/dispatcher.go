// Package dispatch interprets model output. A JSON action object is executed
// against WordPress and rendered as a localized reply; anything else is
// returned verbatim as a plain reply.
package dispatch

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/wp-category-assistant/internal/i18n"
	"github.com/tbourn/wp-category-assistant/internal/observability"
	"github.com/tbourn/wp-category-assistant/internal/wordpress"
)

// Outcome classifies what a dispatch did.
type Outcome string

const (
	OutcomePlain           Outcome = "plain"
	OutcomeListed          Outcome = "listed"
	OutcomeListFailed      Outcome = "list_failed"
	OutcomeMissingName     Outcome = "missing_name"
	OutcomeShown           Outcome = "shown"
	OutcomeNotFound        Outcome = "not_found"
	OutcomeLookupFailed    Outcome = "lookup_failed"
	OutcomeNothingToUpdate Outcome = "nothing_to_update"
	OutcomeUpdated         Outcome = "updated"
	OutcomeUpdateFailed    Outcome = "update_failed"
	OutcomeUnrecognized    Outcome = "unrecognized"
)

// Categories is the WordPress surface the dispatcher needs.
type Categories interface {
	ListCategories(ctx context.Context, creds wordpress.Credentials) ([]wordpress.Category, error)
	Lookup(ctx context.Context, creds wordpress.Credentials, name string) wordpress.LookupResult
	UpdateCategory(ctx context.Context, creds wordpress.Credentials, id int64, upd wordpress.CategoryUpdate) (*wordpress.Category, error)
}

// Result is the reply to show and what produced it. Action is empty for a
// plain reply.
type Result struct {
	Text         string
	Action       string
	Outcome      Outcome
	CategoryName string
}

var tracer = otel.Tracer("dispatch")

// Dispatcher executes actions. It is safe for concurrent use.
type Dispatcher struct {
	wp       Categories
	loc      *i18n.Localizer
	validate *validator.Validate
}

// New returns a Dispatcher rendering replies with loc.
func New(wp Categories, loc *i18n.Localizer) *Dispatcher {
	return &Dispatcher{wp: wp, loc: loc, validate: validator.New()}
}

// Dispatch turns one model reply into the assistant's answer. It performs at
// most one lookup and at most one mutation.
func (d *Dispatcher) Dispatch(ctx context.Context, creds wordpress.Credentials, text string) Result {
	action, ok := Parse(text)
	if !ok {
		observability.AssistantActions.WithLabelValues("none", string(OutcomePlain)).Inc()
		return Result{Text: text, Outcome: OutcomePlain}
	}

	ctx, span := tracer.Start(ctx, "dispatch."+metricLabel(action))
	defer span.End()

	var res Result
	switch a := action.(type) {
	case ListCategories:
		res = d.list(ctx, creds)
	case GetCategoryMetadata:
		res = d.show(ctx, creds, a)
	case UpdateCategoryMetadata:
		res = d.update(ctx, creds, a)
	case Unrecognized:
		res = Result{Text: d.loc.Text(i18n.Unrecognized, a.Raw), Outcome: OutcomeUnrecognized}
	}
	res.Action = action.Tag()

	span.SetAttributes(
		attribute.String("dispatch.action", res.Action),
		attribute.String("dispatch.outcome", string(res.Outcome)),
	)
	observability.AssistantActions.WithLabelValues(metricLabel(action), string(res.Outcome)).Inc()
	return res
}

func (d *Dispatcher) list(ctx context.Context, creds wordpress.Credentials) Result {
	cats, err := d.wp.ListCategories(ctx, creds)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list categories failed")
		return Result{Text: d.loc.Text(i18n.ListFailed), Outcome: OutcomeListFailed}
	}
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	// The bullet opener is written even for an empty list.
	text := d.loc.Text(i18n.CategoriesHeader) + "\n\n - " + strings.Join(names, "\n - ")
	return Result{Text: text, Outcome: OutcomeListed}
}

func (d *Dispatcher) show(ctx context.Context, creds wordpress.Credentials, a GetCategoryMetadata) Result {
	if d.validate.Struct(a) != nil {
		return Result{Text: d.loc.Text(i18n.NeedCategoryName), Outcome: OutcomeMissingName}
	}

	found := d.wp.Lookup(ctx, creds, a.CategoryName)
	switch found.Status {
	case wordpress.Found:
	case wordpress.NotFound:
		return d.notFound(i18n.NotFound, a.CategoryName, OutcomeNotFound)
	default:
		zerolog.Ctx(ctx).Error().Err(found.Err).Str("category", a.CategoryName).Msg("category lookup failed")
		return d.notFound(i18n.NotFound, a.CategoryName, OutcomeLookupFailed)
	}

	c := found.Category
	masc, fem := d.loc.Text(i18n.UndefinedMasc), d.loc.Text(i18n.UndefinedFem)
	text := d.loc.Text(i18n.Metadata,
		c.Name,
		or(c.Description, fem),
		or(c.Slug, masc),
		or(c.SEOTitle(), masc),
		or(c.SEODescription(), fem),
		or(c.YoastFocusKW, fem),
	)
	return Result{Text: text, Outcome: OutcomeShown, CategoryName: c.Name}
}

func (d *Dispatcher) update(ctx context.Context, creds wordpress.Credentials, a UpdateCategoryMetadata) Result {
	if d.validate.Struct(a) != nil {
		return Result{Text: d.loc.Text(i18n.NeedCategoryName), Outcome: OutcomeMissingName}
	}

	found := d.wp.Lookup(ctx, creds, a.CategoryName)
	switch found.Status {
	case wordpress.Found:
	case wordpress.NotFound:
		return d.notFound(i18n.NotFoundUpdate, a.CategoryName, OutcomeNotFound)
	default:
		zerolog.Ctx(ctx).Error().Err(found.Err).Str("category", a.CategoryName).Msg("category lookup failed")
		return d.notFound(i18n.NotFoundUpdate, a.CategoryName, OutcomeLookupFailed)
	}

	upd := BuildUpdate(a)
	if upd.Empty() {
		return Result{Text: d.loc.Text(i18n.NothingToUpdate), Outcome: OutcomeNothingToUpdate, CategoryName: a.CategoryName}
	}

	if _, err := d.wp.UpdateCategory(ctx, creds, found.Category.ID, upd); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("category_id", found.Category.ID).Msg("category update failed")
		return Result{Text: d.loc.Text(i18n.UpdateFailed, a.CategoryName), Outcome: OutcomeUpdateFailed, CategoryName: a.CategoryName}
	}

	shown := a.CategoryName
	if upd.Name != nil {
		shown = *upd.Name
	}
	return Result{Text: d.loc.Text(i18n.Updated, shown), Outcome: OutcomeUpdated, CategoryName: shown}
}

func (d *Dispatcher) notFound(key i18n.Key, name string, outcome Outcome) Result {
	return Result{Text: d.loc.Text(key, name), Outcome: outcome, CategoryName: name}
}

// BuildUpdate maps an update action to the WordPress body: description
// whenever present, other fields only when non-empty, SEO fields renamed to
// their Yoast meta keys.
func BuildUpdate(a UpdateCategoryMetadata) wordpress.CategoryUpdate {
	return wordpress.CategoryUpdate{
		Description:   a.Description,
		Name:          nonEmpty(a.Name),
		Slug:          nonEmpty(a.Slug),
		YoastTitle:    nonEmpty(a.MetaTitle),
		YoastMetaDesc: nonEmpty(a.MetaDescription),
		YoastFocusKW:  nonEmpty(a.FocusKeyphrase),
	}
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func or(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}

// metricLabel keeps the action label bounded.
func metricLabel(a Action) string {
	if _, ok := a.(Unrecognized); ok {
		return "unrecognized"
	}
	return a.Tag()
}
