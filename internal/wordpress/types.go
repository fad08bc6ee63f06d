package wordpress

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Credentials authenticate against one WordPress site with an application
// password. They are immutable once submitted and never persisted.
type Credentials struct {
	WPURL       string
	Username    string
	AppPassword string
}

// MarshalZerologObject logs the site and user, never the password.
func (c Credentials) MarshalZerologObject(e *zerolog.Event) {
	e.Str("wp_url", c.WPURL).Str("username", c.Username)
}

// YoastHead is the subset of Yoast's computed head that carries the SEO title
// and meta description as rendered by the plugin.
type YoastHead struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Category is a WooCommerce product category (taxonomy product_cat).
//
// The SEO title and description are read from yoast_head_json; the focus
// keyphrase is read from the raw _yoast_wpseo_focuskw field exposed by the
// site's REST registration. The three raw Yoast fields are also the write
// targets of an update.
type Category struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description"`
	YoastHeadJSON *YoastHead `json:"yoast_head_json,omitempty"`
	YoastTitle    string     `json:"_yoast_wpseo_title,omitempty"`
	YoastMetaDesc string     `json:"_yoast_wpseo_metadesc,omitempty"`
	YoastFocusKW  string     `json:"_yoast_wpseo_focuskw,omitempty"`
}

// SEOTitle returns the rendered Yoast title, or "" when absent.
func (c *Category) SEOTitle() string {
	if c.YoastHeadJSON == nil {
		return ""
	}
	return c.YoastHeadJSON.Title
}

// SEODescription returns the rendered Yoast meta description, or "" when absent.
func (c *Category) SEODescription() string {
	if c.YoastHeadJSON == nil {
		return ""
	}
	return c.YoastHeadJSON.Description
}

// CategoryUpdate is a partial update. Only non-nil fields are serialized, so
// a set-but-empty Description is sent as "" and clears the field.
type CategoryUpdate struct {
	Name          *string `json:"name,omitempty"`
	Slug          *string `json:"slug,omitempty"`
	Description   *string `json:"description,omitempty"`
	YoastTitle    *string `json:"_yoast_wpseo_title,omitempty"`
	YoastMetaDesc *string `json:"_yoast_wpseo_metadesc,omitempty"`
	YoastFocusKW  *string `json:"_yoast_wpseo_focuskw,omitempty"`
}

// Empty reports whether no field is set.
func (u CategoryUpdate) Empty() bool {
	return u.Name == nil && u.Slug == nil && u.Description == nil &&
		u.YoastTitle == nil && u.YoastMetaDesc == nil && u.YoastFocusKW == nil
}

// APIError is returned when WordPress answers with a non-2xx status.
type APIError struct {
	Op         string
	Status     int
	StatusText string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wordpress %s: request failed: %s", e.Op, e.StatusText)
}

// LookupStatus classifies the result of a by-name lookup.
type LookupStatus int

const (
	Found LookupStatus = iota
	NotFound
	Failed
)

func (s LookupStatus) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "failed"
	}
}

// LookupResult is the typed outcome of Client.Lookup. Category is set only
// when Status is Found; Err only when Status is Failed.
type LookupResult struct {
	Status   LookupStatus
	Category *Category
	Err      error
}
