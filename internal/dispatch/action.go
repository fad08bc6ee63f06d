package dispatch

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Action tags understood by the dispatcher.
const (
	TagListCategories         = "LIST_CATEGORIES"
	TagGetCategoryMetadata    = "GET_CATEGORY_METADATA"
	TagUpdateCategoryMetadata = "UPDATE_CATEGORY_METADATA"
)

// Action is one decoded model instruction.
type Action interface {
	Tag() string
}

// ListCategories asks for every product category.
type ListCategories struct{}

// GetCategoryMetadata asks for the metadata of one category.
type GetCategoryMetadata struct {
	CategoryName string `json:"categoryName" validate:"required"`
}

// UpdateCategoryMetadata asks for a partial update of one category. Nil
// fields were absent from the payload.
type UpdateCategoryMetadata struct {
	CategoryName    string  `json:"categoryName" validate:"required"`
	Name            *string `json:"name"`
	Slug            *string `json:"slug"`
	Description     *string `json:"description"`
	MetaTitle       *string `json:"metaTitle"`
	MetaDescription *string `json:"metaDescription"`
	FocusKeyphrase  *string `json:"focusKeyphrase"`
}

// Unrecognized carries a tag outside the vocabulary. For a non-string action
// value, Raw is its JSON text.
type Unrecognized struct {
	Raw string
}

func (ListCategories) Tag() string         { return TagListCategories }
func (GetCategoryMetadata) Tag() string    { return TagGetCategoryMetadata }
func (UpdateCategoryMetadata) Tag() string { return TagUpdateCategoryMetadata }
func (u Unrecognized) Tag() string         { return u.Raw }

// falsy action values make the reply plain text.
var falsy = map[string]bool{"null": true, "false": true, "0": true, `""`: true}

// Parse decodes text as an action object. It returns false when text is not
// a JSON object or carries no usable "action"; the reply is then plain text.
func Parse(text string) (Action, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil || obj == nil {
		return nil, false
	}
	raw, ok := obj["action"]
	if !ok {
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if falsy[string(raw)] {
		return nil, false
	}

	var tag string
	if err := json.Unmarshal(raw, &tag); err != nil {
		return Unrecognized{Raw: string(raw)}, true
	}

	payload := decodePayload(obj["payload"])
	switch tag {
	case TagListCategories:
		return ListCategories{}, true
	case TagGetCategoryMetadata:
		return GetCategoryMetadata{CategoryName: payload.str("categoryName")}, true
	case TagUpdateCategoryMetadata:
		return UpdateCategoryMetadata{
			CategoryName:    payload.str("categoryName"),
			Name:            payload.ptr("name"),
			Slug:            payload.ptr("slug"),
			Description:     payload.ptr("description"),
			MetaTitle:       payload.ptr("metaTitle"),
			MetaDescription: payload.ptr("metaDescription"),
			FocusKeyphrase:  payload.ptr("focusKeyphrase"),
		}, true
	default:
		return Unrecognized{Raw: tag}, true
	}
}

// payload gives field-wise access to a payload object. A payload that is
// missing or not an object behaves as one with no fields, and so does any
// field whose value is not a string.
type payload map[string]json.RawMessage

func decodePayload(raw json.RawMessage) payload {
	var p payload
	if len(raw) == 0 || json.Unmarshal(raw, &p) != nil {
		return nil
	}
	return p
}

func (p payload) ptr(key string) *string {
	raw, ok := p[key]
	if !ok {
		return nil
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return s
}

func (p payload) str(key string) string {
	if s := p.ptr(key); s != nil {
		return strings.TrimSpace(*s)
	}
	return ""
}
