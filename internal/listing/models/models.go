// Package models holds the room aggregate and the read views derived from it.
package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"rentmeroom/internal/blob"
	identity "rentmeroom/internal/identity/models"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	textutil "rentmeroom/pkg/platform/strings"
)

const (
	MaxImages       = 5
	DefaultCountry  = "Nepal"
	DefaultRadiusM  = 5000
	defaultPage     = 1
	defaultLimit    = 10
	maxLimit        = 50
	adminMaxLimit   = 100
	adminDefaultLim = 20
)

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Valid reports whether the point lies inside the WGS84 range.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Address is the structured postal address of a room.
type Address struct {
	Country      string `json:"country,omitempty"`
	Province     string `json:"province,omitempty"`
	District     string `json:"district,omitempty"`
	Municipality string `json:"municipality,omitempty"`
	Ward         *int   `json:"wardNo,omitempty"`
	Street       string `json:"street,omitempty"`
	HouseNo      string `json:"houseNo,omitempty"`
	Landmark     string `json:"landmark,omitempty"`
}

// IsZero reports whether no structured part was supplied.
func (a Address) IsZero() bool {
	return a.Country == "" && a.Province == "" && a.District == "" && a.Municipality == "" &&
		a.Ward == nil && a.Street == "" && a.HouseNo == "" && a.Landmark == ""
}

// String composes the geocoding query, most specific part first.
func (a Address) String() string {
	ward := ""
	if a.Ward != nil && *a.Ward > 0 {
		ward = "Ward " + strconv.Itoa(*a.Ward)
	}
	return textutil.JoinNonEmpty(", ", a.HouseNo, a.Street, ward, a.Municipality, a.District, a.Province, a.Country)
}

// Room is a listing. Contact is private to the owner, admins and contacted tenants.
type Room struct {
	ID          id.RoomID
	OwnerID     id.UserID
	Title       string
	Rent        int64
	AddressText string
	Address     Address
	Location    *GeoPoint
	Contact     string
	Features    []string
	Description string
	IsVerified  bool
	Images      []blob.Image
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GeocodeQuery is the text the geocoder resolves for this room.
func (r *Room) GeocodeQuery() string {
	if q := r.Address.String(); q != "" {
		return q
	}
	return strings.TrimSpace(r.AddressText)
}

// Verify flips IsVerified. It reports false when the room was already verified.
func (r *Room) Verify(now time.Time) bool {
	if r.IsVerified {
		return false
	}
	r.IsVerified = true
	r.UpdatedAt = now
	return true
}

// HasFeatures reports whether every wanted feature is present, ignoring case.
func (r *Room) HasFeatures(wanted []string) bool {
	for _, w := range wanted {
		found := false
		for _, f := range r.Features {
			if strings.EqualFold(f, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MatchesKeywords is a case-insensitive substring match over the searchable text.
func (r *Room) MatchesKeywords(keywords string) bool {
	k := strings.TrimSpace(keywords)
	if k == "" {
		return true
	}
	for _, field := range []string{
		r.Title, r.Description, r.AddressText,
		r.Address.Country, r.Address.Province, r.Address.District,
		r.Address.Municipality, r.Address.Street, r.Address.Landmark,
	} {
		if textutil.ContainsFold(field, k) {
			return true
		}
	}
	return false
}

// Draft is the input of CreateListing after boundary parsing.
type Draft struct {
	Title       string
	Rent        int64
	AddressText string
	Address     Address
	Location    *GeoPoint
	Contact     string
	Features    []string
	Description string
	Uploads     []blob.Upload
}

// Validate enforces the listing rules that hold regardless of transport.
func (d *Draft) Validate() error {
	var fields []dErrors.FieldError
	if len(strings.TrimSpace(d.Title)) < 3 {
		fields = append(fields, dErrors.FieldError{Field: "title", Message: "must be at least 3 characters"})
	}
	if d.Rent <= 0 {
		fields = append(fields, dErrors.FieldError{Field: "rent", Message: "must be positive"})
	}
	if !ValidContact(d.Contact) {
		fields = append(fields, dErrors.FieldError{Field: "contact", Message: "must be at least 10 characters of digits, spaces, + - ( )"})
	}
	if len(strings.TrimSpace(d.Description)) < 10 {
		fields = append(fields, dErrors.FieldError{Field: "description", Message: "must be at least 10 characters"})
	}
	fields = append(fields, validateAddress(d.Address, d.AddressText)...)
	if len(d.Uploads) > MaxImages {
		fields = append(fields, dErrors.FieldError{Field: "images", Message: "at most 5 images"})
	}
	if len(fields) > 0 {
		return dErrors.Validation(fields...)
	}
	return nil
}

func validateAddress(a Address, text string) []dErrors.FieldError {
	if a.IsZero() {
		if len(strings.TrimSpace(text)) < 5 {
			return []dErrors.FieldError{{Field: "address", Message: "must be at least 5 characters"}}
		}
		return nil
	}
	var fields []dErrors.FieldError
	if strings.TrimSpace(a.Province) == "" {
		fields = append(fields, dErrors.FieldError{Field: "address.province", Message: "is required"})
	}
	if strings.TrimSpace(a.District) == "" {
		fields = append(fields, dErrors.FieldError{Field: "address.district", Message: "is required"})
	}
	if strings.TrimSpace(a.Municipality) == "" {
		fields = append(fields, dErrors.FieldError{Field: "address.municipality", Message: "is required"})
	}
	if a.Ward != nil && *a.Ward < 1 {
		fields = append(fields, dErrors.FieldError{Field: "address.wardNo", Message: "must be positive"})
	}
	return fields
}

// ValidContact accepts at least 10 characters of digits, spaces and + - ( ).
func ValidContact(s string) bool {
	if len(s) < 10 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c == '+' || c == '-' || c == '(' || c == ')' || c == ' ' || c == '\t':
		default:
			return false
		}
	}
	return true
}

// NormalizeAddress fills the default country on a structured address.
func NormalizeAddress(a Address) Address {
	if !a.IsZero() && strings.TrimSpace(a.Country) == "" {
		a.Country = DefaultCountry
	}
	return a
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Rent        *int64
	AddressText *string
	Address     *Address
	Location    *GeoPoint
	Contact     *string
	Features    *[]string
	Description *string
	// KeepImages lists handles to retain, in order. Nil means the client did
	// not send the field at all.
	KeepImages *[]string
	Uploads    []blob.Upload
}

// AddressChanged reports whether the patch touches any address field.
func (p *Patch) AddressChanged() bool {
	return p.Address != nil || p.AddressText != nil
}

// Apply writes the scalar fields of p onto r and validates the result.
func (p *Patch) Apply(r *Room) error {
	if p.Title != nil {
		r.Title = strings.TrimSpace(*p.Title)
	}
	if p.Rent != nil {
		r.Rent = *p.Rent
	}
	if p.AddressText != nil {
		r.AddressText = strings.TrimSpace(*p.AddressText)
	}
	if p.Address != nil {
		r.Address = NormalizeAddress(*p.Address)
	}
	if p.Contact != nil {
		r.Contact = strings.TrimSpace(*p.Contact)
	}
	if p.Features != nil {
		r.Features = CleanFeatures(*p.Features)
	}
	if p.Description != nil {
		r.Description = strings.TrimSpace(*p.Description)
	}
	check := Draft{
		Title:       r.Title,
		Rent:        r.Rent,
		AddressText: r.AddressText,
		Address:     r.Address,
		Contact:     r.Contact,
		Description: r.Description,
	}
	return check.Validate()
}

// MergeImages resolves the final image list of an update and the images that
// were dropped from the room.
func (p *Patch) MergeImages(current, uploaded []blob.Image) (final, dropped []blob.Image) {
	switch {
	case p.KeepImages != nil:
		byHandle := make(map[string]blob.Image, len(current))
		for _, img := range current {
			byHandle[img.Handle] = img
		}
		kept := make(map[string]bool, len(*p.KeepImages))
		for _, h := range *p.KeepImages {
			img, ok := byHandle[h]
			if !ok || kept[h] {
				continue
			}
			kept[h] = true
			final = append(final, img)
		}
		final = append(final, uploaded...)
		for _, img := range current {
			if !kept[img.Handle] {
				dropped = append(dropped, img)
			}
		}
	case len(uploaded) > 0:
		final = uploaded
		dropped = current
	default:
		final = current
	}
	if final == nil {
		final = []blob.Image{}
	}
	return final, dropped
}

// CleanFeatures trims, drops empties and de-duplicates case-insensitively.
func CleanFeatures(in []string) []string {
	return textutil.DedupeFold(in)
}

// Near restricts a search to a radius around a point.
type Near struct {
	Point        GeoPoint
	RadiusMeters float64
}

// SearchFilter drives the public search. Only verified rooms are ever returned.
type SearchFilter struct {
	Keywords string
	MinRent  *int64
	MaxRent  *int64
	Features []string
	Near     *Near
	Page     int
	Limit    int
}

// Normalize applies paging defaults and the default radius.
func (f *SearchFilter) Normalize() {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, defaultLimit, maxLimit)
	f.Features = CleanFeatures(f.Features)
	f.Keywords = strings.TrimSpace(f.Keywords)
	if f.Near != nil && f.Near.RadiusMeters <= 0 {
		f.Near.RadiusMeters = DefaultRadiusM
	}
}

func (f *SearchFilter) Offset() int { return (f.Page - 1) * f.Limit }

// Matches applies every non-geo criterion to r.
func (f *SearchFilter) Matches(r *Room) bool {
	if !r.IsVerified {
		return false
	}
	if f.MinRent != nil && r.Rent < *f.MinRent {
		return false
	}
	if f.MaxRent != nil && r.Rent > *f.MaxRent {
		return false
	}
	return r.MatchesKeywords(f.Keywords) && r.HasFeatures(f.Features)
}

// AdminFilter drives moderation listings. Verified nil includes every room.
type AdminFilter struct {
	Verified *bool
	Page     int
	Limit    int
}

func (f *AdminFilter) Normalize() {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, adminDefaultLim, adminMaxLimit)
}

func (f *AdminFilter) Offset() int { return (f.Page - 1) * f.Limit }

// normalizePage fills defaults and caps page so the offset fits a postgres
// integer.
func normalizePage(page, limit, def, maxLimit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = def
	}
	limit = min(limit, maxLimit)
	return min(page, math.MaxInt32/limit+1), limit
}

// PublicRoom is the anonymous and tenant view. It never carries contact.
type PublicRoom struct {
	ID          id.RoomID    `json:"id"`
	OwnerID     id.UserID    `json:"ownerId"`
	Title       string       `json:"title"`
	Rent        int64        `json:"rent"`
	AddressText string       `json:"address,omitempty"`
	Address     *Address     `json:"structuredAddress,omitempty"`
	Location    *GeoPoint    `json:"location,omitempty"`
	Features    []string     `json:"features"`
	Description string       `json:"description"`
	Images      []blob.Image `json:"images"`
	DistanceM   *float64     `json:"distanceMeters,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Public projects r without its contact.
func (r *Room) Public() PublicRoom {
	p := PublicRoom{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Rent:        r.Rent,
		AddressText: r.AddressText,
		Location:    r.Location,
		Features:    nonNil(r.Features),
		Description: r.Description,
		Images:      nonNilImages(r.Images),
		CreatedAt:   r.CreatedAt,
	}
	if !r.Address.IsZero() {
		addr := r.Address
		p.Address = &addr
	}
	return p
}

// OwnerRoom is the owner and admin view, contact and moderation state included.
type OwnerRoom struct {
	PublicRoom
	Contact    string               `json:"contact"`
	IsVerified bool                 `json:"isVerified"`
	UpdatedAt  time.Time            `json:"updatedAt"`
	Owner      *identity.PublicUser `json:"owner,omitempty"`
}

func (r *Room) Full() OwnerRoom {
	return OwnerRoom{
		PublicRoom: r.Public(),
		Contact:    r.Contact,
		IsVerified: r.IsVerified,
		UpdatedAt:  r.UpdatedAt,
	}
}

// SearchHit pairs a room with its distance from the search origin.
type SearchHit struct {
	Room      *Room
	DistanceM *float64
}

// Page is one page of a room listing.
type Page[T any] struct {
	Items []T `json:"rooms"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilImages(s []blob.Image) []blob.Image {
	if s == nil {
		return []blob.Image{}
	}
	return s
}
