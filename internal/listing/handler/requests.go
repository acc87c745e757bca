package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"rentmeroom/internal/listing/models"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/httputil"
	"rentmeroom/pkg/platform/validation"
)

// listingForm bounds the free-text multipart fields. Business rules live in
// the models package.
type listingForm struct {
	Title       string `form:"title" validate:"max=120"`
	Contact     string `form:"contact" validate:"max=30"`
	Description string `form:"description" validate:"max=5000"`
	Address     string `form:"address" validate:"max=1000"`
}

type searchQuery struct {
	Keywords string   `form:"q" validate:"max=200"`
	MinRent  *int64   `form:"minRent" validate:"omitempty,gte=0"`
	MaxRent  *int64   `form:"maxRent" validate:"omitempty,gte=0"`
	Lat      *float64 `form:"lat" validate:"omitempty,latitude"`
	Lng      *float64 `form:"lng" validate:"omitempty,longitude"`
	Radius   *float64 `form:"radius" validate:"omitempty,gt=0,max=100000"`
}

// pointJSON is the GeoJSON point clients send, coordinates as [lon, lat].
type pointJSON struct {
	Coordinates []float64 `json:"coordinates"`
}

// fieldErrors collects boundary parse failures for one request.
type fieldErrors []dErrors.FieldError

func (f *fieldErrors) add(field, msg string) {
	*f = append(*f, dErrors.FieldError{Field: field, Message: msg})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return dErrors.Validation(f...)
}

func formValue(r *http.Request, key string) (string, bool) {
	vs, ok := r.PostForm[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return strings.TrimSpace(vs[0]), true
}

func boundForm(r *http.Request) error {
	get := func(k string) string {
		v, _ := formValue(r, k)
		return v
	}
	return validation.Struct(listingForm{
		Title:       get("title"),
		Contact:     get("contact"),
		Description: get("description"),
		Address:     get("address"),
	})
}

// parseDraft reads the create form. Images are attached by the caller.
func parseDraft(r *http.Request) (models.Draft, error) {
	if err := boundForm(r); err != nil {
		return models.Draft{}, err
	}
	var errs fieldErrors
	d := models.Draft{}
	d.Title, _ = formValue(r, "title")
	d.Contact, _ = formValue(r, "contact")
	d.Description, _ = formValue(r, "description")
	if raw, ok := formValue(r, "rent"); ok {
		d.Rent = parseRent(raw, &errs)
	}
	if raw, ok := formValue(r, "address"); ok {
		d.AddressText, d.Address = parseAddress(raw, &errs)
	}
	d.Location = parseLocation(r, &errs)
	d.Features = splitList(r.PostForm["features"])
	return d, errs.err()
}

// parsePatch reads the update form. Only fields present in the form are set.
func parsePatch(r *http.Request) (models.Patch, error) {
	if err := boundForm(r); err != nil {
		return models.Patch{}, err
	}
	var errs fieldErrors
	p := models.Patch{}
	if v, ok := formValue(r, "title"); ok {
		p.Title = &v
	}
	if v, ok := formValue(r, "contact"); ok {
		p.Contact = &v
	}
	if v, ok := formValue(r, "description"); ok {
		p.Description = &v
	}
	if raw, ok := formValue(r, "rent"); ok {
		rent := parseRent(raw, &errs)
		p.Rent = &rent
	}
	if raw, ok := formValue(r, "address"); ok {
		text, addr := parseAddress(raw, &errs)
		if addr.IsZero() {
			p.AddressText = &text
			p.Address = &models.Address{}
		} else {
			empty := ""
			p.AddressText = &empty
			p.Address = &addr
		}
	}
	p.Location = parseLocation(r, &errs)
	if vs, ok := r.PostForm["features"]; ok {
		features := splitList(vs)
		p.Features = &features
	}
	if vs, ok := r.PostForm["keepImages"]; ok {
		keep := parseKeep(vs, &errs)
		p.KeepImages = &keep
	}
	return p, errs.err()
}

func parseRent(raw string, errs *fieldErrors) int64 {
	rent, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		errs.add("rent", "must be a whole number")
	}
	return rent
}

// parseAddress accepts either a JSON object of structured parts or plain text.
func parseAddress(raw string, errs *fieldErrors) (string, models.Address) {
	if !strings.HasPrefix(raw, "{") {
		return raw, models.Address{}
	}
	var addr models.Address
	if err := json.Unmarshal([]byte(raw), &addr); err != nil {
		errs.add("address", "must be text or a JSON object")
		return "", models.Address{}
	}
	return "", addr
}

// parseLocation reads either a GeoJSON "location" field or lat and lng.
// Unusable coordinates are treated as absent.
func parseLocation(r *http.Request, errs *fieldErrors) *models.GeoPoint {
	if raw, ok := formValue(r, "location"); ok && raw != "" {
		var p pointJSON
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			errs.add("location", "must be a GeoJSON point")
			return nil
		}
		if len(p.Coordinates) != 2 {
			return nil
		}
		return &models.GeoPoint{Lon: p.Coordinates[0], Lat: p.Coordinates[1]}
	}
	latRaw, hasLat := formValue(r, "lat")
	lngRaw, hasLng := formValue(r, "lng")
	if !hasLat && !hasLng {
		return nil
	}
	lat, latErr := strconv.ParseFloat(latRaw, 64)
	lng, lngErr := strconv.ParseFloat(lngRaw, 64)
	if latErr != nil || lngErr != nil {
		return nil
	}
	return &models.GeoPoint{Lon: lng, Lat: lat}
}

// parseKeep accepts a JSON array of handles or the handles as repeated values.
func parseKeep(vs []string, errs *fieldErrors) []string {
	if len(vs) == 1 && strings.HasPrefix(strings.TrimSpace(vs[0]), "[") {
		var keep []string
		if err := json.Unmarshal([]byte(vs[0]), &keep); err != nil {
			errs.add("keepImages", "must be a JSON array of image handles")
		}
		if keep == nil {
			keep = []string{}
		}
		return keep
	}
	keep := make([]string, 0, len(vs))
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			keep = append(keep, v)
		}
	}
	return keep
}

// splitList flattens repeated values, comma-separated values and JSON arrays.
func splitList(vs []string) []string {
	var out []string
	for _, v := range vs {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "[") {
			var items []string
			if json.Unmarshal([]byte(v), &items) == nil {
				out = append(out, items...)
				continue
			}
		}
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseSearch(r *http.Request) (models.SearchFilter, error) {
	q := r.URL.Query()
	var errs fieldErrors
	sq := searchQuery{
		Keywords: strings.TrimSpace(firstOf(q, "q", "keywords")),
		MinRent:  queryInt64(q, "minRent", &errs),
		MaxRent:  queryInt64(q, "maxRent", &errs),
		Lat:      queryFloat(q, "lat", &errs),
		Lng:      queryFloat(q, "lng", &errs),
		Radius:   queryFloat(q, "radius", &errs),
	}
	if (sq.Lat == nil) != (sq.Lng == nil) {
		errs.add("lat", "lat and lng must be sent together")
	}
	if err := errs.err(); err != nil {
		return models.SearchFilter{}, err
	}
	if err := validation.Struct(sq); err != nil {
		return models.SearchFilter{}, err
	}
	f := models.SearchFilter{
		Keywords: sq.Keywords,
		MinRent:  sq.MinRent,
		MaxRent:  sq.MaxRent,
		Features: splitList(q["features"]),
		Page:     httputil.QueryInt(r, "page", 1),
		Limit:    httputil.QueryInt(r, "limit", 10),
	}
	if sq.Lat != nil && sq.Lng != nil {
		f.Near = &models.Near{Point: models.GeoPoint{Lon: *sq.Lng, Lat: *sq.Lat}}
		if sq.Radius != nil {
			f.Near.RadiusMeters = *sq.Radius
		}
	}
	return f, nil
}

func parseAdminFilter(r *http.Request) (models.AdminFilter, error) {
	f := models.AdminFilter{
		Page:  httputil.QueryInt(r, "page", 1),
		Limit: httputil.QueryInt(r, "limit", 20),
	}
	if raw := r.URL.Query().Get("verified"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, dErrors.Validation(dErrors.FieldError{Field: "verified", Message: "must be true or false"})
		}
		f.Verified = &v
	}
	return f, nil
}

func firstOf(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func queryInt64(q url.Values, key string, errs *fieldErrors) *int64 {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		errs.add(key, "must be a whole number")
		return nil
	}
	return &n
}

func queryFloat(q url.Values, key string, errs *fieldErrors) *float64 {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		errs.add(key, "must be a number")
		return nil
	}
	return &n
}
