// Package query turns list-endpoint request parameters into MongoDB
// filter, sort, and pagination criteria. Public and admin listings
// share the same builder and differ only in their limit bounds.
package query

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Limits are the default and maximum page size for a listing surface.
type Limits struct {
	Default int
	Cap     int
}

var (
	// PublicLimits applies to the public issue listing.
	PublicLimits = Limits{Default: 10, Cap: 50}
	// AdminLimits applies to admin listings.
	AdminLimits = Limits{Default: 20, Cap: 100}
)

// ValidationError reports a rejected request parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// GeoFilter is an optional center-plus-radius constraint.
type GeoFilter struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// ListParams is the parsed criteria for a list request.
type ListParams struct {
	Category string
	Status   string
	Priority string
	Search   string
	SortBy   string
	Order    string
	Page     int
	Limit    int
	Geo      *GeoFilter
}

var sortFields = map[string]string{
	"created":  "createdAt",
	"activity": "lastActivity",
	"views":    "viewCount",
	"title":    "title",
	"votes":    "voteScore",
	"priority": "priorityRank",
}

// derivedSorts name sort keys that don't exist on the stored document
// and have to be computed by an aggregation stage.
var derivedSorts = map[string]bool{
	"votes":    true,
	"priority": true,
}

// ParseListParams validates and normalizes the query string of a list
// request. A limit above the cap is rejected rather than clamped.
func ParseListParams(values url.Values, limits Limits) (ListParams, error) {
	p := ListParams{
		Category: values.Get("category"),
		Status:   values.Get("status"),
		Priority: values.Get("priority"),
		Search:   values.Get("search"),
		SortBy:   "created",
		Order:    "desc",
		Page:     1,
		Limit:    limits.Default,
	}

	if p.Category != "" && p.Category != "all" && !models.ValidCategory(p.Category) {
		return p, &ValidationError{Field: "category", Message: "Invalid category"}
	}
	if p.Status != "" && p.Status != "all" && !models.ValidStatus(p.Status) {
		return p, &ValidationError{Field: "status", Message: "Invalid status"}
	}
	if p.Priority != "" && p.Priority != "all" && !models.ValidPriority(p.Priority) {
		return p, &ValidationError{Field: "priority", Message: "Invalid priority"}
	}

	if s := values.Get("sort"); s != "" {
		if _, ok := sortFields[s]; !ok {
			return p, &ValidationError{Field: "sort", Message: "Unknown sort field"}
		}
		p.SortBy = s
	}
	switch o := values.Get("order"); o {
	case "", "desc":
	case "asc":
		p.Order = "asc"
	default:
		return p, &ValidationError{Field: "order", Message: "Order must be asc or desc"}
	}

	if s := values.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			return p, &ValidationError{Field: "page", Message: "Page must be a positive integer"}
		}
		p.Page = page
	}
	if s := values.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 1 {
			return p, &ValidationError{Field: "limit", Message: "Limit must be a positive integer"}
		}
		if limit > limits.Cap {
			return p, &ValidationError{Field: "limit", Message: fmt.Sprintf("Limit may not exceed %d", limits.Cap)}
		}
		p.Limit = limit
	}

	geo, err := parseGeo(values)
	if err != nil {
		return p, err
	}
	p.Geo = geo

	return p, nil
}

func parseGeo(values url.Values) (*GeoFilter, error) {
	latStr, lngStr, radStr := values.Get("lat"), values.Get("lng"), values.Get("radius")
	if latStr == "" && lngStr == "" && radStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" || radStr == "" {
		return nil, &ValidationError{Field: "radius", Message: "Geo filter requires lat, lng, and radius"}
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || !models.ValidLatitude(lat) {
		return nil, &ValidationError{Field: "lat", Message: "Latitude must be between -90 and 90"}
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || !models.ValidLongitude(lng) {
		return nil, &ValidationError{Field: "lng", Message: "Longitude must be between -180 and 180"}
	}
	radius, err := strconv.ParseFloat(radStr, 64)
	if err != nil || radius <= 0 {
		return nil, &ValidationError{Field: "radius", Message: "Radius must be a positive number of kilometers"}
	}

	return &GeoFilter{Latitude: lat, Longitude: lng, RadiusKm: radius}, nil
}

// Filter builds the MongoDB filter document. Enum fields match exactly;
// free-text search is a case-insensitive substring match against title,
// description, or tags.
func (p ListParams) Filter() bson.M {
	filter := bson.M{}

	if p.Category != "" && p.Category != "all" {
		filter["category"] = p.Category
	}
	if p.Status != "" && p.Status != "all" {
		filter["status"] = p.Status
	}
	if p.Priority != "" && p.Priority != "all" {
		filter["priority"] = p.Priority
	}

	if p.Search != "" {
		pattern := regexp.QuoteMeta(p.Search)
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": pattern, "$options": "i"}},
			{"description": bson.M{"$regex": pattern, "$options": "i"}},
			{"tags": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}

	if p.Geo != nil {
		latMin, latMax, lngMin, lngMax := p.Geo.BoundingBox()
		filter["location.latitude"] = bson.M{"$gte": latMin, "$lte": latMax}
		filter["location.longitude"] = bson.M{"$gte": lngMin, "$lte": lngMax}
	}

	return filter
}

// And combines two filter documents. Wrapping them in $and keeps
// operator keys like the search $or from colliding with clauses the
// endpoint adds on top.
func And(a, b bson.M) bson.M {
	switch {
	case len(a) == 0:
		return b
	case len(b) == 0:
		return a
	default:
		return bson.M{"$and": []bson.M{a, b}}
	}
}

// BoundingBox approximates the radius as a lat/lng box: one degree of
// latitude is ~111 km, one degree of longitude shrinks by cos(lat).
// Deliberately not great-circle distance; fine at city scale, degrades
// near the poles.
func (g *GeoFilter) BoundingBox() (latMin, latMax, lngMin, lngMax float64) {
	latHalf := g.RadiusKm / 111.0
	lngHalf := g.RadiusKm / (111.0 * math.Cos(g.Latitude*math.Pi/180))
	if lngHalf < 0 {
		lngHalf = -lngHalf
	}
	return g.Latitude - latHalf, g.Latitude + latHalf,
		g.Longitude - lngHalf, g.Longitude + lngHalf
}

// Contains reports whether a coordinate falls inside the bounding box.
func (g *GeoFilter) Contains(lat, lng float64) bool {
	latMin, latMax, lngMin, lngMax := g.BoundingBox()
	return lat >= latMin && lat <= latMax && lng >= lngMin && lng <= lngMax
}

// Sort builds the sort document. The _id tie-break keeps the order
// stable, so concatenated pages cover the result set exactly once.
func (p ListParams) Sort() bson.D {
	dir := -1
	if p.Order == "asc" {
		dir = 1
	}
	return bson.D{
		{Key: sortFields[p.SortBy], Value: dir},
		{Key: "_id", Value: 1},
	}
}

// NeedsPipeline reports whether the requested sort key is derived at
// query time rather than stored on the document.
func (p ListParams) NeedsPipeline() bool {
	return derivedSorts[p.SortBy]
}

// Pipeline builds the aggregation for derived sort keys: vote score is
// |upvoters| - |downvoters|, priority rank is the enum's severity
// order. The computed fields are unknown to the Issue struct and drop
// out on decode.
func (p ListParams) Pipeline(filter bson.M) []bson.M {
	return []bson.M{
		{"$match": filter},
		{"$addFields": bson.M{
			"voteScore": bson.M{"$subtract": []interface{}{
				bson.M{"$size": bson.M{"$ifNull": []interface{}{"$upvoters", []interface{}{}}}},
				bson.M{"$size": bson.M{"$ifNull": []interface{}{"$downvoters", []interface{}{}}}},
			}},
			"priorityRank": bson.M{"$indexOfArray": []interface{}{
				[]string{
					string(models.PriorityLow), string(models.PriorityMedium),
					string(models.PriorityHigh), string(models.PriorityCritical),
				},
				"$priority",
			}},
		}},
		{"$sort": p.Sort()},
		{"$skip": p.Skip()},
		{"$limit": p.Limit},
	}
}

// Skip is the number of documents before the requested page.
func (p ListParams) Skip() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages is ceil(total/limit).
func (p ListParams) TotalPages(total int64) int64 {
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}

// Pagination is the envelope every list endpoint returns alongside its
// items.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int64 `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// Paginate assembles the response envelope for a total match count.
func (p ListParams) Paginate(total int64) Pagination {
	return Pagination{
		CurrentPage:  p.Page,
		TotalPages:   p.TotalPages(total),
		TotalItems:   total,
		ItemsPerPage: p.Limit,
	}
}
