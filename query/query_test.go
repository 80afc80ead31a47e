package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson"
)

func TestParseListParamsDefaults(t *testing.T) {
	p, err := ParseListParams(url.Values{}, PublicLimits)
	require.NoError(t, err)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, "created", p.SortBy)
	assert.Equal(t, "desc", p.Order)
	assert.Nil(t, p.Geo)
}

func TestParseListParamsAdminDefaults(t *testing.T) {
	p, err := ParseListParams(url.Values{}, AdminLimits)
	require.NoError(t, err)
	assert.Equal(t, 20, p.Limit)
}

func TestParseListParamsRejectsOverCap(t *testing.T) {
	_, err := ParseListParams(url.Values{"limit": {"51"}}, PublicLimits)
	require.Error(t, err)
	verr := &ValidationError{}
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "limit", verr.Field)

	// Admin cap is higher; 51 is fine there, 101 is not.
	_, err = ParseListParams(url.Values{"limit": {"51"}}, AdminLimits)
	assert.NoError(t, err)
	_, err = ParseListParams(url.Values{"limit": {"101"}}, AdminLimits)
	assert.Error(t, err)
}

func TestParseListParamsRejectsBadValues(t *testing.T) {
	cases := map[string]url.Values{
		"bad page":       {"page": {"0"}},
		"non-int page":   {"page": {"x"}},
		"bad limit":      {"limit": {"-1"}},
		"bad category":   {"category": {"Roads"}},
		"bad status":     {"status": {"Pending"}},
		"bad priority":   {"priority": {"Urgent"}},
		"bad sort":       {"sort": {"trending"}},
		"bad order":      {"order": {"sideways"}},
		"partial geo":    {"lat": {"40"}},
		"bad latitude":   {"lat": {"95"}, "lng": {"0"}, "radius": {"5"}},
		"zero radius":    {"lat": {"40"}, "lng": {"0"}, "radius": {"0"}},
		"garbage radius": {"lat": {"40"}, "lng": {"0"}, "radius": {"ten"}},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseListParams(values, PublicLimits)
			assert.Error(t, err)
		})
	}
}

func TestFilterExactMatches(t *testing.T) {
	p, err := ParseListParams(url.Values{
		"category": {"Roads & Transportation"},
		"status":   {"Open"},
		"priority": {"High"},
	}, PublicLimits)
	require.NoError(t, err)

	filter := p.Filter()
	assert.Equal(t, "Roads & Transportation", filter["category"])
	assert.Equal(t, "Open", filter["status"])
	assert.Equal(t, "High", filter["priority"])
}

func TestFilterAllIsNoFilter(t *testing.T) {
	p, err := ParseListParams(url.Values{"category": {"all"}, "status": {"all"}}, PublicLimits)
	require.NoError(t, err)
	assert.Empty(t, p.Filter())
}

func TestFilterSearchSpansTitleDescriptionTags(t *testing.T) {
	p, err := ParseListParams(url.Values{"search": {"pothole"}}, PublicLimits)
	require.NoError(t, err)

	filter := p.Filter()
	or, ok := filter["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, or, 3)

	fields := make([]string, 0, 3)
	for _, clause := range or {
		for field, cond := range clause {
			fields = append(fields, field)
			re := cond.(bson.M)
			assert.Equal(t, "pothole", re["$regex"])
			assert.Equal(t, "i", re["$options"])
		}
	}
	assert.ElementsMatch(t, []string{"title", "description", "tags"}, fields)
}

func TestFilterSearchEscapesRegexMeta(t *testing.T) {
	p, err := ParseListParams(url.Values{"search": {"water (main)"}}, PublicLimits)
	require.NoError(t, err)

	or := p.Filter()["$or"].([]bson.M)
	re := or[0]["title"].(bson.M)
	assert.Equal(t, `water \(main\)`, re["$regex"])
}

func TestBoundingBox(t *testing.T) {
	g := &GeoFilter{Latitude: 40.0, Longitude: -75.0, RadiusKm: 10}

	latMin, latMax, lngMin, lngMax := g.BoundingBox()
	assert.InDelta(t, 40.0-10.0/111.0, latMin, 1e-9)
	assert.InDelta(t, 40.0+10.0/111.0, latMax, 1e-9)
	assert.Less(t, lngMin, -75.0)
	assert.Greater(t, lngMax, -75.0)

	// An issue ~111 km north is outside a 10 km radius.
	assert.False(t, g.Contains(41.0, -75.0))
	assert.True(t, g.Contains(40.05, -75.05))
}

func TestBoundingBoxLongitudeWidensWithLatitude(t *testing.T) {
	equator := &GeoFilter{Latitude: 0, Longitude: 0, RadiusKm: 10}
	north := &GeoFilter{Latitude: 60, Longitude: 0, RadiusKm: 10}

	_, _, eMin, eMax := equator.BoundingBox()
	_, _, nMin, nMax := north.BoundingBox()

	// cos(60deg) = 0.5, so the box at 60N spans twice the longitude.
	assert.InDelta(t, 2*(eMax-eMin), nMax-nMin, 1e-9)
}

func TestGeoFilterInFilterDocument(t *testing.T) {
	p, err := ParseListParams(url.Values{
		"lat": {"40.0"}, "lng": {"-75.0"}, "radius": {"10"},
	}, PublicLimits)
	require.NoError(t, err)
	require.NotNil(t, p.Geo)

	filter := p.Filter()
	latRange := filter["location.latitude"].(bson.M)
	lngRange := filter["location.longitude"].(bson.M)
	assert.InDelta(t, 40.0-10.0/111.0, latRange["$gte"].(float64), 1e-9)
	assert.InDelta(t, 40.0+10.0/111.0, latRange["$lte"].(float64), 1e-9)
	assert.NotNil(t, lngRange["$gte"])
	assert.NotNil(t, lngRange["$lte"])
}

func TestSortStableTieBreak(t *testing.T) {
	p, err := ParseListParams(url.Values{"sort": {"activity"}, "order": {"asc"}}, PublicLimits)
	require.NoError(t, err)

	s := p.Sort()
	require.Len(t, s, 2)
	assert.Equal(t, "lastActivity", s[0].Key)
	assert.Equal(t, 1, s[0].Value)
	assert.Equal(t, "_id", s[1].Key)
}

func TestAndPreservesSearchWithBaseOrClause(t *testing.T) {
	p, err := ParseListParams(url.Values{"search": {"pothole"}}, PublicLimits)
	require.NoError(t, err)

	// The voted-issues listing constrains by its own $or; a key-merge
	// would clobber the search $or with it.
	base := bson.M{"$or": []bson.M{
		{"upvoters": "user"},
		{"downvoters": "user"},
	}}

	combined := And(p.Filter(), base)

	and, ok := combined["$and"].([]bson.M)
	require.True(t, ok, "colliding clauses must combine under $and")
	require.Len(t, and, 2)

	searchOr := and[0]["$or"].([]bson.M)
	require.Len(t, searchOr, 3)
	assert.Contains(t, searchOr[0], "title")

	voteOr := and[1]["$or"].([]bson.M)
	require.Len(t, voteOr, 2)
	assert.Contains(t, voteOr[0], "upvoters")
}

func TestAndEmptySides(t *testing.T) {
	base := bson.M{"isPublic": true}

	assert.Equal(t, base, And(bson.M{}, base))
	assert.Equal(t, base, And(base, bson.M{}))
	assert.Empty(t, And(bson.M{}, bson.M{}))
}

func TestDerivedSortsAccepted(t *testing.T) {
	p, err := ParseListParams(url.Values{"sort": {"votes"}}, PublicLimits)
	require.NoError(t, err)
	assert.True(t, p.NeedsPipeline())
	assert.Equal(t, "voteScore", p.Sort()[0].Key)

	p, err = ParseListParams(url.Values{"sort": {"priority"}}, PublicLimits)
	require.NoError(t, err)
	assert.True(t, p.NeedsPipeline())
	assert.Equal(t, "priorityRank", p.Sort()[0].Key)

	p, err = ParseListParams(url.Values{"sort": {"created"}}, PublicLimits)
	require.NoError(t, err)
	assert.False(t, p.NeedsPipeline())
}

func TestPipelineStages(t *testing.T) {
	p, err := ParseListParams(url.Values{"sort": {"votes"}, "page": {"2"}, "limit": {"10"}}, PublicLimits)
	require.NoError(t, err)

	filter := bson.M{"isPublic": true}
	pipeline := p.Pipeline(filter)
	require.Len(t, pipeline, 5)

	assert.Equal(t, filter, pipeline[0]["$match"])

	fields := pipeline[1]["$addFields"].(bson.M)
	assert.Contains(t, fields, "voteScore")
	assert.Contains(t, fields, "priorityRank")

	sort := pipeline[2]["$sort"].(bson.D)
	assert.Equal(t, "voteScore", sort[0].Key)
	assert.Equal(t, -1, sort[0].Value)
	assert.Equal(t, "_id", sort[1].Key)

	assert.Equal(t, 10, pipeline[3]["$skip"])
	assert.Equal(t, 10, pipeline[4]["$limit"])
}

func TestPageWindowCoversSetExactly(t *testing.T) {
	const total, limit = 47, 10

	p := ListParams{Page: 1, Limit: limit}
	assert.Equal(t, int64(5), p.TotalPages(total))

	// Walking every page by skip/take covers [0,total) exactly once.
	covered := 0
	for page := 1; page <= int(p.TotalPages(total)); page++ {
		w := ListParams{Page: page, Limit: limit}
		take := limit
		if w.Skip()+take > total {
			take = total - w.Skip()
		}
		assert.Equal(t, covered, w.Skip())
		covered += take
	}
	assert.Equal(t, total, covered)
}

func TestTotalPagesCeil(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int64
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{100, 20, 5},
		{101, 20, 6},
	}
	for _, tc := range cases {
		p := ListParams{Limit: tc.limit}
		assert.Equal(t, tc.want, p.TotalPages(tc.total), "total=%d limit=%d", tc.total, tc.limit)
	}
}

func TestPaginateEnvelope(t *testing.T) {
	p := ListParams{Page: 3, Limit: 10}
	env := p.Paginate(47)

	assert.Equal(t, 3, env.CurrentPage)
	assert.Equal(t, int64(5), env.TotalPages)
	assert.Equal(t, int64(47), env.TotalItems)
	assert.Equal(t, 10, env.ItemsPerPage)
}
