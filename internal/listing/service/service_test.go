package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	"rentmeroom/internal/access"
	"rentmeroom/internal/blob"
	identity "rentmeroom/internal/identity/models"
	"rentmeroom/internal/listing/models"
	"rentmeroom/internal/listing/store/room"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/audit"
	"rentmeroom/pkg/platform/audit/publisher"
	auditmemory "rentmeroom/pkg/platform/audit/store/memory"
	"rentmeroom/pkg/requestcontext"
	"rentmeroom/pkg/testutil"
)

type fakeGeocoder struct {
	mu      sync.Mutex
	point   *models.GeoPoint
	err     error
	queries []string
}

func (g *fakeGeocoder) Geocode(_ context.Context, query string) (*models.GeoPoint, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queries = append(g.queries, query)
	if g.err != nil {
		return nil, g.err
	}
	if g.point == nil {
		return nil, nil
	}
	p := *g.point
	return &p, nil
}

func (g *fakeGeocoder) calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.queries...)
}

type fakeOwners struct {
	mu     sync.Mutex
	users  map[id.UserID]identity.PublicUser
	counts map[id.UserID]int
}

func (o *fakeOwners) PublicUsers(_ context.Context, ids []id.UserID) (map[id.UserID]identity.PublicUser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[id.UserID]identity.PublicUser)
	for _, userID := range ids {
		if u, ok := o.users[userID]; ok {
			out[userID] = u
		}
	}
	return out, nil
}

func (o *fakeOwners) AdjustPropertyCount(_ context.Context, ownerID id.UserID, delta int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts[ownerID] += delta
	return nil
}

func (o *fakeOwners) count(ownerID id.UserID) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[ownerID]
}

var kathmandu = models.GeoPoint{Lon: 85.3240, Lat: 27.7172}

type ListingServiceSuite struct {
	suite.Suite
	rooms    *room.InMemoryRoomStore
	geocoder *fakeGeocoder
	blobs    *blob.Memory
	owners   *fakeOwners
	audit    *auditmemory.InMemoryStore
	service  *Service
	ctx      context.Context
	now      time.Time

	owner      access.Identity
	otherOwner access.Identity
	admin      access.Identity
	tenant     access.Identity
}

func TestListingServiceSuite(t *testing.T) {
	suite.Run(t, new(ListingServiceSuite))
}

func (s *ListingServiceSuite) SetupTest() {
	s.now = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.rooms = room.NewInMemory()
	s.geocoder = &fakeGeocoder{point: &kathmandu}
	s.blobs = blob.NewMemory()
	s.owner = testutil.VerifiedOwner(id.NewUserID())
	s.otherOwner = testutil.VerifiedOwner(id.NewUserID())
	s.admin = testutil.Admin(id.NewUserID())
	s.tenant = testutil.Tenant(id.NewUserID())
	s.owners = &fakeOwners{
		users: map[id.UserID]identity.PublicUser{
			s.owner.UserID: {ID: s.owner.UserID, Name: "Maya", Email: "maya@example.com"},
		},
		counts: make(map[id.UserID]int),
	}
	s.audit = auditmemory.NewInMemoryStore()
	s.service = New(s.rooms, s.geocoder, s.blobs, s.owners,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisher.NewPublisher(s.audit)),
	)
}

func (s *ListingServiceSuite) draft() models.Draft {
	return models.Draft{
		Title:       "Sunny room in Baneshwor",
		Rent:        12000,
		Address:     models.Address{Province: "Bagmati", District: "Kathmandu", Municipality: "Kathmandu Metropolitan"},
		Contact:     "+977 980-0000000",
		Features:    []string{"wifi", " parking ", "WiFi", ""},
		Description: "Second floor room with balcony",
	}
}

func (s *ListingServiceSuite) upload(name string) blob.Upload {
	return blob.Upload{Name: name, ContentType: "image/png", Body: bytes.NewReader(testutil.PNG)}
}

func (s *ListingServiceSuite) create(caller access.Identity, d models.Draft) *models.Room {
	r, err := s.service.CreateListing(s.ctx, caller, d)
	s.Require().NoError(err)
	return r
}

func (s *ListingServiceSuite) verified(caller access.Identity, d models.Draft) *models.Room {
	r := s.create(caller, d)
	_, err := s.service.VerifyRoom(s.ctx, s.admin, r.ID)
	s.Require().NoError(err)
	return r
}

func (s *ListingServiceSuite) TestCreateListing() {
	s.Run("stores an unverified room and geocodes the composed address", func() {
		d := s.draft()
		d.Uploads = []blob.Upload{s.upload("a.png"), s.upload("b.png")}

		r := s.create(s.owner, d)

		s.False(r.IsVerified)
		s.Equal(s.owner.UserID, r.OwnerID)
		s.Equal("Nepal", r.Address.Country)
		s.Equal([]string{"wifi", "parking"}, r.Features)
		s.Require().NotNil(r.Location)
		s.Equal(kathmandu, *r.Location)
		s.Equal([]string{"Kathmandu Metropolitan, Kathmandu, Bagmati, Nepal"}, s.geocoder.calls())
		s.Len(r.Images, 2)
		s.True(s.blobs.Has(r.Images[0].Handle))
		s.Equal(1, s.owners.count(s.owner.UserID))
		s.Len(s.audit.ListByAction(s.ctx, audit.EventRoomCreated), 1)
	})

	s.Run("supplied coordinates skip geocoding", func() {
		before := len(s.geocoder.calls())
		d := s.draft()
		d.Location = &models.GeoPoint{Lon: 85.31, Lat: 27.70}

		r := s.create(s.owner, d)

		s.Equal(*d.Location, *r.Location)
		s.Len(s.geocoder.calls(), before)
	})

	s.Run("out of range coordinates fall back to geocoding", func() {
		before := len(s.geocoder.calls())
		d := s.draft()
		d.Location = &models.GeoPoint{Lon: 200, Lat: 27.70}

		r := s.create(s.owner, d)

		s.Equal(kathmandu, *r.Location)
		s.Len(s.geocoder.calls(), before+1)
	})

	s.Run("geocoder failure leaves the location unset", func() {
		s.geocoder.err = errors.New("upstream down")
		defer func() { s.geocoder.err = nil }()

		r := s.create(s.owner, s.draft())

		s.Nil(r.Location)
	})

	s.Run("free-text address when no structured address", func() {
		d := s.draft()
		d.Address = models.Address{}
		d.AddressText = "Jhamsikhel, Lalitpur"

		r := s.create(s.owner, d)

		s.Equal("Jhamsikhel, Lalitpur", s.geocoder.calls()[len(s.geocoder.calls())-1])
		s.Empty(r.Address.Country)
	})
}

func (s *ListingServiceSuite) TestCreateListingRejections() {
	s.Run("unverified owner is forbidden", func() {
		unverified := s.owner
		unverified.OwnerVerified = false
		_, err := s.service.CreateListing(s.ctx, unverified, s.draft())
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("tenant is forbidden", func() {
		_, err := s.service.CreateListing(s.ctx, s.tenant, s.draft())
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("anonymous is unauthorized", func() {
		_, err := s.service.CreateListing(s.ctx, access.Identity{}, s.draft())
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("field rules", func() {
		d := s.draft()
		d.Title = "ab"
		d.Rent = 0
		d.Contact = "98000abc00"
		d.Description = "short"
		d.Address = models.Address{Province: "Bagmati"}

		_, err := s.service.CreateListing(s.ctx, s.owner, d)

		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		fields := map[string]bool{}
		for _, f := range dErrors.FieldsOf(err) {
			fields[f.Field] = true
		}
		for _, want := range []string{"title", "rent", "contact", "description", "address.district", "address.municipality"} {
			s.True(fields[want], "missing field error %s", want)
		}
	})

	s.Run("too many images", func() {
		d := s.draft()
		for i := range models.MaxImages + 1 {
			d.Uploads = append(d.Uploads, s.upload(strings.Repeat("x", i+1)+".png"))
		}
		_, err := s.service.CreateListing(s.ctx, s.owner, d)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Zero(s.blobs.Len())
	})

	s.Run("blob failure surfaces as upstream unavailable", func() {
		s.blobs.FailPuts(errors.New("cdn down"))
		defer s.blobs.FailPuts(nil)
		d := s.draft()
		d.Uploads = []blob.Upload{s.upload("a.png")}

		_, err := s.service.CreateListing(s.ctx, s.owner, d)

		s.True(dErrors.HasCode(err, dErrors.CodeUpstreamUnavailable))
	})
}

func (s *ListingServiceSuite) TestPublicReadsHideContact() {
	visible := s.verified(s.owner, s.draft())
	hidden := s.create(s.owner, s.draft())

	page, err := s.service.ListPublic(s.ctx, 0, 0)
	s.Require().NoError(err)
	s.Equal(1, page.Total)
	s.Equal(1, page.Page)
	s.Equal(10, page.Limit)
	s.Equal(visible.ID, page.Items[0].ID)

	body := testutil.MustMarshal(s.T(), page)
	s.NotContains(body, "contact")
	s.NotContains(body, visible.Contact)

	got, err := s.service.GetPublic(s.ctx, visible.ID)
	s.Require().NoError(err)
	s.Equal(visible.Title, got.Title)

	_, err = s.service.GetPublic(s.ctx, hidden.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ListingServiceSuite) TestSearch() {
	s.geocoder.point = nil
	cheap := s.draft()
	cheap.Title = "Budget room"
	cheap.Rent = 6000
	cheap.Location = &models.GeoPoint{Lon: 85.3240, Lat: 27.7172}
	s.verified(s.owner, cheap)

	pricey := s.draft()
	pricey.Title = "Penthouse room"
	pricey.Rent = 30000
	pricey.Features = []string{"wifi", "lift"}
	pricey.Location = &models.GeoPoint{Lon: 85.3300, Lat: 27.7200}
	s.verified(s.owner, pricey)

	s.Run("limit is capped", func() {
		page, err := s.service.Search(s.ctx, models.SearchFilter{Limit: 500})
		s.Require().NoError(err)
		s.Equal(50, page.Limit)
		s.Equal(2, page.Total)
	})

	s.Run("near uses the default radius and reports distance", func() {
		page, err := s.service.Search(s.ctx, models.SearchFilter{Near: &models.Near{Point: kathmandu}})
		s.Require().NoError(err)
		s.Require().Len(page.Items, 2)
		s.Equal("Budget room", page.Items[0].Title)
		s.Require().NotNil(page.Items[0].DistanceM)
		s.InDelta(0, *page.Items[0].DistanceM, 1)
	})

	s.Run("features and rent combine", func() {
		minRent := int64(10000)
		page, err := s.service.Search(s.ctx, models.SearchFilter{MinRent: &minRent, Features: []string{"LIFT"}})
		s.Require().NoError(err)
		s.Require().Len(page.Items, 1)
		s.Equal("Penthouse room", page.Items[0].Title)
	})

	s.Run("huge page is capped and empty", func() {
		var page *models.Page[models.PublicRoom]
		var err error
		s.Require().NotPanics(func() {
			page, err = s.service.Search(s.ctx, models.SearchFilter{Page: 1e18, Limit: 10})
		})
		s.Require().NoError(err)
		s.Empty(page.Items)
		s.Equal(2, page.Total)
		s.LessOrEqual((page.Page-1)*page.Limit, math.MaxInt32)

		listed, err := s.service.ListPublic(s.ctx, 1e18, 50)
		s.Require().NoError(err)
		s.Empty(listed.Items)
	})

	s.Run("inverted rent range is rejected", func() {
		minRent, maxRent := int64(5000), int64(1000)
		_, err := s.service.Search(s.ctx, models.SearchFilter{MinRent: &minRent, MaxRent: &maxRent})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ListingServiceSuite) TestUpdateListing() {
	s.Run("only the owner may update", func() {
		r := s.create(s.owner, s.draft())
		title := "Hijacked"
		_, err := s.service.UpdateListing(s.ctx, s.otherOwner, r.ID, models.Patch{Title: &title})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("missing room", func() {
		title := "Anything"
		_, err := s.service.UpdateListing(s.ctx, s.owner, id.NewRoomID(), models.Patch{Title: &title})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("scalar patch leaves location alone", func() {
		r := s.create(s.owner, s.draft())
		calls := len(s.geocoder.calls())
		rent := int64(15000)

		updated, err := s.service.UpdateListing(s.ctx, s.owner, r.ID, models.Patch{Rent: &rent})

		s.Require().NoError(err)
		s.Equal(int64(15000), updated.Rent)
		s.Equal(r.Location, updated.Location)
		s.Len(s.geocoder.calls(), calls)
	})

	s.Run("out of range coordinates without an address change keep the location", func() {
		r := s.create(s.owner, s.draft())
		s.Require().NotNil(r.Location)
		before := *r.Location
		s.geocoder.point = nil
		defer func() { s.geocoder.point = &kathmandu }()
		calls := len(s.geocoder.calls())

		updated, err := s.service.UpdateListing(s.ctx, s.owner, r.ID, models.Patch{Location: &models.GeoPoint{Lon: 85.3, Lat: 200}})

		s.Require().NoError(err)
		s.Require().NotNil(updated.Location)
		s.Equal(before, *updated.Location)
		s.Len(s.geocoder.calls(), calls)
	})

	s.Run("new coordinates win over a new address", func() {
		r := s.create(s.owner, s.draft())
		calls := len(s.geocoder.calls())
		addr := models.Address{Province: "Gandaki", District: "Kaski", Municipality: "Pokhara"}
		loc := models.GeoPoint{Lon: 83.98, Lat: 28.21}

		updated, err := s.service.UpdateListing(s.ctx, s.owner, r.ID, models.Patch{Address: &addr, Location: &loc})

		s.Require().NoError(err)
		s.Equal(loc, *updated.Location)
		s.Len(s.geocoder.calls(), calls)
	})

	s.Run("address change re-geocodes and a miss unsets the location", func() {
		r := s.create(s.owner, s.draft())
		s.Require().NotNil(r.Location)
		s.geocoder.point = nil
		defer func() { s.geocoder.point = &kathmandu }()
		addr := models.Address{Province: "Gandaki", District: "Kaski", Municipality: "Pokhara"}

		updated, err := s.service.UpdateListing(s.ctx, s.owner, r.ID, models.Patch{Address: &addr})

		s.Require().NoError(err)
		s.Nil(updated.Location)
		s.Equal("Pokhara, Kaski, Gandaki, Nepal", s.geocoder.calls()[len(s.geocoder.calls())-1])
	})

	s.Run("invalid patch uploads nothing", func() {
		r := s.create(s.owner, s.draft())
		before := s.blobs.Len()
		bad := int64(-1)

		_, err := s.service.UpdateListing(s.ctx, s.owner, r.ID, models.Patch{Rent: &bad, Uploads: []blob.Upload{s.upload("a.png")}})

		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(before, s.blobs.Len())
	})
}

func (s *ListingServiceSuite) TestUpdateListingImages() {
	d := s.draft()
	d.Uploads = []blob.Upload{s.upload("a.png"), s.upload("b.png"), s.upload("c.png")}

	s.Run("keep list retains in caller order then appends uploads", func() {
		r := s.create(s.owner, s.fresh(d))
		a, b, c := r.Images[0], r.Images[1], r.Images[2]
		keep := []string{c.Handle, a.Handle, "not-on-this-room"}

		updated, err := s.service.UpdateListing(s.ctx, s.owner, r.ID, models.Patch{
			KeepImages: &keep,
			Uploads:    []blob.Upload{s.upload("d.png")},
		})

		s.Require().NoError(err)
		s.Require().Len(updated.Images, 3)
		s.Equal(c, updated.Images[0])
		s.Equal(a, updated.Images[1])
		s.False(s.blobs.Has(b.Handle))
		s.True(s.blobs.Has(updated.Images[2].Handle))
	})

	s.Run("uploads without a keep list replace everything", func() {
		r := s.create(s.owner, s.fresh(d))

		updated, err := s.service.UpdateListing(s.ctx, s.owner, r.ID, models.Patch{Uploads: []blob.Upload{s.upload("z.png")}})

		s.Require().NoError(err)
		s.Len(updated.Images, 1)
		for _, old := range r.Images {
			s.False(s.blobs.Has(old.Handle))
		}
	})

	s.Run("empty keep list clears images", func() {
		r := s.create(s.owner, s.fresh(d))
		keep := []string{}

		updated, err := s.service.UpdateListing(s.ctx, s.owner, r.ID, models.Patch{KeepImages: &keep})

		s.Require().NoError(err)
		s.Empty(updated.Images)
	})

	s.Run("no image fields keep the images", func() {
		r := s.create(s.owner, s.fresh(d))
		title := "Renamed room"

		updated, err := s.service.UpdateListing(s.ctx, s.owner, r.ID, models.Patch{Title: &title})

		s.Require().NoError(err)
		s.Equal(r.Images, updated.Images)
	})

	s.Run("more than five final images is rejected", func() {
		r := s.create(s.owner, s.fresh(d))
		keep := []string{r.Images[0].Handle, r.Images[1].Handle, r.Images[2].Handle}
		uploads := []blob.Upload{s.upload("x.png"), s.upload("y.png"), s.upload("z.png")}

		_, err := s.service.UpdateListing(s.ctx, s.owner, r.ID, models.Patch{KeepImages: &keep, Uploads: uploads})

		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// fresh copies d with new readers so each room gets its own upload bodies.
func (s *ListingServiceSuite) fresh(d models.Draft) models.Draft {
	out := d
	out.Uploads = make([]blob.Upload, len(d.Uploads))
	for i, u := range d.Uploads {
		out.Uploads[i] = s.upload(u.Name)
	}
	return out
}

func (s *ListingServiceSuite) TestDeleteListing() {
	s.Run("owner deletes own room and blobs", func() {
		d := s.draft()
		d.Uploads = []blob.Upload{s.upload("a.png")}
		r := s.create(s.owner, d)
		count := s.owners.count(s.owner.UserID)

		s.Require().NoError(s.service.DeleteListing(s.ctx, s.owner, r.ID))

		s.False(s.blobs.Has(r.Images[0].Handle))
		s.Equal(count-1, s.owners.count(s.owner.UserID))
		_, err := s.rooms.FindByID(s.ctx, r.ID)
		s.Error(err)
	})

	s.Run("another owner is forbidden", func() {
		r := s.create(s.owner, s.draft())
		err := s.service.DeleteListing(s.ctx, s.otherOwner, r.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin deletes any room", func() {
		r := s.create(s.owner, s.draft())
		s.Require().NoError(s.service.DeleteListing(s.ctx, s.admin, r.ID))
	})

	s.Run("tenant is forbidden", func() {
		r := s.create(s.owner, s.draft())
		err := s.service.DeleteListing(s.ctx, s.tenant, r.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("missing room", func() {
		err := s.service.DeleteListing(s.ctx, s.admin, id.NewRoomID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ListingServiceSuite) TestModeration() {
	r := s.create(s.owner, s.draft())
	orphan := s.create(s.otherOwner, s.draft())

	s.Run("verify is admin only", func() {
		_, err := s.service.VerifyRoom(s.ctx, s.owner, r.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("verify is idempotent and audited once", func() {
		first, err := s.service.VerifyRoom(s.ctx, s.admin, r.ID)
		s.Require().NoError(err)
		s.True(first.IsVerified)
		_, err = s.service.VerifyRoom(s.ctx, s.admin, r.ID)
		s.Require().NoError(err)
		s.Len(s.audit.ListByAction(s.ctx, audit.EventRoomVerified), 1)
	})

	s.Run("verify missing room", func() {
		_, err := s.service.VerifyRoom(s.ctx, s.admin, id.NewRoomID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("admin list includes unverified rooms and owners", func() {
		page, err := s.service.AdminListAll(s.ctx, s.admin, models.AdminFilter{})
		s.Require().NoError(err)
		s.Equal(2, page.Total)
		s.Equal(20, page.Limit)
		for _, item := range page.Items {
			s.NotEmpty(item.Contact)
			if item.ID == r.ID {
				s.Require().NotNil(item.Owner)
				s.Equal("Maya", item.Owner.Name)
			}
			if item.ID == orphan.ID {
				s.Nil(item.Owner)
			}
		}
	})

	s.Run("admin filter by verification", func() {
		unverified := false
		page, err := s.service.AdminListAll(s.ctx, s.admin, models.AdminFilter{Verified: &unverified})
		s.Require().NoError(err)
		s.Require().Len(page.Items, 1)
		s.Equal(orphan.ID, page.Items[0].ID)
	})

	s.Run("admin get", func() {
		got, err := s.service.AdminGetByID(s.ctx, s.admin, r.ID)
		s.Require().NoError(err)
		s.Equal(r.Contact, got.Contact)
		s.True(got.IsVerified)
	})

	s.Run("export writes a workbook", func() {
		var buf bytes.Buffer
		s.Require().NoError(s.service.ExportXLSX(s.ctx, s.admin, models.AdminFilter{}, &buf))

		f, err := excelize.OpenReader(&buf)
		s.Require().NoError(err)
		defer f.Close()
		rows, err := f.GetRows("Rooms")
		s.Require().NoError(err)
		s.Len(rows, 3)
	})

	s.Run("export is admin only", func() {
		err := s.service.ExportXLSX(s.ctx, s.tenant, models.AdminFilter{}, io.Discard)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ListingServiceSuite) TestOwnerViews() {
	mine := s.create(s.owner, s.draft())
	theirs := s.create(s.otherOwner, s.draft())

	rooms, err := s.service.ListOwnerRooms(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Require().Len(rooms, 1)
	s.Equal(mine.ID, rooms[0].ID)
	s.Equal(mine.Contact, rooms[0].Contact)

	got, err := s.service.GetOwnerRoom(s.ctx, s.owner, mine.ID)
	s.Require().NoError(err)
	s.False(got.IsVerified)

	_, err = s.service.GetOwnerRoom(s.ctx, s.owner, theirs.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
