package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"rentmeroom/internal/access"
	"rentmeroom/internal/blob"
	"rentmeroom/internal/listing/handler/mocks"
	"rentmeroom/internal/listing/models"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type ListingHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	owner   access.Identity
	admin   access.Identity
	tenant  access.Identity
}

func TestListingHandlerSuite(t *testing.T) {
	suite.Run(t, new(ListingHandlerSuite))
}

func (s *ListingHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.service, logger, testutil.Authenticate, 1<<20).Register(s.router)

	s.owner = testutil.VerifiedOwner(id.NewUserID())
	s.admin = testutil.Admin(id.NewUserID())
	s.tenant = testutil.Tenant(id.NewUserID())
}

func (s *ListingHandlerSuite) sampleRoom() *models.Room {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return &models.Room{
		ID:          id.NewRoomID(),
		OwnerID:     s.owner.UserID,
		Title:       "Sunny room",
		Rent:        12000,
		AddressText: "Jhamsikhel, Lalitpur",
		Contact:     "+977 9800000000",
		Features:    []string{"wifi"},
		Description: "Second floor room with balcony",
		Images:      []blob.Image{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *ListingHandlerSuite) TestPublicRoutes() {
	s.Run("list passes paging through", func() {
		s.service.EXPECT().ListPublic(gomock.Any(), 2, 5).Return(&models.Page[models.PublicRoom]{
			Items: []models.PublicRoom{s.sampleRoom().Public()}, Total: 6, Page: 2, Limit: 5,
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/rooms?page=2&limit=5"))

		testutil.AssertStatusOK(s.T(), rr)
		body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.EqualValues(6, (*body)["total"])
		rooms := (*body)["rooms"].([]any)
		s.Require().Len(rooms, 1)
		s.NotContains(rooms[0].(map[string]any), "contact")
	})

	s.Run("get rejects a malformed id", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/rooms/not-a-uuid"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})

	s.Run("get maps not found", func() {
		roomID := id.NewRoomID()
		s.service.EXPECT().GetPublic(gomock.Any(), roomID).Return(nil, dErrors.New(dErrors.CodeNotFound, "room not found"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/rooms/"+roomID.String()))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}

func (s *ListingHandlerSuite) TestSearch() {
	s.Run("builds the filter from the query", func() {
		s.service.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, f models.SearchFilter) (*models.Page[models.PublicRoom], error) {
				s.Equal("balcony", f.Keywords)
				s.Require().NotNil(f.MinRent)
				s.Equal(int64(5000), *f.MinRent)
				s.Nil(f.MaxRent)
				s.Equal([]string{"wifi", "parking", "lift"}, f.Features)
				s.Require().NotNil(f.Near)
				s.Equal(models.GeoPoint{Lon: 85.32, Lat: 27.71}, f.Near.Point)
				s.Equal(1500.0, f.Near.RadiusMeters)
				s.Equal(3, f.Page)
				return &models.Page[models.PublicRoom]{Items: []models.PublicRoom{}, Page: 3, Limit: 10}, nil
			})

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet,
			"/rooms/search?q=balcony&minRent=5000&features=wifi,parking&features=lift&lat=27.71&lng=85.32&radius=1500&page=3"))

		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("non-numeric rent", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/rooms/search?minRent=cheap"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("latitude without longitude", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/rooms/search?lat=27.7"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("latitude out of range", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/rooms/search?lat=97&lng=85"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

func (s *ListingHandlerSuite) TestCreate() {
	fields := map[string]string{
		"title":       "Sunny room",
		"rent":        "12000",
		"contact":     "+977 9800000000",
		"description": "Second floor room with balcony",
		"address":     `{"province":"Bagmati","district":"Lalitpur","municipality":"Lalitpur Metropolitan","wardNo":3}`,
		"features":    `["wifi","parking"]`,
		"location":    `{"type":"Point","coordinates":[85.31,27.68]}`,
	}

	s.Run("requires authentication", func() {
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/rooms", fields)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("tenants are forbidden before the service is reached", func() {
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/rooms", fields)
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.tenant))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("unverified owners are forbidden", func() {
		unverified := s.owner
		unverified.OwnerVerified = false
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/rooms", fields)
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, unverified))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("parses the form and images", func() {
		room := s.sampleRoom()
		s.service.EXPECT().CreateListing(gomock.Any(), s.owner, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ access.Identity, d models.Draft) (*models.Room, error) {
				s.Equal("Sunny room", d.Title)
				s.Equal(int64(12000), d.Rent)
				s.Equal("Lalitpur", d.Address.District)
				s.Require().NotNil(d.Address.Ward)
				s.Equal(3, *d.Address.Ward)
				s.Empty(d.AddressText)
				s.Equal([]string{"wifi", "parking"}, d.Features)
				s.Equal(&models.GeoPoint{Lon: 85.31, Lat: 27.68}, d.Location)
				s.Require().Len(d.Uploads, 2)
				s.Equal("image/png", d.Uploads[0].ContentType)
				return room, nil
			})

		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/rooms", fields,
			testutil.MultipartFile{Field: "images", Name: "a.png", Content: testutil.PNG},
			testutil.MultipartFile{Field: "images", Name: "b.jpg", Content: testutil.JPEG},
		)
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.owner))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "contact", room.Contact)
		testutil.AssertJSONContains(s.T(), rr, "isVerified", false)
	})

	s.Run("plain text address and lat lng", func() {
		s.service.EXPECT().CreateListing(gomock.Any(), s.owner, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ access.Identity, d models.Draft) (*models.Room, error) {
				s.Equal("Jhamsikhel, Lalitpur", d.AddressText)
				s.True(d.Address.IsZero())
				s.Equal(&models.GeoPoint{Lon: 85.3, Lat: 27.7}, d.Location)
				return s.sampleRoom(), nil
			})

		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/rooms", map[string]string{
			"title": "Sunny room", "rent": "12000", "contact": "9800000000",
			"description": "Second floor room", "address": "Jhamsikhel, Lalitpur",
			"lat": "27.7", "lng": "85.3",
		})
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.owner))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("non-numeric rent", func() {
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/rooms", map[string]string{
			"title": "Sunny room", "rent": "twelve thousand",
		})
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.owner))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("rejects non-image uploads", func() {
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/rooms", fields,
			testutil.MultipartFile{Field: "images", Name: "a.png", Content: []byte("not an image")})
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.owner))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("rejects a sixth image", func() {
		files := make([]testutil.MultipartFile, models.MaxImages+1)
		for i := range files {
			files[i] = testutil.MultipartFile{Field: "images", Name: "a.png", Content: testutil.PNG}
		}
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/rooms", fields, files...)
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.owner))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

func (s *ListingHandlerSuite) TestUpdate() {
	s.Run("only sent fields become patch fields", func() {
		room := s.sampleRoom()
		s.service.EXPECT().UpdateListing(gomock.Any(), s.owner, room.ID, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ access.Identity, _ id.RoomID, p models.Patch) (*models.Room, error) {
				s.Require().NotNil(p.Rent)
				s.Equal(int64(15000), *p.Rent)
				s.Nil(p.Title)
				s.Nil(p.Address)
				s.Nil(p.Location)
				s.Nil(p.Features)
				s.Require().NotNil(p.KeepImages)
				s.Equal([]string{"h2", "h1"}, *p.KeepImages)
				s.Len(p.Uploads, 1)
				return room, nil
			})

		req := testutil.NewMultipartRequest(s.T(), http.MethodPut, "/rooms/"+room.ID.String(), map[string]string{
			"rent": "15000", "keepImages": `["h2","h1"]`,
		}, testutil.MultipartFile{Field: "images", Name: "c.png", Content: testutil.PNG})
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.owner))

		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("text address replaces the structured one", func() {
		room := s.sampleRoom()
		s.service.EXPECT().UpdateListing(gomock.Any(), s.owner, room.ID, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ access.Identity, _ id.RoomID, p models.Patch) (*models.Room, error) {
				s.Require().NotNil(p.AddressText)
				s.Equal("Baluwatar, Kathmandu", *p.AddressText)
				s.Require().NotNil(p.Address)
				s.True(p.Address.IsZero())
				s.Nil(p.KeepImages)
				return room, nil
			})

		req := testutil.NewMultipartRequest(s.T(), http.MethodPut, "/rooms/"+room.ID.String(), map[string]string{
			"address": "Baluwatar, Kathmandu",
		})
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.owner))

		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("maps forbidden", func() {
		roomID := id.NewRoomID()
		s.service.EXPECT().UpdateListing(gomock.Any(), s.owner, roomID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "only the owner can update this room"))

		req := testutil.NewMultipartRequest(s.T(), http.MethodPut, "/rooms/"+roomID.String(), map[string]string{"title": "Mine now"})
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.owner))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("malformed keep list", func() {
		req := testutil.NewMultipartRequest(s.T(), http.MethodPut, "/rooms/"+id.NewRoomID().String(), map[string]string{
			"keepImages": `["h1",`,
		})
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.owner))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

func (s *ListingHandlerSuite) TestDelete() {
	s.Run("owner", func() {
		roomID := id.NewRoomID()
		s.service.EXPECT().DeleteListing(gomock.Any(), s.owner, roomID).Return(nil)

		req := testutil.NewRequest(s.T(), http.MethodDelete, "/rooms/"+roomID.String())
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.owner))

		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("admin", func() {
		roomID := id.NewRoomID()
		s.service.EXPECT().DeleteListing(gomock.Any(), s.admin, roomID).Return(nil)

		req := testutil.NewRequest(s.T(), http.MethodDelete, "/rooms/"+roomID.String())
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.admin))

		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("tenant", func() {
		req := testutil.NewRequest(s.T(), http.MethodDelete, "/rooms/"+id.NewRoomID().String())
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.tenant))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})
}

func (s *ListingHandlerSuite) TestOwnerRoutes() {
	room := s.sampleRoom()
	s.service.EXPECT().ListOwnerRooms(gomock.Any(), s.owner).Return([]models.OwnerRoom{room.Full()}, nil)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/owner/rooms")
	rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.owner))

	testutil.AssertStatusOK(s.T(), rr)
	body := testutil.UnmarshalResponse[ownerRoomsResponse](s.T(), rr)
	s.Require().Len(body.Rooms, 1)
	s.Equal(room.Contact, body.Rooms[0].Contact)
}

func (s *ListingHandlerSuite) TestAdminRoutes() {
	s.Run("tenant is forbidden", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/admin/rooms")
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.tenant))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("list with verified filter", func() {
		s.service.EXPECT().AdminListAll(gomock.Any(), s.admin, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ access.Identity, f models.AdminFilter) (*models.Page[models.OwnerRoom], error) {
				s.Require().NotNil(f.Verified)
				s.False(*f.Verified)
				return &models.Page[models.OwnerRoom]{Items: []models.OwnerRoom{}, Page: 1, Limit: 20}, nil
			})

		req := testutil.NewRequest(s.T(), http.MethodGet, "/admin/rooms?verified=false")
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.admin))

		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("bad verified filter", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/admin/rooms?verified=maybe")
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.admin))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("verify", func() {
		room := s.sampleRoom()
		room.IsVerified = true
		s.service.EXPECT().VerifyRoom(gomock.Any(), s.admin, room.ID).Return(room, nil)

		req := testutil.NewRequest(s.T(), http.MethodPut, "/admin/rooms/"+room.ID.String()+"/verify")
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.admin))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "isVerified", true)
	})

	s.Run("export streams a workbook", func() {
		s.service.EXPECT().ExportXLSX(gomock.Any(), s.admin, gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ access.Identity, _ models.AdminFilter, w io.Writer) error {
				_, err := w.Write([]byte("PK"))
				return err
			})

		req := testutil.NewRequest(s.T(), http.MethodGet, "/admin/rooms/export")
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.admin))

		testutil.AssertStatusOK(s.T(), rr)
		s.Equal(xlsxContentType, rr.Header().Get("Content-Type"))
		s.Contains(rr.Header().Get("Content-Disposition"), ".xlsx")
		s.Equal("PK", rr.Body.String())
	})

	s.Run("export failure is a JSON error", func() {
		s.service.EXPECT().ExportXLSX(gomock.Any(), s.admin, gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeInternal, "boom"))

		req := testutil.NewRequest(s.T(), http.MethodGet, "/admin/rooms/export")
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.admin))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	})
}
