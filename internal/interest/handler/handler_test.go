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
	identity "rentmeroom/internal/identity/models"
	"rentmeroom/internal/interest/handler/mocks"
	"rentmeroom/internal/interest/models"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type InterestHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	owner   access.Identity
	tenant  access.Identity
	now     time.Time
}

func TestInterestHandlerSuite(t *testing.T) {
	suite.Run(t, new(InterestHandlerSuite))
}

func (s *InterestHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.service, logger, testutil.Authenticate).Register(s.router)

	s.owner = testutil.VerifiedOwner(id.NewUserID())
	s.tenant = testutil.Tenant(id.NewUserID())
	s.now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InterestHandlerSuite) TestMarkInterested() {
	roomID := id.NewRoomID()

	s.Run("requires authentication", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/interests", map[string]string{"roomId": roomID.String()})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("creates the interest", func() {
		s.service.EXPECT().MarkInterested(gomock.Any(), s.tenant, roomID, "Still free?").Return(&models.MyInterest{
			ID:        id.NewInterestID(),
			Message:   "Still free?",
			Status:    models.StatusPending,
			Room:      models.RoomSnapshot{ID: roomID, Title: "Sunny room", Rent: 9000, IsVerified: true},
			CreatedAt: s.now,
			UpdatedAt: s.now,
		}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/interests", map[string]string{
			"roomId":  roomID.String(),
			"message": "Still free?",
		})
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.tenant))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "status", "pending")
		body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		room := (*body)["room"].(map[string]any)
		s.Contains(room, "contact")
		s.Nil(room["contact"])
	})

	s.Run("missing room id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/interests", map[string]string{"message": "hi"})
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.tenant))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("malformed room id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/interests", map[string]string{"roomId": "room-1"})
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.tenant))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("unknown fields are rejected", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/interests", `{"roomId":"`+roomID.String()+`","status":"contacted"}`)
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.tenant))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("duplicate maps to conflict", func() {
		s.service.EXPECT().MarkInterested(gomock.Any(), s.tenant, roomID, "").
			Return(nil, dErrors.New(dErrors.CodeConflict, "you have already marked interest in this room"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/interests", map[string]string{"roomId": roomID.String()})
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.tenant))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeConflict))
	})
}

func (s *InterestHandlerSuite) TestListMyInterests() {
	contact := "+977 9800000000"
	s.service.EXPECT().ListMyInterests(gomock.Any(), s.tenant).Return([]models.MyInterest{
		{
			ID:     id.NewInterestID(),
			Status: models.StatusContacted,
			Room:   models.RoomSnapshot{ID: id.NewRoomID(), Title: "Sunny room", Contact: &contact},
		},
	}, nil)

	rr := testutil.DoRequest(s.router, testutil.WithIdentity(testutil.NewRequest(s.T(), http.MethodGet, "/interests"), s.tenant))

	testutil.AssertStatusOK(s.T(), rr)
	body := testutil.UnmarshalResponse[interestsResponse](s.T(), rr)
	s.Require().Len(body.Interests, 1)
	s.Require().NotNil(body.Interests[0].Room.Contact)
	s.Equal(contact, *body.Interests[0].Room.Contact)
}

func (s *InterestHandlerSuite) TestOwnerQueue() {
	s.Run("tenants are forbidden before the service is reached", func() {
		req := testutil.WithIdentity(testutil.NewRequest(s.T(), http.MethodGet, "/owner/interests"), s.tenant)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("returns groups in order", func() {
		first, second := id.NewRoomID(), id.NewRoomID()
		s.service.EXPECT().ListOwnerQueue(gomock.Any(), s.owner).Return([]models.QueueGroup{
			{
				Room: models.RoomSnapshot{ID: first, Title: "Room B"},
				Interests: []models.QueueEntry{
					{ID: id.NewInterestID(), Tenant: identity.PublicUser{ID: s.tenant.UserID, Name: "Asha"}, Status: models.StatusPending},
				},
			},
			{Room: models.RoomSnapshot{ID: second, Title: "Room A"}, Interests: []models.QueueEntry{}},
		}, nil)

		req := testutil.WithIdentity(testutil.NewRequest(s.T(), http.MethodGet, "/owner/interests"), s.owner)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		body := testutil.UnmarshalResponse[queueResponse](s.T(), rr)
		s.Require().Len(body.Rooms, 2)
		s.Equal(first, body.Rooms[0].Room.ID)
		s.Equal("Asha", body.Rooms[0].Interests[0].Tenant.Name)
	})
}

func (s *InterestHandlerSuite) TestMarkContacted() {
	interestID := id.NewInterestID()
	path := "/owner/interests/" + interestID.String() + "/contacted"

	s.Run("returns the updated interest", func() {
		s.service.EXPECT().MarkContacted(gomock.Any(), s.owner, interestID).Return(&models.Interest{
			ID:        interestID,
			TenantID:  s.tenant.UserID,
			RoomID:    id.NewRoomID(),
			Status:    models.StatusContacted,
			CreatedAt: s.now,
			UpdatedAt: s.now.Add(time.Hour),
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.WithIdentity(testutil.NewRequest(s.T(), http.MethodPut, path), s.owner))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", "contacted")
		testutil.AssertJSONContains(s.T(), rr, "tenantId", s.tenant.UserID.String())
	})

	s.Run("foreign interest is forbidden", func() {
		s.service.EXPECT().MarkContacted(gomock.Any(), s.owner, interestID).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "only the room owner can manage this interest"))

		rr := testutil.DoRequest(s.router, testutil.WithIdentity(testutil.NewRequest(s.T(), http.MethodPut, path), s.owner))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("malformed id", func() {
		req := testutil.NewRequest(s.T(), http.MethodPut, "/owner/interests/abc/contacted")
		rr := testutil.DoRequest(s.router, testutil.WithIdentity(req, s.owner))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})
}

func (s *InterestHandlerSuite) TestDeleteInterest() {
	interestID := id.NewInterestID()
	path := "/owner/interests/" + interestID.String()

	s.Run("no content on success", func() {
		s.service.EXPECT().DeleteInterest(gomock.Any(), s.owner, interestID).Return(nil)

		rr := testutil.DoRequest(s.router, testutil.WithIdentity(testutil.NewRequest(s.T(), http.MethodDelete, path), s.owner))

		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("service failure is internal", func() {
		s.service.EXPECT().DeleteInterest(gomock.Any(), s.owner, interestID).
			DoAndReturn(func(context.Context, access.Identity, id.InterestID) error {
				return dErrors.Wrap(io.ErrUnexpectedEOF, dErrors.CodeInternal, "failed to delete interest")
			})

		rr := testutil.DoRequest(s.router, testutil.WithIdentity(testutil.NewRequest(s.T(), http.MethodDelete, path), s.owner))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	})
}

func (s *InterestHandlerSuite) TestWriteRateLimitGuardsOnlyCreation() {
	reject := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	router := chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)), testutil.Authenticate, WithWriteRateLimit(reject)).Register(router)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/interests", map[string]string{"roomId": id.NewRoomID().String()})
	testutil.AssertStatus(s.T(), testutil.DoRequest(router, testutil.WithIdentity(req, s.tenant)), http.StatusTooManyRequests)

	s.service.EXPECT().ListMyInterests(gomock.Any(), s.tenant).Return([]models.MyInterest{}, nil)
	rr := testutil.DoRequest(router, testutil.WithIdentity(testutil.NewRequest(s.T(), http.MethodGet, "/interests"), s.tenant))
	testutil.AssertStatusOK(s.T(), rr)
}
