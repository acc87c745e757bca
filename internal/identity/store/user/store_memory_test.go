package user

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rentmeroom/internal/access"
	"rentmeroom/internal/identity/models"
	id "rentmeroom/pkg/domain"
	"rentmeroom/pkg/platform/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store *InMemoryUserStore
	ctx   context.Context
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryUserStoreSuite) newUser(email string, createdAt time.Time) *models.User {
	u, err := models.NewUser(id.NewUserID(), "Ram", email, "hash", createdAt)
	s.Require().NoError(err)
	return u
}

func (s *InMemoryUserStoreSuite) TestLookup() {
	u := s.newUser("ram@example.com", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, u))

	s.Run("by id", func() {
		found, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(u, found)
	})

	s.Run("by email", func() {
		found, err := s.store.FindByEmail(s.ctx, "ram@example.com")
		s.Require().NoError(err)
		s.Equal(u.ID, found.ID)
	})

	s.Run("missing", func() {
		_, err := s.store.FindByID(s.ctx, id.NewUserID())
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByEmail(s.ctx, "nobody@example.com")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("batch skips unknown ids", func() {
		found, err := s.store.FindByIDs(s.ctx, []id.UserID{u.ID, id.NewUserID()})
		s.Require().NoError(err)
		s.Len(found, 1)
		s.Contains(found, u.ID)
	})

	s.Run("returned copies do not alias stored state", func() {
		found, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		found.Role = access.RoleAdmin
		again, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(access.RoleTenant, again.Role)
	})
}

func (s *InMemoryUserStoreSuite) TestDuplicateEmail() {
	s.Require().NoError(s.store.Create(s.ctx, s.newUser("dup@example.com", time.Now())))
	err := s.store.Create(s.ctx, s.newUser("dup@example.com", time.Now()))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *InMemoryUserStoreSuite) TestConcurrentCreateSameEmail() {
	const workers = 20
	var wg sync.WaitGroup
	var created, conflicts atomic.Int32
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(s.ctx, s.newUser("race@example.com", time.Now()))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), created.Load())
	s.Equal(int32(workers-1), conflicts.Load())
}

func (s *InMemoryUserStoreSuite) TestList() {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		s.Require().NoError(s.store.Create(s.ctx, s.newUser(email, base.Add(time.Duration(i)*time.Hour))))
	}

	page, total, err := s.store.List(s.ctx, 0, 2)
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(page, 2)
	s.Equal("c@example.com", page[0].Email)

	page, _, err = s.store.List(s.ctx, 2, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal("a@example.com", page[0].Email)

	page, _, err = s.store.List(s.ctx, 10, 2)
	s.Require().NoError(err)
	s.Empty(page)
}

func (s *InMemoryUserStoreSuite) TestExecute() {
	u := s.newUser("exec@example.com", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, u))

	s.Run("failed callback leaves record untouched", func() {
		_, err := s.store.Execute(s.ctx, u.ID, func(u *models.User) error {
			u.Role = access.RoleAdmin
			return errors.New("nope")
		})
		s.Require().Error(err)
		found, _ := s.store.FindByID(s.ctx, u.ID)
		s.Equal(access.RoleTenant, found.Role)
	})

	s.Run("successful callback persists", func() {
		updated, err := s.store.Execute(s.ctx, u.ID, func(u *models.User) error {
			return u.ChangeRole(access.RoleAdmin, time.Now())
		})
		s.Require().NoError(err)
		s.Equal(access.RoleAdmin, updated.Role)
	})

	s.Run("missing user", func() {
		_, err := s.store.Execute(s.ctx, id.NewUserID(), func(*models.User) error { return nil })
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryUserStoreSuite) TestDelete() {
	u := s.newUser("gone@example.com", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, u))
	s.Require().NoError(s.store.Delete(s.ctx, u.ID))

	_, err := s.store.FindByEmail(s.ctx, "gone@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, u.ID), sentinel.ErrNotFound)

	s.Require().NoError(s.store.Create(s.ctx, s.newUser("gone@example.com", time.Now())), "email is free again")
}
