//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rentmeroom/internal/auth/revocation"
	"rentmeroom/pkg/testutil/containers"
)

type RevocationIntegrationSuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	postgres *containers.PostgresContainer
}

func TestRevocationIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RevocationIntegrationSuite))
}

func (s *RevocationIntegrationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.postgres = mgr.GetPostgres(s.T())
}

func (s *RevocationIntegrationSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.redis.FlushAll(ctx))
	s.Require().NoError(s.postgres.TruncateTables(ctx, "token_revocations"))
}

func (s *RevocationIntegrationSuite) TestRedisList() {
	ctx := context.Background()
	list := revocation.NewRedisList(s.redis.Client)

	s.Run("revoke and check", func() {
		s.Require().NoError(list.RevokeToken(ctx, "jti-a", time.Minute))
		revoked, err := list.IsRevoked(ctx, "jti-a")
		s.Require().NoError(err)
		s.True(revoked)
	})

	s.Run("batch", func() {
		s.Require().NoError(list.RevokeTokens(ctx, []string{"jti-b", "", "jti-c"}, time.Minute))
		for _, jti := range []string{"jti-b", "jti-c"} {
			revoked, err := list.IsRevoked(ctx, jti)
			s.Require().NoError(err)
			s.True(revoked, jti)
		}
	})

	s.Run("entry carries ttl", func() {
		ttl, err := s.redis.Client.TTL(ctx, "rmr:revoked:jti-a").Result()
		s.Require().NoError(err)
		s.Greater(ttl, time.Duration(0))
	})
}

func (s *RevocationIntegrationSuite) TestPostgresList() {
	ctx := context.Background()
	now := time.Now()
	list := revocation.NewPostgresList(s.postgres.DB, func() time.Time { return now })

	s.Require().NoError(list.RevokeToken(ctx, "jti-p", time.Hour))
	revoked, err := list.IsRevoked(ctx, "jti-p")
	s.Require().NoError(err)
	s.True(revoked)

	s.Require().NoError(list.RevokeTokens(ctx, []string{"jti-q", "jti-r"}, time.Hour))
	revoked, err = list.IsRevoked(ctx, "jti-r")
	s.Require().NoError(err)
	s.True(revoked)

	later := revocation.NewPostgresList(s.postgres.DB, func() time.Time { return now.Add(2 * time.Hour) })
	revoked, err = later.IsRevoked(ctx, "jti-p")
	s.Require().NoError(err)
	s.False(revoked)

	purged, err := later.PurgeExpired(ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), purged)
}
