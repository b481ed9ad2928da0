package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ratrace-game/server/internal/dependencies/mocks"
	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.clock, s.random, Config{
		Secret:        "test-secret",
		TokenDuration: time.Hour,
	})
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestCreateGuestIssuesVerifiableToken() {
	identity, err := s.service.CreateGuest(s.ctx, "Alice", "alice@example.com")
	s.Require().NoError(err)
	s.True(identity.Account.IsGuest)
	s.NotEmpty(identity.Token)

	account, err := s.service.Verify(s.ctx, identity.Token)
	s.Require().NoError(err)
	s.Equal(identity.Account.ID, account.ID)
	s.Equal("Alice", account.DisplayName)
}

func (s *ServiceSuite) TestRegisterAndLogin() {
	identity, err := s.service.Register(s.ctx, "alice", "hunter22", "Alice", "alice@example.com")
	s.Require().NoError(err)
	s.False(identity.Account.IsGuest)

	login, err := s.service.Login(s.ctx, "alice", "hunter22")
	s.Require().NoError(err)
	s.Equal(identity.Account.ID, login.Account.ID)
}

func (s *ServiceSuite) TestRegisterDuplicateUsername() {
	_, err := s.service.Register(s.ctx, "alice", "hunter22", "Alice", "alice@example.com")
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, "alice", "other", "Other Alice", "other@example.com")
	s.ErrorIs(err, ErrUsernameExists)
}

func (s *ServiceSuite) TestLoginWrongPassword() {
	_, err := s.service.Register(s.ctx, "alice", "hunter22", "Alice", "alice@example.com")
	s.Require().NoError(err)

	_, err = s.service.Login(s.ctx, "alice", "wrong")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginUnknownUsername() {
	_, err := s.service.Login(s.ctx, "nobody", "whatever")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestVerifyRejectsGarbageToken() {
	_, err := s.service.Verify(s.ctx, "not-a-token")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyRejectsExpiredToken() {
	identity, err := s.service.CreateGuest(s.ctx, "Alice", "alice@example.com")
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Hour)
	_, err = s.service.Verify(s.ctx, identity.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyRejectsTokenSignedWithOtherSecret() {
	other := New(s.storage, s.clock, s.random, Config{Secret: "different", TokenDuration: time.Hour})
	identity, err := other.CreateGuest(s.ctx, "Mallory", "mallory@example.com")
	s.Require().NoError(err)

	_, err = s.service.Verify(s.ctx, identity.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyRejectsDeletedAccount() {
	identity, err := s.service.CreateGuest(s.ctx, "Alice", "alice@example.com")
	s.Require().NoError(err)

	s.Require().NoError(s.storage.DeleteAccount(s.ctx, identity.Account.ID))

	_, err = s.service.Verify(s.ctx, identity.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestRegisteredAccountLookupByUsername() {
	identity, err := s.service.Register(s.ctx, "alice", "hunter22", "Alice", "alice@example.com")
	s.Require().NoError(err)

	registered, err := s.storage.GetRegisteredAccountByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(identity.Account.ID, registered.PlayerID)
	s.NotEqual("hunter22", registered.PasswordHash)
}

func (s *ServiceSuite) TestPlayerIDsArePrefixed() {
	identity, err := s.service.CreateGuest(s.ctx, "Alice", "alice@example.com")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p_"), identity.Account.ID[:2])
}
