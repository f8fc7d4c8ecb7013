package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) TestGetSet() {
	s.Run("missing key reports not found", func() {
		v, ok, err := s.store.Get(s.ctx, "rc:collection:missing")
		s.Require().NoError(err)
		s.False(ok)
		s.Nil(v)
	})

	s.Run("stored value is returned", func() {
		s.Require().NoError(s.store.Set(s.ctx, "rc:collection:blood_banks", []byte("v1")))
		v, ok, err := s.store.Get(s.ctx, "rc:collection:blood_banks")
		s.Require().NoError(err)
		s.True(ok)
		s.Equal([]byte("v1"), v)
	})

	s.Run("caller mutations do not leak into the store", func() {
		buf := []byte("abc")
		s.Require().NoError(s.store.Set(s.ctx, "k", buf))
		buf[0] = 'z'
		v, _, err := s.store.Get(s.ctx, "k")
		s.Require().NoError(err)
		s.Equal([]byte("abc"), v)
	})
}

func (s *InMemoryStoreSuite) TestKeysAndDelete() {
	for _, k := range []string{"rq:default:a", "rq:default:b", "rc:collection:x"} {
		s.Require().NoError(s.store.Set(s.ctx, k, []byte("1")))
	}

	keys, err := s.store.Keys(s.ctx, "rq:")
	s.Require().NoError(err)
	s.Equal([]string{"rq:default:a", "rq:default:b"}, keys)

	s.Require().NoError(s.store.Delete(s.ctx, "rq:default:a", "never-existed"))
	keys, err = s.store.Keys(s.ctx, "")
	s.Require().NoError(err)
	s.Equal([]string{"rc:collection:x", "rq:default:b"}, keys)
}
