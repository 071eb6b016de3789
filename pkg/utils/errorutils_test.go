package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorUtilsSuite struct {
	suite.Suite
}

func TestErrorUtilsSuite(t *testing.T) {
	suite.Run(t, new(ErrorUtilsSuite))
}

func (s *ErrorUtilsSuite) TestWrapIfNotNilPassesNil() {
	s.NoError(WrapIfNotNil(nil, "ignored"))
}

func (s *ErrorUtilsSuite) TestWrapIfNotNilAddsCallerAndContext() {
	base := errors.New("disk full")
	err := WrapIfNotNil(base, "out.json")

	s.Require().Error(err)
	s.ErrorIs(err, base)
	s.Contains(err.Error(), "TestWrapIfNotNilAddsCallerAndContext")
	s.Contains(err.Error(), "out.json: disk full")
}
