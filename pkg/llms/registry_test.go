package llms

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type RegistrySuite struct {
	suite.Suite
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) TestKnownProviders() {
	s.Equal([]string{"bedrock", "gemini", "ollama", "openai"}, Providers())

	for _, name := range []string{"openai", " OpenAI ", "ollama", "gemini", "bedrock"} {
		factory, err := StringGeneratorFactory(name)
		s.Require().NoError(err, name)
		s.NotNil(factory)
	}
}

func (s *RegistrySuite) TestUnknownProvider() {
	factory, err := StringGeneratorFactory("groq-native")
	s.Require().Error(err)
	s.Nil(factory)
	s.Contains(err.Error(), "known: bedrock, gemini, ollama, openai")
}
