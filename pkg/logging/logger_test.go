package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LoggerSuite struct {
	suite.Suite
	buf *bytes.Buffer
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerSuite))
}

func (s *LoggerSuite) SetupTest() {
	s.buf = &bytes.Buffer{}
	SetOutput(s.buf)
	s.Require().NoError(Configure("info", FormatText))
}

func (s *LoggerSuite) TearDownTest() {
	SetOutput(nil)
	SetLoggerFactory(nil)
	s.Require().NoError(Configure("info", FormatText))
}

func (s *LoggerSuite) TestDebugSuppressedAtInfo() {
	log := NewLogger(context.Background())
	log.Debugf("hidden %d", 1)
	log.Infof("shown %d", 2)

	s.NotContains(s.buf.String(), "hidden 1")
	s.Contains(s.buf.String(), "shown 2")
}

func (s *LoggerSuite) TestConfigureDebugJSON() {
	s.Require().NoError(Configure("debug", FormatJSON))

	NewLogger(context.Background()).Debug("verbose line")

	s.Contains(s.buf.String(), `"msg":"verbose line"`)
	s.Contains(s.buf.String(), `"level":"debug"`)
}

func (s *LoggerSuite) TestConfigureRejectsUnknownValues() {
	s.Error(Configure("loud", ""))
	s.Error(Configure("", "xml"))
}

func (s *LoggerSuite) TestContextFieldsAreAttached() {
	ctx := WithFields(context.Background(), map[string]any{"entry": 3})
	ctx = WithFields(ctx, map[string]any{"file": "a.png"})

	NewLogger(ctx).Info("processing")

	s.Contains(s.buf.String(), "entry=3")
	s.Contains(s.buf.String(), "file=a.png")
}

type recordingFactory struct {
	created int
}

func (f *recordingFactory) CreateLogger(ctx context.Context) Logger {
	f.created++
	return newLogrusLogger(ctx)
}

func (s *LoggerSuite) TestFactoryOverridesDefault() {
	factory := &recordingFactory{}
	SetLoggerFactory(factory)

	NewLogger(context.Background()).Info("via factory")

	s.Equal(1, factory.created)
	s.Same(factory, GetLoggerFactory())
}

func (s *LoggerSuite) TestFactoryFuncAndReset() {
	var seen []any
	SetLoggerFactory(LoggerFactoryFunc(func(ctx context.Context) Logger {
		seen = append(seen, FieldsFromContext(ctx)["entry"])
		return newLogrusLogger(ctx)
	}))

	NewLogger(WithFields(context.Background(), map[string]any{"entry": 7})).Info("func factory")
	s.Equal([]any{7}, seen)

	SetLoggerFactory(nil)
	NewLogger(context.Background()).Info("default again")
	s.Len(seen, 1)
	s.Contains(s.buf.String(), "default again")
}
