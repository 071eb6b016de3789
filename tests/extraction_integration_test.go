package tests

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/batch"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/extract"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/llms"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ExtractionIntegrationSuite struct {
	BackendSuite
	factory model.NewStringContentGeneratorFunc
}

func TestExtractionIntegrationSuite(t *testing.T) {
	suite.Run(t, new(ExtractionIntegrationSuite))
}

func (s *ExtractionIntegrationSuite) SetupSuite() {
	s.BackendSuite.SetupSuite()

	factory, err := llms.StringGeneratorFactory(s.Config().Backend.Provider)
	require.NoError(s.T(), err)
	s.factory = factory
}

func (s *ExtractionIntegrationSuite) TestPing() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	generator, err := s.factory("Hello", s.Config().GeneratorOptions()...)
	s.Require().NoError(err)

	reply, meta, err := generator.Generate(ctx)
	s.Require().NoError(err)
	s.NotEmpty(strings.TrimSpace(reply))
	s.NotEmpty(meta[model.MetadataKeyProvider])
}

func (s *ExtractionIntegrationSuite) TestExtractOoklaEntry() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := extract.NewClient(s.factory, s.Config().ExtractConfig())
	s.Require().NoError(err)

	result, err := client.Extract(ctx, model.Entry{
		Filename: "a.png",
		Data:     model.EntryData{Text: "Test ID 1234567890 ... Download 55.2 Mbps Upload 10.1 Mbps RESPONSIVENESS Idle 14 ms"},
	})
	s.Require().NoError(err)
	s.Require().Equal(model.ResultKindOokla, result.Kind())
	s.Equal("a.png", result.ImageURL())
	s.Require().NotNil(result.Ookla.TestID)
	s.Equal("1234567890", *result.Ookla.TestID)
}

func (s *ExtractionIntegrationSuite) TestBatchRun() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	client, err := extract.NewClient(s.factory, s.Config().ExtractConfig())
	s.Require().NoError(err)
	driver, err := batch.NewDriver(client, batch.Config{PacingMin: time.Second, PacingMax: 2 * time.Second})
	s.Require().NoError(err)

	entries := []model.Entry{
		{Filename: "ookla_th.jpg", Data: model.EntryData{Text: "รหัสการทดสอบ 9876543210 ดาวน์โหลด 120.5 Mbps อัปโหลด 40.2 Mbps ping 9 ms"}},
		{Filename: "opensignal.png", Data: model.EntryData{Text: "Opensignal Download 33.1 Mbps Upload 8.4 Mbps Latency 27 ms"}},
	}
	path := filepath.Join(s.T().TempDir(), "formatted_ocr.json")

	summary, err := driver.Run(ctx, entries, path, 0)
	s.Require().NoError(err)
	s.Equal(batch.StateCompleted, summary.State)
	s.Equal(2, summary.Processed)

	bits, err := os.ReadFile(path)
	s.Require().NoError(err)
	var slots []*model.ExtractionResult
	s.Require().NoError(json.Unmarshal(bits, &slots))
	s.Len(slots, len(entries))
}
