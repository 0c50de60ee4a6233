package weather

import (
	"context"
	"hash/fnv"

	statex "github.com/tripmind-ai/tripmind/agent/state"
)

var mockConditions = []string{"晴", "多云", "小雨", "阴"}

// MockProvider serves deterministic weather derived from the city name. It
// backs local development when no Amap key is configured.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Current(_ context.Context, city string) (statex.WeatherReport, error) {
	return p.report(city, 0), nil
}

func (p *MockProvider) Forecast(_ context.Context, city string, days int) ([]statex.WeatherReport, error) {
	if days <= 0 {
		days = 1
	}
	reports := make([]statex.WeatherReport, 0, days)
	for i := 0; i < days; i++ {
		reports = append(reports, p.report(city, i))
	}
	return reports, nil
}

func (p *MockProvider) report(city string, dayOffset int) statex.WeatherReport {
	h := fnv.New32a()
	_, _ = h.Write([]byte(city))
	seed := int(h.Sum32())

	report := statex.WeatherReport{
		City:        city,
		Temperature: float64(8 + (seed+dayOffset*3)%18),
		Condition:   mockConditions[(seed+dayOffset)%len(mockConditions)],
		Humidity:    "55",
		WindPower:   "3",
		Raw:         map[string]any{"source": "mock"},
	}
	report.Suggestion = Suggest(report)
	return report
}
