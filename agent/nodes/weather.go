package turnnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
	weatherx "github.com/tripmind-ai/tripmind/agent/weather"
)

// FetchWeather loads weather for every known city on each continue path.
// Only multi-day clothing questions use the forecast; trip planning and
// everything else takes the live observation, which downstream stages reuse
// across days. Provider failures degrade to placeholder records per city.
func FetchWeather(ctx context.Context, in *GraphState, provider contractx.WeatherProvider, fallbackCity string) (*GraphState, error) {
	if in == nil || in.Turn == nil {
		return nil, fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
	}
	turn := in.Turn
	turn.CurrentStage = StageFetchWeather

	if turn.ClarifyOnly {
		return in, nil
	}

	cities := turn.Entities.Cities
	if len(cities) == 0 {
		cities = []string{fallbackCity}
	}

	days := turn.Entities.DurationDays
	if days <= 0 {
		days = 1
	}
	useForecast := turn.IntentTag() == statex.IntentClothingAdvice && days > 1

	if turn.Weather == nil {
		turn.Weather = make(map[string][]statex.WeatherReport, len(cities))
	}
	for _, city := range cities {
		reports, err := fetchCity(ctx, provider, city, days, useForecast)
		if err != nil {
			log.Warn().Err(err).Str("city", city).Msg("weather lookup failed")
			reports = []statex.WeatherReport{weatherx.DegradedReport(city, "provider failure")}
		}
		turn.Weather[city] = reports
	}
	return in, nil
}

func fetchCity(ctx context.Context, provider contractx.WeatherProvider, city string, days int, useForecast bool) ([]statex.WeatherReport, error) {
	if useForecast {
		return provider.Forecast(ctx, city, days)
	}
	report, err := provider.Current(ctx, city)
	if err != nil {
		return nil, err
	}
	return []statex.WeatherReport{report}, nil
}
