package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	statex "github.com/tripmind-ai/tripmind/agent/state"
)

// cityCodes maps supported city names to Amap adcodes. Cities outside this
// table get a degraded report instead of an error.
var cityCodes = map[string]string{
	"北京": "110000",
	"上海": "310000",
	"广州": "440100",
	"深圳": "440300",
	"杭州": "330100",
	"南京": "320100",
	"苏州": "320500",
	"成都": "510100",
	"重庆": "500000",
	"西安": "610100",
	"武汉": "420100",
	"长沙": "430100",
	"天津": "120000",
	"青岛": "370200",
	"厦门": "350200",
	"三亚": "460200",
}

type Config struct {
	APIKey  string        `envconfig:"API_KEY" split_words:"true"`
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://restapi.amap.com/v3/weather/weatherInfo"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// AmapProvider queries the Amap weather REST API.
type AmapProvider struct {
	cfg    Config
	client *http.Client
}

func NewAmapProvider(cfg Config) *AmapProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AmapProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type amapLive struct {
	City        string `json:"city"`
	Weather     string `json:"weather"`
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	WindPower   string `json:"windpower"`
	ReportTime  string `json:"reporttime"`
}

type amapCast struct {
	Date       string `json:"date"`
	DayWeather string `json:"dayweather"`
	DayTemp    string `json:"daytemp"`
	NightTemp  string `json:"nighttemp"`
	DayPower   string `json:"daypower"`
}

type amapResponse struct {
	Status    string     `json:"status"`
	Info      string     `json:"info"`
	Lives     []amapLive `json:"lives"`
	Forecasts []struct {
		City  string     `json:"city"`
		Casts []amapCast `json:"casts"`
	} `json:"forecasts"`
}

func (p *AmapProvider) Current(ctx context.Context, city string) (statex.WeatherReport, error) {
	adcode, ok := cityCodes[strings.TrimSpace(city)]
	if !ok {
		log.Warn().Str("city", city).Msg("city not covered by weather provider")
		return DegradedReport(city, "unsupported city"), nil
	}

	resp, err := p.query(ctx, adcode, "base")
	if err != nil {
		return statex.WeatherReport{}, err
	}
	if len(resp.Lives) == 0 {
		return statex.WeatherReport{}, fmt.Errorf("amap: empty live weather for %s", city)
	}

	live := resp.Lives[0]
	temp, _ := strconv.ParseFloat(live.Temperature, 64)
	report := statex.WeatherReport{
		City:        city,
		Temperature: temp,
		Condition:   live.Weather,
		Humidity:    live.Humidity,
		WindPower:   live.WindPower,
		Raw: map[string]any{
			"source":      "amap",
			"report_time": live.ReportTime,
		},
	}
	report.Suggestion = Suggest(report)
	return report, nil
}

func (p *AmapProvider) Forecast(ctx context.Context, city string, days int) ([]statex.WeatherReport, error) {
	adcode, ok := cityCodes[strings.TrimSpace(city)]
	if !ok {
		log.Warn().Str("city", city).Msg("city not covered by weather provider")
		return []statex.WeatherReport{DegradedReport(city, "unsupported city")}, nil
	}
	if days <= 0 {
		days = 1
	}

	resp, err := p.query(ctx, adcode, "all")
	if err != nil {
		return nil, err
	}
	if len(resp.Forecasts) == 0 || len(resp.Forecasts[0].Casts) == 0 {
		return nil, fmt.Errorf("amap: empty forecast for %s", city)
	}

	casts := resp.Forecasts[0].Casts
	if days < len(casts) {
		casts = casts[:days]
	}

	reports := make([]statex.WeatherReport, 0, len(casts))
	for _, cast := range casts {
		dayTemp, _ := strconv.ParseFloat(cast.DayTemp, 64)
		report := statex.WeatherReport{
			City:        city,
			Temperature: dayTemp,
			Condition:   cast.DayWeather,
			WindPower:   cast.DayPower,
			Raw: map[string]any{
				"source":     "amap",
				"date":       cast.Date,
				"night_temp": cast.NightTemp,
			},
		}
		report.Suggestion = Suggest(report)
		reports = append(reports, report)
	}
	return reports, nil
}

func (p *AmapProvider) query(ctx context.Context, adcode, extensions string) (*amapResponse, error) {
	params := url.Values{}
	params.Set("key", p.cfg.APIKey)
	params.Set("city", adcode)
	params.Set("extensions", extensions)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("amap: build request: %w", err)
	}

	httpResp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("amap: request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("amap: unexpected status %d", httpResp.StatusCode)
	}

	var decoded amapResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("amap: decode response: %w", err)
	}
	if decoded.Status != "1" {
		return nil, fmt.Errorf("amap: api error: %s", decoded.Info)
	}
	return &decoded, nil
}

// DegradedReport stands in for real weather when the provider cannot serve a
// city. Downstream stages still render it, flagged through Raw.
func DegradedReport(city, reason string) statex.WeatherReport {
	return statex.WeatherReport{
		City:       city,
		Condition:  "未知",
		Suggestion: "天气信息暂不可用，出门前请留意当地天气预报",
		Raw: map[string]any{
			"degraded": true,
			"reason":   reason,
		},
	}
}

// Suggest turns a report into a one-line packing hint based on temperature
// bands and precipitation.
func Suggest(r statex.WeatherReport) string {
	var sb strings.Builder
	switch {
	case r.Temperature <= 5:
		sb.WriteString("气温较低，建议穿厚外套或羽绒服")
	case r.Temperature <= 12:
		sb.WriteString("天气偏凉，建议穿夹克或风衣")
	case r.Temperature <= 20:
		sb.WriteString("温度适中，长袖衬衫或薄外套即可")
	default:
		sb.WriteString("天气较热，短袖出行注意防晒")
	}

	cond := r.Condition
	switch {
	case strings.Contains(cond, "雨"):
		sb.WriteString("，有降雨记得带伞")
	case strings.Contains(cond, "雪"):
		sb.WriteString("，有降雪注意防滑保暖")
	case strings.Contains(cond, "霾"):
		sb.WriteString("，空气质量欠佳建议戴口罩")
	}
	return sb.String()
}

// SupportedCities lists the cities the provider can serve, for diagnostics.
func SupportedCities() []string {
	cities := make([]string, 0, len(cityCodes))
	for city := range cityCodes {
		cities = append(cities, city)
	}
	return cities
}
