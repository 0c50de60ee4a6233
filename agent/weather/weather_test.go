package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	statex "github.com/tripmind-ai/tripmind/agent/state"
)

func TestSuggestTemperatureBands(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		temp float64
		cond string
		want string
	}{
		{name: "freezing", temp: 2, cond: "晴", want: "厚外套"},
		{name: "cool", temp: 10, cond: "多云", want: "夹克"},
		{name: "mild", temp: 18, cond: "晴", want: "长袖"},
		{name: "hot", temp: 30, cond: "晴", want: "短袖"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Suggest(statex.WeatherReport{Temperature: tc.temp, Condition: tc.cond})
			if !strings.Contains(got, tc.want) {
				t.Errorf("Suggest(%v, %q) = %q, want substring %q", tc.temp, tc.cond, got, tc.want)
			}
		})
	}
}

func TestSuggestRainAddsUmbrella(t *testing.T) {
	t.Parallel()

	got := Suggest(statex.WeatherReport{Temperature: 18, Condition: "小雨"})
	if !strings.Contains(got, "带伞") {
		t.Errorf("Suggest for rain = %q, want umbrella hint", got)
	}
}

func TestAmapCurrentUnknownCityDegrades(t *testing.T) {
	t.Parallel()

	provider := NewAmapProvider(Config{APIKey: "k"})
	report, err := provider.Current(context.Background(), "小众小镇")
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if report.City != "小众小镇" {
		t.Errorf("degraded report city = %q, want 小众小镇", report.City)
	}
	if degraded, _ := report.Raw["degraded"].(bool); !degraded {
		t.Errorf("degraded report Raw = %v, want degraded=true", report.Raw)
	}
	if report.Suggestion == "" {
		t.Error("degraded report should still carry a suggestion")
	}
}

func TestAmapCurrentParsesLiveWeather(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("city"); got != "110000" {
			t.Errorf("adcode = %q, want 110000", got)
		}
		if got := r.URL.Query().Get("extensions"); got != "base" {
			t.Errorf("extensions = %q, want base", got)
		}
		_, _ = w.Write([]byte(`{"status":"1","info":"OK","lives":[{"city":"北京市","weather":"小雨","temperature":"16","humidity":"70","windpower":"3","reporttime":"2024-05-01 10:00:00"}]}`))
	}))
	defer srv.Close()

	provider := NewAmapProvider(Config{APIKey: "k", BaseURL: srv.URL})
	report, err := provider.Current(context.Background(), "北京")
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if report.Temperature != 16 {
		t.Errorf("temperature = %v, want 16", report.Temperature)
	}
	if report.Condition != "小雨" {
		t.Errorf("condition = %q, want 小雨", report.Condition)
	}
	if !strings.Contains(report.Suggestion, "带伞") {
		t.Errorf("suggestion = %q, want umbrella hint", report.Suggestion)
	}
}

func TestAmapForecastLimitsDays(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"1","info":"OK","forecasts":[{"city":"杭州市","casts":[
			{"date":"2024-05-01","dayweather":"晴","daytemp":"22","nighttemp":"14","daypower":"3"},
			{"date":"2024-05-02","dayweather":"多云","daytemp":"20","nighttemp":"13","daypower":"3"},
			{"date":"2024-05-03","dayweather":"小雨","daytemp":"18","nighttemp":"12","daypower":"4"}
		]}]}`))
	}))
	defer srv.Close()

	provider := NewAmapProvider(Config{APIKey: "k", BaseURL: srv.URL})
	reports, err := provider.Forecast(context.Background(), "杭州", 2)
	if err != nil {
		t.Fatalf("Forecast returned error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("len(reports) = %d, want 2", len(reports))
	}
	if reports[1].Condition != "多云" {
		t.Errorf("second day condition = %q, want 多云", reports[1].Condition)
	}
}

func TestAmapAPIErrorPropagates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"0","info":"INVALID_USER_KEY"}`))
	}))
	defer srv.Close()

	provider := NewAmapProvider(Config{APIKey: "bad", BaseURL: srv.URL})
	if _, err := provider.Current(context.Background(), "上海"); err == nil {
		t.Fatal("expected error for rejected api key, got nil")
	}
}

type countingProvider struct {
	calls int
}

func (p *countingProvider) Current(_ context.Context, city string) (statex.WeatherReport, error) {
	p.calls++
	return statex.WeatherReport{City: city, Condition: "晴", Temperature: 20}, nil
}

func (p *countingProvider) Forecast(_ context.Context, city string, days int) ([]statex.WeatherReport, error) {
	p.calls++
	reports := make([]statex.WeatherReport, days)
	for i := range reports {
		reports[i] = statex.WeatherReport{City: city, Condition: "晴"}
	}
	return reports, nil
}

func TestCachedProviderMemoizes(t *testing.T) {
	t.Parallel()

	inner := &countingProvider{}
	cached := NewCachedProvider(inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cached.Current(ctx, "成都"); err != nil {
			t.Fatalf("Current returned error: %v", err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}

	if _, err := cached.Forecast(ctx, "成都", 2); err != nil {
		t.Fatalf("Forecast returned error: %v", err)
	}
	if _, err := cached.Forecast(ctx, "成都", 3); err != nil {
		t.Fatalf("Forecast returned error: %v", err)
	}
	// Different day counts are distinct cache entries.
	if inner.calls != 3 {
		t.Errorf("inner calls = %d, want 3", inner.calls)
	}
}

func TestMockProviderIsDeterministic(t *testing.T) {
	t.Parallel()

	mock := NewMockProvider()
	ctx := context.Background()

	first, err := mock.Current(ctx, "西安")
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	second, err := mock.Current(ctx, "西安")
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if first.Condition != second.Condition || first.Temperature != second.Temperature {
		t.Errorf("mock weather not deterministic: %+v vs %+v", first, second)
	}

	reports, err := mock.Forecast(ctx, "西安", 3)
	if err != nil {
		t.Fatalf("Forecast returned error: %v", err)
	}
	if len(reports) != 3 {
		t.Errorf("len(reports) = %d, want 3", len(reports))
	}
}
