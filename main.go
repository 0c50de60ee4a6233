package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	generatorx "github.com/tripmind-ai/tripmind/agent/agents/generator"
	orchestratorx "github.com/tripmind-ai/tripmind/agent/agents/orchestrator"
	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	llmx "github.com/tripmind-ai/tripmind/agent/llm"
	memoryx "github.com/tripmind-ai/tripmind/agent/memory"
	statex "github.com/tripmind-ai/tripmind/agent/state"
	weatherx "github.com/tripmind-ai/tripmind/agent/weather"
	configx "github.com/tripmind-ai/tripmind/pkg/config"
	_ "github.com/tripmind-ai/tripmind/pkg/logger/autoload"
	openrouterx "github.com/tripmind-ai/tripmind/pkg/openrouter"
	serverx "github.com/tripmind-ai/tripmind/server"
)

type AppConfig struct {
	UserID          string        `envconfig:"USER_ID" split_words:"true" default:"default-user"`
	FallbackCity    string        `envconfig:"FALLBACK_CITY" split_words:"true" default:"北京"`
	PurgeToken      string        `envconfig:"PURGE_TOKEN" split_words:"true"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" split_words:"true" default:"24h"`
	RedisSessionTTL time.Duration `envconfig:"REDIS_SESSION_TTL" split_words:"true" default:"168h"`
	WeatherCacheTTL time.Duration `envconfig:"WEATHER_CACHE_TTL" split_words:"true" default:"10m"`
}

var serveMode = flag.Bool("serve", false, "run the HTTP server instead of the interactive console")

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("TRIPMIND")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid llm configuration")
	}

	registry, err := generatorx.NewRegistry(ctx, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build model registry")
	}

	weather := buildWeatherProvider(appCfg.WeatherCacheTTL)
	memory := buildMemoryStore(ctx, *llmCfg)
	store := buildStateStore(appCfg.SessionTTL, appCfg.RedisSessionTTL)

	orch, err := orchestratorx.New(store, registry, weather, memory, orchestratorx.Config{
		UserID:       appCfg.UserID,
		FallbackCity: appCfg.FallbackCity,
		PurgeToken:   appCfg.PurgeToken,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	if *serveMode {
		srvCfg := configx.MustNew[serverx.Config]("SERVER")
		if err := serverx.New(orch, *srvCfg).ListenAndServe(); err != nil {
			log.Fatal().Err(err).Msg("http server stopped")
		}
		return
	}

	runConsole(ctx, orch)
}

func buildWeatherProvider(cacheTTL time.Duration) contractx.WeatherProvider {
	amapCfg := configx.MustNew[weatherx.Config]("AMAP")
	if strings.TrimSpace(amapCfg.APIKey) == "" {
		log.Warn().Msg("AMAP_API_KEY not set, using deterministic mock weather")
		return weatherx.NewCachedProvider(weatherx.NewMockProvider(), cacheTTL)
	}
	return weatherx.NewCachedProvider(weatherx.NewAmapProvider(*amapCfg), cacheTTL)
}

func buildMemoryStore(ctx context.Context, llmCfg llmx.Config) contractx.MemoryStore {
	memCfg := configx.MustNew[memoryx.Config]("MEMORY")
	if strings.TrimSpace(memCfg.DSN) == "" {
		log.Info().Msg("MEMORY_DSN not set, long-term memory stays in process")
		return memoryx.NewInMemoryStore()
	}

	client := openrouterx.NewClient(openrouterx.Config{
		BaseURL:  llmCfg.BaseURL,
		APIKey:   llmCfg.APIKey,
		SiteURL:  llmCfg.SiteURL,
		SiteName: llmCfg.SiteName,
	})
	store := memoryx.NewPreferenceStore(memoryx.OpenDB(memCfg.DSN), memoryx.NewOpenAIEmbedder(client, memCfg.EmbeddingModel))
	if err := store.EnsureSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("memory schema unavailable, falling back to in-process store")
		return memoryx.NewInMemoryStore()
	}
	return store
}

// Sessions live longer in Redis than in process: a redeploy should not
// forget conversations mid-trip.
func buildStateStore(localTTL, redisTTL time.Duration) statex.Store {
	redisCfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
	if err != nil {
		log.Info().Msg("upstash redis not configured, sessions stay in process")
		return statex.NewCacheStore(localTTL)
	}

	store, err := statex.NewUpstashRedisStore(*redisCfg, statex.WithTTL(redisTTL))
	if err != nil {
		log.Warn().Err(err).Msg("upstash redis unavailable, sessions stay in process")
		return statex.NewCacheStore(localTTL)
	}
	return store
}

func runConsole(ctx context.Context, orch *orchestratorx.Orchestrator) {
	sessionID := uuid.NewString()
	var lastState *statex.TurnState

	fmt.Println("TripMind 旅行助手已就绪。输入消息开始对话，/exit 退出。")
	fmt.Println("命令: /clear 重置会话  /profile 查看偏好  /state 查看会话状态")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch input {
		case "/exit":
			fmt.Println("再见！")
			return
		case "/clear":
			if err := orch.Reset(ctx, sessionID); err != nil {
				fmt.Println("重置失败：", err)
				continue
			}
			sessionID = uuid.NewString()
			lastState = nil
			fmt.Println("会话已重置。")
			continue
		case "/profile":
			printProfile(ctx, orch)
			continue
		case "/state":
			printState(lastState)
			continue
		}

		reply, st, err := orch.HandleTurn(ctx, sessionID, input)
		if err != nil {
			log.Error().Err(err).Msg("turn failed")
			fmt.Println("抱歉，刚才处理出了点问题，请稍后再试。")
			continue
		}
		if st != nil {
			lastState = st
		}
		fmt.Println(reply)
	}

	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("read stdin")
	}
}

func printProfile(ctx context.Context, orch *orchestratorx.Orchestrator) {
	profile, err := orch.Profile(ctx)
	if err != nil {
		fmt.Println("读取偏好失败：", err)
		return
	}
	if len(profile.Cards) == 0 {
		fmt.Println("还没有记住任何偏好。")
		return
	}
	for _, card := range profile.Cards {
		fmt.Printf("%s %s\n", card.Icon, card.Title)
		for _, item := range card.Items {
			fmt.Println("  -", item)
		}
	}
	if profile.Summary != "" {
		fmt.Println(profile.Summary)
	}
}

func printState(st *statex.TurnState) {
	if st == nil {
		fmt.Println("当前会话还没有状态。")
		return
	}
	payload, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		fmt.Println("状态序列化失败：", err)
		return
	}
	fmt.Println(string(payload))
}
