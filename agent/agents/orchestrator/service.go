package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	nodex "github.com/tripmind-ai/tripmind/agent/nodes"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession

	// ErrPurgeDisabled is returned when the wipe command arrives but no
	// admin token is configured.
	ErrPurgeDisabled = errors.New("purge command is not configured")
)

const (
	purgeCommand = "/purge_all"

	defaultUserID       = "default-user"
	defaultFallbackCity = "北京"

	purgeDeniedReply = "口令错误，已拒绝执行。"
	purgeDoneReply   = "已清空所有会话与长期记忆。"
)

type Config struct {
	UserID       string
	FallbackCity string
	PurgeToken   string
}

type Orchestrator struct {
	store   statex.Store
	models  contractx.Registry
	weather contractx.WeatherProvider
	memory  contractx.MemoryStore

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	userID       string
	fallbackCity string
	purgeToken   string

	now func() time.Time
}

func New(
	store statex.Store,
	models contractx.Registry,
	weather contractx.WeatherProvider,
	memory contractx.MemoryStore,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if weather == nil {
		return nil, errors.New("weather provider is required")
	}
	if memory == nil {
		memory = noopMemoryStore{}
	}

	userID := strings.TrimSpace(cfg.UserID)
	if userID == "" {
		userID = defaultUserID
	}
	fallbackCity := strings.TrimSpace(cfg.FallbackCity)
	if fallbackCity == "" {
		fallbackCity = defaultFallbackCity
	}

	o := &Orchestrator{
		store:        store,
		models:       models,
		weather:      weather,
		memory:       memory,
		userID:       userID,
		fallbackCity: fallbackCity,
		purgeToken:   strings.TrimSpace(cfg.PurgeToken),
		now:          time.Now,
	}

	graphRunner, err := o.compileHandleTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleTurn runs one user message through the orchestration graph and
// returns the reply together with the turn's end-state. The admin wipe
// command is intercepted before the graph ever sees it.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, text string) (string, *statex.TurnState, error) {
	if strings.HasPrefix(strings.TrimSpace(text), purgeCommand) {
		reply, err := o.handlePurge(ctx, text)
		return reply, nil, err
	}

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		UserID:    o.userID,
		Text:      text,
	})
	if err != nil {
		return "", nil, err
	}
	return out.Reply, out.State, nil
}

// Profile exposes the long-term memory profile of the configured user.
func (o *Orchestrator) Profile(ctx context.Context) (statex.Profile, error) {
	return o.memory.Profile(ctx, o.userID)
}

// Reset drops one session's carried state; long-term memory stays.
func (o *Orchestrator) Reset(ctx context.Context, sessionID string) error {
	return o.store.Delete(ctx, sessionID)
}

// ClearProfile wipes the long-term preference memory. Sessions stay; no
// token is required, unlike the full purge command.
func (o *Orchestrator) ClearProfile(ctx context.Context) error {
	return o.memory.Wipe(ctx)
}

const maxSuggestions = 3

// suggestionTemplates turn the leading item of a profile card into an
// opening question, keyed by card category.
var suggestionTemplates = map[string]string{
	"dislikes":        "帮我规划一个避开%s的行程",
	"budget":          "按%s的预算安排一次周末出行",
	"food":            "推荐一次围绕%s的美食之旅",
	"accommodation":   "找个适合%s的地方住两天",
	"favorite_places": "再推荐一些类似%s的地方",
	"travel_habits":   "结合我%s的习惯，推荐下一个目的地",
}

// Suggestions derives personalized opening questions from the profile. An
// empty profile yields an empty list so callers can fall back to canned
// suggestions.
func (o *Orchestrator) Suggestions(ctx context.Context) ([]string, error) {
	profile, err := o.memory.Profile(ctx, o.userID)
	if err != nil {
		return nil, err
	}

	questions := make([]string, 0, maxSuggestions)
	for _, card := range profile.Cards {
		tpl, ok := suggestionTemplates[card.Category]
		if !ok || len(card.Items) == 0 {
			continue
		}
		questions = append(questions, fmt.Sprintf(tpl, card.Items[0]))
		if len(questions) == maxSuggestions {
			break
		}
	}
	return questions, nil
}

func (o *Orchestrator) handlePurge(ctx context.Context, text string) (string, error) {
	if o.purgeToken == "" {
		return "", ErrPurgeDisabled
	}

	token := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), purgeCommand))
	if token != o.purgeToken {
		return purgeDeniedReply, nil
	}

	if err := o.memory.Wipe(ctx); err != nil {
		return "", err
	}
	if err := o.store.Purge(ctx); err != nil {
		return "", err
	}
	return purgeDoneReply, nil
}

type noopMemoryStore struct{}

func (noopMemoryStore) Search(context.Context, string, string, int) ([]statex.MemoryHit, error) {
	return nil, nil
}

func (noopMemoryStore) Append(context.Context, string, string, string, string) error {
	return nil
}

func (noopMemoryStore) Profile(context.Context, string) (statex.Profile, error) {
	return statex.Profile{}, nil
}

func (noopMemoryStore) Wipe(context.Context) error {
	return nil
}
