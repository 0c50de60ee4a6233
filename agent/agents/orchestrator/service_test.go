package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

type fakeRewriter struct {
	result contractx.RewriteResult
}

func (f *fakeRewriter) Rewrite(_ context.Context, req contractx.RewriteRequest) (contractx.RewriteResult, error) {
	out := f.result
	if out.RewrittenQuery == "" {
		out.RewrittenQuery = req.UserInput
	}
	return out, nil
}

type fakeClassifier struct {
	result contractx.IntentResult
	calls  int
}

func (f *fakeClassifier) Classify(_ context.Context, _ contractx.ClassifyRequest) (contractx.IntentResult, error) {
	f.calls++
	return f.result, nil
}

type fakeTripPlanner struct {
	plan      *statex.Plan
	backup    string
	planCalls int
	lastReq   contractx.PlanRequest
}

func (f *fakeTripPlanner) Plan(_ context.Context, req contractx.PlanRequest) (*statex.Plan, error) {
	f.planCalls++
	f.lastReq = req
	clone := *f.plan
	clone.Days = append([]statex.PlanDay(nil), f.plan.Days...)
	return &clone, nil
}

func (f *fakeTripPlanner) Backup(_ context.Context, _ statex.PlanDay) (string, error) {
	return f.backup, nil
}

type fakeAdvisor struct {
	advice string
	calls  int
}

func (f *fakeAdvisor) Advise(_ context.Context, _ contractx.AdviseRequest) (string, error) {
	f.calls++
	return f.advice, nil
}

type fakeResponder struct {
	answer string
	calls  int
}

func (f *fakeResponder) Answer(_ context.Context, _ contractx.AnswerRequest) (string, error) {
	f.calls++
	return f.answer, nil
}

type fakeRegistry struct {
	rewriter   *fakeRewriter
	classifier *fakeClassifier
	planner    *fakeTripPlanner
	advisor    *fakeAdvisor
	responder  *fakeResponder
}

func (f *fakeRegistry) Rewriter() contractx.Rewriter           { return f.rewriter }
func (f *fakeRegistry) Classifier() contractx.IntentClassifier { return f.classifier }
func (f *fakeRegistry) Planner() contractx.TripPlanner         { return f.planner }
func (f *fakeRegistry) Advisor() contractx.ClothingAdvisor     { return f.advisor }
func (f *fakeRegistry) Responder() contractx.Responder         { return f.responder }

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		rewriter:   &fakeRewriter{},
		classifier: &fakeClassifier{},
		planner: &fakeTripPlanner{plan: &statex.Plan{
			Title: "测试行程",
			Days: []statex.PlanDay{
				{Date: "第1天", City: "成都", Activities: []statex.Activity{{Name: "人民公园"}}},
			},
		}},
		advisor:   &fakeAdvisor{advice: "建议穿外套"},
		responder: &fakeResponder{answer: "好的"},
	}
}

type stubWeather struct {
	condition string
}

func (s *stubWeather) Current(_ context.Context, city string) (statex.WeatherReport, error) {
	return statex.WeatherReport{City: city, Condition: s.condition, Temperature: 20}, nil
}

func (s *stubWeather) Forecast(_ context.Context, city string, days int) ([]statex.WeatherReport, error) {
	reports := make([]statex.WeatherReport, days)
	for i := range reports {
		reports[i] = statex.WeatherReport{City: city, Condition: s.condition, Temperature: 18}
	}
	return reports, nil
}

type recordingMemory struct {
	appended []string
	profile  statex.Profile
	wiped    bool
}

func (m *recordingMemory) Search(context.Context, string, string, int) ([]statex.MemoryHit, error) {
	return nil, nil
}

func (m *recordingMemory) Append(_ context.Context, _, content, _, _ string) error {
	m.appended = append(m.appended, content)
	return nil
}

func (m *recordingMemory) Profile(context.Context, string) (statex.Profile, error) {
	return m.profile, nil
}

func (m *recordingMemory) Wipe(context.Context) error {
	m.wiped = true
	return nil
}

func newTestOrchestrator(t *testing.T, registry *fakeRegistry, weather contractx.WeatherProvider, memory contractx.MemoryStore, cfg Config) (*Orchestrator, *statex.CacheStore) {
	t.Helper()

	store := statex.NewCacheStore(time.Hour)
	o, err := New(store, registry, weather, memory, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o, store
}

func TestHandleTurnPlansTrip(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry()
	registry.classifier.result = contractx.IntentResult{
		Intent:       statex.IntentTripPlanning,
		Confidence:   0.95,
		Cities:       []string{"成都"},
		DurationDays: 2,
	}
	registry.planner.plan = &statex.Plan{
		Title: "成都两日游",
		Days: []statex.PlanDay{
			{Date: "第1天", City: "成都", Activities: []statex.Activity{{Name: "人民公园"}}},
			{Date: "第2天", City: "成都", Activities: []statex.Activity{{Name: "武侯祠"}}},
		},
	}

	o, store := newTestOrchestrator(t, registry, &stubWeather{condition: "晴"}, nil, Config{})

	reply, st, err := o.HandleTurn(context.Background(), "s1", "去成都玩两天")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if !strings.Contains(reply, "成都两日游") {
		t.Fatalf("reply missing plan title: %q", reply)
	}
	if st.Entities.FirstCity("") != "成都" {
		t.Fatalf("state city = %q, want 成都", st.Entities.FirstCity(""))
	}
	if st.Plan == nil || len(st.Plan.Days) != 2 {
		t.Fatalf("plan not recorded: %+v", st.Plan)
	}

	saved, err := store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("state not persisted: %v", err)
	}
	if saved.Plan == nil || saved.Plan.Title != "成都两日游" {
		t.Fatalf("persisted plan wrong: %+v", saved.Plan)
	}
}

func TestHandleTurnAsksWhenCityMissing(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry()
	registry.classifier.result = contractx.IntentResult{
		Intent:     statex.IntentTripPlanning,
		Confidence: 0.9,
	}

	o, _ := newTestOrchestrator(t, registry, &stubWeather{condition: "晴"}, nil, Config{})

	reply, st, err := o.HandleTurn(context.Background(), "s1", "帮我规划一个周末行程")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if !strings.Contains(reply, "想去哪个城市") {
		t.Fatalf("reply = %q, want city question", reply)
	}
	if !st.ClarifyOnly {
		t.Fatal("turn should be clarify-only")
	}
	if registry.planner.planCalls != 0 {
		t.Fatal("planner must not run on a clarify-only turn")
	}
	if registry.responder.calls != 0 || registry.advisor.calls != 0 {
		t.Fatal("no downstream model should run on a clarify-only turn")
	}
}

func TestHandleTurnCarriesEntitiesAcrossTurns(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry()
	registry.classifier.result = contractx.IntentResult{
		Intent:       statex.IntentTripPlanning,
		Confidence:   0.95,
		Cities:       []string{"杭州"},
		DurationDays: 2,
	}
	registry.planner.plan = &statex.Plan{
		Title: "杭州两日游",
		Days: []statex.PlanDay{
			{Date: "第1天", City: "杭州", Activities: []statex.Activity{{Name: "西湖"}, {Name: "河坊街"}}},
			{Date: "第2天", City: "杭州", Activities: []statex.Activity{{Name: "灵隐寺"}}},
		},
	}

	o, _ := newTestOrchestrator(t, registry, &stubWeather{condition: "晴"}, nil, Config{})
	ctx := context.Background()

	if _, _, err := o.HandleTurn(ctx, "s1", "去杭州玩两天"); err != nil {
		t.Fatalf("first turn error = %v", err)
	}

	// Follow-up names no city; the carried state supplies it.
	registry.classifier.result = contractx.IntentResult{
		Intent:         statex.IntentTripPlanning,
		Confidence:     0.9,
		ExcludedPlaces: []string{"西湖"},
	}

	_, st, err := o.HandleTurn(ctx, "s1", "西湖去过了，换一个地方")
	if err != nil {
		t.Fatalf("second turn error = %v", err)
	}
	if st.Entities.FirstCity("") != "杭州" {
		t.Fatalf("carried city lost: %q", st.Entities.FirstCity(""))
	}
	if st.Entities.DurationDays != 2 {
		t.Fatalf("carried duration lost: %d", st.Entities.DurationDays)
	}
	if len(st.ExcludedPlaces) != 1 || st.ExcludedPlaces[0] != "西湖" {
		t.Fatalf("exclusion not recorded: %#v", st.ExcludedPlaces)
	}
	for _, day := range st.Plan.Days {
		for _, name := range day.ActivityNames() {
			if name == "西湖" {
				t.Fatal("excluded place survived in the revised plan")
			}
		}
	}
	if registry.planner.lastReq.PreviousPlan == nil {
		t.Fatal("revision request missing previous plan")
	}
}

func TestHandleTurnStormTriggersBackups(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry()
	registry.classifier.result = contractx.IntentResult{
		Intent:       statex.IntentTripPlanning,
		Confidence:   0.95,
		Cities:       []string{"广州"},
		DurationDays: 1,
	}
	registry.planner.plan = &statex.Plan{
		Title: "广州一日游",
		Days: []statex.PlanDay{
			{Date: "第1天", City: "广州", Activities: []statex.Activity{{Name: "沙面岛"}}},
		},
	}
	registry.planner.backup = "改去广东省博物馆"

	o, _ := newTestOrchestrator(t, registry, &stubWeather{condition: "暴雨"}, nil, Config{})

	reply, st, err := o.HandleTurn(context.Background(), "s1", "去广州玩一天")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if !st.NeedsReplan {
		t.Fatal("storm weather should latch NeedsReplan")
	}
	if st.Plan.Days[0].Risk != statex.RiskHigh {
		t.Fatalf("risk = %s, want high", st.Plan.Days[0].Risk)
	}
	if st.Plan.Days[0].BackupPlan != "改去广东省博物馆" {
		t.Fatalf("backup = %q", st.Plan.Days[0].BackupPlan)
	}
	if !strings.Contains(reply, "备选方案") {
		t.Fatalf("reply missing backup rendering: %q", reply)
	}
}

func TestHandleTurnClothingAdvice(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry()
	registry.classifier.result = contractx.IntentResult{
		Intent:     statex.IntentClothingAdvice,
		Confidence: 0.92,
		Cities:     []string{"北京"},
	}
	registry.advisor.advice = "建议穿夹克，早晚加件薄毛衣。"

	o, _ := newTestOrchestrator(t, registry, &stubWeather{condition: "多云"}, nil, Config{})

	reply, st, err := o.HandleTurn(context.Background(), "s1", "明天北京穿什么")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if !strings.Contains(reply, "建议穿夹克") {
		t.Fatalf("reply = %q", reply)
	}
	if st.ClothingAdvice == "" {
		t.Fatal("advice not recorded on state")
	}
	if registry.planner.planCalls != 0 {
		t.Fatal("planner must not run for clothing advice")
	}
}

func TestHandleTurnWritesPreferenceMemory(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry()
	registry.classifier.result = contractx.IntentResult{
		Intent:     statex.IntentGeneralChat,
		Confidence: 0.8,
	}
	memory := &recordingMemory{}

	o, _ := newTestOrchestrator(t, registry, &stubWeather{condition: "晴"}, memory, Config{})

	if _, _, err := o.HandleTurn(context.Background(), "s1", "我不喜欢人多的地方"); err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if len(memory.appended) != 1 || memory.appended[0] != "我不喜欢人多的地方" {
		t.Fatalf("memory writes = %#v", memory.appended)
	}
}

func TestHandleTurnChatSkipsResponder(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry()
	registry.classifier.result = contractx.IntentResult{
		Intent:     statex.IntentGeneralChat,
		Confidence: 0.8,
	}

	o, _ := newTestOrchestrator(t, registry, &stubWeather{condition: "晴"}, nil, Config{})

	reply, _, err := o.HandleTurn(context.Background(), "s1", "你好呀")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if registry.responder.calls != 0 {
		t.Fatal("chat turns should not reach the responder model")
	}
	if !strings.Contains(reply, "规划行程") {
		t.Fatalf("reply = %q, want capability fallback", reply)
	}
}

func TestSuggestionsFromProfile(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry()
	memory := &recordingMemory{profile: statex.Profile{
		UserID: "default-user",
		Cards: []statex.ProfileCard{
			{Category: "dislikes", Title: "不喜欢 / 避免", Items: []string{"人多的景点"}},
			{Category: "food", Title: "饮食偏好", Items: []string{"川菜"}},
		},
	}}

	o, _ := newTestOrchestrator(t, registry, &stubWeather{condition: "晴"}, memory, Config{})

	questions, err := o.Suggestions(context.Background())
	if err != nil {
		t.Fatalf("Suggestions() error = %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("questions = %#v, want one per card", questions)
	}
	if !strings.Contains(questions[0], "人多的景点") {
		t.Fatalf("dislike suggestion missing: %q", questions[0])
	}
	if !strings.Contains(questions[1], "川菜") {
		t.Fatalf("food suggestion missing: %q", questions[1])
	}
}

func TestSuggestionsEmptyProfile(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry()
	o, _ := newTestOrchestrator(t, registry, &stubWeather{condition: "晴"}, &recordingMemory{}, Config{})

	questions, err := o.Suggestions(context.Background())
	if err != nil {
		t.Fatalf("Suggestions() error = %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("questions = %#v, want none without a profile", questions)
	}
}

func TestClearProfileKeepsSessions(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry()
	memory := &recordingMemory{}
	o, store := newTestOrchestrator(t, registry, &stubWeather{condition: "晴"}, memory, Config{})
	ctx := context.Background()

	if err := store.Save(ctx, &statex.TurnState{SessionID: "s1", UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("seed save error = %v", err)
	}

	if err := o.ClearProfile(ctx); err != nil {
		t.Fatalf("ClearProfile() error = %v", err)
	}
	if !memory.wiped {
		t.Fatal("memory not wiped")
	}
	if _, err := store.Load(ctx, "s1"); err != nil {
		t.Fatalf("session should survive a profile clear: %v", err)
	}
}

func TestHandleTurnPurgeFlow(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry()
	memory := &recordingMemory{}
	o, store := newTestOrchestrator(t, registry, &stubWeather{condition: "晴"}, memory, Config{PurgeToken: "secret"})
	ctx := context.Background()

	if err := store.Save(ctx, &statex.TurnState{SessionID: "s1", UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("seed save error = %v", err)
	}

	reply, _, err := o.HandleTurn(ctx, "s1", "/purge_all wrong")
	if err != nil {
		t.Fatalf("wrong token error = %v", err)
	}
	if reply != purgeDeniedReply {
		t.Fatalf("reply = %q, want denial", reply)
	}
	if memory.wiped {
		t.Fatal("memory wiped despite wrong token")
	}

	reply, _, err = o.HandleTurn(ctx, "s1", "/purge_all secret")
	if err != nil {
		t.Fatalf("purge error = %v", err)
	}
	if reply != purgeDoneReply {
		t.Fatalf("reply = %q, want confirmation", reply)
	}
	if !memory.wiped {
		t.Fatal("memory not wiped")
	}
	if _, err := store.Load(ctx, "s1"); err == nil {
		t.Fatal("session survived purge")
	}
}

func TestHandleTurnPurgeDisabledWithoutToken(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry()
	o, _ := newTestOrchestrator(t, registry, &stubWeather{condition: "晴"}, nil, Config{})

	_, _, err := o.HandleTurn(context.Background(), "s1", "/purge_all anything")
	if err == nil {
		t.Fatal("expected error when no purge token configured")
	}
}

func TestHandleTurnRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry()
	o, _ := newTestOrchestrator(t, registry, &stubWeather{condition: "晴"}, nil, Config{})

	if _, _, err := o.HandleTurn(context.Background(), "s1", "   "); err == nil {
		t.Fatal("expected error for empty message")
	}
	if _, _, err := o.HandleTurn(context.Background(), "", "hi"); err == nil {
		t.Fatal("expected error for empty session id")
	}
}
