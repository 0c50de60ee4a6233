package turnnode

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

type fakePlanner struct {
	plan       *statex.Plan
	planErr    error
	lastReq    contractx.PlanRequest
	backups    map[string]string
	backupErr  error
	planCalls  int
	backupDays []string
}

func (f *fakePlanner) Plan(_ context.Context, req contractx.PlanRequest) (*statex.Plan, error) {
	f.planCalls++
	f.lastReq = req
	if f.planErr != nil {
		return nil, f.planErr
	}
	return f.plan, nil
}

func (f *fakePlanner) Backup(_ context.Context, day statex.PlanDay) (string, error) {
	f.backupDays = append(f.backupDays, day.Date)
	if f.backupErr != nil {
		return "", f.backupErr
	}
	if f.backups != nil {
		return f.backups[day.Date], nil
	}
	return "改为室内活动", nil
}

func TestAdjustmentHintOrderedClasses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want string
	}{
		{name: "budget up", text: "预算高一点，住豪华酒店", want: "提高预算档次，安排更高端的体验"},
		{name: "budget down", text: "想省钱，经济一点", want: "降低花费，走经济实惠路线"},
		{name: "lively", text: "想去热闹的地方", want: "偏向热闹繁华的区域和商圈"},
		{name: "quiet", text: "换个安静人少的", want: "偏向安静小众、人少的地方"},
		{name: "fun", text: "来点好玩刺激的", want: "增加有趣、有当地特色的体验"},
		{name: "budget beats crowd", text: "便宜点，人多点也行", want: "降低花费，走经济实惠路线"},
		{name: "no hint", text: "去成都玩两天", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := AdjustmentHint(tc.text); got != tc.want {
				t.Errorf("AdjustmentHint(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestPlanTripAdjustmentHintOnlyOnRevision(t *testing.T) {
	t.Parallel()

	planner := &fakePlanner{plan: &statex.Plan{
		Title: "成都一日游",
		Days: []statex.PlanDay{
			{Date: "第1天", City: "成都", Activities: []statex.Activity{{Name: "人民公园"}}},
		},
	}}

	first := newGraphState(t, "想去热闹的地方玩一天")
	first.Turn.SetIntent(statex.IntentTripPlanning, 0.9)
	first.Turn.Entities = statex.Entities{Cities: []string{"成都"}, DurationDays: 1}

	if _, err := PlanTrip(context.Background(), first, planner); err != nil {
		t.Fatalf("PlanTrip() error = %v", err)
	}
	if got := planner.lastReq.AdjustmentHint; got != "" {
		t.Fatalf("first request hint = %q, want none without a prior plan", got)
	}

	revision := newGraphState(t, "换热闹一点的地方")
	revision.Turn.SetIntent(statex.IntentTripPlanning, 0.9)
	revision.Turn.Entities = statex.Entities{Cities: []string{"成都"}, DurationDays: 1}
	revision.Turn.Plan = planner.plan

	if _, err := PlanTrip(context.Background(), revision, planner); err != nil {
		t.Fatalf("PlanTrip() revision error = %v", err)
	}
	if got := planner.lastReq.AdjustmentHint; got != "偏向热闹繁华的区域和商圈" {
		t.Fatalf("revision hint = %q", got)
	}
}

func TestPlanTripAttachesWeatherAndRisk(t *testing.T) {
	t.Parallel()

	in := newGraphState(t, "去杭州玩两天")
	in.Turn.SetIntent(statex.IntentTripPlanning, 0.9)
	in.Turn.Entities = statex.Entities{Cities: []string{"杭州"}, DurationDays: 2}
	in.Turn.Weather = map[string][]statex.WeatherReport{
		"杭州": {
			{City: "杭州", Condition: "晴", Temperature: 22},
			{City: "杭州", Condition: "暴雨", Temperature: 18},
		},
	}

	planner := &fakePlanner{plan: &statex.Plan{
		Title: "杭州两日游",
		Days: []statex.PlanDay{
			{Date: "第1天", City: "杭州", Activities: []statex.Activity{{Name: "西湖"}}},
			{Date: "第2天", City: "杭州", Activities: []statex.Activity{{Name: "灵隐寺"}}},
		},
	}}

	out, err := PlanTrip(context.Background(), in, planner)
	if err != nil {
		t.Fatalf("PlanTrip() error = %v", err)
	}

	plan := out.Turn.Plan
	if plan.Days[0].Risk != statex.RiskLow {
		t.Errorf("day 1 risk = %s, want low", plan.Days[0].Risk)
	}
	if plan.Days[1].Risk != statex.RiskHigh {
		t.Errorf("day 2 risk = %s, want high", plan.Days[1].Risk)
	}
	if plan.Days[1].Weather == nil || plan.Days[1].Weather.Condition != "暴雨" {
		t.Errorf("day 2 weather not aligned: %+v", plan.Days[1].Weather)
	}
	if !out.Turn.NeedsReplan {
		t.Error("NeedsReplan should latch when a day carries risk")
	}
}

func TestPlanTripScrubsExcludedPlaces(t *testing.T) {
	t.Parallel()

	in := newGraphState(t, "西湖去过了，换一个")
	in.Turn.SetIntent(statex.IntentTripPlanning, 0.9)
	in.Turn.Entities = statex.Entities{Cities: []string{"杭州"}, DurationDays: 1}
	in.Turn.ExcludedPlaces = []string{"西湖"}

	planner := &fakePlanner{plan: &statex.Plan{
		Title: "杭州一日游",
		Days: []statex.PlanDay{
			{Date: "第1天", City: "杭州", Activities: []statex.Activity{
				{Name: "杭州西湖"},
				{Name: "河坊街"},
			}},
		},
	}}

	out, err := PlanTrip(context.Background(), in, planner)
	if err != nil {
		t.Fatalf("PlanTrip() error = %v", err)
	}

	names := out.Turn.Plan.Days[0].ActivityNames()
	if len(names) != 1 || names[0] != "河坊街" {
		t.Fatalf("excluded place survived: %#v", names)
	}
	if planner.lastReq.ExcludedPlaces[0] != "西湖" {
		t.Fatalf("planner request missing exclusions: %#v", planner.lastReq.ExcludedPlaces)
	}
}

func TestPlanTripFailureSetsErrorMessage(t *testing.T) {
	t.Parallel()

	in := newGraphState(t, "去成都玩")
	in.Turn.SetIntent(statex.IntentTripPlanning, 0.9)
	in.Turn.Entities.Cities = []string{"成都"}

	planner := &fakePlanner{planErr: errors.New("model down")}

	out, err := PlanTrip(context.Background(), in, planner)
	if err != nil {
		t.Fatalf("PlanTrip() should degrade, got error %v", err)
	}
	if out.Turn.ErrorMessage == "" {
		t.Fatal("expected error message on planner failure")
	}
	if out.Turn.Plan != nil {
		t.Fatal("plan should stay nil on failure")
	}
}

func TestAssessRiskGeneratesBackups(t *testing.T) {
	t.Parallel()

	in := newGraphState(t, "去杭州玩两天")
	in.Turn.NeedsReplan = true
	in.Turn.Plan = &statex.Plan{
		Title: "杭州两日游",
		Days: []statex.PlanDay{
			{Date: "第1天", Risk: statex.RiskLow, Activities: []statex.Activity{{Name: "西湖"}}},
			{Date: "第2天", Risk: statex.RiskHigh, Activities: []statex.Activity{{Name: "灵隐寺"}}},
			{Date: "第3天", Risk: statex.RiskMedium, BackupPlan: "已有备选", Activities: []statex.Activity{{Name: "宋城"}}},
		},
	}

	planner := &fakePlanner{backups: map[string]string{"第2天": "改去博物馆"}}

	out, err := AssessRisk(context.Background(), in, planner)
	if err != nil {
		t.Fatalf("AssessRisk() error = %v", err)
	}
	if got := out.Turn.Plan.Days[1].BackupPlan; got != "改去博物馆" {
		t.Fatalf("day 2 backup = %q", got)
	}
	if out.Turn.Plan.Days[0].BackupPlan != "" {
		t.Fatal("low-risk day should not get a backup")
	}
	if out.Turn.Plan.Days[2].BackupPlan != "已有备选" {
		t.Fatal("existing backup should be preserved")
	}
	if len(planner.backupDays) != 1 {
		t.Fatalf("backup calls = %#v, want only day 2", planner.backupDays)
	}
}
