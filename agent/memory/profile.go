package memory

import (
	"fmt"
	"strings"

	statex "github.com/tripmind-ai/tripmind/agent/state"
)

const (
	CategoryTravelHabits  = "travel_habits"
	CategoryFavoritePlace = "favorite_places"
	CategoryDislikes      = "dislikes"
	CategoryBudget        = "budget"
	CategoryFood          = "food"
	CategoryAccommodation = "accommodation"
)

type cardConfig struct {
	Category string
	Title    string
	Icon     string
	Keywords []string
}

// cardConfigs defines the profile sections in render order. Categorization
// picks the first card whose keywords hit; dislikes outranks the topical
// cards so "不喜欢海鲜" lands under dislikes rather than food.
var cardConfigs = []cardConfig{
	{
		Category: CategoryDislikes,
		Title:    "不喜欢 / 避免",
		Icon:     "⚠️",
		Keywords: []string{"不喜欢", "讨厌", "不要", "避免", "不想", "不吃", "怕"},
	},
	{
		Category: CategoryBudget,
		Title:    "预算习惯",
		Icon:     "💰",
		Keywords: []string{"预算", "便宜", "经济", "省钱", "实惠", "性价比", "贵", "豪华", "高端"},
	},
	{
		Category: CategoryFood,
		Title:    "饮食偏好",
		Icon:     "🍜",
		Keywords: []string{"吃", "美食", "餐厅", "菜", "辣", "甜", "海鲜", "小吃", "火锅", "咖啡", "奶茶"},
	},
	{
		Category: CategoryAccommodation,
		Title:    "住宿偏好",
		Icon:     "🏨",
		Keywords: []string{"住", "酒店", "民宿", "青旅", "客栈"},
	},
	{
		Category: CategoryFavoritePlace,
		Title:    "喜欢的地方",
		Icon:     "📍",
		Keywords: []string{"想去", "喜欢去", "最爱", "海边", "古镇", "博物馆", "公园", "寺庙", "老街"},
	},
	{
		Category: CategoryTravelHabits,
		Title:    "出行习惯",
		Icon:     "🚶",
		Keywords: []string{"早起", "晚睡", "徒步", "自驾", "拍照", "慢节奏", "紧凑", "亲子", "一个人", "结伴", "夜市", "看展"},
	},
}

// Categorize maps a preference sentence to a profile card category.
func Categorize(content string) string {
	for _, card := range cardConfigs {
		for _, kw := range card.Keywords {
			if strings.Contains(content, kw) {
				return card.Category
			}
		}
	}
	return CategoryTravelHabits
}

func buildProfile(userID string, records []record) statex.Profile {
	byCategory := make(map[string][]string)
	for _, r := range records {
		byCategory[r.Category] = append(byCategory[r.Category], r.Content)
	}

	profile := statex.Profile{UserID: userID}
	total := 0
	for _, cfg := range cardConfigs {
		items := byCategory[cfg.Category]
		if len(items) == 0 {
			continue
		}
		total += len(items)
		profile.Cards = append(profile.Cards, statex.ProfileCard{
			Category: cfg.Category,
			Title:    cfg.Title,
			Icon:     cfg.Icon,
			Items:    items,
		})
	}
	if total > 0 {
		profile.Summary = fmt.Sprintf("已记住 %d 条偏好，分布在 %d 个类别", total, len(profile.Cards))
	}
	return profile
}

// record is the store-independent shape both backends score and group.
type record struct {
	ID        string
	Content   string
	Category  string
	Embedding []float64
}
