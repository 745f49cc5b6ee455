package news

import (
	"net/url"
	"testing"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected Language
	}{
		{"", English},
		{"en", English},
		{"hi", Hindi},
		{"hi-IN", Hindi},
		{"en-GB", English},
		{"fr", English},
		{"not a tag", English},
	}

	for _, tt := range tests {
		if got := ParseLanguage(tt.input); got != tt.expected {
			t.Errorf("ParseLanguage(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestLanguageDisplayName(t *testing.T) {
	if name := English.DisplayName(); name != "English" {
		t.Errorf("Expected 'English', got '%s'", name)
	}
	if name := Hindi.DisplayName(); name != "Hindi" {
		t.Errorf("Expected 'Hindi', got '%s'", name)
	}
}

func TestRewriteSourceURL(t *testing.T) {
	rewritten := RewriteSourceURL("https://example.com/story?id=7&utm_campaign=spring", "intellinews.co.in")

	u, err := url.Parse(rewritten)
	if err != nil {
		t.Fatalf("Rewritten URL does not parse: %v", err)
	}
	query := u.Query()
	if query.Get("utm_source") != "intellinews.co.in" {
		t.Errorf("Expected utm_source to be set, got '%s'", query.Get("utm_source"))
	}
	if query.Get("utm_medium") != "referral" {
		t.Errorf("Expected utm_medium 'referral', got '%s'", query.Get("utm_medium"))
	}
	if query.Has("utm_campaign") {
		t.Error("Expected utm_campaign to be removed")
	}
	if query.Get("id") != "7" {
		t.Errorf("Expected existing query parameters to be kept, got id='%s'", query.Get("id"))
	}
}

func TestRewriteSourceURLEdgeCases(t *testing.T) {
	if got := RewriteSourceURL("", "site"); got != "#" {
		t.Errorf("Expected '#' for empty URL, got '%s'", got)
	}
	if got := RewriteSourceURL("not a url", "site"); got != "not a url" {
		t.Errorf("Expected invalid URL to be returned unchanged, got '%s'", got)
	}
}

func TestQuizAnswer(t *testing.T) {
	quiz := QuizItem{
		ID:         "q1",
		PromptText: "Which company shipped first?",
		Options: []QuizOption{
			{Text: "A", SelectionCount: 3},
			{Text: "B", SelectionCount: 1},
		},
		CorrectOptionIndex: 1,
	}

	if quiz.TotalVotes() != 4 {
		t.Errorf("Expected 4 votes, got %d", quiz.TotalVotes())
	}
	if p := quiz.Percentage(0); p != 75 {
		t.Errorf("Expected 75%% for first option, got %v", p)
	}

	correct, accepted := quiz.Answer(1)
	if !accepted || !correct {
		t.Errorf("Expected first answer to be accepted and correct, got accepted=%v correct=%v", accepted, correct)
	}

	if _, accepted := quiz.Answer(0); accepted {
		t.Error("Expected second answer to be ignored")
	}

	selected, ok := quiz.Selected()
	if !ok || selected != 1 {
		t.Errorf("Expected selected option 1, got %d (ok=%v)", selected, ok)
	}
}

func TestQuizPercentageWithoutVotes(t *testing.T) {
	quiz := QuizItem{Options: []QuizOption{{Text: "A"}, {Text: "B"}}}
	if p := quiz.Percentage(0); p != 0 {
		t.Errorf("Expected 0%% without votes, got %v", p)
	}
}

func TestFeedPageArticles(t *testing.T) {
	page := FeedPage{Items: []FeedItem{
		NewsItem(Article{ID: "a1", Title: "One"}),
		QuizFeedItem(QuizItem{ID: "q1"}),
		NewsItem(Article{ID: "a2", Title: "Two"}),
	}}

	articles := page.Articles()
	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}
	if articles[0].ID != "a1" || articles[1].ID != "a2" {
		t.Errorf("Expected articles in feed order, got %s, %s", articles[0].ID, articles[1].ID)
	}
}
