package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/lysyi3m/intellinews/app/genai"
	"github.com/lysyi3m/intellinews/app/news"
	"github.com/lysyi3m/intellinews/app/tasks"
)

type Section string

const (
	SectionNews     Section = "news"
	SectionArticles Section = "articles"
	SectionStartup  Section = "startup"
)

const (
	AITopicNewsCount     = 10
	SuggestedNewsCount   = 2
	SuggestedTopicsCount = 3

	EmptyTopicMessage = "No articles found for this topic. Showing Top Stories instead."
)

func ParseSection(value string) (Section, error) {
	switch Section(value) {
	case SectionNews, SectionArticles, SectionStartup:
		return Section(value), nil
	default:
		return "", fmt.Errorf("unknown section %q", value)
	}
}

type SessionOptions struct {
	Language  news.Language
	Threshold float64
	Notifier  Notifier
	OnUpdate  func(section Section, state FeedState)
}

// View is what a front end needs to render the session chrome.
type View struct {
	Language        news.Language
	Section         Section
	SelectedTopic   string
	SelectedAITopic string
	TrendingTopics  []news.TrendingTopic
	SuggestedTopics []string
	SuggestedNews   []news.Article
	ReadingHistory  []string
}

// Session ties the feed controllers of every section to the user's language,
// topic selection and reading history.
type Session struct {
	ctx       context.Context
	backend   Backend
	generator Generator
	executor  Executor
	notifier  Notifier
	history   ReadingHistory
	feeds     map[Section]*Controller

	mu              sync.Mutex
	lang            news.Language
	section         Section
	selectedTopic   string
	selectedAITopic string
	trending        []news.TrendingTopic
	suggestedTopics []string
	suggestedNews   []news.Article
	aiEpoch         uint64
}

func NewSession(ctx context.Context, backend Backend, generator Generator, executor Executor, opts SessionOptions) *Session {
	lang := opts.Language
	if lang == "" {
		lang = news.English
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}

	s := &Session{
		ctx:       ctx,
		backend:   backend,
		generator: generator,
		executor:  executor,
		notifier:  notifier,
		lang:      lang,
		section:   SectionNews,
	}

	controllerOpts := func(section Section) ControllerOptions {
		return ControllerOptions{
			Threshold: opts.Threshold,
			Notifier:  notifier,
			OnUpdate: func(state FeedState) {
				if opts.OnUpdate != nil {
					opts.OnUpdate(section, state)
				}
			},
		}
	}

	newsOpts := controllerOpts(SectionNews)
	newsOpts.OnEmptyFirstPage = s.fallbackToTopStories
	s.feeds = map[Section]*Controller{
		SectionNews:     NewController(ctx, string(SectionNews), TopStoriesLoader(backend, lang), executor, newsOpts),
		SectionArticles: NewController(ctx, string(SectionArticles), ArticlesLoader(backend), executor, controllerOpts(SectionArticles)),
		SectionStartup:  NewController(ctx, string(SectionStartup), StartupLoader(backend), executor, controllerOpts(SectionStartup)),
	}
	return s
}

// Feed returns the controller backing a section.
func (s *Session) Feed(section Section) *Controller {
	return s.feeds[section]
}

// Active returns the controller of the section currently shown.
func (s *Session) Active() *Controller {
	s.mu.Lock()
	section := s.section
	s.mu.Unlock()
	return s.feeds[section]
}

func (s *Session) History() *ReadingHistory {
	return &s.history
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Language:        s.lang,
		Section:         s.section,
		SelectedTopic:   s.selectedTopic,
		SelectedAITopic: s.selectedAITopic,
		TrendingTopics:  slices.Clone(s.trending),
		SuggestedTopics: slices.Clone(s.suggestedTopics),
		SuggestedNews:   slices.Clone(s.suggestedNews),
		ReadingHistory:  s.history.Items(),
	}
}

// Start loads the trending topics and the first page of top stories.
func (s *Session) Start() {
	s.loadTrending()
	s.feeds[SectionNews].Start()
}

// SelectTopic toggles a trending topic. Selecting the active topic again
// returns to top stories.
func (s *Session) SelectTopic(tag string) {
	s.mu.Lock()
	s.aiEpoch++
	s.selectedAITopic = ""
	s.suggestedNews = nil
	s.section = SectionNews
	lang := s.lang

	var loader Loader
	if tag == s.selectedTopic {
		s.selectedTopic = ""
		loader = TopStoriesLoader(s.backend, lang)
	} else {
		s.selectedTopic = tag
		label := tag
		for _, topic := range s.trending {
			if topic.Tag == tag {
				label = topic.Label
				break
			}
		}
		loader = NewTopicLoader(s.backend, lang, tag, label)
		s.history.Add(label)
	}
	s.mu.Unlock()

	s.feeds[SectionNews].Reset(loader)
}

// SelectSuggestedTopic replaces the news feed with AI generated articles for
// topic. A failed generation leaves the feed as it was.
func (s *Session) SelectSuggestedTopic(topic string) {
	s.mu.Lock()
	s.aiEpoch++
	epoch := s.aiEpoch
	lang := s.lang
	s.mu.Unlock()

	notifyFailure := func() {
		s.notifier.Notify(Notification{
			Level:   LevelError,
			Title:   "AI Error",
			Message: fmt.Sprintf("Could not generate news for %s.", topic),
		})
	}

	err := s.run(tasks.TaskTypeGenerate, "ai:"+topic, func(ctx context.Context) error {
		articles, err := s.generator.GenerateTopicNews(ctx, genai.TopicNewsInput{
			Topic:    topic,
			Count:    AITopicNewsCount,
			Language: lang,
		})
		if err != nil {
			var genErr *genai.GenerationError
			if errors.As(err, &genErr) {
				slog.Warn("Topic news generation failed", "topic", topic, "attempts", genErr.Attempts, "error", err)
			} else {
				slog.Error("Topic news generation failed", "topic", topic, "error", err)
			}
			if !errors.Is(err, context.Canceled) {
				notifyFailure()
			}
			return err
		}

		s.mu.Lock()
		if s.aiEpoch != epoch {
			s.mu.Unlock()
			return nil
		}
		s.selectedTopic = ""
		s.selectedAITopic = topic
		s.suggestedNews = nil
		s.section = SectionNews
		s.mu.Unlock()

		items := make([]news.FeedItem, 0, len(articles))
		for _, article := range articles {
			items = append(items, news.NewsItem(article))
		}
		s.feeds[SectionNews].Replace("ai:"+topic, items)
		return nil
	})
	if err != nil {
		notifyFailure()
	}
}

// SetLanguage switches the content language. History, topics and selections
// are cleared and the news feed restarts from top stories.
func (s *Session) SetLanguage(lang news.Language) {
	s.mu.Lock()
	if lang == s.lang {
		s.mu.Unlock()
		return
	}
	s.lang = lang
	s.aiEpoch++
	s.selectedTopic = ""
	s.selectedAITopic = ""
	s.trending = nil
	s.suggestedTopics = nil
	s.suggestedNews = nil
	s.section = SectionNews
	s.history.Clear()
	s.mu.Unlock()

	s.loadTrending()
	s.feeds[SectionNews].Reset(TopStoriesLoader(s.backend, lang))
}

// SelectSection shows another section and reloads its feed.
func (s *Session) SelectSection(section Section) {
	controller, ok := s.feeds[section]
	if !ok {
		return
	}

	s.mu.Lock()
	filtered := s.selectedTopic != "" || s.selectedAITopic != ""
	s.section = section
	s.selectedTopic = ""
	s.selectedAITopic = ""
	s.aiEpoch++
	lang := s.lang
	s.mu.Unlock()

	if section == SectionNews {
		controller.Reset(TopStoriesLoader(s.backend, lang))
		return
	}
	// The news feed must not keep showing a selection that was just cleared.
	if filtered {
		s.feeds[SectionNews].Reset(TopStoriesLoader(s.backend, lang))
	}
	controller.Reset(nil)
}

// GoHome returns to unfiltered top stories. It is a no-op when already there.
func (s *Session) GoHome() {
	s.mu.Lock()
	if s.selectedTopic == "" && s.selectedAITopic == "" && s.section == SectionNews {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.SelectSection(SectionNews)
}

// RefreshSuggestions asks for AI suggested news and topics based on the
// reading history. Failures are logged only.
func (s *Session) RefreshSuggestions() {
	s.mu.Lock()
	lang := s.lang
	eligible := s.selectedTopic == "" && s.selectedAITopic == "" && s.section == SectionNews
	if !eligible {
		s.mu.Unlock()
		return
	}
	history := s.history.Joined()
	if history == "" {
		s.suggestedNews = nil
		s.suggestedTopics = nil
		s.mu.Unlock()
		return
	}
	epoch := s.aiEpoch
	s.mu.Unlock()

	s.run(tasks.TaskTypeGenerate, "ai:suggested-news", func(ctx context.Context) error {
		articles, err := s.generator.GenerateSuggestedNews(ctx, genai.SuggestedNewsInput{
			ReadingHistory: history,
			Count:          SuggestedNewsCount,
			Language:       lang,
		})
		if err != nil {
			slog.Warn("Suggested news generation failed", "error", err)
			return err
		}
		s.mu.Lock()
		if s.aiEpoch == epoch {
			s.suggestedNews = articles
		}
		s.mu.Unlock()
		return nil
	})

	s.run(tasks.TaskTypeGenerate, "ai:suggested-topics", func(ctx context.Context) error {
		topics, err := s.generator.SuggestTopics(ctx, genai.TopicsInput{
			ReadingHistory: history,
			Count:          SuggestedTopicsCount,
			Language:       lang,
		})
		if err != nil {
			slog.Warn("Topic suggestion failed", "error", err)
			return err
		}
		s.mu.Lock()
		if s.aiEpoch == epoch {
			s.suggestedTopics = topics
		}
		s.mu.Unlock()
		return nil
	})
}

func (s *Session) loadTrending() {
	s.mu.Lock()
	lang := s.lang
	s.mu.Unlock()

	s.run(tasks.TaskTypeLoadPage, "trending-topics", func(ctx context.Context) error {
		topics, err := s.backend.TrendingTopics(ctx, lang)
		if err != nil {
			slog.Error("Failed to load trending topics", "error", err)
			s.notifier.Notify(Notification{Level: LevelError, Title: "Error", Message: err.Error()})
			return err
		}
		s.mu.Lock()
		if s.lang == lang {
			s.trending = topics
		}
		s.mu.Unlock()
		return nil
	})
}

// fallbackToTopStories handles a topic that has no articles: the selection is
// dropped and the news feed restarts from top stories.
func (s *Session) fallbackToTopStories(loader Loader) bool {
	topic, ok := loader.(*TopicLoader)
	if !ok {
		return false
	}

	s.mu.Lock()
	if s.selectedTopic != topic.Tag {
		s.mu.Unlock()
		return false
	}
	s.selectedTopic = ""
	lang := s.lang
	s.mu.Unlock()

	slog.Info("Topic returned no articles, falling back to top stories", "topic", topic.Tag)
	s.notifier.Notify(Notification{Level: LevelInfo, Title: "No articles found", Message: EmptyTopicMessage})
	s.feeds[SectionNews].Reset(TopStoriesLoader(s.backend, lang))
	return true
}

func (s *Session) run(taskType tasks.TaskType, name string, fn func(ctx context.Context) error) error {
	task := tasks.NewFuncTask(taskType, name, func(taskCtx context.Context) error {
		ctx, cancel := context.WithCancel(s.ctx)
		defer cancel()
		stop := context.AfterFunc(taskCtx, cancel)
		defer stop()
		return fn(ctx)
	})
	if err := s.executor.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue session task", "task", name, "error", err)
		return err
	}
	return nil
}
