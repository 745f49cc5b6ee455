// Command explorer is a terminal reader for an IntelliNews server. It drives
// an explorer session from commands typed on stdin.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/lysyi3m/intellinews/app/client"
	"github.com/lysyi3m/intellinews/app/explorer"
	"github.com/lysyi3m/intellinews/app/news"
	"github.com/lysyi3m/intellinews/app/secret"
	"github.com/lysyi3m/intellinews/app/tasks"
)

type options struct {
	Server        string  `long:"server" env:"INTELLINEWS_SERVER" default:"http://localhost:8080" description:"IntelliNews server URL"`
	APISecret     string  `long:"api-secret" env:"API_SECRET_KEY" description:"Shared secret for the X-API-Secret header"`
	EncryptionKey string  `long:"encryption-key" env:"ENCRYPTION_KEY" description:"AES key used to encrypt the X-API-Secret header"`
	Lang          string  `long:"lang" env:"LANG_CODE" default:"en" description:"Content language (en or hi)"`
	Threshold     float64 `long:"threshold" default:"0.7" description:"Fraction of a stories carousel viewed before the next page loads"`
	Workers       int     `long:"workers" default:"2" description:"Concurrent fetches across feeds"`
	Debug         bool    `long:"debug" description:"Enable debug logging"`
}

const help = `commands:
  show                  print the current feed
  more                  load the next page (grid view)
  story <n>             view story n in the carousel (stories view)
  topic <tag>           toggle a trending topic
  ai <topic>            generate AI news for a suggested topic
  suggest               refresh suggested news and topics
  section <name>        news, articles or startup
  feeds                 list custom RSS feeds
  feed <name>           open a custom RSS feed
  read <n>              print the readable text of item n
  lang <en|hi>          switch language
  home                  back to top stories
  quit`

type terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *terminal) Notify(n explorer.Notification) {
	t.printf("[%s] %s: %s\n", n.Level, n.Title, n.Message)
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	logLevel := slog.LevelWarn
	if opts.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if err := run(opts); err != nil {
		slog.Error("Explorer stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var codec *secret.Codec
	if opts.APISecret != "" {
		var err error
		codec, err = secret.NewCodec(opts.APISecret, opts.EncryptionKey, 0)
		if err != nil {
			return fmt.Errorf("invalid api secret configuration: %w", err)
		}
	}

	api := client.New(client.Options{
		BaseURL:    opts.Server,
		HTTPClient: &http.Client{Timeout: 90 * time.Second},
		Codec:      codec,
		UserAgent:  "IntelliNews Explorer/1.0",
	})

	scheduler := tasks.NewScheduler(opts.Workers, 32)
	scheduler.Start()
	defer scheduler.Stop()

	term := &terminal{out: os.Stdout}
	session := explorer.NewSession(ctx, api, api, scheduler, explorer.SessionOptions{
		Language:  news.ParseLanguage(opts.Lang),
		Threshold: opts.Threshold,
		Notifier:  term,
		OnUpdate: func(section explorer.Section, state explorer.FeedState) {
			if state.State == explorer.Ready || state.State == explorer.Exhausted {
				term.printf("(%s/%s: %d items, %s)\n", section, state.Loader, len(state.Items), state.State)
			}
		},
	})

	r := &repl{ctx: ctx, api: api, session: session, scheduler: scheduler, term: term, threshold: opts.Threshold}
	session.Start()
	r.current = session.Active()

	term.printf("%s\n", help)
	return r.loop(ctx, os.Stdin)
}

type repl struct {
	ctx       context.Context
	api       *client.Client
	session   *explorer.Session
	scheduler *tasks.Scheduler
	term      *terminal
	threshold float64
	current   *explorer.Controller
}

func (r *repl) loop(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			if quit := r.handle(strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (r *repl) handle(line string) bool {
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "":
	case "quit", "exit":
		return true
	case "help":
		r.term.printf("%s\n", help)
	case "show":
		r.show()
	case "more":
		if !r.current.LastItemVisible() {
			r.term.printf("nothing to load (%s)\n", r.current.Snapshot().State)
		}
	case "story":
		index, err := strconv.Atoi(arg)
		if err != nil {
			r.term.printf("story needs an index\n")
			return false
		}
		r.showItem(index)
		r.current.CarouselIndex(index)
	case "topic":
		r.session.SelectTopic(arg)
		r.current = r.session.Active()
	case "ai":
		r.session.SelectSuggestedTopic(arg)
		r.current = r.session.Active()
	case "suggest":
		r.session.RefreshSuggestions()
	case "section":
		section, err := explorer.ParseSection(arg)
		if err != nil {
			r.term.printf("%v\n", err)
			return false
		}
		r.session.SelectSection(section)
		r.current = r.session.Active()
	case "feeds":
		r.listFeeds()
	case "feed":
		r.current = explorer.NewController(r.ctx, "feed", explorer.CustomFeedLoader(r.api, arg), r.scheduler, explorer.ControllerOptions{
			Threshold: r.threshold,
			Notifier:  r.term,
		})
		r.current.Start()
	case "read":
		r.read(arg)
	case "lang":
		r.session.SetLanguage(news.ParseLanguage(arg))
		r.current = r.session.Active()
	case "home":
		r.session.GoHome()
		r.current = r.session.Active()
	default:
		r.term.printf("unknown command %q, try help\n", command)
	}
	return false
}

func (r *repl) show() {
	view := r.session.View()
	state := r.current.Snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "== %s | %s | %s\n", view.Language.DisplayName(), view.Section, state.Loader)
	if len(view.TrendingTopics) > 0 {
		tags := make([]string, 0, len(view.TrendingTopics))
		for _, topic := range view.TrendingTopics {
			tags = append(tags, topic.Tag)
		}
		fmt.Fprintf(&b, "trending: %s\n", strings.Join(tags, ", "))
	}
	if len(view.ReadingHistory) > 0 {
		fmt.Fprintf(&b, "history: %s\n", strings.Join(view.ReadingHistory, ", "))
	}
	for i, item := range state.Items {
		fmt.Fprintf(&b, "%3d. %s\n", i, itemLine(item))
	}
	if len(view.SuggestedNews) > 0 {
		b.WriteString("-- suggested for you\n")
		for _, article := range view.SuggestedNews {
			fmt.Fprintf(&b, "   * %s [%s]\n", article.Title, article.Category)
		}
	}
	if len(view.SuggestedTopics) > 0 {
		fmt.Fprintf(&b, "-- suggested topics: %s\n", strings.Join(view.SuggestedTopics, ", "))
	}
	fmt.Fprintf(&b, "state: %s, more: %t\n", state.State, state.HasMore)
	r.term.printf("%s", b.String())
}

func (r *repl) showItem(index int) {
	items := r.current.Snapshot().Items
	if index < 0 || index >= len(items) {
		r.term.printf("no story %d\n", index)
		return
	}
	r.term.printf("%3d. %s\n", index, itemLine(items[index]))
}

func (r *repl) listFeeds() {
	feeds, err := r.api.Feeds(r.ctx)
	if err != nil {
		r.term.Notify(explorer.Notification{Level: explorer.LevelError, Title: "Error", Message: err.Error()})
		return
	}
	for _, f := range feeds {
		r.term.printf("%-20s %-40s enabled=%t\n", f.Name, f.Title, f.Enabled)
	}
}

func (r *repl) read(arg string) {
	index, err := strconv.Atoi(arg)
	items := r.current.Snapshot().Items
	if err != nil || index < 0 || index >= len(items) || items[index].Article == nil {
		r.term.printf("read needs the index of a news item\n")
		return
	}

	doc, err := r.api.Reader(r.ctx, items[index].Article.SourceURL)
	if err != nil {
		r.term.Notify(explorer.Notification{Level: explorer.LevelError, Title: "Error", Message: err.Error()})
		return
	}
	r.term.printf("%s\n\n%s\n", doc.Title, doc.Text)
}

func itemLine(item news.FeedItem) string {
	switch {
	case item.Kind == news.KindQuiz && item.Quiz != nil:
		return fmt.Sprintf("[quiz] %s (%d options)", item.Quiz.PromptText, len(item.Quiz.Options))
	case item.Article != nil:
		line := item.Article.Title
		if item.Article.Author != "" {
			line += " by " + item.Article.Author
		}
		return line
	default:
		return item.ID
	}
}
