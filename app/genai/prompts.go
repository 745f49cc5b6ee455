package genai

import (
	"strings"
	"text/template"
)

const systemPrompt = `You are an expert news writer for a short-format news service. ` +
	`Everything you write is plausible but clearly fictional. Never reproduce real, current events. ` +
	`Always answer with a single JSON document in exactly the requested shape.`

type promptData struct {
	Count       int
	Topic       string
	History     string
	Language    string
	CurrentDate string
}

var topicNewsPrompt = template.Must(template.New("topicNews").Parse(
	`Generate {{.Count}} fictional, short and engaging news summaries about the topic below, in {{.Language}}.

The articles should seem recent, as if they happened within the last week. For context, today's date is {{.CurrentDate}}.
Each article must include a title, a short content summary of 2-3 sentences, a plausible author name (like 'Sports Analyst' or 'Science Reporter') and a plausible but fictional source URL.

Language: {{.Language}}
Topic: {{.Topic}}

Answer with JSON of the form {"generatedNews": [{"title": "...", "content": "...", "author_name": "...", "source_url": "https://..."}]}.
The title, content and author_name must be written in {{.Language}}.
`))

var suggestedNewsPrompt = template.Must(template.New("suggestedNews").Parse(
	`Generate {{.Count}} fictional, short and engaging news summaries based on the reader's history below, in {{.Language}}.

The articles should seem recent, as if they happened within the last week. For context, today's date is {{.CurrentDate}}.
Each article must include a title, a short content summary, a plausible author name, a category and a plausible but fictional source URL.
If the history includes 'technology', write about a fictional new gadget. If it includes 'finance', write about a fictional market trend.

Language: {{.Language}}
Reading history: {{.History}}

Answer with JSON of the form {"suggestedNews": [{"title": "...", "content": "...", "author_name": "...", "category": "...", "source_url": "https://..."}]}.
The title, content, author_name and category must be written in {{.Language}}.
`))

var suggestedTopicsPrompt = template.Must(template.New("suggestedTopics").Parse(
	`Based on the reader's history below, suggest {{.Count}} relevant news topics in {{.Language}}.
Each topic must be a single word or a short phrase.

Language: {{.Language}}
Reading history: {{.History}}

Answer with JSON of the form {"suggestedTopics": ["...", "..."]}.
`))

func render(tmpl *template.Template, data promptData) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
