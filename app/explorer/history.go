package explorer

import (
	"slices"
	"strings"
	"sync"
)

const MaxHistory = 10

// ReadingHistory holds the labels of recently selected topics, newest first,
// without duplicates.
type ReadingHistory struct {
	mu     sync.Mutex
	labels []string
}

func (h *ReadingHistory) Add(label string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	labels := make([]string, 0, len(h.labels)+1)
	labels = append(labels, label)
	for _, existing := range h.labels {
		if existing != label {
			labels = append(labels, existing)
		}
	}
	if len(labels) > MaxHistory {
		labels = labels[:MaxHistory]
	}
	h.labels = labels
}

func (h *ReadingHistory) Items() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.labels)
}

func (h *ReadingHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.labels)
}

func (h *ReadingHistory) Clear() {
	h.mu.Lock()
	h.labels = nil
	h.mu.Unlock()
}

// Joined renders the history the way generation prompts expect it.
func (h *ReadingHistory) Joined() string {
	return strings.Join(h.Items(), ", ")
}
