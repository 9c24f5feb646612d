package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkBreakthrough BookmarkType = "breakthrough"
	BookmarkStagnation   BookmarkType = "stagnation"
	BookmarkCollapse     BookmarkType = "collapse"
)

// Detection thresholds.
const (
	breakthroughGain = 1.2 // best fitness must beat the previous watermark by 20%
	collapseRatio    = 0.5 // mean fitness below half the rolling mean
	minHistory       = 3
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Generation  int          `csv:"generation"`
	Tick        int64        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"generation", b.Generation,
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector flags notable generations in a training run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []GenerationStats
	historySize int
	historyIdx  int
	historyFull bool

	watermark        float64
	stagnantGens     int
	stagnationMarked bool
}

// NewBookmarkDetector creates a detector with the given history size.
// A run is stagnant once historySize generations pass without a new watermark.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5
	}
	return &BookmarkDetector{
		history:     make([]GenerationStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest generation and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats GenerationStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkBreakthrough(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkStagnation(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkCollapse(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats GenerationStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []GenerationStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkBreakthrough(stats GenerationStats) *Bookmark {
	prev := bd.watermark
	if stats.BestFitness <= prev {
		return nil
	}
	bd.watermark = stats.BestFitness
	bd.stagnantGens = 0
	bd.stagnationMarked = false

	// The first generation always sets the watermark; that is not a breakthrough.
	if prev == 0 || stats.BestFitness < prev*breakthroughGain {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkBreakthrough,
		Generation:  stats.Generation,
		Tick:        stats.Tick,
		Description: fmt.Sprintf("Best fitness %.2f is %.1fx the previous record %.2f", stats.BestFitness, stats.BestFitness/prev, prev),
	}
}

func (bd *BookmarkDetector) checkStagnation(stats GenerationStats) *Bookmark {
	if bd.watermark == 0 || stats.BestFitness >= bd.watermark {
		return nil
	}
	bd.stagnantGens++

	// Trigger once per plateau
	if bd.stagnantGens < bd.historySize || bd.stagnationMarked {
		return nil
	}
	bd.stagnationMarked = true
	return &Bookmark{
		Type:        BookmarkStagnation,
		Generation:  stats.Generation,
		Tick:        stats.Tick,
		Description: fmt.Sprintf("No improvement on %.2f for %d generations", bd.watermark, bd.stagnantGens),
	}
}

func (bd *BookmarkDetector) checkCollapse(stats GenerationStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < minHistory {
		return nil
	}

	var sum float64
	for _, h := range history {
		sum += h.FitnessMean
	}
	avg := sum / float64(len(history))
	if avg == 0 || stats.FitnessMean >= avg*collapseRatio {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkCollapse,
		Generation:  stats.Generation,
		Tick:        stats.Tick,
		Description: fmt.Sprintf("Mean fitness %.2f fell below half the rolling mean %.2f", stats.FitnessMean, avg),
	}
}
