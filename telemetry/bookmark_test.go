package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, b := range bookmarks {
		if b.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Breakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if got := bd.Check(GenerationStats{Generation: 1, BestFitness: 10, FitnessMean: 5}); len(got) != 0 {
		t.Fatalf("first generation produced bookmarks: %v", got)
	}
	if got := bd.Check(GenerationStats{Generation: 2, BestFitness: 11, FitnessMean: 5}); hasBookmark(got, BookmarkBreakthrough) {
		t.Error("10% gain should not count as a breakthrough")
	}

	got := bd.Check(GenerationStats{Generation: 3, BestFitness: 20, FitnessMean: 6})
	if !hasBookmark(got, BookmarkBreakthrough) {
		t.Error("expected breakthrough bookmark")
	}
}

func TestBookmarkDetector_StagnationOnce(t *testing.T) {
	bd := NewBookmarkDetector(5)
	bd.Check(GenerationStats{Generation: 1, BestFitness: 10, FitnessMean: 5})

	count := 0
	for g := 2; g < 20; g++ {
		if hasBookmark(bd.Check(GenerationStats{Generation: g, BestFitness: 8, FitnessMean: 5}), BookmarkStagnation) {
			count++
		}
	}
	if count != 1 {
		t.Errorf("stagnation fired %d times, want once per plateau", count)
	}

	// A new record ends the plateau and re-arms the detector.
	bd.Check(GenerationStats{Generation: 20, BestFitness: 11, FitnessMean: 5})
	for g := 21; g < 30; g++ {
		if hasBookmark(bd.Check(GenerationStats{Generation: g, BestFitness: 8, FitnessMean: 5}), BookmarkStagnation) {
			count++
		}
	}
	if count != 2 {
		t.Errorf("stagnation fired %d times in total, want 2", count)
	}
}

func TestBookmarkDetector_Collapse(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for g := 1; g <= 4; g++ {
		bd.Check(GenerationStats{Generation: g, BestFitness: 20, FitnessMean: 10})
	}

	got := bd.Check(GenerationStats{Generation: 5, BestFitness: 15, FitnessMean: 3})
	if !hasBookmark(got, BookmarkCollapse) {
		t.Error("expected collapse bookmark")
	}

	got = bd.Check(GenerationStats{Generation: 6, BestFitness: 15, FitnessMean: 9})
	if hasBookmark(got, BookmarkCollapse) {
		t.Error("mean near the rolling average should not collapse")
	}
}
