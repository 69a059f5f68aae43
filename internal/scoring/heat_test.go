package scoring

import "testing"

func TestHeatScoreRange(t *testing.T) {
	tests := []struct {
		name         string
		volume       int64
		openInterest int64
		yesPrice     int
	}{
		{"zero", 0, 0, 0},
		{"max caps", 10000000, 10000000, 50},
		{"certain yes", 5000, 1000, 99},
		{"certain no", 5000, 1000, 1},
	}
	for _, tt := range tests {
		got := HeatScore(tt.volume, tt.openInterest, tt.yesPrice)
		if got < 0 || got > 18 {
			t.Fatalf("%s: HeatScore = %v, want within [0,18]", tt.name, got)
		}
	}
}

func TestHeatScoreMaxScenario(t *testing.T) {
	if got := HeatScore(100000, 25000, 50); got != 18 {
		t.Fatalf("HeatScore(100000, 25000, 50) = %v, want 18", got)
	}
	// The lower caps from the written-out scenario: volume 10000 scores 1,
	// open interest 5000 scores 1, price 50 scores 3.
	if got := HeatScore(10000, 5000, 50); got != 1+1+3 {
		t.Fatalf("HeatScore(10000, 5000, 50) = %v, want 5", got)
	}
}

func TestHeatScoreMonotonic(t *testing.T) {
	prev := HeatScore(0, 1000, 30)
	for _, v := range []int64{100, 10000, 50000, 200000} {
		cur := HeatScore(v, 1000, 30)
		if cur < prev {
			t.Fatalf("heat decreased with volume %d: %v < %v", v, cur, prev)
		}
		prev = cur
	}
	prev = HeatScore(5000, 0, 30)
	for _, oi := range []int64{100, 5000, 30000, 100000} {
		cur := HeatScore(5000, oi, 30)
		if cur < prev {
			t.Fatalf("heat decreased with open interest %d: %v < %v", oi, cur, prev)
		}
		prev = cur
	}
}

func TestHeatScorePeaksAtFifty(t *testing.T) {
	peak := HeatScore(5000, 1000, 50)
	for _, p := range []int{0, 10, 25, 49, 51, 75, 90, 100} {
		if got := HeatScore(5000, 1000, p); got >= peak {
			t.Fatalf("HeatScore at price %d = %v, want below peak %v", p, got, peak)
		}
	}
}

func TestCategorizeFieldPrecedence(t *testing.T) {
	// Title says crypto, category field says politics: the field wins.
	if got := Categorize("Politics", "Will bitcoin hit $100k?"); got != "Politics" {
		t.Fatalf("Categorize = %q, want Politics", got)
	}
}

func TestCategorizeTitleFallback(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Will Trump win the election?", "Politics"},
		{"Will the Fed cut rates?", "Economy"},
		{"Highest temperature in NYC this week?", "Weather"},
		{"Will bitcoin close above $100k?", "Crypto"},
		{"Who wins best picture at the Oscars?", "Entertainment"},
		{"Something entirely unrelated", "Other"},
	}
	for _, tt := range tests {
		if got := Categorize("", tt.title); got != tt.want {
			t.Fatalf("Categorize(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestCategorizeDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		if got := Categorize("financial markets", "anything"); got != "Economy" {
			t.Fatalf("Categorize unstable on run %d: %q", i, got)
		}
	}
}
