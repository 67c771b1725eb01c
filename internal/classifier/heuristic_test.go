package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const humanText = `I remember the first time I tried to bake bread. The dough stuck
to everything, my kitchen looked like a flour bomb had gone off, and the
loaf came out dense as a brick. But it tasted like mine. That failure taught
me more than any recipe ever did.`

const aiText = `As an AI, I can provide a comprehensive overview. It is
important to note that the topic is multifaceted. Furthermore, we must
delve into the rich tapestry of perspectives. Moreover, the implications
are significant. Additionally, scholars have therefore examined this
question. Consequently, a nuanced view emerges.`

func TestHeuristicRejectsShortText(t *testing.T) {
	h := NewHeuristicClassifier()
	_, err := h.Classify(context.Background(), "too short")
	if !errors.Is(err, ErrTextTooShort) {
		t.Errorf("Classify(short) = %v, want ErrTextTooShort", err)
	}
}

func TestHeuristicDeterministic(t *testing.T) {
	h := NewHeuristicClassifier()
	ctx := context.Background()

	first, err := h.Classify(ctx, aiText)
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := h.Classify(ctx, aiText)
		if err != nil {
			t.Fatalf("Classify() error: %v", err)
		}
		if again.Score != first.Score || again.IsAiGenerated != first.IsAiGenerated {
			t.Fatalf("run %d diverged: %+v vs %+v", i, again, first)
		}
	}
}

func TestHeuristicSeparatesAiFromHuman(t *testing.T) {
	h := NewHeuristicClassifier()
	ctx := context.Background()

	human, err := h.Classify(ctx, humanText)
	if err != nil {
		t.Fatalf("Classify(human) error: %v", err)
	}
	ai, err := h.Classify(ctx, aiText)
	if err != nil {
		t.Fatalf("Classify(ai) error: %v", err)
	}

	if ai.Score <= human.Score {
		t.Errorf("ai score %f not above human score %f", ai.Score, human.Score)
	}
	if !ai.IsAiGenerated {
		t.Errorf("phrase-dense text not flagged, score %f", ai.Score)
	}
	if human.IsAiGenerated {
		t.Errorf("personal narrative flagged as AI, score %f", human.Score)
	}
}

func TestHeuristicScoreRange(t *testing.T) {
	h := NewHeuristicClassifier()
	texts := []string{
		humanText,
		aiText,
		strings.Repeat("furthermore moreover nevertheless therefore however thus ", 20),
		strings.Repeat("a", 200),
	}

	for _, text := range texts {
		result, err := h.Classify(context.Background(), text)
		if err != nil {
			t.Fatalf("Classify() error: %v", err)
		}
		if result.Score < 0 || result.Score > 1 {
			t.Errorf("score %f out of [0,1]", result.Score)
		}
		if result.Provider != ProviderHeuristic {
			t.Errorf("provider = %q, want %q", result.Provider, ProviderHeuristic)
		}
	}
}

func TestEligible(t *testing.T) {
	if Eligible(strings.Repeat("x", MinTextLength-1)) {
		t.Error("text below minimum length reported eligible")
	}
	if !Eligible(strings.Repeat("x", MinTextLength)) {
		t.Error("text at minimum length reported ineligible")
	}
}
