package generator

import (
	"testing"

	"github.com/clawdaw/clawdaw/internal/model"
)

func TestProjectSimilarityIdenticalProjectsIsOne(t *testing.T) {
	p := buildHouseProject()
	fp := FingerprintProject(p)
	sim := ProjectSimilarity(fp, fp)
	if sim < 0.999 {
		t.Fatalf("ProjectSimilarity(fp, fp) = %f, want ~1.0", sim)
	}
}

func TestProjectSimilarityEmptyProjectsDoNotPanic(t *testing.T) {
	p := model.NewProject("empty", 120)
	fp := FingerprintProject(p)
	if sim := ProjectSimilarity(fp, fp); sim < 0 || sim > 1 {
		t.Fatalf("similarity out of range: %f", sim)
	}
}

func TestProjectSimilarityDifferentDrumPatternsAreLessThanOne(t *testing.T) {
	a := buildHouseProject()
	b := buildHouseProject()
	b.Tracks[0].Patterns["d"].Notes = GenerateDrumBars(DrumStyleTrap, 2, b.PPQ, 0.8, 1)

	sim := ProjectSimilarity(FingerprintProject(a), FingerprintProject(b))
	if sim >= 1.0 {
		t.Fatalf("expected dissimilar patterns to score below 1.0, got %f", sim)
	}
}
