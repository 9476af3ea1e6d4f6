package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smita-2184/llm-eval/internal/model"
)

type stubEvalRepo struct {
	comparisons []*model.ComparisonRating
	testRatings []*model.TestRating
	validations []*model.ScaleValidation
	quizzes     []*model.QuizGeneration

	comparisonModels []string
	testModels       []string
	quizModels       []string
	hasValidation    bool
	readErr          error
}

func (r *stubEvalRepo) InsertComparison(ctx context.Context, rating *model.ComparisonRating) (string, error) {
	r.comparisons = append(r.comparisons, rating)
	return "cmp-1", nil
}

func (r *stubEvalRepo) InsertTestRating(ctx context.Context, rating *model.TestRating) (string, error) {
	r.testRatings = append(r.testRatings, rating)
	return "test-1", nil
}

func (r *stubEvalRepo) InsertScaleValidation(ctx context.Context, validation *model.ScaleValidation) (string, error) {
	r.validations = append(r.validations, validation)
	return "scale-1", nil
}

func (r *stubEvalRepo) InsertQuiz(ctx context.Context, quiz *model.QuizGeneration) (string, error) {
	r.quizzes = append(r.quizzes, quiz)
	return "quiz-1", nil
}

func (r *stubEvalRepo) DistinctComparisonModels(ctx context.Context, userID string) ([]string, error) {
	return r.comparisonModels, r.readErr
}

func (r *stubEvalRepo) DistinctTestModels(ctx context.Context, userID string) ([]string, error) {
	return r.testModels, r.readErr
}

func (r *stubEvalRepo) DistinctQuizModels(ctx context.Context, userID string) ([]string, error) {
	return r.quizModels, r.readErr
}

func (r *stubEvalRepo) HasScaleValidation(ctx context.Context, userID string) (bool, error) {
	return r.hasValidation, r.readErr
}

type stubPublisher struct {
	events []string
	err    error
}

func (p *stubPublisher) PublishEvaluation(ctx context.Context, userID, kind string) error {
	p.events = append(p.events, userID+"/"+kind)
	return p.err
}

func validComparison() *model.ComparisonRating {
	return &model.ComparisonRating{
		UserID:      "u1",
		Username:    "alice",
		ModelID:     "gpt-4",
		Question:    "What is benzene?",
		Response:    "Aromatic ring.",
		Metrics:     model.RatingMetrics{Scientific: 4, Clarity: 5, Helpfulness: 3},
		Willingness: "positive",
	}
}

func TestSaveComparison(t *testing.T) {
	repo := &stubEvalRepo{}
	events := &stubPublisher{}
	svc := NewEvaluationService(repo, events, testLogger())
	svc.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }

	id, err := svc.SaveComparison(context.Background(), validComparison())
	if err != nil {
		t.Fatalf("SaveComparison returned error: %v", err)
	}
	if id != "cmp-1" {
		t.Fatalf("unexpected id %q", id)
	}

	saved := repo.comparisons[0]
	if saved.RaterType != "user" {
		t.Fatalf("rater type must be forced to user, got %q", saved.RaterType)
	}
	if !saved.Timestamp.Equal(time.Unix(1700000000, 0).UTC()) {
		t.Fatalf("timestamp must be server-assigned, got %v", saved.Timestamp)
	}
	if len(events.events) != 1 || events.events[0] != "u1/comparison" {
		t.Fatalf("unexpected published events %v", events.events)
	}
}

func TestSaveComparisonValidation(t *testing.T) {
	svc := NewEvaluationService(&stubEvalRepo{}, &stubPublisher{}, testLogger())

	mutations := []func(*model.ComparisonRating){
		func(r *model.ComparisonRating) { r.UserID = "" },
		func(r *model.ComparisonRating) { r.Question = "  " },
		func(r *model.ComparisonRating) { r.Metrics.Scientific = 0 },
		func(r *model.ComparisonRating) { r.Metrics.Clarity = 6 },
		func(r *model.ComparisonRating) { r.Willingness = "maybe" },
	}
	for i, mutate := range mutations {
		rating := validComparison()
		mutate(rating)
		_, err := svc.SaveComparison(context.Background(), rating)
		var invalid *ValidationError
		if !errors.As(err, &invalid) {
			t.Fatalf("case %d: got %v, want ValidationError", i, err)
		}
	}
}

func TestSaveTestRating(t *testing.T) {
	repo := &stubEvalRepo{}
	events := &stubPublisher{}
	svc := NewEvaluationService(repo, events, testLogger())

	rating := &model.TestRating{
		UserID:            "u1",
		ModelID:           "llama",
		ScientificRating:  3,
		ClarityRating:     4,
		HelpfulnessRating: 5,
		Score:             80,
	}
	if _, err := svc.SaveTestRating(context.Background(), rating); err != nil {
		t.Fatalf("SaveTestRating returned error: %v", err)
	}

	saved := repo.testRatings[0]
	if saved.Strengths == nil || saved.Improvements == nil {
		t.Fatal("nil slices must be normalized to empty")
	}
	if len(events.events) != 1 || events.events[0] != "u1/test" {
		t.Fatalf("unexpected events %v", events.events)
	}

	rating.Score = 101
	if _, err := svc.SaveTestRating(context.Background(), rating); err == nil {
		t.Fatal("score above 100 must be rejected")
	}
	rating.Score = -1
	if _, err := svc.SaveTestRating(context.Background(), rating); err == nil {
		t.Fatal("negative score must be rejected")
	}
}

func TestSaveScaleValidationBounds(t *testing.T) {
	svc := NewEvaluationService(&stubEvalRepo{}, &stubPublisher{}, testLogger())

	valid := &model.ScaleValidation{
		UserID: "u1",
		Ratings: model.ScaleRatings{
			Scientific:  model.ScaleRating{Understanding: 5, Agreement: 4},
			Clarity:     model.ScaleRating{Understanding: 3, Agreement: 3},
			Helpfulness: model.ScaleRating{Understanding: 1, Agreement: 2},
		},
	}
	if _, err := svc.SaveScaleValidation(context.Background(), valid); err != nil {
		t.Fatalf("SaveScaleValidation returned error: %v", err)
	}

	valid.Ratings.Clarity.Agreement = 0
	if _, err := svc.SaveScaleValidation(context.Background(), valid); err == nil {
		t.Fatal("out-of-scale agreement must be rejected")
	}
}

func TestSaveQuizNormalizesVocabulary(t *testing.T) {
	repo := &stubEvalRepo{}
	svc := NewEvaluationService(repo, &stubPublisher{}, testLogger())

	quiz := &model.QuizGeneration{
		UserID:       "u1",
		Model:        "  GPT-4 ",
		Category:     "Conceptual",
		Difficulty:   " MEDIUM ",
		QuestionType: "Multiple Choice",
		Generated:    model.GeneratedQuestion{Question: "Q?", CorrectAnswer: "A"},
	}
	if _, err := svc.SaveQuiz(context.Background(), quiz); err != nil {
		t.Fatalf("SaveQuiz returned error: %v", err)
	}

	saved := repo.quizzes[0]
	if saved.Model != "gpt-4" || saved.Category != "conceptual" || saved.Difficulty != "medium" || saved.QuestionType != "multiple-choice" {
		t.Fatalf("vocabulary not normalized: %+v", saved)
	}
	if saved.Generated.IncorrectOptions == nil {
		t.Fatal("nil incorrect options must be normalized to empty")
	}

	quiz.QuestionType = "essay"
	if _, err := svc.SaveQuiz(context.Background(), quiz); err == nil {
		t.Fatal("unknown question type must be rejected")
	}
	quiz.QuestionType = "true/false"
	quiz.Category = "philosophy"
	if _, err := svc.SaveQuiz(context.Background(), quiz); err == nil {
		t.Fatal("unknown category must be rejected")
	}
}

func TestSavePublishFailureDoesNotFailWrite(t *testing.T) {
	repo := &stubEvalRepo{}
	events := &stubPublisher{err: errors.New("redis down")}
	svc := NewEvaluationService(repo, events, testLogger())

	if _, err := svc.SaveComparison(context.Background(), validComparison()); err != nil {
		t.Fatalf("publish failure must not surface: %v", err)
	}
	if len(repo.comparisons) != 1 {
		t.Fatal("write must commit regardless of publish outcome")
	}
}
