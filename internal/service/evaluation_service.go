package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smita-2184/llm-eval/internal/model"
	"github.com/smita-2184/llm-eval/internal/repository"
)

// Evaluation stream kinds, also used as the pub/sub event payloads.
const (
	KindComparison      = "comparison"
	KindTestRating      = "test"
	KindScaleValidation = "scale-validation"
	KindQuiz            = "quiz"
)

var (
	validWillingness = map[string]bool{"positive": true, "negative": true, "neutral": true}

	validQuestionTypes = map[string]bool{
		"multiple-choice": true,
		"true/false":      true,
		"open-ended":      true,
		"short-answer":    true,
		"numerical":       true,
	}
	validDifficulties = map[string]bool{"easy": true, "medium": true, "hard": true}
	validCategories   = map[string]bool{"conceptual": true, "application": true, "context": true}
)

// ValidationError marks input problems so handlers can map them to 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// EventPublisher notifies the progress aggregator that an evaluation stream
// for a user grew.
type EventPublisher interface {
	PublishEvaluation(ctx context.Context, userID, kind string) error
}

// EvaluationService validates and appends the four evaluation kinds. Records
// are immutable after write; timestamps are server-assigned.
type EvaluationService struct {
	repo   repository.EvaluationRepository
	events EventPublisher
	now    func() time.Time
	logger *logrus.Logger
}

func NewEvaluationService(repo repository.EvaluationRepository, events EventPublisher, logger *logrus.Logger) *EvaluationService {
	return &EvaluationService{
		repo:   repo,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

func inScale(v int) bool {
	return v >= 1 && v <= 5
}

// SaveComparison appends one LLM-comparison rating and returns its id.
func (s *EvaluationService) SaveComparison(ctx context.Context, rating *model.ComparisonRating) (string, error) {
	if rating.UserID == "" {
		return "", invalidf("userId is required")
	}
	if strings.TrimSpace(rating.Question) == "" || strings.TrimSpace(rating.Response) == "" {
		return "", invalidf("question and response are required")
	}
	if !inScale(rating.Metrics.Scientific) || !inScale(rating.Metrics.Clarity) || !inScale(rating.Metrics.Helpfulness) {
		return "", invalidf("metric scores must be between 1 and 5")
	}
	if !validWillingness[rating.Willingness] {
		return "", invalidf("willingness must be positive, negative or neutral")
	}
	rating.RaterType = "user"
	rating.Timestamp = s.now()

	id, err := s.repo.InsertComparison(ctx, rating)
	if err != nil {
		return "", err
	}
	s.publish(ctx, rating.UserID, KindComparison)
	return id, nil
}

// SaveTestRating appends one per-model test rating and returns its id.
func (s *EvaluationService) SaveTestRating(ctx context.Context, rating *model.TestRating) (string, error) {
	if rating.UserID == "" {
		return "", invalidf("userId is required")
	}
	if !inScale(rating.ScientificRating) || !inScale(rating.ClarityRating) || !inScale(rating.HelpfulnessRating) {
		return "", invalidf("ratings must be between 1 and 5")
	}
	if rating.Score < 0 || rating.Score > 100 {
		return "", invalidf("score must be between 0 and 100")
	}
	if rating.Strengths == nil {
		rating.Strengths = []string{}
	}
	if rating.Improvements == nil {
		rating.Improvements = []string{}
	}
	rating.Timestamp = s.now()

	id, err := s.repo.InsertTestRating(ctx, rating)
	if err != nil {
		return "", err
	}
	s.publish(ctx, rating.UserID, KindTestRating)
	return id, nil
}

// SaveScaleValidation appends one scale-validation record and returns its id.
func (s *EvaluationService) SaveScaleValidation(ctx context.Context, validation *model.ScaleValidation) (string, error) {
	if validation.UserID == "" {
		return "", invalidf("userId is required")
	}
	for name, scale := range map[string]model.ScaleRating{
		"scientific":  validation.Ratings.Scientific,
		"clarity":     validation.Ratings.Clarity,
		"helpfulness": validation.Ratings.Helpfulness,
	} {
		if !inScale(scale.Understanding) || !inScale(scale.Agreement) {
			return "", invalidf("%s understanding and agreement must be between 1 and 5", name)
		}
	}
	validation.Timestamp = s.now()

	id, err := s.repo.InsertScaleValidation(ctx, validation)
	if err != nil {
		return "", err
	}
	s.publish(ctx, validation.UserID, KindScaleValidation)
	return id, nil
}

// kebab lower-cases and dash-joins a vocabulary value.
func kebab(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(v))), "-")
}

// SaveQuiz appends one quiz-generation record and returns its id. The
// vocabulary fields are normalized to lower-case kebab form before
// validation.
func (s *EvaluationService) SaveQuiz(ctx context.Context, quiz *model.QuizGeneration) (string, error) {
	if quiz.UserID == "" {
		return "", invalidf("userId is required")
	}
	quiz.Model = kebab(quiz.Model)
	quiz.Category = kebab(quiz.Category)
	quiz.Difficulty = kebab(quiz.Difficulty)
	quiz.QuestionType = kebab(quiz.QuestionType)

	if quiz.Model == "" {
		return "", invalidf("model is required")
	}
	if !validCategories[quiz.Category] {
		return "", invalidf("category must be conceptual, application or context")
	}
	if !validDifficulties[quiz.Difficulty] {
		return "", invalidf("difficulty must be easy, medium or hard")
	}
	if !validQuestionTypes[quiz.QuestionType] {
		return "", invalidf("unknown question type: %s", quiz.QuestionType)
	}
	if quiz.Generated.IncorrectOptions == nil {
		quiz.Generated.IncorrectOptions = []string{}
	}
	quiz.CreatedAt = s.now()

	id, err := s.repo.InsertQuiz(ctx, quiz)
	if err != nil {
		return "", err
	}
	s.publish(ctx, quiz.UserID, KindQuiz)
	return id, nil
}

// publish failures are logged, not surfaced: the write already committed and
// progress converges on the next snapshot anyway.
func (s *EvaluationService) publish(ctx context.Context, userID, kind string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvaluation(ctx, userID, kind); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"kind":    kind,
		}).Warn("Failed to publish evaluation event")
	}
}
