package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smita-2184/llm-eval/internal/model"
)

// EvaluationRepository is the append-only sink for the four evaluation kinds
// and the read side the progress aggregator derives from. There are no update
// or delete operations.
type EvaluationRepository interface {
	InsertComparison(ctx context.Context, rating *model.ComparisonRating) (string, error)
	InsertTestRating(ctx context.Context, rating *model.TestRating) (string, error)
	InsertScaleValidation(ctx context.Context, validation *model.ScaleValidation) (string, error)
	InsertQuiz(ctx context.Context, quiz *model.QuizGeneration) (string, error)

	DistinctComparisonModels(ctx context.Context, userID string) ([]string, error)
	DistinctTestModels(ctx context.Context, userID string) ([]string, error)
	DistinctQuizModels(ctx context.Context, userID string) ([]string, error)
	HasScaleValidation(ctx context.Context, userID string) (bool, error)
}

type evaluationRepository struct {
	comparisons *mongo.Collection
	testRatings *mongo.Collection
	validations *mongo.Collection
	quizzes     *mongo.Collection
}

func NewEvaluationRepository(db *mongo.Database) EvaluationRepository {
	return &evaluationRepository{
		comparisons: db.Collection("llm_evaluation_ratings"),
		testRatings: db.Collection("test_ratings"),
		validations: db.Collection("scale_validations"),
		quizzes:     db.Collection("quizzes"),
	}
}

func insertedID(result *mongo.InsertOneResult) string {
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}

func (r *evaluationRepository) InsertComparison(ctx context.Context, rating *model.ComparisonRating) (string, error) {
	result, err := r.comparisons.InsertOne(ctx, rating)
	if err != nil {
		return "", err
	}
	return insertedID(result), nil
}

func (r *evaluationRepository) InsertTestRating(ctx context.Context, rating *model.TestRating) (string, error) {
	result, err := r.testRatings.InsertOne(ctx, rating)
	if err != nil {
		return "", err
	}
	return insertedID(result), nil
}

func (r *evaluationRepository) InsertScaleValidation(ctx context.Context, validation *model.ScaleValidation) (string, error) {
	result, err := r.validations.InsertOne(ctx, validation)
	if err != nil {
		return "", err
	}
	return insertedID(result), nil
}

func (r *evaluationRepository) InsertQuiz(ctx context.Context, quiz *model.QuizGeneration) (string, error) {
	result, err := r.quizzes.InsertOne(ctx, quiz)
	if err != nil {
		return "", err
	}
	return insertedID(result), nil
}

func (r *evaluationRepository) distinctStrings(ctx context.Context, coll *mongo.Collection, field, userID string) ([]string, error) {
	values, err := coll.Distinct(ctx, field, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *evaluationRepository) DistinctComparisonModels(ctx context.Context, userID string) ([]string, error) {
	return r.distinctStrings(ctx, r.comparisons, "modelId", userID)
}

func (r *evaluationRepository) DistinctTestModels(ctx context.Context, userID string) ([]string, error) {
	return r.distinctStrings(ctx, r.testRatings, "modelId", userID)
}

func (r *evaluationRepository) DistinctQuizModels(ctx context.Context, userID string) ([]string, error) {
	return r.distinctStrings(ctx, r.quizzes, "model", userID)
}

func (r *evaluationRepository) HasScaleValidation(ctx context.Context, userID string) (bool, error) {
	count, err := r.validations.CountDocuments(ctx, bson.M{"userId": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
