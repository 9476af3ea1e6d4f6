package model

import "time"

// RatingMetrics are the three fixed comparison criteria, each scored 1..5.
type RatingMetrics struct {
	Scientific  int `json:"scientific" bson:"scientific"`
	Clarity     int `json:"clarity" bson:"clarity"`
	Helpfulness int `json:"helpfulness" bson:"helpfulness"`
}

// ComparisonRating is one user rating of one model's answer in the LLM
// comparison activity. Written to llm_evaluation_ratings.
type ComparisonRating struct {
	ID          string        `json:"id,omitempty" bson:"_id,omitempty"`
	UserID      string        `json:"userId" bson:"userId"`
	Username    string        `json:"username" bson:"username"`
	ModelID     string        `json:"modelId" bson:"modelId"`
	Question    string        `json:"question" bson:"question"`
	Response    string        `json:"response" bson:"response"`
	Metrics     RatingMetrics `json:"metrics" bson:"metrics"`
	Willingness string        `json:"willingness" bson:"willingness"` // positive | negative | neutral
	RaterType   string        `json:"raterType" bson:"raterType"`
	Timestamp   time.Time     `json:"timestamp" bson:"timestamp"`
}

// TestRating is one per-model test evaluation. Written to test_ratings.
type TestRating struct {
	ID                string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID            string    `json:"userId" bson:"userId"`
	Username          string    `json:"username" bson:"username"`
	ModelID           string    `json:"modelId" bson:"modelId"`
	Question          string    `json:"question" bson:"question"`
	Answer            string    `json:"answer" bson:"answer"`
	ScientificRating  int       `json:"scientificRating" bson:"scientificRating"`
	ClarityRating     int       `json:"clarityRating" bson:"clarityRating"`
	HelpfulnessRating int       `json:"helpfulnessRating" bson:"helpfulnessRating"`
	WouldUseAgain     bool      `json:"wouldUseAgain" bson:"wouldUseAgain"`
	Comments          string    `json:"comments,omitempty" bson:"comments,omitempty"`
	AnalysisScore     int       `json:"analysisScore" bson:"analysisScore"`
	Strengths         []string  `json:"strengths" bson:"strengths"`
	Improvements      []string  `json:"improvements" bson:"improvements"`
	AnnotatedAnswer   string    `json:"annotatedAnswer" bson:"annotatedAnswer"`
	DetailedFeedback  string    `json:"detailedFeedback" bson:"detailedFeedback"`
	Score             int       `json:"score" bson:"score"` // 0..100
	Timestamp         time.Time `json:"timestamp" bson:"timestamp"`
}

// ScaleRating is the per-scale validation answer pair.
type ScaleRating struct {
	Understanding int    `json:"understanding" bson:"understanding"` // 1..5
	Agreement     int    `json:"agreement" bson:"agreement"`         // 1..5
	Suggestions   string `json:"suggestions,omitempty" bson:"suggestions,omitempty"`
}

// ScaleRatings groups the three validated scales.
type ScaleRatings struct {
	Scientific  ScaleRating `json:"scientific" bson:"scientific"`
	Clarity     ScaleRating `json:"clarity" bson:"clarity"`
	Helpfulness ScaleRating `json:"helpfulness" bson:"helpfulness"`
}

// ScaleValidation is one completed scale-validation activity. Written to
// scale_validations.
type ScaleValidation struct {
	ID        string       `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string       `json:"userId" bson:"userId"`
	Username  string       `json:"username" bson:"username"`
	Type      string       `json:"type" bson:"type"`
	Ratings   ScaleRatings `json:"ratings" bson:"ratings"`
	Timestamp time.Time    `json:"timestamp" bson:"timestamp"`
}

// GeneratedQuestion is the LLM-produced quiz item.
type GeneratedQuestion struct {
	Question         string   `json:"question" bson:"question"`
	CorrectAnswer    string   `json:"correctAnswer" bson:"correctAnswer"`
	IncorrectOptions []string `json:"incorrectOptions" bson:"incorrectOptions"`
	Explanation      string   `json:"explanation" bson:"explanation"`
	Type             string   `json:"type" bson:"type"`
}

// QuizGeneration records one quiz-generation activity. Written to quizzes.
type QuizGeneration struct {
	ID           string            `json:"id,omitempty" bson:"_id,omitempty"`
	UserID       string            `json:"userId" bson:"userId"`
	Username     string            `json:"username" bson:"username"`
	Category     string            `json:"category" bson:"category"`     // conceptual | application | context
	Difficulty   string            `json:"difficulty" bson:"difficulty"` // easy | medium | hard
	Model        string            `json:"model" bson:"model"`
	QuestionType string            `json:"questionType" bson:"questionType"`
	Topic        string            `json:"topic" bson:"topic"`
	Generated    GeneratedQuestion `json:"generated" bson:"generated"`
	CreatedAt    time.Time         `json:"createdAt" bson:"createdAt"`
}
