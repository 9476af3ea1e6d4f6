package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/smita-2184/llm-eval/internal/cache"
	"github.com/smita-2184/llm-eval/internal/llm"
	"github.com/smita-2184/llm-eval/internal/metrics"
	"github.com/smita-2184/llm-eval/internal/model"
	"github.com/smita-2184/llm-eval/internal/repository"
)

// ProgressService derives per-user curriculum progress from the evaluation
// streams. Progress is never stored; every snapshot is recomputed from what
// is actually persisted.
type ProgressService struct {
	repo   repository.EvaluationRepository
	events cache.EvaluationEvents
	logger *logrus.Logger
}

func NewProgressService(repo repository.EvaluationRepository, events cache.EvaluationEvents, logger *logrus.Logger) *ProgressService {
	return &ProgressService{
		repo:   repo,
		events: events,
		logger: logger,
	}
}

// CurriculumModels lists the models counted toward completion.
func (s *ProgressService) CurriculumModels() []string {
	return append([]string(nil), llm.TrackedModels...)
}

// Snapshot recomputes the user's activity from the four evaluation streams.
// Read failures degrade the affected stream to its zero value instead of
// failing the snapshot.
func (s *ProgressService) Snapshot(ctx context.Context, userID string) *model.UserActivity {
	return s.snapshot(ctx, userID, nil)
}

func (s *ProgressService) snapshot(ctx context.Context, userID string, onError func(error)) *model.UserActivity {
	activity := model.NewUserActivity(len(llm.TrackedModels))

	tracked := make(map[string]bool, len(llm.TrackedModels))
	for _, id := range llm.TrackedModels {
		tracked[id] = true
	}

	report := func(stream string, err error) {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"stream":  stream,
		}).Warn("Failed to read evaluation stream")
		if onError != nil {
			onError(err)
		}
	}

	if models, err := s.repo.DistinctComparisonModels(ctx, userID); err != nil {
		report("comparison", err)
	} else {
		for _, id := range models {
			if tracked[id] {
				activity.CompletedModels = append(activity.CompletedModels, id)
			}
		}
	}

	if models, err := s.repo.DistinctTestModels(ctx, userID); err != nil {
		report("test", err)
	} else {
		for _, id := range models {
			if tracked[id] {
				activity.CompletedTestModels = append(activity.CompletedTestModels, id)
			}
		}
	}

	if models, err := s.repo.DistinctQuizModels(ctx, userID); err != nil {
		report("quiz", err)
	} else {
		for _, id := range models {
			if tracked[id] {
				activity.CompletedQuizModels = append(activity.CompletedQuizModels, id)
			}
		}
	}

	if done, err := s.repo.HasScaleValidation(ctx, userID); err != nil {
		report("scale-validation", err)
	} else {
		activity.CompletedScaleValidation = done
	}

	activity.Recalculate()
	return &activity
}

// Subscribe emits an initial snapshot, then a fresh snapshot after every
// evaluation write for userID. The JustCompleted flag is raised exactly once,
// on the update that first reaches full completion. Stream read failures
// degrade that stream and report through onError; the subscription itself
// stays alive. The returned cancel func stops the stream.
func (s *ProgressService) Subscribe(ctx context.Context, userID string, onUpdate func(*model.UserActivity), onError func(error)) (func(), error) {
	events, cancelEvents, err := s.events.SubscribeEvaluations(ctx, userID)
	if err != nil {
		return nil, err
	}

	metrics.ProgressSubscriptionStarted()

	go func() {
		defer metrics.ProgressSubscriptionEnded()

		completionSeen := false
		emit := func() {
			activity := s.snapshot(ctx, userID, onError)
			if activity.CompletionPercentage == 100 && !completionSeen {
				completionSeen = true
				activity.JustCompleted = true
			}
			onUpdate(activity)
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				emit()
			}
		}
	}()

	return cancelEvents, nil
}
