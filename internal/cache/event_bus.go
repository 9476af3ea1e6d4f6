package cache

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
)

const evalChannelPrefix = "studium:evals:"

// EvaluationEvent is the payload published after each evaluation write.
type EvaluationEvent struct {
	UserID string `json:"userId"`
	Kind   string `json:"kind"`
}

type EvaluationEvents interface {
	PublishEvaluation(ctx context.Context, userID, kind string) error
	SubscribeEvaluations(ctx context.Context, userID string) (<-chan EvaluationEvent, func(), error)
}

type evaluationEvents struct {
	client *redis.Client
}

func NewEvaluationEvents(client *redis.Client) EvaluationEvents {
	return &evaluationEvents{
		client: client,
	}
}

func (e *evaluationEvents) PublishEvaluation(ctx context.Context, userID, kind string) error {
	data, err := json.Marshal(EvaluationEvent{UserID: userID, Kind: kind})
	if err != nil {
		return err
	}
	return e.client.Publish(ctx, evalChannelPrefix+userID, data).Err()
}

// SubscribeEvaluations delivers one event per evaluation written for userID.
// The returned cancel func closes the subscription and the channel.
func (e *evaluationEvents) SubscribeEvaluations(ctx context.Context, userID string) (<-chan EvaluationEvent, func(), error) {
	sub := e.client.Subscribe(ctx, evalChannelPrefix+userID)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, err
	}

	out := make(chan EvaluationEvent, 8)
	done := make(chan struct{})

	go func() {
		defer close(out)
		msgs := sub.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event EvaluationEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case out <- event:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			sub.Close()
		})
	}
	return out, cancel, nil
}
