package mq

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/codeclash-oj/apiserver/types"
)

// JudgedChannel is the channel judged-submission events are published on.
const JudgedChannel = "submissions.judged"

// JudgedEvent is the payload broadcast for every persisted submission.
// Downstream consumers (notification fanout, analytics) key off it
// instead of polling the store.
type JudgedEvent struct {
	SubmissionID int64     `json:"submission_id"`
	ChallengeID  int       `json:"challenge_id"`
	UserID       int       `json:"user_id"`
	Status       string    `json:"status"`
	Score        int       `json:"score"`
	Language     string    `json:"language"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// JudgedPublisher publishes judged-submission events over an MQ backend.
type JudgedPublisher struct {
	mq *MQ
}

// NewJudgedPublisher constructs a publisher over the given MQ.
func NewJudgedPublisher(mq *MQ) *JudgedPublisher {
	return &JudgedPublisher{mq: mq}
}

// PublishJudged broadcasts one judged submission.
func (p *JudgedPublisher) PublishJudged(ctx context.Context, sub types.Submission) error {
	event := JudgedEvent{
		SubmissionID: sub.ID,
		ChallengeID:  sub.ChallengeID,
		UserID:       sub.UserID,
		Status:       sub.Status.String(),
		Score:        sub.Score,
		Language:     sub.Language,
		SubmittedAt:  sub.SubmittedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	attrs := map[string]string{
		"challenge_id": strconv.Itoa(sub.ChallengeID),
		"user_id":      strconv.Itoa(sub.UserID),
		"status":       sub.Status.String(),
	}
	_, err = p.mq.Publish(ctx, JudgedChannel, data, attrs)
	return err
}
