package steps

import (
	"context"

	"go.uber.org/zap"

	"github.com/epy0n0ff/charles/internal/command"
	"github.com/epy0n0ff/charles/internal/reply"
)

// SendReply posts a reply. If Next is set it runs after a successful post
// and its result becomes the result of this step.
type SendReply struct {
	Reply reply.Reply
	Next  Step
}

// NewSendReply creates a send-reply step. next may be nil.
func NewSendReply(r reply.Reply, next Step) *SendReply {
	return &SendReply{Reply: r, Next: next}
}

// Perform implements Step
func (s *SendReply) Perform(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
	resp, err := s.Reply.Send(ctx)
	if err != nil {
		logger.Error("Failed to send reply", zap.Error(err))
		return false, nil
	}
	logger.Info("Reply sent: " + resp.HTMLURL)

	if s.Next == nil {
		return true, nil
	}
	return s.Next.Perform(ctx, cmd, logger)
}
