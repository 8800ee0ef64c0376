package steps

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/epy0n0ff/charles/internal/command"
	"github.com/epy0n0ff/charles/internal/language"
	"github.com/epy0n0ff/charles/internal/mail"
)

// StarRepo stars the repository of the command
type StarRepo struct{}

// Perform implements Step
func (StarRepo) Perform(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
	issue := cmd.Issue()
	if err := issue.Star(ctx); err != nil {
		logger.Error("Failed to star "+issue.FullName(), zap.Error(err))
		return false, nil
	}
	logger.Info("Starred " + issue.FullName())
	return true, nil
}

// SendEmail mails a fixed message to the commander. Only a failure to read
// the address is returned as an error.
type SendEmail struct {
	Mailer  mail.Sender
	Subject string
	Body    string
}

// Perform implements Step
func (s *SendEmail) Perform(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
	to, err := cmd.AuthorEmail(ctx)
	if err != nil {
		return false, err
	}
	if to == "" {
		logger.Error("@" + cmd.AuthorLogin() + " has no public email, cannot send " + s.Subject)
		return false, nil
	}
	if err := s.Mailer.Send(ctx, to, s.Subject, s.Body); err != nil {
		logger.Error("Failed to send email", zap.Error(err))
		return false, nil
	}
	logger.Info("Email sent to " + to + ": " + s.Subject)
	return true, nil
}

// IndexConfirmationEmail tells the commander that the site of the
// repository was indexed, in the language of the command
type IndexConfirmationEmail struct {
	Mailer mail.Sender
}

// Perform implements Step
func (s *IndexConfirmationEmail) Perform(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
	issue := cmd.Issue()
	issueURL, err := issue.HTMLURL(ctx)
	if err != nil {
		logger.Warn("Could not read the issue url", zap.Error(err))
		issueURL = "#"
	}
	body := fmt.Sprintf(
		cmd.Language().Response(language.KeyIndexConfirmation),
		issueURL, cmd.AuthorLogin(), issue.Repo, cmd.AgentLogin(),
	)
	email := &SendEmail{
		Mailer:  s.Mailer,
		Subject: fmt.Sprintf("Repo %s successfully indexed", issue.Repo),
		Body:    body,
	}
	return email.Perform(ctx, cmd, logger)
}
