package steps

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/epy0n0ff/charles/internal/command"
	"github.com/epy0n0ff/charles/internal/github"
)

// GhPagesBranch is the branch serving project sites
const GhPagesBranch = "gh-pages"

// Predicate evaluates a precondition against a command
type Predicate func(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error)

// Check routes to OnTrue or OnFalse depending on Predicate.
// A nil branch makes the check return the predicate result itself.
type Check struct {
	Name      string
	Predicate Predicate
	OnTrue    Step
	OnFalse   Step
}

// Perform implements Step
func (c *Check) Perform(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
	ok, err := c.Predicate(ctx, cmd, logger)
	if err != nil {
		return false, err
	}
	logger.Debug(c.Name, zap.Bool("passed", ok))

	next := c.OnFalse
	if ok {
		next = c.OnTrue
	}
	if next == nil {
		return ok, nil
	}
	return next.Perform(ctx, cmd, logger)
}

// AuthorOwnerCheck passes when the commander owns the repository
func AuthorOwnerCheck(onTrue, onFalse Step) *Check {
	return &Check{
		Name:      "AuthorOwnerCheck",
		Predicate: isAuthorOwner,
		OnTrue:    onTrue,
		OnFalse:   onFalse,
	}
}

func isAuthorOwner(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
	repo, err := cmd.Issue().RepoInfo(ctx)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(repo.Owner, cmd.AuthorLogin()), nil
}

// OrganizationAdminCheck passes when the repository belongs to an organization
// and the commander is one of its active admins
func OrganizationAdminCheck(onTrue, onFalse Step) *Check {
	return &Check{
		Name:      "OrganizationAdminCheck",
		Predicate: isOrganizationAdmin,
		OnTrue:    onTrue,
		OnFalse:   onFalse,
	}
}

func isOrganizationAdmin(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
	repo, err := cmd.Issue().RepoInfo(ctx)
	if err != nil {
		return false, err
	}
	if !repo.IsOrganization() {
		return false, nil
	}
	admins, err := cmd.Issue().Client().ListOrgAdmins(ctx, repo.Owner)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(admins, func(admin string) bool {
		return strings.EqualFold(admin, cmd.AuthorLogin())
	}), nil
}

// CommandersCheck passes when the commander is listed in .charles.yml
func CommandersCheck(onTrue, onFalse Step) *Check {
	return &Check{
		Name:      "CommandersCheck",
		Predicate: isCommander,
		OnTrue:    onTrue,
		OnFalse:   onFalse,
	}
}

func isCommander(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
	yml, err := cmd.Issue().CharlesYml(ctx)
	if errors.Is(err, github.ErrInvalidCharlesYml) {
		logger.Error("Ignoring "+github.CharlesYmlPath, zap.Error(err))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return yml.HasCommander(cmd.AuthorLogin()), nil
}

// RepoForkCheck passes when the repository is not a fork
func RepoForkCheck(onTrue, onFalse Step) *Check {
	return &Check{
		Name: "RepoForkCheck",
		Predicate: func(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
			repo, err := cmd.Issue().RepoInfo(ctx)
			if err != nil {
				return false, err
			}
			return !repo.Fork, nil
		},
		OnTrue:  onTrue,
		OnFalse: onFalse,
	}
}

// RepoNameCheck passes when the repository is named <owner>.github.io
func RepoNameCheck(onTrue, onFalse Step) *Check {
	return &Check{
		Name: "RepoNameCheck",
		Predicate: func(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
			repo, err := cmd.Issue().RepoInfo(ctx)
			if err != nil {
				return false, err
			}
			return strings.EqualFold(repo.Name, repo.Owner+".github.io"), nil
		},
		OnTrue:  onTrue,
		OnFalse: onFalse,
	}
}

// GhPagesBranchCheck passes when the repository has a gh-pages branch
func GhPagesBranchCheck(onTrue, onFalse Step) *Check {
	return &Check{
		Name: "GhPagesBranchCheck",
		Predicate: func(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
			branches, err := cmd.Issue().Branches(ctx)
			if err != nil {
				return false, err
			}
			return slices.Contains(branches, GhPagesBranch), nil
		},
		OnTrue:  onTrue,
		OnFalse: onFalse,
	}
}

// RepoOwnershipCheck routes to onOwner when the commander is the owner, an
// admin of the owning organization or a commander in .charles.yml.
// Checks are evaluated in that order and stop at the first that passes.
func RepoOwnershipCheck(onOwner, onDenied Step) Step {
	return AuthorOwnerCheck(
		onOwner,
		OrganizationAdminCheck(
			onOwner,
			CommandersCheck(onOwner, onDenied),
		),
	)
}
