package agent

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/forge/internal/aifunc"
	perrors "github.com/p-blackswan/forge/internal/errors"
	"github.com/p-blackswan/forge/internal/llm"
	"github.com/p-blackswan/forge/internal/project"
)

const architectPosition = "Solutions Architect"

// SolutionArchitect decides the project scope and, when needed, the external
// URLs the project depends on.
type SolutionArchitect struct {
	attributes BasicAgent
	ai         aifunc.Caller
	logger     zerolog.Logger
}

// NewSolutionArchitect creates a solutions architect agent.
func NewSolutionArchitect(ai aifunc.Caller, logger zerolog.Logger) *SolutionArchitect {
	return &SolutionArchitect{
		attributes: BasicAgent{
			Objective: "Gathers information and design solutions for website development",
			Position:  architectPosition,
			State:     Discovery,
		},
		ai:     ai,
		logger: logger.With().Str("component", "agent.architect").Logger(),
	}
}

// Attributes returns a snapshot of the agent descriptor.
func (a *SolutionArchitect) Attributes() BasicAgent { return a.attributes.Snapshot() }

// Execute runs the architect until it reaches Finishing.
//
// When the scope needs external URLs the agent moves to UnitTesting, which has no
// behavior yet. Execute reports that as ErrStateNotImplemented instead of looping.
func (a *SolutionArchitect) Execute(ctx context.Context, fs *project.FactSheet) error {
	for a.attributes.State != Finishing {
		switch a.attributes.State {
		case Discovery:
			scope, err := a.callProjectScope(ctx, fs)
			if err != nil {
				return err
			}
			if !scope.IsExternalURLsRequired {
				if err := a.attributes.UpdateState(Finishing); err != nil {
					return err
				}
				continue
			}
			if err := a.callDetermineExternalURLs(ctx, fs); err != nil {
				return err
			}
			if err := a.attributes.UpdateState(UnitTesting); err != nil {
				return err
			}

		case UnitTesting:
			a.logger.Warn().
				Strs("external_urls", fs.ExternalURLs).
				Msg("external url checking is not implemented")
			return perrors.NewAgentError(perrors.ErrStateNotImplemented, architectPosition, "unit testing", nil).
				WithDetail("external URLs were stored but cannot be verified")

		default:
			if err := a.attributes.UpdateState(Finishing); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *SolutionArchitect) callProjectScope(ctx context.Context, fs *project.FactSheet) (project.ProjectScope, error) {
	call := aifunc.Call{
		Function: aifunc.PrintProjectScope,
		Role:     architectPosition,
		Op:       "Determining project scope",
		Input:    fs.Description(),
	}
	scope, raw, err := aifunc.Decode[project.ProjectScope](ctx, a.ai, call)
	a.remember(call, raw)
	if err != nil {
		return scope, err
	}
	if err := fs.SetScope(scope); err != nil {
		return scope, perrors.NewAgentError(perrors.ErrInvalidInput, architectPosition, "store scope", err)
	}

	a.logger.Info().
		Bool("crud", scope.IsCrudRequired).
		Bool("auth", scope.IsUserLoginAndLogout).
		Bool("external_urls", scope.IsExternalURLsRequired).
		Msg("project scope decided")
	return scope, nil
}

func (a *SolutionArchitect) callDetermineExternalURLs(ctx context.Context, fs *project.FactSheet) error {
	call := aifunc.Call{
		Function: aifunc.PrintSiteURLs,
		Role:     architectPosition,
		Op:       "Determining external URLs",
		Input:    fs.Description(),
	}
	urls, raw, err := aifunc.Decode[[]string](ctx, a.ai, call)
	a.remember(call, raw)
	if err != nil {
		return err
	}
	if err := fs.SetExternalURLs(urls); err != nil {
		return perrors.NewAgentError(perrors.ErrInvalidInput, architectPosition, "store external urls", err)
	}
	a.logger.Info().Int("count", len(urls)).Msg("external urls determined")
	return nil
}

func (a *SolutionArchitect) remember(call aifunc.Call, answer string) {
	a.attributes.Remember(aifunc.ExtendFunction(call.Function, call.Input))
	if answer != "" {
		a.attributes.Remember(llm.AssistantMessage(answer))
	}
}
