// Package service implements the wagering operations: session lifecycle,
// slot claims, combat bookkeeping, and settlement. Every mutation follows
// the same shape: read the stored session, mutate a clone through the
// domain rules, and commit with a version compare-and-swap. Ledger moves
// happen before the commit, with a compensating refund when the commit
// loses the version race.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/frontline-gg/wagervault/internal/errors"
	"github.com/frontline-gg/wagervault/internal/ledger"
	"github.com/frontline-gg/wagervault/internal/platform/requestctx"
	"github.com/frontline-gg/wagervault/internal/wager/domain"
	"github.com/frontline-gg/wagervault/internal/wager/event"
	"github.com/frontline-gg/wagervault/internal/wager/rules"
	"github.com/frontline-gg/wagervault/internal/wager/storage"
)

// VaultAccount returns the ledger account that escrows one session's stakes.
func VaultAccount(sessionID string) string {
	return "vault:" + sessionID
}

// Service executes wagering operations against a session store and a ledger.
type Service struct {
	store  storage.SessionStore
	vault  ledger.Ledger
	rules  rules.Rules
	bus    *event.Bus
	now    func() time.Time
	tracer trace.Tracer
}

// New creates a wagering service. The bus may be nil when no streaming
// consumers exist; now defaults to time.Now.
func New(store storage.SessionStore, vault ledger.Ledger, r rules.Rules, bus *event.Bus, now func() time.Time) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if vault == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:  store,
		vault:  vault,
		rules:  r,
		bus:    bus,
		now:    now,
		tracer: otel.Tracer("wagervault/service"),
	}, nil
}

func (s *Service) sessionConfig() domain.Config {
	return domain.Config{
		MinBet:            s.rules.MinBet,
		MaxBet:            s.rules.MaxBet,
		TTL:               s.rules.SessionTTL(),
		SpawnsPerPurchase: s.rules.SpawnsPerPurchase,
		MaxSpawns:         s.rules.MaxSpawns,
	}
}

func (s *Service) publish(evt event.Event) {
	if s.bus == nil {
		return
	}
	evt.At = s.now().UTC()
	s.bus.Publish(evt)
}

// caller returns the verified account making the request.
func caller(ctx context.Context) (string, error) {
	account := requestctx.CallerFromContext(ctx)
	if account == "" {
		return "", apperrors.New(apperrors.CodeIdentityTokenInvalid, "caller identity is required")
	}
	return account, nil
}

// CreateSessionInput describes a new session request.
type CreateSessionInput struct {
	SessionID string
	BetAmount uint64
	Mode      domain.Mode
}

// CreateSession registers a new wagering session. The caller becomes the
// session authority for kill recording, completion, and settlement.
func (s *Service) CreateSession(ctx context.Context, input CreateSessionInput) (domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "wager.CreateSession")
	defer span.End()

	authority, err := caller(ctx)
	if err != nil {
		return domain.Session{}, err
	}

	session, err := domain.NewSession(domain.NewSessionInput{
		SessionID: input.SessionID,
		Authority: authority,
		BetAmount: input.BetAmount,
		Mode:      input.Mode,
	}, s.sessionConfig(), s.now)
	if err != nil {
		return domain.Session{}, err
	}

	if err := s.store.InsertSession(ctx, session); err != nil {
		if errors.Is(err, storage.ErrSessionExists) {
			return domain.Session{}, apperrors.New(apperrors.CodeSessionExists, "session id already in use")
		}
		return domain.Session{}, fmt.Errorf("insert session: %w", err)
	}
	session.Version = 1

	s.publish(event.Event{Type: event.TypeSessionCreated, SessionID: session.SessionID, Actor: authority})
	return session, nil
}

// GetSession returns the stored session.
func (s *Service) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "wager.GetSession")
	defer span.End()

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Session{}, apperrors.New(apperrors.CodeNotFound, "session not found")
		}
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// JoinTeam stakes the caller's bet into the session vault and claims a team
// slot. The stake moves before the slot commit; losing the version race
// refunds the stake and retries against the fresh session.
func (s *Service) JoinTeam(ctx context.Context, sessionID string, teamIndex int) (domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "wager.JoinTeam")
	defer span.End()

	player, err := caller(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	vault := VaultAccount(sessionID)

	committed, err := s.withRetries(ctx, sessionID, func(current domain.Session) (domain.Session, func(), error) {
		mutated := current.Clone()
		if _, err := mutated.Join(player, teamIndex, s.now().UTC()); err != nil {
			return domain.Session{}, nil, err
		}

		if err := s.vault.Transfer(ctx, player, vault, current.BetAmount, "stake "+sessionID); err != nil {
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				return domain.Session{}, nil, apperrors.New(apperrors.CodeInsufficientUserBalance, "balance cannot cover the bet")
			}
			return domain.Session{}, nil, ledgerFailure(fmt.Errorf("stake transfer: %w", err))
		}
		compensate := func() {
			if err := s.vault.Transfer(ctx, vault, player, current.BetAmount, "stake refund "+sessionID); err != nil {
				log.Printf("refund stake for %s in %s: %v", player, sessionID, err)
			}
		}
		return mutated, compensate, nil
	})
	if err != nil {
		return domain.Session{}, err
	}

	s.publish(event.Event{Type: event.TypePlayerJoined, SessionID: sessionID, Actor: player, Team: teamIndex, Amount: committed.BetAmount})
	if committed.Status == domain.StatusInProgress {
		s.publish(event.Event{Type: event.TypeSessionStarted, SessionID: sessionID})
	}
	return committed, nil
}

// LeaveTeam releases the caller's slot before the match starts and refunds
// the staked bet from the session vault.
func (s *Service) LeaveTeam(ctx context.Context, sessionID string, teamIndex int) (domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "wager.LeaveTeam")
	defer span.End()

	player, err := caller(ctx)
	if err != nil {
		return domain.Session{}, err
	}

	committed, err := s.withRetries(ctx, sessionID, func(current domain.Session) (domain.Session, func(), error) {
		mutated := current.Clone()
		if err := mutated.Leave(player, teamIndex, s.now().UTC()); err != nil {
			return domain.Session{}, nil, err
		}
		return mutated, nil, nil
	})
	if err != nil {
		return domain.Session{}, err
	}

	// The slot release is committed; the refund follows it.
	if err := s.vault.Transfer(ctx, VaultAccount(sessionID), player, committed.BetAmount, "leave refund "+sessionID); err != nil {
		return domain.Session{}, ledgerFailure(fmt.Errorf("refund stake: %w", err))
	}

	s.publish(event.Event{Type: event.TypePlayerLeft, SessionID: sessionID, Actor: player, Team: teamIndex, Amount: committed.BetAmount})
	return committed, nil
}

// RecordKill books one kill for the killer and burns one of the victim's
// spawns. Only the session authority may record kills.
func (s *Service) RecordKill(ctx context.Context, sessionID string, killerTeam int, killer string, victimTeam int, victim string) (domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "wager.RecordKill")
	defer span.End()

	account, err := caller(ctx)
	if err != nil {
		return domain.Session{}, err
	}

	committed, err := s.withRetries(ctx, sessionID, func(current domain.Session) (domain.Session, func(), error) {
		if current.Authority != account {
			return domain.Session{}, nil, apperrors.New(apperrors.CodeUnauthorizedGameServer, "caller is not the session authority")
		}
		mutated := current.Clone()
		if err := mutated.RecordKill(killerTeam, killer, victimTeam, victim); err != nil {
			return domain.Session{}, nil, err
		}
		return mutated, nil, nil
	})
	if err != nil {
		return domain.Session{}, err
	}

	s.publish(event.Event{Type: event.TypeKillRecorded, SessionID: sessionID, Actor: killer, Target: victim, Team: killerTeam})
	return committed, nil
}

// PurchaseSpawns sells the caller another batch of spawns at the session
// bet price. Only pay-to-spawn sessions accept purchases.
func (s *Service) PurchaseSpawns(ctx context.Context, sessionID string, teamIndex int) (domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "wager.PurchaseSpawns")
	defer span.End()

	player, err := caller(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	vault := VaultAccount(sessionID)

	committed, err := s.withRetries(ctx, sessionID, func(current domain.Session) (domain.Session, func(), error) {
		mutated := current.Clone()
		if err := mutated.AddSpawns(teamIndex, player, s.rules.MaxSpawns); err != nil {
			return domain.Session{}, nil, err
		}

		if err := s.vault.Transfer(ctx, player, vault, current.BetAmount, "spawn purchase "+sessionID); err != nil {
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				return domain.Session{}, nil, apperrors.New(apperrors.CodeInsufficientUserBalance, "balance cannot cover the spawn purchase")
			}
			return domain.Session{}, nil, ledgerFailure(fmt.Errorf("spawn purchase transfer: %w", err))
		}
		compensate := func() {
			if err := s.vault.Transfer(ctx, vault, player, current.BetAmount, "spawn purchase refund "+sessionID); err != nil {
				log.Printf("refund spawn purchase for %s in %s: %v", player, sessionID, err)
			}
		}
		return mutated, compensate, nil
	})
	if err != nil {
		return domain.Session{}, err
	}

	s.publish(event.Event{Type: event.TypeSpawnsPurchased, SessionID: sessionID, Actor: player, Team: teamIndex, Amount: committed.BetAmount})
	return committed, nil
}

// MarkCompleted ends combat for the session. Only the session authority
// may complete a match.
func (s *Service) MarkCompleted(ctx context.Context, sessionID string) (domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "wager.MarkCompleted")
	defer span.End()

	account, err := caller(ctx)
	if err != nil {
		return domain.Session{}, err
	}

	committed, err := s.withRetries(ctx, sessionID, func(current domain.Session) (domain.Session, func(), error) {
		if current.Authority != account {
			return domain.Session{}, nil, apperrors.New(apperrors.CodeUnauthorizedGameServer, "caller is not the session authority")
		}
		mutated := current.Clone()
		if err := mutated.MarkCompleted(); err != nil {
			return domain.Session{}, nil, err
		}
		return mutated, nil, nil
	})
	if err != nil {
		return domain.Session{}, err
	}

	s.publish(event.Event{Type: event.TypeSessionCompleted, SessionID: sessionID})
	return committed, nil
}

// DistributeWinnerTakesAll pays every member of the winning team twice the
// session bet out of the vault. The status flip to distributed commits
// before the transfer, so a second distribution attempt fails on state.
func (s *Service) DistributeWinnerTakesAll(ctx context.Context, sessionID string, winningTeam int) (domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "wager.DistributeWinnerTakesAll")
	defer span.End()

	return s.distribute(ctx, sessionID, func(session domain.Session) (domain.Plan, error) {
		return domain.WinnerTakesAllPlan(session, winningTeam)
	})
}

// DistributePaySpawnEarnings pays every player their kill-and-spawn
// earnings share out of the vault.
func (s *Service) DistributePaySpawnEarnings(ctx context.Context, sessionID string) (domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "wager.DistributePaySpawnEarnings")
	defer span.End()

	return s.distribute(ctx, sessionID, func(session domain.Session) (domain.Plan, error) {
		return domain.PaySpawnPlan(session, s.rules.EarningsDivisor)
	})
}

func (s *Service) distribute(ctx context.Context, sessionID string, planFn func(domain.Session) (domain.Plan, error)) (domain.Session, error) {
	account, err := caller(ctx)
	if err != nil {
		return domain.Session{}, err
	}

	current, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if current.Authority != account {
		return domain.Session{}, apperrors.New(apperrors.CodeUnauthorizedGameServer, "caller is not the session authority")
	}

	plan, err := planFn(current)
	if err != nil {
		return domain.Session{}, err
	}

	mutated := current.Clone()
	if err := mutated.MarkDistributed(); err != nil {
		return domain.Session{}, err
	}

	vault := VaultAccount(sessionID)
	if plan.Total > 0 {
		balance, err := s.vault.BalanceOf(ctx, vault)
		if err != nil {
			return domain.Session{}, ledgerFailure(fmt.Errorf("vault balance: %w", err))
		}
		if balance < plan.Total {
			return domain.Session{}, apperrors.WithMetadata(
				apperrors.CodeInsufficientVaultBalance,
				"vault cannot cover the planned payouts",
				map[string]string{
					"Required":  fmt.Sprintf("%d", plan.Total),
					"Available": fmt.Sprintf("%d", balance),
				},
			)
		}
	}

	// Flipping the status first makes a concurrent second distribution
	// lose either here or on the state check above.
	if err := s.commit(ctx, mutated, current.Version); err != nil {
		return domain.Session{}, err
	}

	if plan.Total > 0 {
		credits := make([]ledger.Credit, 0, len(plan.Payouts))
		for _, payout := range plan.Payouts {
			credits = append(credits, ledger.Credit{Account: payout.Account, Amount: payout.Amount})
		}
		if err := s.vault.TransferBatch(ctx, vault, credits, "settlement "+sessionID); err != nil {
			// Roll the status back so the settlement can be retried once
			// the vault is reconciled.
			revert := mutated.Clone()
			revert.Status = domain.StatusCompleted
			revertErr := s.commit(ctx, revert, current.Version+1)
			if revertErr != nil {
				// The session stays distributed with the funds still
				// escrowed; an operator has to reconcile it by hand.
				log.Printf("revert distribution status for %s: %v", sessionID, revertErr)
			}
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				err = apperrors.New(apperrors.CodeInsufficientVaultBalance, "vault cannot cover the planned payouts")
			} else {
				err = ledgerFailure(fmt.Errorf("settlement transfer: %w", err))
			}
			if revertErr != nil {
				err = fmt.Errorf("%w; revert distribution status: %v", err, revertErr)
			}
			return domain.Session{}, err
		}
	}

	s.publish(event.Event{Type: event.TypeFundsDistributed, SessionID: sessionID, Amount: plan.Total})
	mutated.Version = current.Version + 1
	return mutated, nil
}

// mutator mutates a fresh read of the session. It returns the mutated
// session, an optional compensation to run when the commit loses the
// version race, and an error when the mutation itself is rejected.
type mutator func(current domain.Session) (domain.Session, func(), error)

// withRetries runs the read-mutate-commit cycle, retrying on version
// conflicts up to the configured attempt limit. On success it returns the
// committed session with its bumped version.
func (s *Service) withRetries(ctx context.Context, sessionID string, mutate mutator) (domain.Session, error) {
	attempts := s.rules.CommitAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		current, err := s.store.GetSession(ctx, sessionID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return domain.Session{}, apperrors.New(apperrors.CodeNotFound, "session not found")
			}
			return domain.Session{}, fmt.Errorf("get session: %w", err)
		}

		mutated, compensate, err := mutate(current)
		if err != nil {
			return domain.Session{}, err
		}

		err = s.commit(ctx, mutated, current.Version)
		if err == nil {
			mutated.Version = current.Version + 1
			return mutated, nil
		}
		if compensate != nil {
			compensate()
		}
		if !apperrors.IsCode(err, apperrors.CodeConcurrentModification) {
			return domain.Session{}, err
		}
	}
	return domain.Session{}, apperrors.New(apperrors.CodeConcurrentModification, "session is being modified concurrently")
}

func (s *Service) commit(ctx context.Context, session domain.Session, expectedVersion uint64) error {
	err := s.store.UpdateSession(ctx, session, expectedVersion)
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrVersionConflict) || errors.Is(err, storage.ErrBusy) {
		return apperrors.New(apperrors.CodeConcurrentModification, "session is being modified concurrently")
	}
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.New(apperrors.CodeNotFound, "session not found")
	}
	return fmt.Errorf("update session: %w", err)
}

// ledgerFailure maps retryable ledger contention to the concurrent
// modification code; other failures pass through unchanged.
func ledgerFailure(err error) error {
	if errors.Is(err, ledger.ErrBusy) {
		return apperrors.New(apperrors.CodeConcurrentModification, "ledger is contended, try again")
	}
	return err
}
