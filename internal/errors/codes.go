// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Input validation errors
	CodeInvalidBetAmount     Code = "INVALID_BET_AMOUNT"
	CodeBetAmountTooLow      Code = "BET_AMOUNT_TOO_LOW"
	CodeBetAmountTooHigh     Code = "BET_AMOUNT_TOO_HIGH"
	CodeSessionIDTooShort    Code = "SESSION_ID_TOO_SHORT"
	CodeSessionIDTooLong     Code = "SESSION_ID_TOO_LONG"
	CodeInvalidTeamSelection Code = "INVALID_TEAM_SELECTION"
	CodeInvalidGameMode      Code = "INVALID_GAME_MODE"
	CodeInvalidWinningTeam   Code = "INVALID_WINNING_TEAM"

	// Authorization errors
	CodeUnauthorizedGameServer Code = "UNAUTHORIZED_GAME_SERVER"
	CodeUnauthorizedPayToSpawn Code = "UNAUTHORIZED_PAY_TO_SPAWN"
	CodeIdentityTokenInvalid   Code = "IDENTITY_TOKEN_INVALID"

	// State machine errors
	CodeInvalidGameState    Code = "INVALID_GAME_STATE"
	CodeGameNotJoinable     Code = "GAME_NOT_JOINABLE"
	CodeTeamIsFull          Code = "TEAM_IS_FULL"
	CodePlayerAlreadyJoined Code = "PLAYER_ALREADY_JOINED"
	CodePlayerNotFound      Code = "PLAYER_NOT_FOUND"
	CodeSelfKillNotAllowed  Code = "SELF_KILL_NOT_ALLOWED"

	// Arithmetic errors
	CodePlayerHasNoSpawns Code = "PLAYER_HAS_NO_SPAWNS"
	CodeKillCountOverflow Code = "KILL_COUNT_OVERFLOW"
	CodeMaxSpawnsExceeded Code = "MAX_SPAWNS_EXCEEDED"
	CodeArithmetic        Code = "ARITHMETIC_ERROR"

	// Funds errors
	CodeInsufficientUserBalance  Code = "INSUFFICIENT_USER_BALANCE"
	CodeInsufficientVaultBalance Code = "INSUFFICIENT_VAULT_BALANCE"

	// Storage errors
	CodeNotFound               Code = "NOT_FOUND"
	CodeSessionExists          Code = "SESSION_EXISTS"
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - permanently invalid input
	case CodeInvalidBetAmount,
		CodeBetAmountTooLow,
		CodeBetAmountTooHigh,
		CodeSessionIDTooShort,
		CodeSessionIDTooLong,
		CodeInvalidTeamSelection,
		CodeInvalidGameMode,
		CodeInvalidWinningTeam,
		CodeSelfKillNotAllowed:
		return http.StatusBadRequest

	// Unauthenticated - missing or unverifiable identity
	case CodeIdentityTokenInvalid:
		return http.StatusUnauthorized

	// Forbidden - verified identity lacks the required role
	case CodeUnauthorizedGameServer,
		CodeUnauthorizedPayToSpawn:
		return http.StatusForbidden

	// Not found
	case CodeNotFound,
		CodePlayerNotFound:
		return http.StatusNotFound

	// Conflict - state machine or contention rejections, retry may succeed
	case CodeInvalidGameState,
		CodeGameNotJoinable,
		CodeTeamIsFull,
		CodePlayerAlreadyJoined,
		CodeSessionExists,
		CodeConcurrentModification,
		CodePlayerHasNoSpawns,
		CodeKillCountOverflow,
		CodeMaxSpawnsExceeded,
		CodeArithmetic:
		return http.StatusConflict

	// Payment required - funds shortfalls, retry once funded
	case CodeInsufficientUserBalance,
		CodeInsufficientVaultBalance:
		return http.StatusPaymentRequired

	default:
		return http.StatusInternalServerError
	}
}
