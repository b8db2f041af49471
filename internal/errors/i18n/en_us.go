package i18n

// Error codes must match the codes defined in internal/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeInvalidBetAmount     = "INVALID_BET_AMOUNT"
	CodeBetAmountTooLow      = "BET_AMOUNT_TOO_LOW"
	CodeBetAmountTooHigh     = "BET_AMOUNT_TOO_HIGH"
	CodeSessionIDTooShort    = "SESSION_ID_TOO_SHORT"
	CodeSessionIDTooLong     = "SESSION_ID_TOO_LONG"
	CodeInvalidTeamSelection = "INVALID_TEAM_SELECTION"
	CodeInvalidGameMode      = "INVALID_GAME_MODE"
	CodeInvalidWinningTeam   = "INVALID_WINNING_TEAM"

	CodeUnauthorizedGameServer = "UNAUTHORIZED_GAME_SERVER"
	CodeUnauthorizedPayToSpawn = "UNAUTHORIZED_PAY_TO_SPAWN"
	CodeIdentityTokenInvalid   = "IDENTITY_TOKEN_INVALID"

	CodeInvalidGameState    = "INVALID_GAME_STATE"
	CodeGameNotJoinable     = "GAME_NOT_JOINABLE"
	CodeTeamIsFull          = "TEAM_IS_FULL"
	CodePlayerAlreadyJoined = "PLAYER_ALREADY_JOINED"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeSelfKillNotAllowed  = "SELF_KILL_NOT_ALLOWED"

	CodePlayerHasNoSpawns = "PLAYER_HAS_NO_SPAWNS"
	CodeKillCountOverflow = "KILL_COUNT_OVERFLOW"
	CodeMaxSpawnsExceeded = "MAX_SPAWNS_EXCEEDED"
	CodeArithmetic        = "ARITHMETIC_ERROR"

	CodeInsufficientUserBalance  = "INSUFFICIENT_USER_BALANCE"
	CodeInsufficientVaultBalance = "INSUFFICIENT_VAULT_BALANCE"

	CodeNotFound               = "NOT_FOUND"
	CodeSessionExists          = "SESSION_EXISTS"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		// Input validation errors
		CodeInvalidBetAmount:     "Bet amount must be greater than zero",
		CodeBetAmountTooLow:      "Bet amount is below the minimum of {{.Min}}",
		CodeBetAmountTooHigh:     "Bet amount exceeds the maximum of {{.Max}}",
		CodeSessionIDTooShort:    "Session id must be at least {{.Min}} characters",
		CodeSessionIDTooLong:     "Session id must be at most {{.Max}} characters",
		CodeInvalidTeamSelection: "Invalid team selection, team must be 0 or 1",
		CodeInvalidGameMode:      "Invalid game mode for this operation",
		CodeInvalidWinningTeam:   "Invalid winning team selection",

		// Authorization errors
		CodeUnauthorizedGameServer: "Only the session authority may perform this operation",
		CodeUnauthorizedPayToSpawn: "Only a joined player may purchase spawns for their own slot",
		CodeIdentityTokenInvalid:   "Identity token is missing or invalid",

		// State machine errors
		CodeInvalidGameState:    "Game session is not in the correct state",
		CodeGameNotJoinable:     "Game session is no longer joinable",
		CodeTeamIsFull:          "Team is already full",
		CodePlayerAlreadyJoined: "Player has already joined a team",
		CodePlayerNotFound:      "Player is not in the named team",
		CodeSelfKillNotAllowed:  "A player cannot kill themselves",

		// Arithmetic errors
		CodePlayerHasNoSpawns: "Player has no spawns remaining",
		CodeKillCountOverflow: "Kill counter is at its maximum value",
		CodeMaxSpawnsExceeded: "Purchase would exceed the spawn cap of {{.Max}}",
		CodeArithmetic:        "Arithmetic overflow while computing amounts",

		// Funds errors
		CodeInsufficientUserBalance:  "Insufficient balance to cover the bet",
		CodeInsufficientVaultBalance: "Insufficient vault balance for distribution",

		// Storage errors
		CodeNotFound:               "Record not found",
		CodeSessionExists:          "A session with this id already exists",
		CodeConcurrentModification: "The session was modified concurrently, try again",
	},
}
