package services

import "time"

const (
	KeyMatch          = "match:%s"
	KeyMatchIndex     = "matches:index"           // ZSET: match id scored by creation time
	KeyOpenMatches    = "matches:open"            // SET: matches still searching for slot 1
	KeyUserMatches    = "user:%s:matches"         // ZSET: match ids a user is seated in
	KeyWallet         = "wallet:%s"
	KeyTransaction    = "transaction:%s"
	KeyUserTxIndex    = "user:%s:transactions"    // ZSET scored by creation time
	KeyTxReference    = "txref:%s"                // uniqueness guard for references
	KeySettlement     = "match:%s:settlement:%s"  // idempotency marker per match+type
	KeyEntryMarker    = "match:%s:entry:%s"       // idempotency marker per match+player
	KeyLeague         = "league:%s"
	KeyLeagueIndex    = "leagues:index"           // ZSET: league id scored by start date
	KeyOnlineUsers    = "users:online"
	KeyRateLimit      = "ratelimit:%s:%s"
	KeyWithdrawWindow = "wallet:%s:withdrawn:%s"  // rolling withdrawal window counters
)

const (
	TTLWithdrawDaily   = 24 * time.Hour
	TTLWithdrawWeekly  = 7 * 24 * time.Hour
	TTLWithdrawMonthly = 30 * 24 * time.Hour

	DefaultRateLimitCommands = 60 // per minute, per user

	// maxTxRetries bounds optimistic retries on a contended match key
	// before the conflict surfaces to the caller.
	maxTxRetries = 5
)
