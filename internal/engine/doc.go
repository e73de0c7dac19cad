// Package engine holds the game core shared by the Mines and card roller
// games: payout curves, mine placement, the round state machine, weighted
// card draws and the roll rate limiter.
//
// The engine is synchronous and keeps no locks. Callers that serve several
// requests for one player serialize access themselves; different players
// never share engine state.
package engine
