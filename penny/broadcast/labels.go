package broadcast

import "github.com/Vianpyro/Penny-Game/internal/game"

// JSONに載せる列挙値の文字列はここでだけ決める

func StateLabel(s game.State) string {
	switch s {
	case game.StateLobby:
		return "lobby"
	case game.StateActive:
		return "active"
	case game.StateRoundComplete:
		return "round_complete"
	case game.StateResults:
		return "results"
	}
	return "unknown"
}

func RoundTypeLabel(t game.RoundType) string {
	switch t {
	case game.RoundSingle:
		return "single"
	case game.RoundDouble:
		return "two_rounds"
	case game.RoundTriple:
		return "three_rounds"
	}
	return "unknown"
}

// ParseRoundType accepts both the wire names and the short aliases.
func ParseRoundType(s string) (game.RoundType, bool) {
	switch s {
	case "single":
		return game.RoundSingle, true
	case "two_rounds", "double":
		return game.RoundDouble, true
	case "three_rounds", "triple":
		return game.RoundTriple, true
	}
	return 0, false
}

func RoleLabel(r game.Role) string {
	switch r {
	case game.RoleHost:
		return "host"
	case game.RolePlayer:
		return "player"
	case game.RoleSpectator:
		return "spectator"
	}
	return "unknown"
}

func ParseRole(s string) (game.Role, bool) {
	switch s {
	case "player":
		return game.RolePlayer, true
	case "spectator":
		return game.RoleSpectator, true
	}
	return 0, false
}
