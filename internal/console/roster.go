package console

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultMaxPlayers is reported when the server omits its capacity.
const DefaultMaxPlayers = 20

var (
	ErrEmptyResponse = errors.New("empty player list response")
	ErrNoPlayerCount = errors.New("player count not found")

	digitRun = regexp.MustCompile(`\d+`)
)

// PlayerList is the interpreted reply to the "list" command. A non-empty
// Error marks a degraded result whose counts must not be trusted.
type PlayerList struct {
	Online  int      `json:"online"`
	Max     int      `json:"max"`
	Players []string `json:"players"`
	Error   string   `json:"error,omitempty"`
}

// OK reports whether the reply was interpreted successfully.
func (p PlayerList) OK() bool {
	return p.Error == ""
}

// EmptyPlayerList returns the degraded result carrying diagnostic.
func EmptyPlayerList(diagnostic string) PlayerList {
	return PlayerList{Online: 0, Max: DefaultMaxPlayers, Players: []string{}, Error: diagnostic}
}

// ParsePlayerList interprets replies such as
// "There are 3 of a max of 20 players online: Alice, Bob, Carol" or
// "There are 1 out of 10 players online: Steve". Only the position of the
// numbers before the first colon matters, not the wording. It never fails;
// problems are reported through PlayerList.Error.
func ParsePlayerList(raw string) PlayerList {
	result, err := parsePlayerList(raw)
	if err != nil {
		return EmptyPlayerList(err.Error())
	}
	return result
}

func parsePlayerList(raw string) (PlayerList, error) {
	text := strings.TrimSpace(StripFormatting(raw))
	if text == "" {
		return PlayerList{}, ErrEmptyResponse
	}

	countClause, names, hasNames := strings.Cut(text, ":")

	numbers := digitRun.FindAllString(countClause, 2)
	if len(numbers) == 0 {
		return PlayerList{}, fmt.Errorf("%w in %q", ErrNoPlayerCount, countClause)
	}

	online, err := strconv.Atoi(numbers[0])
	if err != nil {
		return PlayerList{}, fmt.Errorf("invalid online count %q: %w", numbers[0], err)
	}

	maxPlayers := DefaultMaxPlayers
	if len(numbers) > 1 {
		maxPlayers, err = strconv.Atoi(numbers[1])
		if err != nil {
			return PlayerList{}, fmt.Errorf("invalid max count %q: %w", numbers[1], err)
		}
	}

	players := []string{}
	if hasNames {
		for _, name := range strings.Split(names, ",") {
			if name = strings.TrimSpace(name); name != "" {
				players = append(players, name)
			}
		}
	}

	return PlayerList{Online: online, Max: maxPlayers, Players: players}, nil
}
