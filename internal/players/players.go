// Package players provides a factory of players from configuration strings.
// It also allows player providers to register themselves.
package players

import (
	"slices"
	"strings"

	"github.com/janpfeifer/othelloGo/internal/generics"
	"github.com/janpfeifer/othelloGo/internal/parameters"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
)

// Player is anything that is able to play the game: AI agents or humans.
type Player interface {
	// Play makes a move for tile, directly on board (see Board.Apply), and returns the position played.
	// If it can't move (or decides not to), it returns moved=false: a pass.
	//
	// If record is true, players that keep a history of their decisions (see policy.History) should
	// record this one.
	Play(board *Board, tile Tile, record bool) (pos Pos, moved bool)
}

// Module creates players of one type from the parameters of the configuration string.
//
// It should consume (see parameters.PopParamOr) all parameters it knows about: the remaining
// ones are reported as unknown.
type Module interface {
	NewPlayer(boardSize int, params parameters.Params) (Player, error)
}

var (
	// Registered modules, by name.
	keywordToModules = make(map[string]Module)
)

// RegisterModule so it can be used by any of the front-ends.
func RegisterModule(name string, module Module) {
	keywordToModules[name] = module
}

// Modules returns the names of the registered modules, sorted.
func Modules() []string {
	names := generics.KeysSlice(keywordToModules)
	slices.Sort(names)
	return names
}

// DefaultPlayerConfig is used if no configuration was given.
var DefaultPlayerConfig = "agent:preset=hard"

// New creates a new player given the configuration string.
//
// The config is the module name, optionally followed by a colon (":") or comma (",") and a comma-separated
// list of parameters with optional values associated. E.g.: "agent:weights=models/best.json,epsilon=0.1".
// If empty, DefaultPlayerConfig is used.
func New(config string, boardSize int) (Player, error) {
	if config == "" {
		config = DefaultPlayerConfig
	}
	moduleName, paramsConfig := config, ""
	if split := strings.IndexAny(config, ":,"); split != -1 {
		moduleName, paramsConfig = config[:split], config[split+1:]
	}
	module, ok := keywordToModules[moduleName]
	if !ok {
		return nil, errors.Errorf("unknown player %q, registered players are %q. Perhaps you need to "+
			"import _ \"github.com/janpfeifer/othelloGo/internal/players/default\" in your binary?",
			moduleName, Modules())
	}

	params := parameters.NewFromConfigString(paramsConfig)
	player, err := module.NewPlayer(boardSize, params)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create player %q", moduleName)
	}
	if err := parameters.CheckAllConsumed(params); err != nil {
		return nil, errors.WithMessagef(err, "in configuration %q of player %q", paramsConfig, moduleName)
	}
	return player, nil
}
