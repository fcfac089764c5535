package proxy

import "fmt"

// Strategy selects how Next picks among healthy endpoints.
type Strategy string

const (
	StrategyRoundRobin        Strategy = "round_robin"
	StrategyRandom            Strategy = "random"
	StrategyLeastRecentlyUsed Strategy = "least_recently_used"
)

// ParseStrategy validates a strategy name from configuration. An empty name
// means round-robin.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyRoundRobin, StrategyRandom, StrategyLeastRecentlyUsed:
		return Strategy(name), nil
	case "":
		return StrategyRoundRobin, nil
	}
	return "", fmt.Errorf("unknown rotation strategy %q", name)
}
