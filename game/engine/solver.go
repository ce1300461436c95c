package engine

import "strings"

// Route is a command sequence that finishes a game. The last command is
// always the correct judgment.
type Route []Command

// Len returns the number of commands in the route
func (r Route) Len() int { return len(r) }

// Next returns the first command of the route, or "" for an empty route
func (r Route) Next() Command {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

// String joins the route as "advance, turn_left, judge_right"
func (r Route) String() string {
	parts := make([]string, len(r))
	for i, c := range r {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

type routeNode struct {
	pos     Position
	heading Heading
}

// PlanRoute finds a shortest command sequence from s that ends in a correct
// judgment. It searches breadth-first over (position, heading) pairs and tries
// advance before turns, so ties resolve the same way every time.
// ok is false for a completed game or a destination missing from b.
func PlanRoute(b *Board, s GameState) (Route, bool) {
	if s.Completed {
		return nil, false
	}
	if _, found := b.Landmark(s.Destination); !found {
		return nil, false
	}

	type queueItem struct {
		node routeNode
		path Route
	}

	start := routeNode{pos: s.Position, heading: s.Heading}
	queue := []queueItem{{node: start, path: Route{}}}
	visited := map[routeNode]bool{start: true}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		probe := s
		probe.Position = current.node.pos
		probe.Heading = current.node.heading
		if judgment, near := CorrectJudgment(b, probe); near {
			path := append(Route{}, current.path...)
			return append(path, judgment), true
		}

		for _, cmd := range []Command{CommandAdvance, CommandTurnLeft, CommandTurnRight} {
			next, moved := stepNode(b, current.node, cmd)
			if !moved || visited[next] {
				continue
			}
			visited[next] = true

			path := append(Route{}, current.path...)
			queue = append(queue, queueItem{node: next, path: append(path, cmd)})
		}
	}

	return nil, false
}

func stepNode(b *Board, n routeNode, cmd Command) (routeNode, bool) {
	switch cmd {
	case CommandAdvance:
		dRow, dCol := n.heading.Delta()
		pos := Position{Row: n.pos.Row + dRow, Col: n.pos.Col + dCol}
		if !b.InBounds(pos) {
			return n, false
		}
		return routeNode{pos: pos, heading: n.heading}, true
	case CommandTurnLeft:
		return routeNode{pos: n.pos, heading: n.heading.Left()}, true
	case CommandTurnRight:
		return routeNode{pos: n.pos, heading: n.heading.Right()}, true
	}
	return n, false
}
