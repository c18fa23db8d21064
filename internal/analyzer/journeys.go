package analyzer

import (
	"fmt"
	"strings"
)

// SynthesizeJourneys derives user journeys from the node graph. At most two
// come out: a guest journey when the graph has both a home and a login page,
// and an authenticated journey when it has a dashboard.
func SynthesizeJourneys(nodes []FlowNode) []UserJourney {
	home := firstMatch(nodes, func(n FlowNode) bool {
		return n.RoutePath == "/" || containsFold(n.DisplayName, "home") || containsFold(n.RoutePath, "home")
	})
	login := firstMatch(nodes, func(n FlowNode) bool {
		return containsFold(n.DisplayName, "login") || containsFold(n.DisplayName, "signin") ||
			containsFold(n.RoutePath, "login") || containsFold(n.RoutePath, "signin")
	})
	dashboard := firstMatch(nodes, func(n FlowNode) bool {
		return containsFold(n.DisplayName, "dashboard") || containsFold(n.RoutePath, "dashboard")
	})

	var journeys []UserJourney

	if home != nil && login != nil {
		end := login
		if dashboard != nil {
			end = dashboard
		}
		journeys = append(journeys, UserJourney{
			ID:          "journey-guest",
			Name:        "First visit",
			Description: fmt.Sprintf("A guest lands on %s and moves on to %s.", home.DisplayName, end.DisplayName),
			Steps:       []FlowNode{*home, *end},
			StartNodeID: home.ID,
			EndNodeID:   end.ID,
			UserType:    UserGuest,
		})
	}

	if dashboard != nil {
		journeys = append(journeys, UserJourney{
			ID:          "journey-authenticated",
			Name:        "Returning user",
			Description: fmt.Sprintf("A signed-in user works from %s.", dashboard.DisplayName),
			Steps:       []FlowNode{*dashboard},
			StartNodeID: dashboard.ID,
			EndNodeID:   dashboard.ID,
			UserType:    UserAuthenticated,
		})
	}

	return journeys
}

func firstMatch(nodes []FlowNode, fn func(FlowNode) bool) *FlowNode {
	for i := range nodes {
		if fn(nodes[i]) {
			return &nodes[i]
		}
	}
	return nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}
