package chatctx

import (
	"sort"
	"time"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// Thread is one open conversation with an agent.
type Thread struct {
	Agent        models.AgentID `json:"agent"`
	Context      Context        `json:"context"`
	LastActivity time.Time      `json:"last_activity"`
}

// Group is a set of threads sharing a context type.
type Group struct {
	Type    Type
	Threads []Thread
}

var groupOrder = []Type{TypeMain, TypeLead, TypeBid, TypeProject}

// GroupThreads groups threads by context type in main, lead, bid, project
// order. Within a group the most recently active thread comes first. Empty
// groups are omitted. Threads with an unknown type are grouped under main.
func GroupThreads(threads []Thread) []Group {
	byType := make(map[Type][]Thread)
	for _, th := range threads {
		t := th.Context.Type
		if !t.Valid() {
			t = TypeMain
		}
		byType[t] = append(byType[t], th)
	}

	var groups []Group
	for _, t := range groupOrder {
		list := byType[t]
		if len(list) == 0 {
			continue
		}
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].LastActivity.After(list[j].LastActivity)
		})
		groups = append(groups, Group{Type: t, Threads: list})
	}
	return groups
}
