package memory

import "sort"

// Prune clamps the derived legacy views back to their retention windows,
// keeping the most recent entries. Raw extractions and known classes are the
// source of truth and are never touched. Runs only when the orchestrator asks;
// there is no background sweep.
func (s *Service) Prune(threadID string, keepProducts bool) {
	th := s.thread(threadID, false)
	if th == nil {
		return
	}

	th.writerMu.Lock()
	defer th.writerMu.Unlock()
	th.storeMu.Lock()
	defer th.storeMu.Unlock()
	pruneStore(th.store, keepProducts)
}

func pruneStore(st *Store, keepProducts bool) {
	if n := len(st.Operations); n > maxOperations {
		st.Operations = st.Operations[n-maxOperations:]
	}
	if n := len(st.Decisions); n > maxDecisions {
		st.Decisions = st.Decisions[n-maxDecisions:]
	}
	if n := len(st.Searches); n > maxSearches {
		st.Searches = st.Searches[n-maxSearches:]
	}
	for agent, entries := range st.AgentResults {
		if n := len(entries); n > maxAgentResults {
			st.AgentResults[agent] = entries[n-maxAgentResults:]
		}
	}

	if keepProducts || len(st.Products) <= maxProducts {
		return
	}

	// Keep the most recently updated products, drop the rest.
	products := make([]*ProductRecord, 0, len(st.Products))
	for _, p := range st.Products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].UpdatedAt.After(products[j].UpdatedAt)
	})
	for _, p := range products[maxProducts:] {
		delete(st.Products, p.ID)
	}
}
