package scenario

import (
	"fmt"
	"reflect"

	"github.com/correlator-io/correlator/internal/mapping"
)

// normalize merges the nested and legacy flat scenario surfaces into one
// canonical Scenario, rejecting duplicate domain/listener ids and
// reconciling same-name events. It never short-circuits: every problem
// it finds is appended to the returned issue list.
func normalize(raw rawScenario) (*Scenario, []Issue) {
	var issues []Issue

	domainOrder := make([]string, 0, len(raw.Domains))
	domainQueue := make(map[string]string, len(raw.Domains))
	seenDomain := make(map[string]bool, len(raw.Domains))

	for i, d := range raw.Domains {
		if d.ID == "" {
			continue // already reported by structural validation
		}

		if seenDomain[d.ID] {
			issues = append(issues, Issue{
				Path:    []string{"domains", itoa(i), "id"},
				Message: fmt.Sprintf("domain id %q declared more than once", d.ID),
			})

			continue
		}

		seenDomain[d.ID] = true
		domainOrder = append(domainOrder, d.ID)
		domainQueue[d.ID] = d.Queue
	}

	var eventSites []eventSite

	for di, d := range raw.Domains {
		if !seenDomain[d.ID] {
			continue
		}

		for ei, e := range d.Events {
			eventSites = append(eventSites, eventSite{
				event:    Event{Name: e.Name, PayloadSchema: e.PayloadSchema},
				domainID: d.ID,
				path:     []string{"domains", itoa(di), "events", itoa(ei)},
			})
		}
	}

	for i, e := range raw.Events {
		path := []string{"events", itoa(i)}

		if e.Domain == "" {
			issues = append(issues, Issue{
				Path:    append(clone(path), "domain"),
				Message: "a top-level (flat-form) event must declare the id of the domain that owns it",
			})

			continue
		}

		if !seenDomain[e.Domain] {
			issues = append(issues, Issue{
				Path:    append(clone(path), "domain"),
				Message: fmt.Sprintf("references unknown domain %q", e.Domain),
			})

			continue
		}

		eventSites = append(eventSites, eventSite{
			event:    Event{Name: e.Name, PayloadSchema: e.PayloadSchema},
			domainID: e.Domain,
			path:     path,
		})
	}

	canonicalEvents, eventIssues := reconcileEvents(eventSites)
	issues = append(issues, eventIssues...)

	var listenerSites []listenerSite

	for di, d := range raw.Domains {
		if !seenDomain[d.ID] {
			continue
		}

		for li, l := range d.Listeners {
			listenerSites = append(listenerSites, listenerSite{
				listener: Listener{ID: l.ID, On: l.On, DelayMs: l.DelayMs, Actions: l.Actions, domain: d.ID},
				domainID: d.ID,
				path:     []string{"domains", itoa(di), "listeners", itoa(li)},
			})
		}
	}

	for i, l := range raw.Listeners {
		path := []string{"listeners", itoa(i)}

		if l.Domain == "" {
			issues = append(issues, Issue{
				Path:    append(clone(path), "domain"),
				Message: "a top-level (flat-form) listener must declare the id of the domain that owns it",
			})

			continue
		}

		if !seenDomain[l.Domain] {
			issues = append(issues, Issue{
				Path:    append(clone(path), "domain"),
				Message: fmt.Sprintf("references unknown domain %q", l.Domain),
			})

			continue
		}

		listenerSites = append(listenerSites, listenerSite{
			listener: Listener{ID: l.ID, On: l.On, DelayMs: l.DelayMs, Actions: l.Actions, domain: l.Domain},
			domainID: l.Domain,
			path:     path,
		})
	}

	canonicalListeners, listenerIssues := reconcileListeners(listenerSites)
	issues = append(issues, listenerIssues...)

	eventsByDomain := make(map[string][]Event, len(domainOrder))
	for _, site := range canonicalEvents {
		eventsByDomain[site.domainID] = append(eventsByDomain[site.domainID], site.event)
	}

	listenersByDomain := make(map[string][]Listener, len(domainOrder))
	for _, site := range canonicalListeners {
		listenersByDomain[site.domainID] = append(listenersByDomain[site.domainID], site.listener)
	}

	domains := make([]Domain, 0, len(domainOrder))
	for _, id := range domainOrder {
		domains = append(domains, Domain{
			ID:        id,
			Queue:     domainQueue[id],
			Events:    eventsByDomain[id],
			Listeners: listenersByDomain[id],
		})
	}

	scenarioValue := &Scenario{Name: raw.Name, Version: raw.Version, Domains: domains}
	index := buildIndex(canonicalEvents, canonicalListeners)
	scenarioValue.index = index

	issues = append(issues, crossReferenceCheck(index, canonicalListeners)...)

	return scenarioValue, issues
}

// crossReferenceCheck validates listener/event/mapping references against
// the scenario's flattened index, reporting issues on the declaration
// site's original JSON path (which survives in raw form even when the
// listener came from the legacy flat surface).
func crossReferenceCheck(idx *Index, listeners []listenerSite) []Issue {
	var issues []Issue

	for _, site := range listeners {
		source, sourceOK := idx.EventsByName[site.listener.On.Event]
		if !sourceOK {
			issues = append(issues, Issue{
				Path:    append(clone(site.path), "on", "event"),
				Message: fmt.Sprintf("on.event %q does not reference a declared event", site.listener.On.Event),
			})
		}

		for ai, a := range site.listener.Actions {
			actionPath := append(clone(site.path), "actions", itoa(ai))
			issues = append(issues, checkAction(idx, source, sourceOK, a, actionPath)...)
		}
	}

	return issues
}

func checkAction(idx *Index, source EventRef, sourceOK bool, a Action, path []string) []Issue {
	if a.Kind == ActionSetState {
		return nil
	}

	var issues []Issue

	dest, ok := idx.EventsByName[a.Event]
	if !ok {
		return append(issues, Issue{
			Path:    append(clone(path), "event"),
			Message: fmt.Sprintf("emit.event %q does not reference a declared event", a.Event),
		})
	}

	if a.HasToDomain && a.ToDomain != dest.DomainID {
		issues = append(issues, Issue{
			Path:    append(clone(path), "toDomain"),
			Message: fmt.Sprintf("emit.toDomain %q does not equal the owning domain %q of event %q", a.ToDomain, dest.DomainID, a.Event),
		})
	}

	if !sourceOK {
		// The triggering event is already flagged on the listener's
		// on.event; checking the mapping against it would only add noise.
		return issues
	}

	mappingIssues := mapping.CheckStatic(ToMappingSchema(source.Event.PayloadSchema), ToMappingSchema(dest.Event.PayloadSchema), ToMappingMapping(a.Mapping))
	for _, mi := range mappingIssues {
		issues = append(issues, Issue{
			Path:    append(append(clone(path), "mapping"), mi.Path...),
			Message: mi.Message,
		})
	}

	return issues
}

// reconcileEvents groups event sites by name. Multiple declarations of
// the same name are accepted only when they are deep-structurally equal
// (same owning domain, same payload schema); otherwise the scenario is
// rejected with one issue per conflicting name.
func reconcileEvents(sites []eventSite) ([]eventSite, []Issue) {
	byName := make(map[string][]eventSite)
	order := make([]string, 0, len(sites))

	for _, s := range sites {
		if s.event.Name == "" {
			continue // already reported by structural validation
		}

		if _, seen := byName[s.event.Name]; !seen {
			order = append(order, s.event.Name)
		}

		byName[s.event.Name] = append(byName[s.event.Name], s)
	}

	var (
		canonical []eventSite
		issues    []Issue
	)

	for _, name := range order {
		group := byName[name]
		first := group[0]

		conflict := false

		for _, other := range group[1:] {
			if other.domainID != first.domainID || !reflect.DeepEqual(other.event.PayloadSchema, first.event.PayloadSchema) {
				conflict = true

				break
			}
		}

		if conflict {
			issues = append(issues, Issue{
				Path:    first.path,
				Message: fmt.Sprintf("event %q declared more than once with different definitions", name),
			})

			continue
		}

		canonical = append(canonical, first)
	}

	return canonical, issues
}

// reconcileListeners rejects any listener id collision outright,
// regardless of whether the colliding declarations are identical.
func reconcileListeners(sites []listenerSite) ([]listenerSite, []Issue) {
	seen := make(map[string]bool, len(sites))

	var (
		canonical []listenerSite
		issues    []Issue
	)

	for _, s := range sites {
		if s.listener.ID == "" {
			continue // already reported by structural validation
		}

		if seen[s.listener.ID] {
			issues = append(issues, Issue{
				Path:    s.path,
				Message: fmt.Sprintf("listener id %q declared more than once", s.listener.ID),
			})

			continue
		}

		seen[s.listener.ID] = true
		canonical = append(canonical, s)
	}

	return canonical, issues
}

func buildIndex(events []eventSite, listeners []listenerSite) *Index {
	idx := &Index{
		EventNames:       make(map[string]struct{}, len(events)),
		ListenerIDs:      make(map[string]struct{}, len(listeners)),
		EventsByName:     make(map[string]EventRef, len(events)),
		ListenersByEvent: make(map[string][]ListenerRef),
	}

	for _, s := range events {
		idx.EventNames[s.event.Name] = struct{}{}
		idx.EventsByName[s.event.Name] = EventRef{Event: s.event, DomainID: s.domainID}
	}

	for _, s := range listeners {
		idx.ListenerIDs[s.listener.ID] = struct{}{}
		idx.ListenersByEvent[s.listener.On.Event] = append(idx.ListenersByEvent[s.listener.On.Event], ListenerRef{
			Listener: s.listener,
			DomainID: s.domainID,
		})
	}

	return idx
}
