package reconcile

import (
	"fmt"
)

// direction is one half of a pass.
type direction struct {
	name Direction
	from *side
	to   *side

	fromChanges *sideChanges
	toChanges   *sideChanges
}

func (d direction) forward() bool { return d.name == Forward }

// plan lists the actions for one direction in a stable order: additions,
// then modifications, then deletions, each sorted by UID. Items already
// handled earlier in the pass are left out.
func (p *pass) plan(d direction) []Action {
	var actions []Action

	for _, uid := range d.fromChanges.added {
		if p.seenUID(d.from.uid, uid) {
			continue
		}
		p.markUID(d.from.uid, uid)
		actions = append(actions, Action{
			Type:      ActionAdd,
			Direction: d.name,
			UID:       uid,
			Reason:    fmt.Sprintf("new on %s", d.from.role),
		})
	}

	for _, uid := range d.fromChanges.modified {
		m, ok := d.fromChanges.mapped[uid]
		if !ok || p.seenMapping(m.OID) {
			continue
		}
		p.markMapping(m.OID)

		mc := m
		a := Action{
			Type:                ActionModify,
			Direction:           d.name,
			UID:                 uid,
			Counterpart:         m.SinkUID,
			counterpartModified: d.toChanges.isModified(m.SinkUID),
			counterpartDeleted:  d.toChanges.isDeleted(m.SinkUID),
			mapping:             &mc,
		}
		switch {
		case a.counterpartDeleted:
			a.Reason = fmt.Sprintf("modified on %s, deleted on %s", d.from.role, d.to.role)
		case a.counterpartModified:
			a.Reason = "modified on both sides"
		default:
			a.Reason = fmt.Sprintf("modified on %s", d.from.role)
		}
		actions = append(actions, a)
	}

	for _, uid := range d.fromChanges.deleted {
		m, ok := d.fromChanges.mapped[uid]
		if !ok || p.seenMapping(m.OID) {
			continue
		}
		p.markMapping(m.OID)

		mc := m
		a := Action{
			Type:                ActionDelete,
			Direction:           d.name,
			UID:                 uid,
			Counterpart:         m.SinkUID,
			counterpartModified: d.toChanges.isModified(m.SinkUID),
			counterpartDeleted:  d.toChanges.isDeleted(m.SinkUID),
			mapping:             &mc,
		}
		switch {
		case a.counterpartDeleted:
			a.Reason = "deleted on both sides"
		case a.counterpartModified:
			a.Reason = fmt.Sprintf("deleted on %s, modified on %s", d.from.role, d.to.role)
		default:
			a.Reason = fmt.Sprintf("deleted on %s", d.from.role)
		}
		actions = append(actions, a)
	}

	return actions
}

func uidKey(provider, uid string) string {
	return provider + "|" + uid
}

func (p *pass) seenUID(provider, uid string) bool {
	_, ok := p.processed[uidKey(provider, uid)]
	return ok
}

func (p *pass) markUID(provider, uid string) {
	p.processed[uidKey(provider, uid)] = struct{}{}
}

func (p *pass) seenMapping(oid string) bool {
	_, ok := p.processed["oid|"+oid]
	return ok
}

func (p *pass) markMapping(oid string) {
	p.processed["oid|"+oid] = struct{}{}
}
