package sync

import (
	"sort"
	"time"

	"github.com/okgraph/okgraph/internal/record"
	"github.com/okgraph/okgraph/internal/schema"
)

// Windower narrows a fetched batch to a date window. Applied by the manager
// after parsing and before reconciliation.
type Windower interface {
	Apply(spec *schema.EntitySpec, instances []*record.Instance, after, before *time.Time) []*record.Instance
}

// CutFieldWindow filters instances by the entity's declared cut field.
//
// The two cursors are deliberately asymmetric. The after cursor assumes the
// batch is ordered newest-first and stops the scan at the first instance
// older than the cursor; everything behind it is known to be older still. The
// before cursor cannot assume anything about what follows, so an instance
// newer than it is skipped and the scan continues.
//
// An instance without a usable cut date is always kept; windowing drops only
// what is provably outside the window.
type CutFieldWindow struct{}

func (CutFieldWindow) Apply(spec *schema.EntitySpec, instances []*record.Instance, after, before *time.Time) []*record.Instance {
	if spec.TimelineForceOrdering {
		sortByCutField(spec, instances)
	}
	if after == nil && before == nil {
		return instances
	}

	var out []*record.Instance
	for _, inst := range instances {
		cut, ok := inst.Time(spec.TimelineCutField)
		if ok {
			if after != nil && cut.Before(*after) {
				break
			}
			if before != nil && cut.After(*before) {
				continue
			}
		}
		out = append(out, inst)
	}
	return out
}

// sortByCutField orders instances newest-first. Instances without a cut date
// sort last, so they never shadow dated ones from the after cursor's stop
// scan.
func sortByCutField(spec *schema.EntitySpec, instances []*record.Instance) {
	cut := func(inst *record.Instance) time.Time {
		t, _ := inst.Time(spec.TimelineCutField)
		return t
	}
	sort.SliceStable(instances, func(i, j int) bool {
		return cut(instances[i]).After(cut(instances[j]))
	})
}
