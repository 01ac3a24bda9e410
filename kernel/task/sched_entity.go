package task

import (
	"sync/atomic"

	"noaxiom/kernel/kconfig"
)

// CPUMask is a bitmask of harts a task is permitted to run on; bit i is set
// iff hart i is allowed. The zero value means "no affinity recorded yet";
// AllHarts has every bit set.
type CPUMask uint64

// AllHarts permits scheduling on any of the first 64 harts.
const AllHarts CPUMask = ^CPUMask(0)

// Allows reports whether hart may run a task carrying this mask.
func (m CPUMask) Allows(hart uint32) bool {
	if hart >= 64 {
		return false
	}
	return m&(1<<hart) != 0
}

// niceToWeight and niceToInvWeight are the conventional Linux CFS tables
// (kernel/sched/core.c), indexed by nice+20: weight scales a task's share
// of CPU time, inv_weight is the reciprocal pre-scaled by 2^32 so
// vruntime accumulation avoids a division (spec.md §4.F: "scaled by
// NICE_0_LOAD / prio_weight").
var niceToWeight = [40]uint32{
	88761, 71755, 56483, 46273, 36291,
	29154, 23254, 18705, 14949, 11916,
	9548, 7620, 6100, 4904, 3906,
	3121, 2501, 1991, 1586, 1277,
	1024, 820, 655, 526, 423,
	335, 272, 215, 172, 137,
	110, 87, 70, 56, 45,
	36, 29, 23, 18, 15,
}

var niceToInvWeight = [40]uint32{
	48388, 59856, 76040, 92818, 118348,
	147320, 184698, 229616, 287308, 360437,
	449829, 563644, 704093, 875809, 1099582,
	1376151, 1717300, 2157191, 2708050, 3363326,
	4194304, 5237765, 6557202, 8165337, 10153587,
	12820798, 15790321, 19976592, 24970740, 31350126,
	39045157, 49367440, 61356676, 76695844, 95443717,
	119304647, 148102320, 186737708, 238609294, 286331153,
}

// clampNice restricts prio to the POSIX nice range before indexing the
// weight tables.
func clampNice(prio int8) int8 {
	switch {
	case prio < -20:
		return -20
	case prio > 19:
		return 19
	default:
		return prio
	}
}

func invWeight(prio int8) uint64 { return uint64(niceToInvWeight[clampNice(prio)+20]) }

// loadWeight returns the nice value's CFS weight, used by a future
// load-balancer to compare task shares (spec.md §4.F vruntime ordering).
func loadWeight(prio int8) uint32 { return niceToWeight[clampNice(prio)+20] }

// SchedEntity is the scheduling-visible slice of a Task (spec.md §3):
// vruntime, priority and affinity mask. vruntime is accessed with atomics
// since the executor updates it from whichever hart is polling the task
// while a load-balancer on another hart may read it concurrently.
type SchedEntity struct {
	vruntime atomic.Uint64
	Prio     int8
	CPUMask  CPUMask
	TID      TID
}

// NewSchedEntity returns a fresh entity for tid with vruntime 0 and the
// default niceness, runnable on every hart.
func NewSchedEntity(tid TID) *SchedEntity {
	return &SchedEntity{Prio: 0, CPUMask: AllHarts, TID: tid}
}

// Vruntime returns the entity's current virtual runtime.
func (e *SchedEntity) Vruntime() uint64 { return e.vruntime.Load() }

// UpdateVruntime advances vruntime by the CFS-scaled share of deltaWallNS
// of wall-clock time the entity just ran for (spec.md §4.F: "on poll
// return it computes delta_wall * NICE_0_LOAD * inv_weight(prio) >> 32").
// vruntime never decreases, matching the SchedEntity invariant in spec.md §3.
func (e *SchedEntity) UpdateVruntime(deltaWallNS uint64) {
	delta := (deltaWallNS * kconfig.NiceZeroLoad * invWeight(e.Prio)) >> 32
	e.vruntime.Add(delta)
}

// LoadWeight exposes the entity's CFS weight for comparison by a
// load-balancer.
func (e *SchedEntity) LoadWeight() uint32 { return loadWeight(e.Prio) }
