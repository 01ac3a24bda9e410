package ipi

import "noaxiom/kernel/trap"

// init wires this package's real implementations into kernel/trap's hook
// vars. kernel/trap can never import kernel/ipi directly (module order
// places trap before ipi), so the hook-var indirection kernel/trap already
// uses for ExternalInterruptHandler is reused here, the same pattern
// kernel/task/exit.go uses for wakeFutex.
func init() {
	trap.SoftwareIPIHandler = Handle
	trap.TimerTickHook = drainDueSleepers
	trap.SleepQueuePush = PushSleep
}
