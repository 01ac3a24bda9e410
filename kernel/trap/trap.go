// Package trap dispatches user-mode and kernel-mode traps (spec.md §4.G):
// syscalls, page faults, illegal instructions and the timer/external/IPI
// interrupt causes, grounded on original_source/NoAxiom/kernel/src/trap
// and kernel/src/task/task_main.rs's UserTaskFuture body. It is the one
// package that bridges kernel/runtime's futures to kernel/arch's blocking
// TrapRestore and kernel/mem/vmm's synchronous fault resolution.
package trap

import (
	"noaxiom/kernel"
	"noaxiom/kernel/arch"
	"noaxiom/kernel/runtime"
	"noaxiom/kernel/task"
)

// userLoop is the inner async body kernel/runtime.SpawnUserTask wraps
// (spec.md §4.F "User-task future"): trap_restore, dispatch, repeat until
// Zombie, then exit_handler. Unlike a Runnable's outer poll bookkeeping
// (current_task, vruntime), this state machine owns only where in the
// trap_restore/dispatch/signal-check cycle a given poll left off.
type userLoop struct {
	t       *task.Task
	pending runtime.Future[struct{}]
}

// UserLoop returns the future kernel/runtime.SpawnUserTask installs as a
// new user task's body.
func UserLoop(t *task.Task) runtime.Future[struct{}] {
	return &userLoop{t: t}
}

func (u *userLoop) Poll(cx *runtime.Context) runtime.PollResult[struct{}] {
	for {
		if u.t.Status() == task.Zombie {
			pcb, unlock := u.t.PCB()
			code := pcb.ExitCode
			unlock()
			u.t.Exit(code)
			return runtime.Ready(struct{}{})
		}

		if u.pending == nil {
			tr := arch.Current().TrapRestore(u.t.TCB.Cx)
			if u.t.Status() == task.Zombie {
				continue
			}
			u.pending = dispatchUserTrap(u.t, tr)
		}

		res := u.pending.Poll(cx)
		if !res.Ready {
			return runtime.Pending[struct{}]()
		}
		u.pending = nil

		checkAndDeliverSignals(u.t)
	}
}

// fatal reports a kernel exception with no recovery path (spec.md §4.G
// "any other kernel exception is fatal").
func fatal(module, message string) {
	kernel.Panic(&kernel.Error{Module: module, Message: message})
}
