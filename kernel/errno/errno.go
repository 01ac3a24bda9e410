// Package errno is the POSIX errno taxonomy syscall handlers return
// errors as, so the trap dispatcher can convert a failure into the
// negative return-value convention user space expects (spec.md §7).
package errno

import "strconv"

// Errno is a POSIX error number. It implements error directly so syscall
// handlers can return it (or wrap it) without an allocation.
type Errno int

const (
	EPERM   Errno = 1
	ENOENT  Errno = 2
	ESRCH   Errno = 3
	EINTR   Errno = 4
	EIO     Errno = 5
	EBADF   Errno = 9
	EAGAIN  Errno = 11
	ENOMEM  Errno = 12
	EFAULT  Errno = 14
	EINVAL  Errno = 22
	EMFILE  Errno = 24
	ENOTDIR Errno = 20
	ECHILD  Errno = 10
	ENOSYS  Errno = 38

	EADDRINUSE Errno = 98
)

var names = map[Errno]string{
	EPERM:      "EPERM",
	ENOENT:     "ENOENT",
	ESRCH:      "ESRCH",
	EINTR:      "EINTR",
	EIO:        "EIO",
	EBADF:      "EBADF",
	EAGAIN:     "EAGAIN",
	ENOMEM:     "ENOMEM",
	EFAULT:     "EFAULT",
	EINVAL:     "EINVAL",
	EMFILE:     "EMFILE",
	ENOTDIR:    "ENOTDIR",
	ECHILD:     "ECHILD",
	ENOSYS:     "ENOSYS",
	EADDRINUSE: "EADDRINUSE",
}

// Error implements the error interface.
func (e Errno) Error() string {
	if name, ok := names[e]; ok {
		return name
	}
	return "errno " + strconv.Itoa(int(e))
}

// Negated returns the two's-complement encoding a syscall handler writes
// into a trap context's return slot on failure: -errno.
func (e Errno) Negated() int64 { return -int64(e) }
