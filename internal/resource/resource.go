// Package resource is the shared read cache every page goes through.
//
// Each piece of remote data is addressed by a Key. Reads are gated by an
// enabled flag, identical concurrent reads share one load, ready entries are
// served until invalidated (or until an optional TTL passes), and
// invalidations are announced on the bus so mounted views can refresh.
package resource

import "strings"

// Key addresses one cached resource. Scope is empty for public data and
// session.Session.Scope() for data private to a user.
type Key struct {
	Scope string
	Name  string
	Param string
}

func Public(name string) Key { return Key{Name: name} }

func Private(scope, name string) Key { return Key{Scope: scope, Name: name} }

// With returns k narrowed to one parameter, e.g. a flower id.
func (k Key) With(param string) Key {
	k.Param = param
	return k
}

// Matches reports whether k is covered by an invalidation of target. An empty
// target Param covers every parameter of the name.
func (k Key) Matches(target Key) bool {
	return k.Scope == target.Scope && k.Name == target.Name && (target.Param == "" || k.Param == target.Param)
}

func (k Key) String() string {
	return strings.Join([]string{k.Scope, k.Name, k.Param}, "|")
}

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Result is what a read reports. Data is only meaningful when Status is
// StatusReady and Err only when it is StatusFailed.
type Result[T any] struct {
	Status Status
	Data   T
	Err    error
}

func (r Result[T]) Idle() bool { return r.Status == StatusIdle }
func (r Result[T]) Loading() bool { return r.Status == StatusLoading }
func (r Result[T]) Ready() bool { return r.Status == StatusReady }
func (r Result[T]) Failed() bool { return r.Status == StatusFailed }
