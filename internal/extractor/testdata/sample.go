// Package sample exercises the extractor.
//
// @Suite("sample")
package sample

import "fmt"

// Version is the application version.
const Version = "1.0.0"

// Status is the outcome of a handler.
type Status int

const (
	// StatusOK indicates success.
	StatusOK Status = iota + 200
	StatusAccepted
	// StatusError indicates failure.
	StatusError Status = 500
)

const maxRetries = 1 << 3

// GlobalVar is a global variable.
var GlobalVar = "hello"

// Base is a base struct.
type Base struct {
	ID int
}

// Identify returns the identifier.
//
// @Category("identity")
func (b *Base) Identify() int { return b.ID }

// User is a complex struct.
//
// @Category("model")
// @Owner(Team="core", Priority=2)
type User struct {
	Base
	Name, Nickname string `json:"name"`
	Age            int    `json:"age"`
	tags           []string
}

// NewUser creates a user.
func NewUser(name string, age int) *User {
	return &User{Name: name, Age: age}
}

// Handler is an interface.
type Handler interface {
	fmt.Stringer
	Handle(ctx string, data interface{}) (int, error)
	Close()
}

// Stack is a generic stack.
type Stack[T any] struct {
	items []T
}

// NewStack creates an empty stack.
func NewStack[E any]() *Stack[E] {
	return &Stack[E]{}
}

// Push adds v on top.
func (s *Stack[E]) Push(v E) { s.items = append(s.items, v) }

// Pop removes the top value.
func (s *Stack[E]) Pop() E {
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v
}

// Handle implements Handler.
func (u *User) Handle(ctx string, data interface{}) (int, error) {
	return int(StatusOK), nil
}

func (u *User) Close() {}

// String implements fmt.Stringer.
func (u *User) String() string { return u.Name }

// MyFunc is a function.
//
// @Category("free")
func MyFunc(a int, b string) bool {
	MyFunction("test")
	return true
}

// MyFunction is another function.
func MyFunction(s string, rest ...int) {}

// Map applies f to every value.
func Map[T, U any](values []T, f func(T) U) []U {
	out := make([]U, 0, len(values))
	for _, v := range values {
		out = append(out, f(v))
	}
	return out
}
